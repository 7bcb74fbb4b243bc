package logger

import (
	"github.com/odyssey-erp/backoffice/internal/filterview"
	"github.com/odyssey-erp/backoffice/internal/views"
)

// Name is the route segment of the logger view.
const Name = "logger"

// Definition wires the logger view.
func Definition(svc *Service) views.Definition[Result] {
	return views.Definition[Result]{
		Name:   Name,
		Title:  "Logs",
		Schema: Schema,
		Load:   svc.Load,
		Toggles: []views.ToggleBinding{
			{Group: FieldNeedToFix, Field: FieldNeedToFix, Options: []string{"true", "false"}},
		},
		Present: Present,
	}
}

// Row is one rendered entry.
type Row struct {
	ID        int64  `json:"id"`
	AccountID int64  `json:"account_id"`
	Level     string `json:"level"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	NeedToFix bool   `json:"need_to_fix"`
	CreatedAt string `json:"created_at"`
}

// Page is the logger data as shown on the page.
type Page struct {
	Rows         []Row `json:"rows"`
	NeedFixCount int   `json:"need_fix_count"`
	Truncated    bool  `json:"truncated"`
}

// Present renders the committed entries.
func Present(v filterview.View[Result]) any {
	page := Page{
		Rows:         make([]Row, 0, len(v.Data.Entries)),
		NeedFixCount: v.Data.NeedFixCount(),
		Truncated:    v.Data.Truncated,
	}
	for _, e := range v.Data.Entries {
		page.Rows = append(page.Rows, Row{
			ID:        e.ID,
			AccountID: e.AccountID,
			Level:     e.Level,
			Title:     e.Title,
			Message:   e.Message,
			NeedToFix: e.NeedToFix,
			CreatedAt: e.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		})
	}
	return page
}
