package payments

import (
	"maps"
	"slices"

	"github.com/odyssey-erp/backoffice/internal/filterview"
	"github.com/odyssey-erp/backoffice/internal/platform/money"
	"github.com/odyssey-erp/backoffice/internal/views"
)

// Name is the route segment of the payments view.
const Name = "payments"

// Definition wires the payments view. Amounts are rendered with f.
func Definition(svc *Service, f *money.Formatter) views.Definition[Result] {
	return views.Definition[Result]{
		Name:   Name,
		Title:  "Payments",
		Schema: Schema,
		Load:   svc.Load,
		Toggles: []views.ToggleBinding{
			{Group: FieldType, Field: FieldType, Options: Types},
		},
		Present: presenter(f),
	}
}

// Row is one rendered payment.
type Row struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	AccountID int64  `json:"account_id"`
	UserID    int64  `json:"user_id"`
	Amount    string `json:"amount"`
	Period    string `json:"period"`
}

// Page is the payments data as shown on the page.
type Page struct {
	Rows   []Row    `json:"rows"`
	Totals []string `json:"totals"`
}

func presenter(f *money.Formatter) func(filterview.View[Result]) any {
	return func(v filterview.View[Result]) any {
		page := Page{Rows: make([]Row, 0, len(v.Data.Payments))}
		for _, p := range v.Data.Payments {
			page.Rows = append(page.Rows, Row{
				ID:        p.ID,
				Type:      p.Type,
				AccountID: p.AccountID,
				UserID:    p.UserID,
				Amount:    f.Amount(p.Amount, p.Currency),
				Period:    filterview.FormatDate(p.StartDate) + " to " + filterview.FormatDate(p.EndDate),
			})
		}
		for _, code := range slices.Sorted(maps.Keys(v.Data.Totals)) {
			page.Totals = append(page.Totals, f.Amount(v.Data.Totals[code], code))
		}
		return page
	}
}
