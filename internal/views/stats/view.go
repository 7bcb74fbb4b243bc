package stats

import (
	"fmt"
	"time"

	"github.com/odyssey-erp/backoffice/internal/filterview"
	"github.com/odyssey-erp/backoffice/internal/platform/money"
	"github.com/odyssey-erp/backoffice/internal/views"
)

// Name is the route segment of the stats view.
const Name = "stats"

// Definition wires the stats view. now fixes the default date range and f
// renders revenue.
func Definition(svc *Service, now func() time.Time, f *money.Formatter) views.Definition[Report] {
	if now == nil {
		now = time.Now
	}
	return views.Definition[Report]{
		Name:         Name,
		Title:        "Statistics",
		Schema:       Schema(now),
		Load:         svc.Load,
		WriteInitial: true,
		Actions: map[string]views.Action[Report]{
			"compare": func(s *views.Session[Report]) error {
				_, err := ToggleCompare(s.Controller)
				return err
			},
		},
		Present: presenter(f),
	}
}

// Row is one rendered day.
type Row struct {
	Day     string `json:"day"`
	Visits  int64  `json:"visits"`
	Signups int64  `json:"signups"`
	Revenue string `json:"revenue"`
}

// Summary is one rendered range.
type Summary struct {
	Label   string `json:"label"`
	Rows    []Row  `json:"rows"`
	Visits  int64  `json:"visits"`
	Signups int64  `json:"signups"`
	Revenue string `json:"revenue"`
}

// Page is the stats data as shown on the page.
type Page struct {
	CompareMode bool     `json:"compare_mode"`
	Current     Summary  `json:"current"`
	Compare     *Summary `json:"compare,omitempty"`
	Delta       []string `json:"delta,omitempty"`
}

// presenter renders the committed report. Compare mode follows the filter
// state, not the data, so it flips as soon as the toggle is used.
func presenter(f *money.Formatter) func(filterview.View[Report]) any {
	return func(v filterview.View[Report]) any {
		return present(v, f)
	}
}

func present(v filterview.View[Report], f *money.Formatter) Page {
	page := Page{Current: summarize(v.Data.Current, f)}
	for _, f := range v.Fields {
		if f.Name == FieldCompareDateFrom {
			page.CompareMode = f.Enabled
		}
	}
	if v.Data.Compare != nil {
		cmp := summarize(*v.Data.Compare, f)
		page.Compare = &cmp
	}
	if d := v.Data.Delta; d != nil {
		page.Delta = []string{
			"Visits " + percent(d.Visits),
			"Signups " + percent(d.Signups),
			"Revenue " + percent(d.Revenue),
		}
	}
	return page
}

func summarize(s Series, f *money.Formatter) Summary {
	out := Summary{
		Label:   filterview.FormatDate(s.From) + " to " + filterview.FormatDate(s.To),
		Visits:  s.Totals.Visits,
		Signups: s.Totals.Signups,
		Revenue: f.Decimal(s.Totals.RevenueCents, 2),
		Rows:    make([]Row, 0, len(s.Points)),
	}
	for _, p := range s.Points {
		out.Rows = append(out.Rows, Row{
			Day:     filterview.FormatDate(p.Day),
			Visits:  p.Visits,
			Signups: p.Signups,
			Revenue: f.Decimal(p.RevenueCents, 2),
		})
	}
	return out
}

func percent(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%+.1f%%", *v)
}
