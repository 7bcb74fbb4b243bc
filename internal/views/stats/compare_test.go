package stats_test

import (
	"context"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/backoffice/internal/filterview"
	"github.com/odyssey-erp/backoffice/internal/platform/money"
	"github.com/odyssey-erp/backoffice/internal/views"
	"github.com/odyssey-erp/backoffice/internal/views/stats"
)

const waitFor = 2 * time.Second

var fixedNow = func() time.Time { return time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC) }

type countingRepo struct {
	calls atomic.Int32
	rows  []stats.Point
}

func (r *countingRepo) Daily(_ context.Context, from, to time.Time) ([]stats.Point, error) {
	r.calls.Add(1)
	var out []stats.Point
	for _, p := range r.rows {
		if !p.Day.Before(from) && !p.Day.After(to) {
			out = append(out, p)
		}
	}
	return out, nil
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := filterview.ParseDate(s)
	require.NoError(t, err)
	return d
}

func openStats(t *testing.T, initial url.Values) (*views.Session[stats.Report], *countingRepo) {
	t.Helper()
	repo := &countingRepo{}
	return openStatsWith(t, repo, "en-US", initial), repo
}

func openStatsWith(t *testing.T, repo *countingRepo, locale string, initial url.Values) *views.Session[stats.Report] {
	t.Helper()
	f, err := money.NewFormatter(locale)
	require.NoError(t, err)
	def := stats.Definition(stats.NewService(repo, nil), fixedNow, f)
	s, err := views.Open(context.Background(), def, initial, views.Options{
		Retry: filterview.RetryPolicy{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.Eventually(t, func() bool {
		_, ok := s.Controller.Data()
		return ok && !s.Controller.IsLoading()
	}, waitFor, time.Millisecond)
	return s
}

func TestDefaultsWrittenToLocation(t *testing.T) {
	s, _ := openStats(t, url.Values{"tab": {"stats"}})

	require.Eventually(t, func() bool {
		return s.Location.Query().Get(stats.FieldDateTo) == "2024-03-15"
	}, waitFor, time.Millisecond)
	q := s.Location.Query()
	assert.Equal(t, "2024-03-01", q.Get(stats.FieldDateFrom))
	assert.Equal(t, "stats", q.Get("tab"))
	assert.False(t, q.Has(stats.FieldCompareDateFrom))
	assert.False(t, stats.CompareMode(s.Controller))
}

func TestCompareToggleRoundTrip(t *testing.T) {
	s, repo := openStats(t, nil)
	ctrl := s.Controller
	loads := repo.calls.Load()

	on, err := stats.ToggleCompare(ctrl)
	require.NoError(t, err)
	require.True(t, on)
	assert.True(t, ctrl.Enabled(stats.FieldCompareDateFrom))
	assert.True(t, ctrl.Enabled(stats.FieldCompareDateTo))
	assert.False(t, ctrl.Valid(), "empty compare dates keep the filters invalid")
	assert.False(t, ctrl.IsLoading())
	assert.Equal(t, loads, repo.calls.Load())

	require.NoError(t, ctrl.SetFields(map[string]any{
		stats.FieldCompareDateFrom: date(t, "2024-02-01"),
		stats.FieldCompareDateTo:   date(t, "2024-02-14"),
	}))
	require.True(t, ctrl.Valid())
	require.Eventually(t, func() bool {
		report, ok := ctrl.Data()
		return ok && report.Compare != nil && !ctrl.IsLoading()
	}, waitFor, time.Millisecond)
	require.Eventually(t, func() bool {
		return s.Location.Query().Get(stats.FieldCompareDateTo) == "2024-02-14"
	}, waitFor, time.Millisecond)

	on, err = stats.ToggleCompare(ctrl)
	require.NoError(t, err)
	require.False(t, on)
	assert.Nil(t, ctrl.Value(stats.FieldCompareDateFrom))
	assert.Nil(t, ctrl.Value(stats.FieldCompareDateTo))
	assert.False(t, ctrl.Enabled(stats.FieldCompareDateFrom))
	assert.True(t, ctrl.Valid())
	require.Eventually(t, func() bool {
		report, ok := ctrl.Data()
		return ok && report.Compare == nil && !s.Location.Query().Has(stats.FieldCompareDateFrom)
	}, waitFor, time.Millisecond)
}

func TestCompareModeFromInitialQuery(t *testing.T) {
	s, _ := openStats(t, url.Values{
		stats.FieldCompareDateFrom: {"2024-01-01"},
		stats.FieldCompareDateTo:   {"2024-01-10"},
	})
	assert.True(t, stats.CompareMode(s.Controller))
	report, ok := s.Controller.Data()
	require.True(t, ok)
	require.NotNil(t, report.Compare)
	assert.Len(t, report.Compare.Points, 10)
}

func TestInvalidCompareDateKeepsCompareOff(t *testing.T) {
	s, _ := openStats(t, url.Values{stats.FieldCompareDateFrom: {"2024-13-45"}})
	assert.False(t, stats.CompareMode(s.Controller))
}

func TestReversedRangeIsInvalid(t *testing.T) {
	s, repo := openStats(t, nil)
	loads := repo.calls.Load()

	require.NoError(t, s.Controller.SetField(stats.FieldDateFrom, date(t, "2024-04-01")))
	assert.False(t, s.Controller.Valid())
	assert.Equal(t, loads, repo.calls.Load())
}

func TestRevenueIsFormattedForLocale(t *testing.T) {
	repo := &countingRepo{rows: []stats.Point{
		{Day: date(t, "2024-03-14"), Visits: 4, RevenueCents: 123456},
	}}
	initial := url.Values{stats.FieldDateFrom: {"2024-03-14"}, stats.FieldDateTo: {"2024-03-15"}}
	s := openStatsWith(t, repo, "de-DE", initial)
	f, err := money.NewFormatter("de-DE")
	require.NoError(t, err)

	page := views.BuildPage(stats.Definition(stats.NewService(repo, nil), fixedNow, f), s)
	data, ok := page.Data.(stats.Page)
	require.True(t, ok)
	require.Len(t, data.Current.Rows, 2)
	assert.Equal(t, "1.234,56", data.Current.Rows[0].Revenue)
	assert.Equal(t, "0,00", data.Current.Rows[1].Revenue)
	assert.Equal(t, "1.234,56", data.Current.Revenue)
}
