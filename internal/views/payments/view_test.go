package payments_test

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/backoffice/internal/filterview"
	"github.com/odyssey-erp/backoffice/internal/platform/money"
	"github.com/odyssey-erp/backoffice/internal/views"
	"github.com/odyssey-erp/backoffice/internal/views/payments"
)

const waitFor = 2 * time.Second

type stubRepo struct {
	mu       sync.Mutex
	filters  []payments.Filter
	payments []payments.Payment
	failures int
}

func (r *stubRepo) List(_ context.Context, f payments.Filter) ([]payments.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters = append(r.filters, f)
	if r.failures > 0 {
		r.failures--
		return nil, errors.New("connection reset")
	}
	return r.payments, nil
}

func (r *stubRepo) calls() []payments.Filter {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]payments.Filter(nil), r.filters...)
}

func openPayments(t *testing.T, repo *stubRepo, initial url.Values) *views.Session[payments.Result] {
	t.Helper()
	f, err := money.NewFormatter("en-US")
	require.NoError(t, err)
	def := payments.Definition(payments.NewService(repo, 0), f)
	s, err := views.Open(context.Background(), def, initial, views.Options{
		Retry: filterview.RetryPolicy{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestHydratesAccountAndUser(t *testing.T) {
	repo := &stubRepo{}
	s := openPayments(t, repo, url.Values{"accountId": {"12"}, "userId": {"abc"}})

	require.Eventually(t, func() bool {
		_, ok := s.Controller.Data()
		return ok
	}, waitFor, time.Millisecond)
	assert.Equal(t, int64(12), s.Controller.Value(payments.FieldAccountID))
	assert.Nil(t, s.Controller.Value(payments.FieldUserID))
	calls := repo.calls()
	require.Len(t, calls, 1)
	require.NotNil(t, calls[0].AccountID)
	assert.Equal(t, int64(12), *calls[0].AccountID)
	assert.Nil(t, calls[0].UserID)
}

func TestTypeToggleSelectsAndClears(t *testing.T) {
	repo := &stubRepo{}
	s := openPayments(t, repo, nil)

	_, err := s.Toggle(payments.FieldType, payments.TypeESV)
	require.NoError(t, err)
	assert.Equal(t, payments.TypeESV, s.Controller.Value(payments.FieldType))

	_, err = s.Toggle(payments.FieldType, payments.TypeEP)
	require.NoError(t, err)
	assert.Equal(t, payments.TypeEP, s.Controller.Value(payments.FieldType))

	change, err := s.Toggle(payments.FieldType, payments.TypeEP)
	require.NoError(t, err)
	assert.False(t, change.Selected)
	assert.Nil(t, s.Controller.Value(payments.FieldType))

	require.Eventually(t, func() bool {
		return !s.Location.Query().Has(payments.FieldType) && !s.Controller.IsLoading()
	}, waitFor, time.Millisecond)

	states := s.ToggleStates()
	require.Len(t, states, 1)
	assert.Empty(t, states[0].Selected)
}

func TestUnknownTypeOptionRejected(t *testing.T) {
	s := openPayments(t, &stubRepo{}, nil)
	_, err := s.Toggle(payments.FieldType, "wire")
	require.Error(t, err)
}

func TestLoadRetriesTransientFailure(t *testing.T) {
	repo := &stubRepo{failures: 2, payments: []payments.Payment{{ID: 1, Amount: 1500, Currency: "USD"}}}
	s := openPayments(t, repo, nil)

	require.Eventually(t, func() bool {
		_, ok := s.Controller.Data()
		return ok
	}, waitFor, time.Millisecond)
	assert.Len(t, repo.calls(), 3)
	assert.NoError(t, s.Controller.Status().Err)
}

func TestPresentFormatsAmountsAndTotals(t *testing.T) {
	repo := &stubRepo{payments: []payments.Payment{
		{ID: 1, Type: payments.TypeEP, Amount: 123456, Currency: "USD",
			StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)},
		{ID: 2, Type: payments.TypeEP, Amount: 44, Currency: "USD"},
	}}
	s := openPayments(t, repo, nil)
	require.Eventually(t, func() bool {
		_, ok := s.Controller.Data()
		return ok
	}, waitFor, time.Millisecond)

	f, err := money.NewFormatter("en-US")
	require.NoError(t, err)
	page := views.BuildPage(payments.Definition(payments.NewService(repo, 0), f), s)
	data, ok := page.Data.(payments.Page)
	require.True(t, ok)
	require.Len(t, data.Rows, 2)
	assert.Equal(t, "USD 1,234.56", data.Rows[0].Amount)
	assert.Equal(t, "2024-01-01 to 2024-01-31", data.Rows[0].Period)
	assert.Equal(t, []string{"USD 1,235.00"}, data.Totals)
}
