package payments

import (
	"context"

	"github.com/odyssey-erp/backoffice/internal/filterview"
)

// DefaultLimit caps the payments of one load.
const DefaultLimit = 200

// Service loads payments.
type Service struct {
	repo  Repository
	limit int
}

// NewService builds the service. A non-positive limit uses DefaultLimit.
func NewService(repo Repository, limit int) *Service {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Service{repo: repo, limit: limit}
}

// Load is the loader of the payments view.
func (s *Service) Load(ctx context.Context, values filterview.Values) (Result, error) {
	list, err := s.repo.List(ctx, FilterFromValues(values, s.limit))
	if err != nil {
		return Result{}, err
	}
	res := Result{Payments: list, Totals: make(map[string]int64)}
	for _, p := range list {
		res.Totals[p.Currency] += p.Amount
	}
	return res, nil
}
