package logger

import (
	"context"

	"github.com/odyssey-erp/backoffice/internal/filterview"
)

// DefaultLimit caps the entries of one load.
const DefaultLimit = 200

// Service loads log entries.
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

// Load is the loader of the logger view. One extra row is requested to
// detect truncation.
func (s *Service) Load(ctx context.Context, values filterview.Values) (Result, error) {
	entries, err := s.repo.List(ctx, FilterFromValues(values, s.limit+1))
	if err != nil {
		return Result{}, err
	}
	res := Result{Entries: entries}
	if len(entries) > s.limit {
		res.Entries = entries[:s.limit]
		res.Truncated = true
	}
	return res, nil
}
