package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Repository reads daily statistics.
type Repository interface {
	Daily(ctx context.Context, from, to time.Time) ([]Point, error)
}

type querier interface {
	Query(context.Context, string, ...any) (pgx.Rows, error)
}

// PGRepository reads the stats_daily table.
type PGRepository struct {
	db querier
}

// NewRepository builds a repository on a pgx pool.
func NewRepository(db querier) *PGRepository {
	return &PGRepository{db: db}
}

// Daily returns the stored days of [from, to] in order. Days without rows are omitted.
func (r *PGRepository) Daily(ctx context.Context, from, to time.Time) ([]Point, error) {
	rows, err := r.db.Query(ctx, `SELECT day, visits, signups, revenue_cents
FROM stats_daily WHERE day BETWEEN $1 AND $2 ORDER BY day`, from, to)
	if err != nil {
		return nil, fmt.Errorf("stats: query daily: %w", err)
	}
	points, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Point, error) {
		var p Point
		err := row.Scan(&p.Day, &p.Visits, &p.Signups, &p.RevenueCents)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("stats: scan daily: %w", err)
	}
	return points, nil
}
