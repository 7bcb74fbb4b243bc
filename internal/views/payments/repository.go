package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Repository reads payments.
type Repository interface {
	List(ctx context.Context, f Filter) ([]Payment, error)
}

type querier interface {
	Query(context.Context, string, ...any) (pgx.Rows, error)
}

// PGRepository reads the payments table.
type PGRepository struct {
	db querier
}

// NewRepository builds a repository on a pgx pool.
func NewRepository(db querier) *PGRepository {
	return &PGRepository{db: db}
}

// List returns payments whose period lies within the filter dates, newest first.
func (r *PGRepository) List(ctx context.Context, f Filter) ([]Payment, error) {
	sql, args := buildListQuery(f)
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("payments: list: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Payment, error) {
		var p Payment
		err := row.Scan(&p.ID, &p.Type, &p.AccountID, &p.UserID, &p.Amount, &p.Currency, &p.StartDate, &p.EndDate, &p.CreatedAt)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("payments: scan: %w", err)
	}
	return out, nil
}

func buildListQuery(f Filter) (string, []any) {
	var (
		where  []string
		args   []any
		argPos = 1
	)
	add := func(clause string, arg any) {
		where = append(where, fmt.Sprintf(clause, argPos))
		args = append(args, arg)
		argPos++
	}
	if f.Type != "" {
		add("type = $%d", f.Type)
	}
	if f.StartDate != nil {
		add("start_date >= $%d", *f.StartDate)
	}
	if f.EndDate != nil {
		add("end_date <= $%d", *f.EndDate)
	}
	if f.AccountID != nil {
		add("account_id = $%d", *f.AccountID)
	}
	if f.UserID != nil {
		add("user_id = $%d", *f.UserID)
	}

	var b strings.Builder
	b.WriteString("SELECT id, type, account_id, user_id, amount, currency, start_date, end_date, created_at FROM payments")
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY created_at DESC, id DESC")
	if f.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT $%d", argPos)
		args = append(args, f.Limit)
	}
	return b.String(), args
}
