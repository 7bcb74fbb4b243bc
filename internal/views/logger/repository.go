package logger

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Repository reads log entries.
type Repository interface {
	List(ctx context.Context, f Filter) ([]Entry, error)
}

type querier interface {
	Query(context.Context, string, ...any) (pgx.Rows, error)
}

// PGRepository reads the log_entries table.
type PGRepository struct {
	db querier
}

// NewRepository builds a repository on a pgx pool.
func NewRepository(db querier) *PGRepository {
	return &PGRepository{db: db}
}

// List returns matching entries, newest first.
func (r *PGRepository) List(ctx context.Context, f Filter) ([]Entry, error) {
	sql, args := buildListQuery(f)
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("logger: list entries: %w", err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var e Entry
		err := row.Scan(&e.ID, &e.AccountID, &e.Level, &e.Title, &e.Message, &e.NeedToFix, &e.CreatedAt)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("logger: scan entries: %w", err)
	}
	return entries, nil
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
	if f.AccountID != nil {
		add("account_id = $%d", *f.AccountID)
	}
	if f.NeedToFix != nil {
		add("need_to_fix = $%d", *f.NeedToFix)
	}
	if len(f.Levels) > 0 {
		add("level = ANY($%d)", f.Levels)
	}
	if f.Title != "" {
		add("title ILIKE $%d", "%"+f.Title+"%")
	}
	if f.CreatedFrom != nil {
		add("created_at >= $%d", *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		add("created_at < $%d", f.CreatedTo.AddDate(0, 0, 1))
	}

	var b strings.Builder
	b.WriteString("SELECT id, account_id, level, title, message, need_to_fix, created_at FROM log_entries")
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
