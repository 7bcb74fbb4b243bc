package savedfilters

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/odyssey-erp/backoffice/internal/platform/db"
)

const uniqueViolation = "23505"

// Store persists saved filters.
type Store interface {
	Insert(ctx context.Context, f SavedFilter) error
	List(ctx context.Context, owner, view string) ([]SavedFilter, error)
	Get(ctx context.Context, owner, id string) (SavedFilter, error)
	Delete(ctx context.Context, owner, id string) error
	SetDefault(ctx context.Context, owner, view, id string) error
	Default(ctx context.Context, owner, view string) (SavedFilter, error)
}

type dbtx interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

type pool interface {
	dbtx
	db.Beginner
}

// PGStore is the PostgreSQL Store.
type PGStore struct {
	db pool
}

// NewPGStore builds a store on a pgx pool.
func NewPGStore(p pool) *PGStore {
	return &PGStore{db: p}
}

const selectColumns = `id, owner, view, name, query, is_default, created_at`

// Insert stores f. A name already used by the owner for the view yields ErrDuplicateName.
func (s *PGStore) Insert(ctx context.Context, f SavedFilter) error {
	_, err := s.db.Exec(ctx, `INSERT INTO saved_filters (id, owner, view, name, query, is_default, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`, f.ID, f.Owner, f.View, f.Name, f.Query, f.IsDefault, f.CreatedAt)
	return mapError(err)
}

// List returns the owner's filters for view, defaults first.
func (s *PGStore) List(ctx context.Context, owner, view string) ([]SavedFilter, error) {
	rows, err := s.db.Query(ctx, `SELECT `+selectColumns+` FROM saved_filters
WHERE owner = $1 AND view = $2 ORDER BY is_default DESC, name`, owner, view)
	if err != nil {
		return nil, fmt.Errorf("savedfilters: list: %w", err)
	}
	defer rows.Close()

	var out []SavedFilter
	for rows.Next() {
		f, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("savedfilters: list: %w", err)
	}
	return out, nil
}

// Get loads one of the owner's filters.
func (s *PGStore) Get(ctx context.Context, owner, id string) (SavedFilter, error) {
	row := s.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM saved_filters WHERE owner = $1 AND id = $2`, owner, id)
	return scan(row)
}

// Delete removes one of the owner's filters.
func (s *PGStore) Delete(ctx context.Context, owner, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM saved_filters WHERE owner = $1 AND id = $2`, owner, id)
	if err != nil {
		return fmt.Errorf("savedfilters: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetDefault makes id the only default of the owner's view. An empty id clears it.
func (s *PGStore) SetDefault(ctx context.Context, owner, view, id string) error {
	return db.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE saved_filters SET is_default = FALSE
WHERE owner = $1 AND view = $2 AND is_default`, owner, view); err != nil {
			return fmt.Errorf("savedfilters: clear default: %w", err)
		}
		if id == "" {
			return nil
		}
		tag, err := tx.Exec(ctx, `UPDATE saved_filters SET is_default = TRUE
WHERE owner = $1 AND view = $2 AND id = $3`, owner, view, id)
		if err != nil {
			return fmt.Errorf("savedfilters: set default: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// Default returns the owner's default filter for view.
func (s *PGStore) Default(ctx context.Context, owner, view string) (SavedFilter, error) {
	row := s.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM saved_filters
WHERE owner = $1 AND view = $2 AND is_default LIMIT 1`, owner, view)
	return scan(row)
}

func scan(row pgx.Row) (SavedFilter, error) {
	var f SavedFilter
	err := row.Scan(&f.ID, &f.Owner, &f.View, &f.Name, &f.Query, &f.IsDefault, &f.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return SavedFilter{}, ErrNotFound
	}
	if err != nil {
		return SavedFilter{}, fmt.Errorf("savedfilters: scan: %w", err)
	}
	return f, nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicateName, pgErr.ConstraintName)
	}
	return fmt.Errorf("savedfilters: insert: %w", err)
}
