// Package savedfilters stores named query-string snapshots of the filtered views.
package savedfilters

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a saved filter does not exist for the owner.
	ErrNotFound = errors.New("savedfilters: not found")
	// ErrDuplicateName is returned when the owner already saved a filter with the name.
	ErrDuplicateName = errors.New("savedfilters: duplicate name")
)

// SavedFilter is a named snapshot of a view's owned query parameters.
type SavedFilter struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	View      string    `json:"view"`
	Name      string    `json:"name"`
	Query     string    `json:"query"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateInput carries a new saved filter.
type CreateInput struct {
	Owner     string `validate:"required,max=64"`
	View      string `validate:"required,oneof=stats logger payments"`
	Name      string `validate:"required,max=80"`
	Query     string `validate:"max=2048"`
	IsDefault bool
}
