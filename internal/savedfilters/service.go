package savedfilters

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Service validates input and coordinates the store.
type Service struct {
	store    Store
	validate *validator.Validate
	now      func() time.Time
}

// NewService wires a Store. A nil validate uses a fresh validator.
func NewService(store Store, validate *validator.Validate) *Service {
	if validate == nil {
		validate = validator.New()
	}
	return &Service{store: store, validate: validate, now: time.Now}
}

// Create validates and stores a new filter, making it the default when asked.
func (s *Service) Create(ctx context.Context, in CreateInput) (SavedFilter, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validate.Struct(in); err != nil {
		return SavedFilter{}, fmt.Errorf("savedfilters: invalid input: %w", err)
	}
	if _, err := url.ParseQuery(in.Query); err != nil {
		return SavedFilter{}, fmt.Errorf("savedfilters: invalid query: %w", err)
	}
	f := SavedFilter{
		ID:        uuid.NewString(),
		Owner:     in.Owner,
		View:      in.View,
		Name:      in.Name,
		Query:     in.Query,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Insert(ctx, f); err != nil {
		return SavedFilter{}, err
	}
	if in.IsDefault {
		if err := s.store.SetDefault(ctx, f.Owner, f.View, f.ID); err != nil {
			return SavedFilter{}, err
		}
		f.IsDefault = true
	}
	return f, nil
}

// List returns the owner's filters for view.
func (s *Service) List(ctx context.Context, owner, view string) ([]SavedFilter, error) {
	return s.store.List(ctx, owner, view)
}

// Get returns one filter of the owner.
func (s *Service) Get(ctx context.Context, owner, id string) (SavedFilter, error) {
	if _, err := uuid.Parse(id); err != nil {
		return SavedFilter{}, ErrNotFound
	}
	return s.store.Get(ctx, owner, id)
}

// Delete removes one filter of the owner.
func (s *Service) Delete(ctx context.Context, owner, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	return s.store.Delete(ctx, owner, id)
}

// SetDefault makes id the default of its view; calling it on the current
// default clears it.
func (s *Service) SetDefault(ctx context.Context, owner, id string) error {
	f, err := s.Get(ctx, owner, id)
	if err != nil {
		return err
	}
	if f.IsDefault {
		return s.store.SetDefault(ctx, owner, f.View, "")
	}
	return s.store.SetDefault(ctx, owner, f.View, f.ID)
}

// Default returns the default filter of view, if one is set.
func (s *Service) Default(ctx context.Context, owner, view string) (SavedFilter, bool, error) {
	f, err := s.store.Default(ctx, owner, view)
	if errors.Is(err, ErrNotFound) {
		return SavedFilter{}, false, nil
	}
	if err != nil {
		return SavedFilter{}, false, err
	}
	return f, true, nil
}

// Values parses the stored query.
func (f SavedFilter) Values() url.Values {
	q, err := url.ParseQuery(f.Query)
	if err != nil {
		return url.Values{}
	}
	return q
}
