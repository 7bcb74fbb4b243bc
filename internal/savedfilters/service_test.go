package savedfilters

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	rows map[string]SavedFilter
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[string]SavedFilter)}
}

func (m *memStore) Insert(ctx context.Context, f SavedFilter) error {
	for _, existing := range m.rows {
		if existing.Owner == f.Owner && existing.View == f.View && existing.Name == f.Name {
			return ErrDuplicateName
		}
	}
	m.rows[f.ID] = f
	return nil
}

func (m *memStore) List(ctx context.Context, owner, view string) ([]SavedFilter, error) {
	var out []SavedFilter
	for _, f := range m.rows {
		if f.Owner == owner && f.View == view {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) Get(ctx context.Context, owner, id string) (SavedFilter, error) {
	f, ok := m.rows[id]
	if !ok || f.Owner != owner {
		return SavedFilter{}, ErrNotFound
	}
	return f, nil
}

func (m *memStore) Delete(ctx context.Context, owner, id string) error {
	if _, err := m.Get(ctx, owner, id); err != nil {
		return err
	}
	delete(m.rows, id)
	return nil
}

func (m *memStore) SetDefault(ctx context.Context, owner, view, id string) error {
	for key, f := range m.rows {
		if f.Owner == owner && f.View == view {
			f.IsDefault = key == id
			m.rows[key] = f
		}
	}
	return nil
}

func (m *memStore) Default(ctx context.Context, owner, view string) (SavedFilter, error) {
	for _, f := range m.rows {
		if f.Owner == owner && f.View == view && f.IsDefault {
			return f, nil
		}
	}
	return SavedFilter{}, ErrNotFound
}

func TestCreateValidatesInput(t *testing.T) {
	svc := NewService(newMemStore(), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Owner: "admin", View: "orders", Name: "x"})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "View", verrs[0].Field())

	_, err = svc.Create(ctx, CreateInput{Owner: "admin", View: "logger", Name: "   "})
	assert.Error(t, err)

	_, err = svc.Create(ctx, CreateInput{Owner: "admin", View: "logger", Name: "bad", Query: "a=%zz"})
	assert.Error(t, err)
}

func TestCreateAndDefaultLifecycle(t *testing.T) {
	svc := NewService(newMemStore(), nil)
	ctx := context.Background()

	_, found, err := svc.Default(ctx, "admin", "logger")
	require.NoError(t, err)
	assert.False(t, found)

	errs, err := svc.Create(ctx, CreateInput{Owner: "admin", View: "logger", Name: "Errors", Query: "level=error", IsDefault: true})
	require.NoError(t, err)
	assert.True(t, errs.IsDefault)
	assert.Equal(t, []string{"error"}, errs.Values()["level"])

	acct, err := svc.Create(ctx, CreateInput{Owner: "admin", View: "logger", Name: "Account 42", Query: "accountId=42"})
	require.NoError(t, err)

	def, found, err := svc.Default(ctx, "admin", "logger")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, errs.ID, def.ID)

	require.NoError(t, svc.SetDefault(ctx, "admin", acct.ID))
	def, _, _ = svc.Default(ctx, "admin", "logger")
	assert.Equal(t, acct.ID, def.ID)

	// Setting the current default again clears it.
	require.NoError(t, svc.SetDefault(ctx, "admin", acct.ID))
	_, found, _ = svc.Default(ctx, "admin", "logger")
	assert.False(t, found)

	_, err = svc.Create(ctx, CreateInput{Owner: "admin", View: "logger", Name: "Errors"})
	assert.ErrorIs(t, err, ErrDuplicateName)

	list, err := svc.List(ctx, "admin", "logger")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestOwnershipIsEnforced(t *testing.T) {
	svc := NewService(newMemStore(), nil)
	ctx := context.Background()
	f, err := svc.Create(ctx, CreateInput{Owner: "alice", View: "payments", Name: "EP", Query: "type=ep"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, "bob", f.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "bob", f.ID), ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "alice", "not-a-uuid"), ErrNotFound)
	require.NoError(t, svc.Delete(ctx, "alice", f.ID))
}

func TestMapErrorDetectsUniqueViolation(t *testing.T) {
	err := mapError(&pgconn.PgError{Code: "23505", ConstraintName: "saved_filters_owner_view_name_key"})
	assert.ErrorIs(t, err, ErrDuplicateName)

	other := errors.New("connection reset")
	assert.ErrorIs(t, mapError(other), other)
	assert.NotErrorIs(t, mapError(other), ErrDuplicateName)
	assert.NoError(t, mapError(nil))
}
