package viewsession

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeView struct {
	name   string
	closed atomic.Int32
}

func (f *fakeView) Close() error {
	f.closed.Add(1)
	return nil
}

func TestGetOrCreateReusesEntry(t *testing.T) {
	reg := NewRegistry[*fakeView](time.Minute, nil)
	key := Key{Session: "s1", View: "logger"}

	first, created, err := reg.GetOrCreate(key, func() (*fakeView, error) { return &fakeView{name: "a"}, nil })
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := reg.GetOrCreate(key, func() (*fakeView, error) { return &fakeView{name: "b"}, nil })
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, first, second)

	other, created, err := reg.GetOrCreate(Key{Session: "s1", View: "stats"}, func() (*fakeView, error) { return &fakeView{}, nil })
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotSame(t, first, other)
	assert.Equal(t, 2, reg.Len())
}

func TestCreateErrorIsNotStored(t *testing.T) {
	reg := NewRegistry[*fakeView](time.Minute, nil)
	boom := errors.New("boom")
	_, _, err := reg.GetOrCreate(Key{Session: "s"}, func() (*fakeView, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, reg.Len())
}

func TestSweepClosesIdleEntries(t *testing.T) {
	reg := NewRegistry[*fakeView](time.Minute, nil)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return now }

	idle := &fakeView{}
	busy := &fakeView{}
	_, _, _ = reg.GetOrCreate(Key{Session: "idle"}, func() (*fakeView, error) { return idle, nil })
	_, _, _ = reg.GetOrCreate(Key{Session: "busy"}, func() (*fakeView, error) { return busy, nil })

	now = now.Add(50 * time.Second)
	_, ok := reg.Get(Key{Session: "busy"})
	require.True(t, ok)

	now = now.Add(30 * time.Second)
	assert.Equal(t, 1, reg.Sweep())
	assert.Equal(t, int32(1), idle.closed.Load())
	assert.Equal(t, int32(0), busy.closed.Load())

	_, ok = reg.Get(Key{Session: "idle"})
	assert.False(t, ok)
}

func TestRemoveAndCloseCloseEntries(t *testing.T) {
	reg := NewRegistry[*fakeView](time.Minute, nil)
	a, b := &fakeView{}, &fakeView{}
	_, _, _ = reg.GetOrCreate(Key{Session: "a"}, func() (*fakeView, error) { return a, nil })
	_, _, _ = reg.GetOrCreate(Key{Session: "b"}, func() (*fakeView, error) { return b, nil })

	require.NoError(t, reg.Remove(Key{Session: "a"}))
	assert.Equal(t, int32(1), a.closed.Load())
	require.NoError(t, reg.Remove(Key{Session: "missing"}))

	require.NoError(t, reg.Close())
	assert.Equal(t, int32(1), b.closed.Load())
	_, _, err := reg.GetOrCreate(Key{Session: "c"}, func() (*fakeView, error) { return &fakeView{}, nil })
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMiddlewareAssignsAndKeepsID(t *testing.T) {
	var seen string
	handler := Middleware(time.Hour, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = IDFromContext(r.Context())
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/stats", nil))
	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, seen, cookies[0].Value)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: seen})
	first := seen
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, first, seen)

	req = httptest.NewRequest(http.MethodGet, "/stats", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "not-a-uuid"})
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.NotEqual(t, "not-a-uuid", seen)
}
