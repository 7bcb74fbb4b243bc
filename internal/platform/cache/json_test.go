package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedRange struct {
	From  string `json:"from"`
	Total int64  `json:"total"`
}

func newTestCache(t *testing.T) (*JSONCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewJSONCache(client, "stats", time.Minute), mr
}

func TestFetchJSONCachesLoaderResult(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	key, err := c.Key(ctx, "daily", "2024-01-01", "2024-01-14")
	require.NoError(t, err)
	assert.Equal(t, "stats:daily:2024-01-01:2024-01-14:v1", key)

	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return cachedRange{From: "2024-01-01", Total: 42}, nil
	}

	var first, second cachedRange
	require.NoError(t, c.FetchJSON(ctx, key, &first, loader))
	require.NoError(t, c.FetchJSON(ctx, key, &second, loader))
	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Minute, mr.TTL(key))
}

func TestFetchJSONDoesNotCacheErrors(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	boom := errors.New("db down")

	var out cachedRange
	err := c.FetchJSON(ctx, "stats:k", &out, func(context.Context) (any, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("stats:k"))
}

func TestBumpChangesKeys(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	before, err := c.Key(ctx, "daily")
	require.NoError(t, err)
	require.NoError(t, c.Bump(ctx))
	after, err := c.Key(ctx, "daily")
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
}

func TestNilClientCallsLoader(t *testing.T) {
	c := NewJSONCache(nil, "stats", time.Minute)
	var out cachedRange
	err := c.FetchJSON(context.Background(), "k", &out, func(context.Context) (any, error) {
		return cachedRange{Total: 7}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), out.Total)
}
