package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()

	mr := miniredis.RunT(t)
	store := NewRedisStore(mr.Addr(), "badge:")
	t.Cleanup(func() { store.Close() })

	return mr, store
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()

	t.Run("set applies prefix and ttl", func(t *testing.T) {
		mr, store := setupTestRedis(t)

		require.NoError(t, store.Set(ctx, "api:me/player/currently-playing", []byte(`{"item":null}`), time.Minute))

		val, err := mr.Get("badge:api:me/player/currently-playing")
		require.NoError(t, err)
		assert.Equal(t, `{"item":null}`, val)
		assert.Equal(t, time.Minute, mr.TTL("badge:api:me/player/currently-playing"))
	})

	t.Run("get misses after expiry", func(t *testing.T) {
		mr, store := setupTestRedis(t)
		require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))

		mr.FastForward(59 * time.Second)
		value, ok, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []byte("v"), value)

		mr.FastForward(time.Second)
		_, ok, err = store.Get(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("zero ttl stores nothing", func(t *testing.T) {
		mr, store := setupTestRedis(t)
		require.NoError(t, store.Set(ctx, "k", []byte("v"), 0))
		assert.False(t, mr.Exists("badge:k"))
	})

	t.Run("clear only touches prefixed keys", func(t *testing.T) {
		mr, store := setupTestRedis(t)
		require.NoError(t, mr.Set("other", "keep"))
		require.NoError(t, store.Set(ctx, "a", []byte("1"), time.Hour))
		require.NoError(t, store.Set(ctx, "b", []byte("2"), time.Hour))

		require.NoError(t, store.Clear(ctx))
		assert.False(t, mr.Exists("badge:a"))
		assert.False(t, mr.Exists("badge:b"))
		assert.True(t, mr.Exists("other"))
	})

	t.Run("get surfaces connection errors", func(t *testing.T) {
		mr, store := setupTestRedis(t)
		mr.Close()

		_, _, err := store.Get(ctx, "k")
		assert.Error(t, err)
	})
}
