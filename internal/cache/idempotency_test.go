package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisIdempotencyStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisIdempotencyStoreWithClient(client, "test:")
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func TestIdempotencyStores(t *testing.T) {
	ctx := context.Background()

	stores := map[string]func(t *testing.T) IdempotencyStore{
		"memory": func(t *testing.T) IdempotencyStore {
			s := NewInMemoryIdempotencyStore(time.Minute)
			t.Cleanup(func() { s.Close() })
			return s
		},
		"redis": func(t *testing.T) IdempotencyStore {
			s, _ := newRedisStore(t)
			return s
		},
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			t.Run("first mark wins", func(t *testing.T) {
				store := newStore(t)

				isNew, err := store.MarkProcessed(ctx, "sale-1", time.Hour)
				require.NoError(t, err)
				assert.True(t, isNew)

				isNew, err = store.MarkProcessed(ctx, "sale-1", time.Hour)
				require.NoError(t, err)
				assert.False(t, isNew, "repeated key must be rejected")
			})

			t.Run("forget allows a retry", func(t *testing.T) {
				store := newStore(t)

				_, err := store.MarkProcessed(ctx, "sale-2", time.Hour)
				require.NoError(t, err)
				require.NoError(t, store.Forget(ctx, "sale-2"))

				isNew, err := store.MarkProcessed(ctx, "sale-2", time.Hour)
				require.NoError(t, err)
				assert.True(t, isNew)
			})
		})
	}
}

func TestInMemoryIdempotencyStore_Expiry(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Close()
	ctx := context.Background()

	_, err := store.MarkProcessed(ctx, "k", 10*time.Millisecond)
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	isNew, err := store.MarkProcessed(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.True(t, isNew, "expired key should be reusable")

	store.cleanup()
	assert.Equal(t, 1, store.Size())
}

func TestRedisIdempotencyStore_TTL(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	_, err := store.MarkProcessed(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:k"))

	mr.FastForward(2 * time.Minute)

	isNew, err := store.MarkProcessed(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, isNew)
}

func TestInMemoryIdempotencyStore_CloseTwice(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
