package idempotency

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

type booking struct {
	Link string `json:"link"`
}

func storesUnderTest(t *testing.T) map[string]Store {
	client, _ := setupTestRedis(t)
	return map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  NewRedisStore(client, testLogger()),
	}
}

func TestManager_ReplaysCompletedResult(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		store := store
		t.Run(name, func(t *testing.T) {
			m := NewManager(store, testLogger())
			calls := 0
			op := func(ctx context.Context) (any, error) {
				calls++
				return booking{Link: "https://cal/x"}, nil
			}

			first, err := m.Execute(context.Background(), "k1", time.Hour, op)
			require.NoError(t, err)
			assert.False(t, first.FromCache)

			second, err := m.Execute(context.Background(), "k1", time.Hour, op)
			require.NoError(t, err)
			assert.True(t, second.FromCache)
			assert.Equal(t, 1, calls)

			var got booking
			require.NoError(t, second.Decode(&got))
			assert.Equal(t, "https://cal/x", got.Link)
		})
	}
}

func TestManager_FailuresAreNotCached(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		store := store
		t.Run(name, func(t *testing.T) {
			m := NewManager(store, testLogger())
			boom := errors.New("boom")

			_, err := m.Execute(context.Background(), "k2", time.Hour, func(ctx context.Context) (any, error) {
				return nil, boom
			})
			assert.ErrorIs(t, err, boom)

			res, err := m.Execute(context.Background(), "k2", time.Hour, func(ctx context.Context) (any, error) {
				return booking{Link: "ok"}, nil
			})
			require.NoError(t, err)
			assert.False(t, res.FromCache)
		})
	}
}

func TestManager_InProgress(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		store := store
		t.Run(name, func(t *testing.T) {
			m := NewManager(store, testLogger())

			locked, err := store.Lock(context.Background(), "k3", time.Minute)
			require.NoError(t, err)
			require.True(t, locked)

			_, err = m.Execute(context.Background(), "k3", time.Hour, func(ctx context.Context) (any, error) {
				t.Fatal("operation must not run while locked")
				return nil, nil
			})
			assert.ErrorIs(t, err, ErrRequestInProgress)
		})
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", &Record{Status: StatusCompleted}, time.Minute))
	locked, _ := store.Lock(ctx, "other", time.Second)
	require.True(t, locked)

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 2, store.Purge())

	rec, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestCleaner_RemovesKeysWithoutExpiry(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, client.HSet(ctx, "idempotency:stale", "status", StatusCompleted).Err())
	require.NoError(t, client.HSet(ctx, "idempotency:fresh", "status", StatusCompleted).Err())
	require.NoError(t, client.Expire(ctx, "idempotency:fresh", time.Hour).Err())

	c := NewCleaner(client, testLogger(), time.Minute, 25*time.Hour)
	c.cleanup(ctx)

	assert.False(t, mr.Exists("idempotency:stale"))
	assert.True(t, mr.Exists("idempotency:fresh"))
}

func TestGenerateKey(t *testing.T) {
	a := GenerateKey("booking", "sid", "2025-03-04T15:00:00Z", "A@B.com")
	b := GenerateKey("booking", "sid", "2025-03-04T15:00:00Z", " a@b.com")
	c := GenerateKey("booking", "sid", "2025-03-05T15:00:00Z", "a@b.com")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
