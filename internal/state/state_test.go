package state

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slot struct {
	Step   string `json:"step"`
	Amount string `json:"amount,omitempty"`
}

func exerciseStore(t *testing.T, store Store[slot]) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok, "no entry before Put")

	require.NoError(t, store.Put(ctx, 1, slot{Step: "stars_recipient"}))
	require.NoError(t, store.Put(ctx, 1, slot{Step: "stars_quantity", Amount: "75"}))

	got, ok, err := store.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, slot{Step: "stars_quantity", Amount: "75"}, got, "second Put replaces the first")

	_, ok, err = store.Get(ctx, 2)
	require.NoError(t, err)
	assert.False(t, ok, "keys are independent")

	require.NoError(t, store.Delete(ctx, 1))
	_, ok, err = store.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Delete(ctx, 42), "deleting a missing key is fine")
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore[slot](0))
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore[slot](10 * time.Minute)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Put(ctx, 7, slot{Step: "confirm"}))

	now = now.Add(9 * time.Minute)
	_, ok, err := store.Get(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok, err = store.Get(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreWithoutTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore[slot](0)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Put(ctx, 7, slot{Step: "calculation"}))
	now = now.Add(365 * 24 * time.Hour)

	_, ok, err := store.Get(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok)
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore(t *testing.T) {
	_, client := newRedis(t)
	exerciseStore(t, NewRedisStore[slot](client, "test:conv:", 0))
}

func TestRedisStoreTTL(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	store := NewRedisStore[slot](client, "test:op:", 10*time.Minute)

	require.NoError(t, store.Put(ctx, 5, slot{Step: "confirm"}))
	assert.True(t, mr.Exists("test:op:5"))
	assert.Equal(t, 10*time.Minute, mr.TTL("test:op:5"))

	mr.FastForward(11 * time.Minute)
	_, ok, err := store.Get(ctx, 5)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStoreCorruptValue(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	require.NoError(t, mr.Set("test:conv:9", "{not json"))

	store := NewRedisStore[slot](client, "test:conv:", 0)
	_, _, err := store.Get(ctx, 9)
	assert.Error(t, err)
}
