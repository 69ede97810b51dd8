package validation

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return mr, client
}

func TestRedisStore_GetSetClear(t *testing.T) {
	_, client := setupTestRedis(t)
	store := NewRedisStore(client, time.Hour, nil)
	ctx := context.Background()
	key := "u1-off1-1000"

	_, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	first := sampleState(1)
	require.NoError(t, store.Set(ctx, key, first))
	got, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first, got)

	second := first
	second.AttemptCount = 2
	second.ProvidedFields = append([]string{}, "date", "location")
	require.NoError(t, store.Set(ctx, key, second))
	got, _, _ = store.Get(ctx, key)
	assert.Equal(t, second, got)

	require.NoError(t, store.Clear(ctx, key))
	_, ok, err = store.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Clear(ctx, key))
}

func TestRedisStore_AppliesTTL(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewRedisStore(client, 10*time.Minute, nil)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "u1-o1-1000", sampleState(1)))
	assert.Equal(t, 10*time.Minute, mr.TTL("validation:u1-o1-1000"))

	mr.FastForward(11 * time.Minute)
	_, ok, err := store.Get(ctx, "u1-o1-1000")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_ZeroTTLPersists(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewRedisStore(client, 0, nil)

	require.NoError(t, store.Set(context.Background(), "u1-o1-1000", sampleState(1)))
	assert.Equal(t, time.Duration(0), mr.TTL("validation:u1-o1-1000"))
}

func TestRedisStore_SweepOlderThan(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewRedisStore(client, 0, nil)
	ctx := context.Background()

	for _, key := range []string{"u1-o1-1000", "u2-o1-1900", "malformed-key"} {
		require.NoError(t, store.Set(ctx, key, sampleState(1)))
	}
	require.NoError(t, mr.Set("unrelated:u1-o1-1", "x"))

	removed, err := store.SweepOlderThan(ctx, 500*time.Millisecond, time.UnixMilli(2000))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, ok, _ := store.Get(ctx, "u1-o1-1000")
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, "u2-o1-1900")
	assert.True(t, ok)
	_, ok, _ = store.Get(ctx, "malformed-key")
	assert.True(t, ok)
	assert.True(t, mr.Exists("unrelated:u1-o1-1"))

	removed, err = store.SweepOlderThan(ctx, 500*time.Millisecond, time.UnixMilli(2000))
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestRedisStore_CorruptRecordIsError(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewRedisStore(client, 0, nil)
	require.NoError(t, mr.Set("validation:u1-o1-1000", "{not json"))

	_, ok, err := store.Get(context.Background(), "u1-o1-1000")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestRedisStore_UnavailableIsError(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewRedisStore(client, 0, nil)
	mr.Close()

	ctx := context.Background()
	_, _, err := store.Get(ctx, "u1-o1-1000")
	assert.Error(t, err)
	assert.Error(t, store.Set(ctx, "u1-o1-1000", sampleState(1)))
	_, err = store.SweepOlderThan(ctx, time.Second, time.Now())
	assert.Error(t, err)
}

func TestNewRedisStorePanicsWithoutClient(t *testing.T) {
	assert.Panics(t, func() { NewRedisStore(nil, time.Minute, nil) })
}
