// internal/store/redis_test.go
package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStore_RecordAndCount(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	count, err := store.GetAPICallCount(ctx, "user-1", 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.RecordAPICall(ctx, "user-1", 24*time.Hour))
	}

	count, err = store.GetAPICallCount(ctx, "user-1", 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// Another user's window is untouched.
	count, err = store.GetAPICallCount(ctx, "user-2", 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestRedisStore_WindowRollsForward(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordAPICall(ctx, "user-1", 24*time.Hour))

	// Entries older than the window are pruned on read. miniredis does
	// not advance wall-clock scores, so shrink the window instead.
	time.Sleep(10 * time.Millisecond)
	count, err := store.GetAPICallCount(ctx, "user-1", time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// The key itself expires with the window.
	mr.FastForward(25 * time.Hour)
	assert.False(t, mr.Exists(apiCallKey("user-1")))
}

func TestRedisStore_CreateStreamID(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateStreamID(ctx, "stream-1", "chat-1", time.Hour))

	got, err := mr.Get(streamKey("stream-1"))
	require.NoError(t, err)
	assert.Equal(t, "chat-1", got)

	mr.FastForward(2 * time.Hour)
	assert.False(t, mr.Exists(streamKey("stream-1")))
}
