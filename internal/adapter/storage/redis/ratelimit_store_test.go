package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *RateLimitStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRateLimitStore(client)
}

func TestRateLimitStore_AllowsUpToLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		result, err := store.Allow(ctx, "user-1:deposit", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed, "request %d should be allowed", i)
		assert.Equal(t, int64(3), result.Limit)
		assert.Equal(t, 3-i, result.Remaining)
	}
}

func TestRateLimitStore_BlocksOverLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Allow(ctx, "user-1:transfer", 3, time.Minute)
		require.NoError(t, err)
	}

	result, err := store.Allow(ctx, "user-1:transfer", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, int64(0), result.Remaining)
	assert.Greater(t, result.ResetAt, time.Now().Unix()-int64(time.Minute.Seconds()))
}

func TestRateLimitStore_KeysAreIndependent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Allow(ctx, "user-1:transfer", 3, time.Minute)
		require.NoError(t, err)
	}

	result, err := store.Allow(ctx, "user-2:transfer", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed, "another user's counter must not be affected")
}
