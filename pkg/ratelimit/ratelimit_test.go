package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestMemoryLimiter(t *testing.T) {
	l := NewMemoryLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "+15551234567")
		require.NoError(t, err)
		assert.True(t, ok, "call %d", i)
	}
	ok, err := l.Allow(ctx, "+15551234567")
	require.NoError(t, err)
	assert.False(t, ok)

	// Keys are independent.
	ok, err = l.Allow(ctx, "+15559999999")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryLimiter_Refills(t *testing.T) {
	l := NewMemoryLimiter(1, 50*time.Millisecond)
	ctx := context.Background()

	ok, _ := l.Allow(ctx, "k")
	assert.True(t, ok)
	ok, _ = l.Allow(ctx, "k")
	assert.False(t, ok)

	time.Sleep(80 * time.Millisecond)
	ok, _ = l.Allow(ctx, "k")
	assert.True(t, ok)
}

func TestMemoryLimiter_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemoryLimiter(1, time.Second).Allow(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRedisLimiter(t *testing.T) {
	mr, client := setupRedis(t)
	now := time.Unix(1_700_000_000, 0)
	l := NewRedisLimiter(client, 2, time.Minute, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	for i, want := range []bool{true, true, false, false} {
		ok, err := l.Allow(ctx, "+15551234567")
		require.NoError(t, err)
		assert.Equal(t, want, ok, "call %d", i)
	}

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Contains(t, keys[0], DefaultKeyPrefix+"+15551234567:")
	assert.Greater(t, mr.TTL(keys[0]), time.Duration(0))

	// A new window starts a new counter.
	now = now.Add(time.Minute)
	ok, err := l.Allow(ctx, "+15551234567")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLimiter_Prefix(t *testing.T) {
	mr, client := setupRedis(t)
	l := NewRedisLimiter(client, 1, time.Minute, WithKeyPrefix("test:"))

	_, err := l.Allow(context.Background(), "abc")
	require.NoError(t, err)
	require.Len(t, mr.Keys(), 1)
	assert.Contains(t, mr.Keys()[0], "test:abc:")
}

func TestRedisLimiter_Unavailable(t *testing.T) {
	mr, client := setupRedis(t)
	l := NewRedisLimiter(client, 1, time.Minute)
	mr.Close()

	ok, err := l.Allow(context.Background(), "k")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestUnlimited(t *testing.T) {
	for i := 0; i < 100; i++ {
		ok, err := Unlimited{}.Allow(context.Background(), "k")
		require.NoError(t, err)
		require.True(t, ok)
	}
}
