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

func setupTestRedis(t *testing.T) *redis.Client {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return client
}

func newTestLimiter(t *testing.T) (*RedisRateLimiter, *time.Time) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	limiter := NewRedisRateLimiter(setupTestRedis(t), "test")
	limiter.now = func() time.Time { return now }
	return limiter, &now
}

func TestRedisRateLimiter_Allow_PerSecond(t *testing.T) {
	limiter, now := newTestLimiter(t)
	ctx := context.Background()
	config := RateLimitConfig{RequestsPerSecond: 1}

	allowed, err := limiter.Allow(ctx, "slack:C1", config)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "slack:C1", config)
	require.NoError(t, err)
	assert.False(t, allowed, "second post within a second should be denied")

	*now = now.Add(1100 * time.Millisecond)
	allowed, err = limiter.Allow(ctx, "slack:C1", config)
	require.NoError(t, err)
	assert.True(t, allowed, "window slides")
}

func TestRedisRateLimiter_Allow_PerMinute(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()
	config := RateLimitConfig{RequestsPerMinute: 5}

	for i := 0; i < 5; i++ {
		allowed, err := limiter.Allow(ctx, "zendesk", config)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}

	allowed, err := limiter.Allow(ctx, "zendesk", config)
	require.NoError(t, err)
	assert.False(t, allowed, "6th request should be denied")
}

func TestRedisRateLimiter_Allow_DifferentKeys(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()
	config := RateLimitConfig{RequestsPerSecond: 1}

	allowed, err := limiter.Allow(ctx, "slack:C1", config)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "slack:C2", config)
	require.NoError(t, err)
	assert.True(t, allowed, "channels are limited independently")
}

func TestRedisRateLimiter_ZeroConfigAllowsEverything(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	assert.True(t, RateLimitConfig{}.IsZero())

	for i := 0; i < 20; i++ {
		allowed, err := limiter.Allow(context.Background(), "k", RateLimitConfig{})
		require.NoError(t, err)
		assert.True(t, allowed)
	}
}

func TestRedisRateLimiter_GetRemainingAndReset(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()
	config := RateLimitConfig{RequestsPerMinute: 10}

	for i := 0; i < 3; i++ {
		_, err := limiter.Allow(ctx, "zendesk", config)
		require.NoError(t, err)
	}

	used, err := limiter.GetRemaining(ctx, "zendesk", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(3), used)

	require.NoError(t, limiter.Reset(ctx, "zendesk"))
	used, err = limiter.GetRemaining(ctx, "zendesk", time.Minute)
	require.NoError(t, err)
	assert.Zero(t, used)
}

func TestRedisRateLimiter_RedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	limiter := NewRedisRateLimiter(client, "test")

	mr.Close()
	_, err := limiter.Allow(context.Background(), "k", RateLimitConfig{RequestsPerSecond: 1})
	assert.Error(t, err)
}
