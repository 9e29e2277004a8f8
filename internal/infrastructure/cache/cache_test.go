package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return client, mr
}

func TestRedisEventDeduplicator(t *testing.T) {
	client, mr := setupTestRedis(t)
	dedup := NewRedisEventDeduplicator(client, time.Minute)
	ctx := context.Background()

	first, err := dedup.FirstDelivery(ctx, "Ev1")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := dedup.FirstDelivery(ctx, "Ev1")
	require.NoError(t, err)
	assert.False(t, again)

	other, err := dedup.FirstDelivery(ctx, "Ev2")
	require.NoError(t, err)
	assert.True(t, other)

	mr.FastForward(2 * time.Minute)
	expired, err := dedup.FirstDelivery(ctx, "Ev1")
	require.NoError(t, err)
	assert.True(t, expired, "ids are forgotten after the ttl")
}

func TestRedisEventDeduplicator_Concurrent(t *testing.T) {
	client, _ := setupTestRedis(t)
	dedup := NewRedisEventDeduplicator(client, time.Minute)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, err := dedup.FirstDelivery(context.Background(), "Ev1"); err == nil && ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestRedisEventDeduplicator_Unavailable(t *testing.T) {
	client, mr := setupTestRedis(t)
	dedup := NewRedisEventDeduplicator(client, time.Minute)
	mr.Close()

	_, err := dedup.FirstDelivery(context.Background(), "Ev1")
	assert.Error(t, err)
}

func TestMemoryEventDeduplicator(t *testing.T) {
	dedup := NewMemoryEventDeduplicator(50 * time.Millisecond)
	ctx := context.Background()

	first, _ := dedup.FirstDelivery(ctx, "Ev1")
	again, _ := dedup.FirstDelivery(ctx, "Ev1")
	assert.True(t, first)
	assert.False(t, again)

	assert.Eventually(t, func() bool {
		ok, _ := dedup.FirstDelivery(ctx, "Ev1")
		return ok
	}, time.Second, 20*time.Millisecond)
}

func TestAlertDeduplicator(t *testing.T) {
	client, mr := setupTestRedis(t)
	dedup := NewAlertDeduplicator(client, time.Minute)
	ctx := context.Background()

	ok, err := dedup.TryAcquireAlertLock(ctx, "failed to create ticket")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = dedup.TryAcquireAlertLock(ctx, "failed to create ticket")
	require.NoError(t, err)
	assert.False(t, ok)

	remaining, err := dedup.GetRemainingCooldown(ctx, "failed to create ticket")
	require.NoError(t, err)
	assert.Greater(t, remaining, time.Duration(0))

	mr.FastForward(2 * time.Minute)
	ok, err = dedup.TryAcquireAlertLock(ctx, "failed to create ticket")
	require.NoError(t, err)
	assert.True(t, ok)

	remaining, err = dedup.GetRemainingCooldown(ctx, "never sent")
	require.NoError(t, err)
	assert.Zero(t, remaining)
}
