package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

const (
	// eventKeyPrefix is the prefix for delivered chat event ids
	eventKeyPrefix = "deskbridge:event:"
	// DefaultEventTTL covers the chat platform's redelivery window with margin.
	DefaultEventTTL = time.Hour

	memoryEventCapacity = 50_000
)

// RedisEventDeduplicator remembers delivered event ids across instances.
type RedisEventDeduplicator struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisEventDeduplicator(client *redis.Client, ttl time.Duration) *RedisEventDeduplicator {
	if ttl <= 0 {
		ttl = DefaultEventTTL
	}
	return &RedisEventDeduplicator{client: client, ttl: ttl}
}

// FirstDelivery atomically records eventID. It is true only for the first caller.
func (d *RedisEventDeduplicator) FirstDelivery(ctx context.Context, eventID string) (bool, error) {
	acquired, err := d.client.SetNX(ctx, eventKeyPrefix+eventID, "1", d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record event %s: %w", eventID, err)
	}
	return acquired, nil
}

// MemoryEventDeduplicator is the single-instance fallback when Redis is disabled.
type MemoryEventDeduplicator struct {
	mu   sync.Mutex
	seen *expirable.LRU[string, struct{}]
}

func NewMemoryEventDeduplicator(ttl time.Duration) *MemoryEventDeduplicator {
	if ttl <= 0 {
		ttl = DefaultEventTTL
	}
	return &MemoryEventDeduplicator{
		seen: expirable.NewLRU[string, struct{}](memoryEventCapacity, nil, ttl),
	}
}

func (d *MemoryEventDeduplicator) FirstDelivery(ctx context.Context, eventID string) (bool, error) {
	// Contains and Add are individually atomic; the pair is not.
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.seen.Contains(eventID) {
		return false, nil
	}
	d.seen.Add(eventID, struct{}{})
	return true, nil
}
