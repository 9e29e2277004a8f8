package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// alertKeyPrefix is the prefix for all alert deduplication keys
	alertKeyPrefix = "deskbridge:alert:"
	// DefaultAlertCooldown keeps one identical alert per window across instances.
	DefaultAlertCooldown = 5 * time.Minute
)

// AlertDeduplicator provides Redis-based alert deduplication
type AlertDeduplicator struct {
	client   *redis.Client
	cooldown time.Duration
}

// NewAlertDeduplicator creates a new AlertDeduplicator instance
func NewAlertDeduplicator(client *redis.Client, cooldown time.Duration) *AlertDeduplicator {
	if cooldown <= 0 {
		cooldown = DefaultAlertCooldown
	}
	return &AlertDeduplicator{client: client, cooldown: cooldown}
}

// buildKey builds the Redis key for alert deduplication
// Format: deskbridge:alert:{sha256(fingerprint)}
func (d *AlertDeduplicator) buildKey(fingerprint string) string {
	sum := sha256.Sum256([]byte(fingerprint))
	return alertKeyPrefix + hex.EncodeToString(sum[:12])
}

// TryAcquireAlertLock atomically checks and acquires an alert lock using SetNX.
// Returns true if the alert should be sent, false if an identical one is in cooldown.
func (d *AlertDeduplicator) TryAcquireAlertLock(ctx context.Context, fingerprint string) (bool, error) {
	acquired, err := d.client.SetNX(ctx, d.buildKey(fingerprint), "1", d.cooldown).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire alert lock: %w", err)
	}
	return acquired, nil
}

// GetRemainingCooldown returns the remaining cooldown time for an alert
// Returns 0 if not in cooldown
func (d *AlertDeduplicator) GetRemainingCooldown(ctx context.Context, fingerprint string) (time.Duration, error) {
	ttl, err := d.client.TTL(ctx, d.buildKey(fingerprint)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get cooldown: %w", err)
	}

	// TTL returns -2 if key doesn't exist, -1 if no TTL set
	if ttl < 0 {
		return 0, nil
	}

	return ttl, nil
}
