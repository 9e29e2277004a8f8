package ratelimit

import (
	"context"
	"time"
)

// RateLimitConfig sets a budget per window. Zero disables a window.
type RateLimitConfig struct {
	RequestsPerSecond int
	RequestsPerMinute int
	RequestsPerHour   int
}

// IsZero reports whether no window is limited.
func (c RateLimitConfig) IsZero() bool {
	return c.RequestsPerSecond <= 0 && c.RequestsPerMinute <= 0 && c.RequestsPerHour <= 0
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, config RateLimitConfig) (bool, error)
	GetRemaining(ctx context.Context, key string, window time.Duration) (int64, error)
	Reset(ctx context.Context, key string) error
}
