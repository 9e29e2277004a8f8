package bridge

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"deskbridge/internal/shared/biztime"
	"deskbridge/internal/shared/db"
	"deskbridge/internal/shared/goroutine"
	"deskbridge/internal/shared/logger"
)

// MappingPurger deletes idle thread mappings.
type MappingPurger interface {
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// Cleaner removes thread mappings idle for longer than the retention window.
// Execute runs a purge synchronously (scheduler and CLI); Trigger runs one in
// the background after a write, coalescing with a purge already in flight.
type Cleaner struct {
	mappings  MappingPurger
	retention time.Duration
	timeout   time.Duration
	clock     biztime.Clock
	logger    logger.Interface

	running atomic.Bool
	mu      sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
}

func NewCleaner(mappings MappingPurger, retention, timeout time.Duration, clock biztime.Clock, log logger.Interface) *Cleaner {
	if clock == nil {
		clock = biztime.System()
	}
	return &Cleaner{
		mappings:  mappings,
		retention: retention,
		timeout:   timeout,
		clock:     clock,
		logger:    log,
	}
}

// Execute purges expired mappings and returns how many were removed.
func (c *Cleaner) Execute(ctx context.Context) (int, error) {
	cutoff := biztime.RetentionCutoff(c.clock.Now(), c.retention)

	removed, err := c.mappings.PurgeExpired(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		c.logger.Infow("purged expired thread mappings", "count", removed, "cutoff", cutoff)
	}
	return int(removed), nil
}

// Trigger starts a background purge unless one is already running or the
// cleaner is closed. Failures are logged and dropped. It reports whether a
// purge was started.
func (c *Cleaner) Trigger() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}
	if !c.running.CompareAndSwap(false, true) {
		return false
	}

	c.wg.Add(1)
	goroutine.SafeGo(c.logger, "thread-mapping-purge", func() {
		defer c.wg.Done()
		defer c.running.Store(false)

		ctx, cancel := db.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		if _, err := c.Execute(ctx); err != nil {
			c.logger.Warnw("opportunistic mapping purge failed", "error", err)
		}
	})
	return true
}

// Wait blocks until background purges have finished.
func (c *Cleaner) Wait() {
	c.wg.Wait()
}

// Close stops new triggers and waits for a purge in flight.
func (c *Cleaner) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.wg.Wait()
}
