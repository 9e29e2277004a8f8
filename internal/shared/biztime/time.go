// Package biztime provides the clock used for mapping timestamps and retention cutoffs.
// All storage and transport use UTC.
package biztime

import (
	"sync"
	"time"
)

// Clock is the time source handed to components that stamp or age records.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return NowUTC()
}

// System returns the wall clock in UTC.
func System() Clock {
	return systemClock{}
}

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// RetentionCutoff returns the instant before which a record of the given
// retention is considered expired.
func RetentionCutoff(now time.Time, retention time.Duration) time.Time {
	return now.Add(-retention).UTC()
}

// FakeClock is a manually advanced Clock for tests and replays.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start.UTC()}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Set moves the clock to t.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t.UTC()
	c.mu.Unlock()
}
