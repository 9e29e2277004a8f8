package common

import (
	"context"
	"sync"
	"time"

	"deskbridge/internal/shared/goroutine"
	"deskbridge/internal/shared/logger"
)

const defaultEventTimeout = time.Minute

// Dispatcher runs webhook processing after the response has been sent.
// Each job gets its own context bounded by the event timeout, detached from
// the request so that the acknowledgement does not cancel the work.
type Dispatcher struct {
	timeout time.Duration
	logger  logger.Interface

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(timeout time.Duration, log logger.Interface) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultEventTimeout
	}
	return &Dispatcher{timeout: timeout, logger: log}
}

// Dispatch starts fn in a panic-safe goroutine. It returns false once
// Shutdown has begun.
func (d *Dispatcher) Dispatch(name string, fn func(ctx context.Context)) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warnw("dispatcher closed, dropping event", "job", name)
		return false
	}

	d.wg.Add(1)
	goroutine.SafeGo(d.logger, name, func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		fn(ctx)
	})
	return true
}

// Shutdown stops accepting jobs and waits for running ones or ctx.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until every dispatched job has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
