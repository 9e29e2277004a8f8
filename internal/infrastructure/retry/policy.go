// Package retry runs outbound calls under a bounded exponential backoff.
package retry

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/cenkalti/backoff/v5"

	"deskbridge/internal/shared/config"
	apperrors "deskbridge/internal/shared/errors"
	"deskbridge/internal/shared/logger"
)

// RetryAfterHinter is implemented by errors that carry a server-provided delay.
type RetryAfterHinter interface {
	RetryAfter() time.Duration
}

// Policy bounds how often and how long a call is retried. Only errors marked
// retryable (see errors.IsRetryable) are retried.
type Policy struct {
	MaxAttempts     uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
	Multiplier      float64
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:     3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		MaxElapsedTime:  30 * time.Second,
		Multiplier:      2,
	}
}

// FromConfig fills unset fields from DefaultPolicy.
func FromConfig(cfg config.RetryConfig) Policy {
	p := DefaultPolicy()
	if cfg.MaxAttempts > 0 {
		p.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.InitialInterval > 0 {
		p.InitialInterval = cfg.InitialInterval
	}
	if cfg.MaxInterval > 0 {
		p.MaxInterval = cfg.MaxInterval
	}
	if cfg.MaxElapsedTime > 0 {
		p.MaxElapsedTime = cfg.MaxElapsedTime
	}
	if cfg.Multiplier >= 1 {
		p.Multiplier = cfg.Multiplier
	}
	return p
}

// NoRetry runs a call exactly once.
func NoRetry() Policy {
	return Policy{MaxAttempts: 1}
}

// Do runs op until it succeeds, fails permanently, or the policy is exhausted.
// The error of the last attempt is returned unchanged.
func (p Policy) Do(ctx context.Context, log logger.Interface, name string, op func(ctx context.Context) error) error {
	expBackoff := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		expBackoff.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		expBackoff.MaxInterval = p.MaxInterval
	}
	if p.Multiplier >= 1 {
		expBackoff.Multiplier = p.Multiplier
	}

	var last error
	attempt := 0
	operation := func() (struct{}, error) {
		attempt++
		err := op(ctx)
		last = err
		if err == nil {
			return struct{}{}, nil
		}
		if !apperrors.IsRetryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}

		var hinter RetryAfterHinter
		if errors.As(err, &hinter) && hinter.RetryAfter() > 0 {
			wait := hinter.RetryAfter()
			if p.MaxElapsedTime > 0 && wait > p.MaxElapsedTime {
				return struct{}{}, backoff.Permanent(err)
			}
			return struct{}{}, backoff.RetryAfter(int(math.Ceil(wait.Seconds())))
		}
		return struct{}{}, err
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(expBackoff),
		backoff.WithNotify(func(err error, next time.Duration) {
			if log != nil {
				log.Warnw("retrying outbound call",
					"call", name,
					"attempt", attempt,
					"next_in", next,
					"error", last,
				)
			}
		}),
	}
	if p.MaxAttempts > 0 {
		opts = append(opts, backoff.WithMaxTries(p.MaxAttempts))
	}
	if p.MaxElapsedTime > 0 {
		opts = append(opts, backoff.WithMaxElapsedTime(p.MaxElapsedTime))
	}

	_, err := backoff.Retry(ctx, operation, opts...)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		if last != nil {
			return errors.Join(ctxErr, last)
		}
		return ctxErr
	}
	if last != nil {
		return last
	}
	return err
}
