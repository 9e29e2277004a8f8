package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deskbridge/internal/shared/config"
	apperrors "deskbridge/internal/shared/errors"
	"deskbridge/internal/shared/logger"
)

func fastPolicy(attempts uint) Policy {
	return Policy{
		MaxAttempts:     attempts,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		MaxElapsedTime:  time.Second,
		Multiplier:      2,
	}
}

type hintedError struct {
	err   *apperrors.AppError
	after time.Duration
}

func (e hintedError) Error() string             { return e.err.Error() }
func (e hintedError) Unwrap() error             { return e.err }
func (e hintedError) RetryAfter() time.Duration { return e.after }

func TestPolicyRetriesRetryableErrors(t *testing.T) {
	calls := 0
	err := fastPolicy(3).Do(context.Background(), logger.NewNop(), "test", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return apperrors.NewUpstreamError("busy", errors.New("503"), true)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestPolicyStopsOnPermanentError(t *testing.T) {
	calls := 0
	err := fastPolicy(5).Do(context.Background(), logger.NewNop(), "test", func(ctx context.Context) error {
		calls++
		return apperrors.NewUpstreamError("bad request", errors.New("400"), false)
	})

	assert.Equal(t, 1, calls)
	assert.True(t, apperrors.IsUpstreamFailure(err))
	assert.Equal(t, "bad request", apperrors.GetAppError(err).Message)
}

func TestPolicyReturnsLastErrorWhenExhausted(t *testing.T) {
	calls := 0
	err := fastPolicy(2).Do(context.Background(), logger.NewNop(), "test", func(ctx context.Context) error {
		calls++
		return apperrors.NewUpstreamError("still busy", errors.New("503"), true)
	})

	assert.Equal(t, 2, calls)
	assert.True(t, apperrors.IsRetryable(err))
	assert.Equal(t, "still busy", apperrors.GetAppError(err).Message)
}

func TestPolicyHonorsRetryAfter(t *testing.T) {
	calls := 0
	start := time.Now()
	p := fastPolicy(2)
	p.MaxElapsedTime = 5 * time.Second
	err := p.Do(context.Background(), logger.NewNop(), "test", func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return hintedError{err: apperrors.NewUpstreamError("rate limited", nil, true), after: time.Second}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.GreaterOrEqual(t, time.Since(start), 900*time.Millisecond)
}

func TestPolicyGivesUpOnRetryAfterBeyondBudget(t *testing.T) {
	calls := 0
	p := fastPolicy(3)
	err := p.Do(context.Background(), logger.NewNop(), "test", func(ctx context.Context) error {
		calls++
		return hintedError{err: apperrors.NewUpstreamError("rate limited", nil, true), after: time.Minute}
	})

	assert.Equal(t, 1, calls)
	assert.Error(t, err)
}

func TestPolicyStopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxAttempts: 10, InitialInterval: time.Hour, MaxInterval: time.Hour, Multiplier: 2}

	calls := 0
	err := p.Do(ctx, logger.NewNop(), "test", func(ctx context.Context) error {
		calls++
		cancel()
		return apperrors.NewUpstreamError("busy", nil, true)
	})

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, apperrors.IsUpstreamFailure(err))
}

func TestFromConfig(t *testing.T) {
	p := FromConfig(config.RetryConfig{MaxAttempts: 5, InitialInterval: time.Second})
	assert.Equal(t, uint(5), p.MaxAttempts)
	assert.Equal(t, time.Second, p.InitialInterval)
	assert.Equal(t, DefaultPolicy().MaxInterval, p.MaxInterval)
	assert.Equal(t, DefaultPolicy().Multiplier, p.Multiplier)
}

func TestNoRetry(t *testing.T) {
	calls := 0
	_ = NoRetry().Do(context.Background(), nil, "test", func(ctx context.Context) error {
		calls++
		return apperrors.NewUpstreamError("busy", nil, true)
	})
	assert.Equal(t, 1, calls)
}
