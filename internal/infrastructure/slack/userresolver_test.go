package slack

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deskbridge/internal/domain/chat"
)

type countingLookup struct {
	calls atomic.Int32
	fail  atomic.Bool
	delay time.Duration
}

func (l *countingLookup) GetUser(ctx context.Context, userID string) (*chat.UserProfile, error) {
	l.calls.Add(1)
	if l.delay > 0 {
		time.Sleep(l.delay)
	}
	if l.fail.Load() {
		return nil, errors.New("users.info unavailable")
	}
	return &chat.UserProfile{ID: userID, DisplayName: "name-" + userID}, nil
}

func TestUserResolverCaches(t *testing.T) {
	lookup := &countingLookup{}
	resolver := NewUserResolver(lookup, 16, time.Minute)
	ctx := context.Background()

	for range 3 {
		p, err := resolver.ResolveUser(ctx, "U1")
		require.NoError(t, err)
		assert.Equal(t, "name-U1", p.DisplayName)
	}
	assert.Equal(t, int32(1), lookup.calls.Load())

	_, err := resolver.ResolveUser(ctx, "U2")
	require.NoError(t, err)
	assert.Equal(t, int32(2), lookup.calls.Load())
}

func TestUserResolverDoesNotCacheFailures(t *testing.T) {
	lookup := &countingLookup{}
	lookup.fail.Store(true)
	resolver := NewUserResolver(lookup, 16, time.Minute)
	ctx := context.Background()

	_, err := resolver.ResolveUser(ctx, "U1")
	require.Error(t, err)

	lookup.fail.Store(false)
	p, err := resolver.ResolveUser(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, "U1", p.ID)
	assert.Equal(t, int32(2), lookup.calls.Load())
}

func TestUserResolverCollapsesConcurrentLookups(t *testing.T) {
	lookup := &countingLookup{delay: 50 * time.Millisecond}
	resolver := NewUserResolver(lookup, 16, time.Minute)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := resolver.ResolveUser(context.Background(), "U1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), lookup.calls.Load())
}
