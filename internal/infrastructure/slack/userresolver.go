package slack

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"deskbridge/internal/domain/chat"
)

const (
	defaultUserCacheSize = 2048
	defaultUserCacheTTL  = time.Hour
)

// UserLookup fetches a profile from the workspace.
type UserLookup interface {
	GetUser(ctx context.Context, userID string) (*chat.UserProfile, error)
}

// UserResolver caches user profiles and collapses concurrent lookups of the
// same id into one API call. Failed lookups are not cached.
type UserResolver struct {
	lookup UserLookup
	cache  *expirable.LRU[string, *chat.UserProfile]
	group  singleflight.Group
}

func NewUserResolver(lookup UserLookup, size int, ttl time.Duration) *UserResolver {
	if size <= 0 {
		size = defaultUserCacheSize
	}
	if ttl <= 0 {
		ttl = defaultUserCacheTTL
	}
	return &UserResolver{
		lookup: lookup,
		cache:  expirable.NewLRU[string, *chat.UserProfile](size, nil, ttl),
	}
}

func (r *UserResolver) ResolveUser(ctx context.Context, userID string) (*chat.UserProfile, error) {
	if p, ok := r.cache.Get(userID); ok {
		return p, nil
	}

	v, err, _ := r.group.Do(userID, func() (any, error) {
		p, err := r.lookup.GetUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		r.cache.Add(userID, p)
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*chat.UserProfile), nil
}
