package threadmapping

import (
	"context"
	"time"
)

// Repository persists thread mappings. Lookups that miss return ErrMappingNotFound.
type Repository interface {
	// Put inserts or replaces the mapping for its thread key. Any other
	// mapping holding the same ticket id is removed in the same transaction.
	Put(ctx context.Context, mapping *ThreadMapping) error
	GetByThread(ctx context.Context, key ThreadKey) (*ThreadMapping, error)
	GetByTicket(ctx context.Context, ticketID int64) (*ThreadMapping, error)
	Touch(ctx context.Context, key ThreadKey, at time.Time) error
	// PurgeExpired deletes mappings whose last activity is before cutoff.
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
	Count(ctx context.Context) (int64, error)
}
