package threadmapping

import (
	"fmt"
	"time"
)

// DefaultRetention is how long a mapping survives without relay activity.
const DefaultRetention = 30 * 24 * time.Hour

// ThreadMapping correlates one chat thread with one ticket.
type ThreadMapping struct {
	key            ThreadKey
	ticketID       int64
	formKey        string
	createdAt      time.Time
	lastActivityAt time.Time
}

// NewThreadMapping creates a mapping with both timestamps set to now.
func NewThreadMapping(key ThreadKey, ticketID int64, formKey string, now time.Time) (*ThreadMapping, error) {
	if key.ChannelID == "" || key.ThreadTS == "" {
		return nil, ErrInvalidThreadKey
	}
	if ticketID <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTicketID, ticketID)
	}

	now = now.UTC()
	return &ThreadMapping{
		key:            key,
		ticketID:       ticketID,
		formKey:        formKey,
		createdAt:      now,
		lastActivityAt: now,
	}, nil
}

// ReconstructThreadMapping reconstructs from persistence
func ReconstructThreadMapping(key ThreadKey, ticketID int64, formKey string, createdAt, lastActivityAt time.Time) *ThreadMapping {
	return &ThreadMapping{
		key:            key,
		ticketID:       ticketID,
		formKey:        formKey,
		createdAt:      createdAt.UTC(),
		lastActivityAt: lastActivityAt.UTC(),
	}
}

func (m *ThreadMapping) Key() ThreadKey            { return m.key }
func (m *ThreadMapping) ChannelID() string         { return m.key.ChannelID }
func (m *ThreadMapping) ThreadTS() string          { return m.key.ThreadTS }
func (m *ThreadMapping) TicketID() int64           { return m.ticketID }
func (m *ThreadMapping) FormKey() string           { return m.formKey }
func (m *ThreadMapping) CreatedAt() time.Time      { return m.createdAt }
func (m *ThreadMapping) LastActivityAt() time.Time { return m.lastActivityAt }

// Touch records relay activity. Time never moves backwards.
func (m *ThreadMapping) Touch(at time.Time) {
	at = at.UTC()
	if at.After(m.lastActivityAt) {
		m.lastActivityAt = at
	}
}

// IsExpired reports whether the mapping has been idle longer than retention.
func (m *ThreadMapping) IsExpired(now time.Time, retention time.Duration) bool {
	return m.lastActivityAt.Before(now.Add(-retention))
}
