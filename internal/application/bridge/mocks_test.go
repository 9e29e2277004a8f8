package bridge

import (
	"context"
	"strconv"
	"sync"
	"time"

	"deskbridge/internal/domain/chat"
	"deskbridge/internal/domain/form"
	"deskbridge/internal/domain/threadmapping"
)

type post struct {
	ChannelID string
	UserID    string
	ThreadTS  string
	Text      string
}

type mockChatGateway struct {
	mu         sync.Mutex
	posts      []post
	ephemerals []post

	PostThreadMessageFunc func(ctx context.Context, channelID, threadTS, text string) error
	GetPermalinkFunc      func(ctx context.Context, channelID, messageTS string) (string, error)
}

func (m *mockChatGateway) PostThreadMessage(ctx context.Context, channelID, threadTS, text string) error {
	if m.PostThreadMessageFunc != nil {
		if err := m.PostThreadMessageFunc(ctx, channelID, threadTS, text); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts = append(m.posts, post{ChannelID: channelID, ThreadTS: threadTS, Text: text})
	return nil
}

func (m *mockChatGateway) PostEphemeral(ctx context.Context, channelID, userID, threadTS, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ephemerals = append(m.ephemerals, post{ChannelID: channelID, UserID: userID, ThreadTS: threadTS, Text: text})
	return nil
}

func (m *mockChatGateway) GetPermalink(ctx context.Context, channelID, messageTS string) (string, error) {
	if m.GetPermalinkFunc != nil {
		return m.GetPermalinkFunc(ctx, channelID, messageTS)
	}
	return "https://acme.slack.com/archives/" + channelID + "/p" + messageTS, nil
}

func (m *mockChatGateway) ChannelName(ctx context.Context, channelID string) (string, error) {
	return "support-" + channelID, nil
}

func (m *mockChatGateway) Posts() []post {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]post(nil), m.posts...)
}

func (m *mockChatGateway) Ephemerals() []post {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]post(nil), m.ephemerals...)
}

type note struct {
	TicketID int64
	Body     string
}

type mockTicketGateway struct {
	mu      sync.Mutex
	nextID  int64
	created []form.TicketRequest
	notes   []note

	CreateTicketFunc    func(ctx context.Context, req form.TicketRequest) (*CreatedTicket, error)
	AddInternalNoteFunc func(ctx context.Context, ticketID int64, body string) error
}

func (m *mockTicketGateway) CreateTicket(ctx context.Context, req form.TicketRequest) (*CreatedTicket, error) {
	if m.CreateTicketFunc != nil {
		return m.CreateTicketFunc(ctx, req)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.created = append(m.created, req)
	id := 1000 + m.nextID
	return &CreatedTicket{ID: id, URL: "https://acme.zendesk.com/agent/tickets/" + strconv.FormatInt(id, 10)}, nil
}

func (m *mockTicketGateway) AddInternalNote(ctx context.Context, ticketID int64, body string) error {
	if m.AddInternalNoteFunc != nil {
		if err := m.AddInternalNoteFunc(ctx, ticketID, body); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes = append(m.notes, note{TicketID: ticketID, Body: body})
	return nil
}

func (m *mockTicketGateway) Created() []form.TicketRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]form.TicketRequest(nil), m.created...)
}

func (m *mockTicketGateway) Notes() []note {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]note(nil), m.notes...)
}

type mockUserResolver struct {
	profiles map[string]*chat.UserProfile
}

func (m *mockUserResolver) ResolveUser(ctx context.Context, userID string) (*chat.UserProfile, error) {
	if p, ok := m.profiles[userID]; ok {
		return p, nil
	}
	return &chat.UserProfile{ID: userID}, nil
}

type mockDeduplicator struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (m *mockDeduplicator) FirstDelivery(ctx context.Context, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen == nil {
		m.seen = make(map[string]bool)
	}
	if m.seen[eventID] {
		return false, nil
	}
	m.seen[eventID] = true
	return true, nil
}

// memoryMappingRepository is an in-memory threadmapping.Repository keeping the
// one-mapping-per-thread and one-mapping-per-ticket invariants.
type memoryMappingRepository struct {
	mu       sync.Mutex
	byThread map[threadmapping.ThreadKey]*threadmapping.ThreadMapping

	PutFunc   func(ctx context.Context, m *threadmapping.ThreadMapping) error
	TouchFunc func(ctx context.Context, key threadmapping.ThreadKey, at time.Time) error
}

func newMemoryMappingRepository() *memoryMappingRepository {
	return &memoryMappingRepository{byThread: make(map[threadmapping.ThreadKey]*threadmapping.ThreadMapping)}
}

func (r *memoryMappingRepository) Put(ctx context.Context, m *threadmapping.ThreadMapping) error {
	if r.PutFunc != nil {
		if err := r.PutFunc(ctx, m); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, existing := range r.byThread {
		if existing.TicketID() == m.TicketID() {
			delete(r.byThread, k)
		}
	}
	r.byThread[m.Key()] = threadmapping.ReconstructThreadMapping(m.Key(), m.TicketID(), m.FormKey(), m.CreatedAt(), m.LastActivityAt())
	return nil
}

func (r *memoryMappingRepository) GetByThread(ctx context.Context, key threadmapping.ThreadKey) (*threadmapping.ThreadMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.byThread[key]; ok {
		return m, nil
	}
	return nil, threadmapping.ErrMappingNotFound
}

func (r *memoryMappingRepository) GetByTicket(ctx context.Context, ticketID int64) (*threadmapping.ThreadMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.byThread {
		if m.TicketID() == ticketID {
			return m, nil
		}
	}
	return nil, threadmapping.ErrMappingNotFound
}

func (r *memoryMappingRepository) Touch(ctx context.Context, key threadmapping.ThreadKey, at time.Time) error {
	if r.TouchFunc != nil {
		return r.TouchFunc(ctx, key, at)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byThread[key]
	if !ok {
		return threadmapping.ErrMappingNotFound
	}
	m.Touch(at)
	return nil
}

func (r *memoryMappingRepository) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, m := range r.byThread {
		if m.LastActivityAt().Before(cutoff) {
			delete(r.byThread, k)
			n++
		}
	}
	return n, nil
}

func (r *memoryMappingRepository) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.byThread)), nil
}
