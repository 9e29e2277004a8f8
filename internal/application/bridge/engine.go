package bridge

import (
	"context"
	"errors"
	"strings"
	"time"

	"deskbridge/internal/domain/chat"
	"deskbridge/internal/domain/form"
	"deskbridge/internal/domain/relay"
	"deskbridge/internal/domain/threadmapping"
	"deskbridge/internal/shared/biztime"
	"deskbridge/internal/shared/db"
	"deskbridge/internal/shared/logger"
)

// Deps are the collaborators of the engine. Users, Dedup and Cleaner are optional.
type Deps struct {
	Catalog  *form.Catalog
	Parser   FormParser
	Mappings threadmapping.Repository
	Chat     ChatGateway
	Tickets  TicketGateway
	Users    chat.UserResolver
	Dedup    EventDeduplicator
	Filter   *relay.Filter
	Cleaner  *Cleaner
	Clock    biztime.Clock
}

type Options struct {
	// StoreTimeout bounds every mapping store call.
	StoreTimeout time.Duration
	// BotUserID is the bridge's own chat user; its messages are never synced.
	BotUserID string
	// ShortcutCallbackID restricts HandleShortcut to one message shortcut.
	ShortcutCallbackID string
	// IgnoredAuthors are ticket comment authors whose comments never reach
	// chat, typically the API user the bridge itself writes as.
	IgnoredAuthors []string
}

// Engine creates tickets from form submissions and relays follow-ups
// between a chat thread and its ticket. It holds no lock across network
// calls; per-thread consistency comes from the mapping store.
type Engine struct {
	catalog  *form.Catalog
	parser   FormParser
	mappings threadmapping.Repository
	chat     ChatGateway
	tickets  TicketGateway
	users    chat.UserResolver
	dedup    EventDeduplicator
	filter   *relay.Filter
	cleaner  *Cleaner
	clock    biztime.Clock
	opts     Options
	logger   logger.Interface
}

func NewEngine(deps Deps, opts Options, log logger.Interface) *Engine {
	clock := deps.Clock
	if clock == nil {
		clock = biztime.System()
	}
	filter := deps.Filter
	if filter == nil {
		filter = relay.NewFilter(relay.DefaultSignature)
	}

	return &Engine{
		catalog:  deps.Catalog,
		parser:   deps.Parser,
		mappings: deps.Mappings,
		chat:     deps.Chat,
		tickets:  deps.Tickets,
		users:    deps.Users,
		dedup:    deps.Dedup,
		filter:   filter,
		cleaner:  deps.Cleaner,
		clock:    clock,
		opts:     opts,
		logger:   log,
	}
}

// HandleChatMessage processes a channel or thread message. Thread replies are
// relayed to the mapped ticket; workflow root messages are treated as form
// submissions; everything else is ignored.
func (e *Engine) HandleChatMessage(ctx context.Context, ev ChatMessageEvent) (Outcome, error) {
	if ignoredSubtypes[ev.Subtype] {
		return OutcomeIgnored, nil
	}
	if !e.firstDelivery(ctx, ev.EventID) {
		e.logger.Debugw("skipping redelivered chat event", "event_id", ev.EventID)
		return OutcomeDuplicate, nil
	}

	if ev.IsThreadReply() {
		return e.relayChatReply(ctx, ev)
	}
	if ev.IsBotAuthored() && !e.isOwnMessage(ev) && !ev.RelayMarked {
		return e.submitForm(ctx, ev, "", false)
	}
	return OutcomeIgnored, nil
}

// HandleShortcut processes an explicit request to turn a message into a ticket.
// Unlike automatic detection, every rejection is reported to the user.
func (e *Engine) HandleShortcut(ctx context.Context, ev ShortcutEvent) (Outcome, error) {
	if e.opts.ShortcutCallbackID != "" && ev.CallbackID != e.opts.ShortcutCallbackID {
		e.logger.Debugw("ignoring unknown shortcut", "callback_id", ev.CallbackID)
		return OutcomeIgnored, nil
	}

	target := ev.Target
	if target.ChannelID == "" {
		target.ChannelID = ev.ChannelID
	}
	return e.submitForm(ctx, target, ev.UserID, true)
}

// HandleTicketEvent relays a ticket comment into the mapped chat thread.
func (e *Engine) HandleTicketEvent(ctx context.Context, ev TicketEvent) (Outcome, error) {
	if ev.TicketID <= 0 {
		return OutcomeIgnored, nil
	}
	return e.relayTicketComment(ctx, ev)
}

// firstDelivery claims eventID before any work is done, so a redelivery
// that races the first attempt is dropped. A claim is kept even when
// processing fails: a failed submission may already have created its ticket.
func (e *Engine) firstDelivery(ctx context.Context, eventID string) bool {
	if e.dedup == nil || eventID == "" {
		return true
	}
	first, err := e.dedup.FirstDelivery(ctx, eventID)
	if err != nil {
		e.logger.Warnw("event deduplication unavailable, processing anyway",
			"event_id", eventID,
			"error", err,
		)
		return true
	}
	return first
}

func (e *Engine) isOwnMessage(ev ChatMessageEvent) bool {
	return e.opts.BotUserID != "" && ev.UserID == e.opts.BotUserID
}

func (e *Engine) isIgnoredAuthor(name string) bool {
	for _, ignored := range e.opts.IgnoredAuthors {
		if ignored != "" && strings.EqualFold(strings.TrimSpace(name), ignored) {
			return true
		}
	}
	return false
}

// notify sends an ephemeral message; it is skipped when there is nobody to tell.
func (e *Engine) notify(ctx context.Context, channelID, userID, threadTS, text string) {
	if userID == "" {
		return
	}
	if err := e.chat.PostEphemeral(ctx, channelID, userID, threadTS, text); err != nil {
		e.logger.Warnw("failed to send ephemeral message",
			"channel_id", channelID,
			"user_id", userID,
			"error", err,
		)
	}
}

func (e *Engine) resolveName(ctx context.Context, userID string) string {
	if e.users == nil || userID == "" {
		return ""
	}
	profile, err := e.users.ResolveUser(ctx, userID)
	if err != nil {
		e.logger.Warnw("failed to resolve chat user", "user_id", userID, "error", err)
		return ""
	}
	return profile.Name()
}

func (e *Engine) lookupByThread(ctx context.Context, key threadmapping.ThreadKey) (*threadmapping.ThreadMapping, error) {
	ctx, cancel := db.WithTimeout(ctx, e.opts.StoreTimeout)
	defer cancel()
	return e.mappings.GetByThread(ctx, key)
}

func (e *Engine) lookupByTicket(ctx context.Context, ticketID int64) (*threadmapping.ThreadMapping, error) {
	ctx, cancel := db.WithTimeout(ctx, e.opts.StoreTimeout)
	defer cancel()
	return e.mappings.GetByTicket(ctx, ticketID)
}

func (e *Engine) putMapping(ctx context.Context, m *threadmapping.ThreadMapping) error {
	ctx, cancel := db.WithTimeout(ctx, e.opts.StoreTimeout)
	defer cancel()
	return e.mappings.Put(ctx, m)
}

// touch records relay activity. A mapping purged in the meantime is not an error.
func (e *Engine) touch(ctx context.Context, key threadmapping.ThreadKey) error {
	ctx, cancel := db.WithTimeout(ctx, e.opts.StoreTimeout)
	defer cancel()

	err := e.mappings.Touch(ctx, key, e.clock.Now())
	if errors.Is(err, threadmapping.ErrMappingNotFound) {
		e.logger.Debugw("mapping disappeared before touch", "thread", key.String())
		return nil
	}
	return err
}
