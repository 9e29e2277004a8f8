package bridge

import (
	"context"
	"errors"

	"deskbridge/internal/domain/threadmapping"
)

// relayChatReply adds a thread reply to the mapped ticket as a private note.
func (e *Engine) relayChatReply(ctx context.Context, ev ChatMessageEvent) (Outcome, error) {
	log := e.logger.With("channel_id", ev.ChannelID, "thread_ts", ev.ThreadTS, "ts", ev.TS)

	if !e.catalog.IsAuthorized(ev.ChannelID) {
		return OutcomeUnauthorized, nil
	}
	if e.isOwnMessage(ev) || ev.RelayMarked {
		return OutcomeFiltered, nil
	}

	key, err := threadmapping.NewThreadKey(ev.ChannelID, ev.ThreadTS)
	if err != nil {
		return OutcomeIgnored, nil
	}

	m, err := e.lookupByThread(ctx, key)
	if errors.Is(err, threadmapping.ErrMappingNotFound) {
		log.Debugw("thread reply without ticket mapping")
		return OutcomeUnmapped, nil
	}
	if err != nil {
		log.Errorw("failed to look up thread mapping", "error", err)
		return OutcomeFailed, err
	}

	if !e.filter.ShouldRelay(ev.Message.Text) {
		log.Debugw("thread reply not relayed", "reason", "empty or already relayed")
		return OutcomeFiltered, nil
	}

	text := e.parser.ReplaceMentions(ctx, ev.Message.Text)
	note := e.filter.Sign(chatReplyNote(e.resolveName(ctx, ev.UserID), text))

	if err := e.tickets.AddInternalNote(ctx, m.TicketID(), note); err != nil {
		log.Errorw("failed to relay thread reply to ticket", "ticket_id", m.TicketID(), "error", err)
		return OutcomeFailed, err
	}

	if err := e.touch(ctx, key); err != nil {
		log.Errorw("reply relayed but mapping activity not recorded", "ticket_id", m.TicketID(), "error", err)
		return OutcomeRelayed, err
	}

	log.Infow("thread reply relayed to ticket", "ticket_id", m.TicketID())
	return OutcomeRelayed, nil
}

// relayTicketComment posts a ticket comment into the mapped thread.
func (e *Engine) relayTicketComment(ctx context.Context, ev TicketEvent) (Outcome, error) {
	log := e.logger.With("ticket_id", ev.TicketID)

	if e.isIgnoredAuthor(ev.AuthorName) {
		log.Debugw("ticket comment not relayed", "reason", "ignored author", "author", ev.AuthorName)
		return OutcomeFiltered, nil
	}

	m, err := e.lookupByTicket(ctx, ev.TicketID)
	if errors.Is(err, threadmapping.ErrMappingNotFound) {
		log.Debugw("ticket event without thread mapping")
		return OutcomeUnmapped, nil
	}
	if err != nil {
		log.Errorw("failed to look up ticket mapping", "error", err)
		return OutcomeFailed, err
	}

	if !e.filter.ShouldRelay(ev.Body) {
		log.Debugw("ticket comment not relayed", "reason", "empty or already relayed")
		return OutcomeFiltered, nil
	}

	text := e.filter.Sign(ticketCommentText(ev))
	if err := e.chat.PostThreadMessage(ctx, m.ChannelID(), m.ThreadTS(), text); err != nil {
		log.Errorw("failed to relay ticket comment to thread", "channel_id", m.ChannelID(), "error", err)
		return OutcomeFailed, err
	}

	if err := e.touch(ctx, m.Key()); err != nil {
		log.Errorw("comment relayed but mapping activity not recorded", "error", err)
		return OutcomeRelayed, err
	}

	log.Infow("ticket comment relayed to thread", "channel_id", m.ChannelID(), "public", ev.Public)
	return OutcomeRelayed, nil
}
