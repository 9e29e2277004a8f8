package bridge

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"deskbridge/internal/domain/form"
	"deskbridge/internal/domain/threadmapping"
	"deskbridge/internal/shared/errors"
)

// submitForm runs the form submission pipeline for target. invoker is the
// user who explicitly asked for it, empty for automatic detection.
func (e *Engine) submitForm(ctx context.Context, target ChatMessageEvent, invoker string, explicit bool) (Outcome, error) {
	log := e.logger.With("channel_id", target.ChannelID, "ts", target.TS, "explicit", explicit)

	mapping, ok := e.catalog.Lookup(target.ChannelID)
	if !ok {
		log.Debugw("form submission from channel not on allowlist")
		if explicit {
			e.notify(ctx, target.ChannelID, invoker, "", msgChannelNotEnabled)
		}
		return OutcomeUnauthorized, nil
	}

	rec, err := e.parser.Parse(ctx, target.Message)
	if err != nil {
		if errors.IsNotAForm(err) {
			log.Debugw("message is not a form submission")
			if explicit {
				e.notify(ctx, target.ChannelID, invoker, "", msgNotAForm)
			}
			return OutcomeNotAForm, nil
		}
		log.Errorw("failed to parse form message", "error", err)
		return OutcomeFailed, err
	}

	key, err := threadmapping.NewThreadKey(target.ChannelID, target.RootTS())
	if err != nil {
		log.Warnw("form message has no usable thread key", "error", err)
		return OutcomeIgnored, err
	}

	reporterID := reporterOf(target, invoker, rec)
	e.enrich(ctx, rec, target, reporterID)

	req := form.Map(rec, mapping)
	req.ExternalID = key.String()

	ticket, err := e.tickets.CreateTicket(ctx, req)
	if err != nil {
		log.Errorw("failed to create ticket", "form", mapping.Key, "error", err)
		e.notify(ctx, target.ChannelID, reporterID, "", ticketFailedText(err))
		return OutcomeFailed, err
	}
	log = log.With("ticket_id", ticket.ID)

	m, err := threadmapping.NewThreadMapping(key, ticket.ID, mapping.Key, e.clock.Now())
	if err == nil {
		err = e.putMapping(ctx, m)
	}
	if err != nil {
		log.Errorw("ticket created but thread mapping could not be stored", "error", err)
		e.notify(ctx, target.ChannelID, reporterID, "", fmt.Sprintf(msgTicketUnlinked, ticket.ID))
		return OutcomeFailed, err
	}

	if e.cleaner != nil {
		e.cleaner.Trigger()
	}

	if err := e.chat.PostThreadMessage(ctx, key.ChannelID, key.ThreadTS, e.filter.Sign(ticketCreatedThreadText(ticket))); err != nil {
		log.Warnw("failed to post ticket link into thread", "error", err)
	}
	if explicit {
		e.notify(ctx, target.ChannelID, invoker, "", fmt.Sprintf(msgTicketCreated, ticket.ID))
	}

	log.Infow("ticket created from form submission",
		"form", mapping.Key,
		"fields", rec.Len(),
		"group_id", req.GroupID,
	)
	return OutcomeTicketCreated, nil
}

// reporterOf picks the user the ticket is reported on behalf of: the shortcut
// invoker, the human poster, or the only user mentioned in a workflow message.
func reporterOf(target ChatMessageEvent, invoker string, rec *form.Record) string {
	if invoker != "" {
		return invoker
	}
	if !target.IsBotAuthored() && target.UserID != "" {
		return target.UserID
	}
	if len(rec.Mentions) == 1 {
		for id := range rec.Mentions {
			return id
		}
	}
	return ""
}

// enrich fills the record's source block. Every lookup is best effort.
func (e *Engine) enrich(ctx context.Context, rec *form.Record, target ChatMessageEvent, reporterID string) {
	rec.Source.ChannelID = target.ChannelID
	rec.Source.MessageTS = target.TS

	var g errgroup.Group
	g.Go(func() error {
		link, err := e.chat.GetPermalink(ctx, target.ChannelID, target.TS)
		if err != nil {
			e.logger.Warnw("failed to fetch message permalink", "channel_id", target.ChannelID, "error", err)
			return nil
		}
		rec.Source.Permalink = link
		return nil
	})
	g.Go(func() error {
		name, err := e.chat.ChannelName(ctx, target.ChannelID)
		if err != nil {
			e.logger.Warnw("failed to fetch channel name", "channel_id", target.ChannelID, "error", err)
			return nil
		}
		rec.Source.ChannelName = name
		return nil
	})
	if reporterID != "" && e.users != nil {
		g.Go(func() error {
			profile, err := e.users.ResolveUser(ctx, reporterID)
			if err != nil {
				e.logger.Warnw("failed to resolve reporter", "user_id", reporterID, "error", err)
				return nil
			}
			rec.Source.Reporter = form.Reporter{
				ID:    profile.ID,
				Name:  profile.Name(),
				Email: profile.Email,
			}
			return nil
		})
	}
	_ = g.Wait()
}
