// Package bridge is the synchronization engine between chat threads and tickets.
package bridge

import (
	"context"

	"deskbridge/internal/domain/chat"
	"deskbridge/internal/domain/form"
)

// ChatGateway posts to and reads from the chat workspace.
type ChatGateway interface {
	PostThreadMessage(ctx context.Context, channelID, threadTS, text string) error
	PostEphemeral(ctx context.Context, channelID, userID, threadTS, text string) error
	GetPermalink(ctx context.Context, channelID, messageTS string) (string, error)
	ChannelName(ctx context.Context, channelID string) (string, error)
}

// CreatedTicket identifies a ticket the gateway created.
type CreatedTicket struct {
	ID  int64
	URL string
}

// TicketGateway creates tickets and appends private notes to them.
type TicketGateway interface {
	CreateTicket(ctx context.Context, req form.TicketRequest) (*CreatedTicket, error)
	AddInternalNote(ctx context.Context, ticketID int64, body string) error
}

// FormParser turns chat messages into form records.
type FormParser interface {
	Parse(ctx context.Context, msg chat.Message) (*form.Record, error)
	ReplaceMentions(ctx context.Context, text string) string
}

// EventDeduplicator remembers delivered chat event ids.
type EventDeduplicator interface {
	// FirstDelivery records eventID and reports whether it was seen for the first time.
	FirstDelivery(ctx context.Context, eventID string) (bool, error)
}
