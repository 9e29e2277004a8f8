package bridge

import (
	"time"

	"deskbridge/internal/domain/chat"
)

// ChatMessageEvent is a message posted in a chat channel or thread.
type ChatMessageEvent struct {
	EventID   string
	ChannelID string
	UserID    string
	BotID     string
	Subtype   string
	TS        string
	ThreadTS  string
	Message   chat.Message
	// RelayMarked is set when the message carries the bridge's relay metadata.
	RelayMarked bool
}

// IsThreadReply reports whether the message was posted inside a thread.
func (e ChatMessageEvent) IsThreadReply() bool {
	return e.ThreadTS != "" && e.ThreadTS != e.TS
}

// IsBotAuthored reports whether a bot or workflow posted the message.
func (e ChatMessageEvent) IsBotAuthored() bool {
	return e.BotID != "" || e.Subtype == "bot_message"
}

// RootTS is the timestamp of the thread root the message belongs to.
func (e ChatMessageEvent) RootTS() string {
	if e.ThreadTS != "" {
		return e.ThreadTS
	}
	return e.TS
}

// ShortcutEvent is a user explicitly asking to turn a message into a ticket.
type ShortcutEvent struct {
	CallbackID string
	ChannelID  string
	UserID     string
	Target     ChatMessageEvent
}

// TicketEvent is a comment added to a ticket. Body is plain text.
type TicketEvent struct {
	TicketID    int64
	Body        string
	Public      bool
	AuthorName  string
	AuthorEmail string
	OccurredAt  time.Time
}

// Subtypes that never carry user content worth syncing.
var ignoredSubtypes = map[string]bool{
	"message_changed":   true,
	"message_deleted":   true,
	"message_replied":   true,
	"channel_join":      true,
	"channel_leave":     true,
	"channel_topic":     true,
	"channel_purpose":   true,
	"channel_name":      true,
	"channel_archive":   true,
	"channel_unarchive": true,
	"pinned_item":       true,
	"unpinned_item":     true,
	"group_join":        true,
	"group_leave":       true,
}
