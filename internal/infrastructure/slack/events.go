package slack

import (
	"encoding/json"
	"fmt"

	"deskbridge/internal/application/bridge"
	"deskbridge/internal/domain/chat"
)

// Events API envelope types.
const (
	EnvelopeURLVerification = "url_verification"
	EnvelopeEventCallback   = "event_callback"
)

// Interaction payload types.
const (
	InteractionMessageAction = "message_action"
	InteractionShortcut      = "shortcut"
)

// Envelope is the outer body of an Events API request.
type Envelope struct {
	Type      string          `json:"type"`
	Challenge string          `json:"challenge,omitempty"`
	TeamID    string          `json:"team_id,omitempty"`
	EventID   string          `json:"event_id,omitempty"`
	EventTime int64           `json:"event_time,omitempty"`
	Event     json.RawMessage `json:"event,omitempty"`
}

// InnerEventType peeks at event.type without decoding the whole event.
func (e *Envelope) InnerEventType() string {
	var head struct {
		Type string `json:"type"`
	}
	if len(e.Event) == 0 || json.Unmarshal(e.Event, &head) != nil {
		return ""
	}
	return head.Type
}

// MessageEvent is a "message" event as delivered by the Events API, and the
// message object embedded in interaction payloads.
type MessageEvent struct {
	Type        string         `json:"type"`
	Subtype     string         `json:"subtype,omitempty"`
	Channel     string         `json:"channel,omitempty"`
	ChannelType string         `json:"channel_type,omitempty"`
	User        string         `json:"user,omitempty"`
	BotID       string         `json:"bot_id,omitempty"`
	Text        string         `json:"text"`
	TS          string         `json:"ts"`
	ThreadTS    string         `json:"thread_ts,omitempty"`
	Blocks      []chat.Block   `json:"blocks,omitempty"`
	Metadata    *EventMetadata `json:"metadata,omitempty"`
}

type EventMetadata struct {
	EventType    string         `json:"event_type"`
	EventPayload map[string]any `json:"event_payload,omitempty"`
}

// ParseMessageEvent decodes the inner event of an event_callback envelope.
func ParseMessageEvent(env *Envelope) (*MessageEvent, error) {
	var ev MessageEvent
	if err := json.Unmarshal(env.Event, &ev); err != nil {
		return nil, fmt.Errorf("failed to decode message event: %w", err)
	}
	return &ev, nil
}

// ChatEvent converts the Slack event into the bridge's event model.
func (m *MessageEvent) ChatEvent(eventID string) bridge.ChatMessageEvent {
	return bridge.ChatMessageEvent{
		EventID:     eventID,
		ChannelID:   m.Channel,
		UserID:      m.User,
		BotID:       m.BotID,
		Subtype:     m.Subtype,
		TS:          m.TS,
		ThreadTS:    m.ThreadTS,
		Message:     chat.Message{Text: m.Text, Blocks: m.Blocks},
		RelayMarked: m.Metadata != nil && m.Metadata.EventType == RelayEventType,
	}
}

// InteractionPayload is the JSON carried in the "payload" form field of an
// interactivity request.
type InteractionPayload struct {
	Type       string `json:"type"`
	CallbackID string `json:"callback_id"`
	TriggerID  string `json:"trigger_id,omitempty"`
	User       struct {
		ID       string `json:"id"`
		Username string `json:"username,omitempty"`
	} `json:"user"`
	Channel struct {
		ID   string `json:"id"`
		Name string `json:"name,omitempty"`
	} `json:"channel"`
	Message *MessageEvent `json:"message,omitempty"`
}

// ParseInteractionPayload decodes the payload form value.
func ParseInteractionPayload(raw string) (*InteractionPayload, error) {
	var p InteractionPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("failed to decode interaction payload: %w", err)
	}
	return &p, nil
}

// ShortcutEvent converts a message action into the bridge's shortcut model.
// ok is false for payloads that do not target a message.
func (p *InteractionPayload) ShortcutEvent() (ev bridge.ShortcutEvent, ok bool) {
	if p.Type != InteractionMessageAction || p.Message == nil {
		return bridge.ShortcutEvent{}, false
	}
	target := *p.Message
	if target.Channel == "" {
		target.Channel = p.Channel.ID
	}
	return bridge.ShortcutEvent{
		CallbackID: p.CallbackID,
		ChannelID:  p.Channel.ID,
		UserID:     p.User.ID,
		Target:     target.ChatEvent(""),
	}, true
}
