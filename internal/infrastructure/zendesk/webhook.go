package zendesk

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"deskbridge/internal/application/bridge"
	"deskbridge/internal/shared/services/markdown"
)

const (
	HeaderSignature          = "X-Zendesk-Webhook-Signature"
	HeaderSignatureTimestamp = "X-Zendesk-Webhook-Signature-Timestamp"

	// MaxWebhookAge bounds the skew between a signed timestamp and now.
	MaxWebhookAge = 5 * time.Minute
)

var (
	ErrMissingTicketID  = errors.New("zendesk: webhook payload has no ticket id")
	ErrMissingSignature = errors.New("zendesk: missing webhook signature headers")
	ErrInvalidSignature = errors.New("zendesk: webhook signature mismatch")
	ErrStaleWebhook     = errors.New("zendesk: webhook timestamp outside allowed window")
)

// SignWebhook computes the signature Zendesk sends for body at timestamp.
func SignWebhook(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyWebhook checks the webhook signing headers against secret. The
// RFC 3339 timestamp must lie within MaxWebhookAge of now.
func VerifyWebhook(secret, timestamp, signature string, body []byte, now time.Time) error {
	if timestamp == "" || signature == "" {
		return ErrMissingSignature
	}
	ts, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return ErrStaleWebhook
	}
	age := now.Sub(ts)
	if age > MaxWebhookAge || age < -MaxWebhookAge {
		return ErrStaleWebhook
	}
	if !hmac.Equal([]byte(SignWebhook(secret, timestamp, body)), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}

// TicketID accepts a JSON number or a numeric string.
type TicketID int64

func (id *TicketID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*id = 0
			return nil
		}
		data = []byte(s)
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid ticket id %s: %w", data, err)
	}
	*id = TicketID(n)
	return nil
}

// WebhookComment is the comment that triggered the webhook.
type WebhookComment struct {
	Body        string `json:"body"`
	HTMLBody    string `json:"html_body"`
	Public      *bool  `json:"public"`
	AuthorName  string `json:"author_name"`
	AuthorEmail string `json:"author_email"`
}

// WebhookPayload is the JSON body configured on the Zendesk trigger.
// The ticket id may come as ticket_id or as ticket.id.
type WebhookPayload struct {
	TicketID TicketID `json:"ticket_id"`
	Ticket   *struct {
		ID TicketID `json:"id"`
	} `json:"ticket"`
	CurrentComment *WebhookComment `json:"current_comment"`
	UpdatedAt      string          `json:"updated_at"`
}

func ParseWebhook(body []byte) (*WebhookPayload, error) {
	var p WebhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("failed to decode webhook payload: %w", err)
	}
	return &p, nil
}

// ID returns the ticket id from whichever field carried it.
func (p *WebhookPayload) ID() int64 {
	if p.TicketID != 0 {
		return int64(p.TicketID)
	}
	if p.Ticket != nil {
		return int64(p.Ticket.ID)
	}
	return 0
}

var htmlTag = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)

// TicketEvent converts the payload into the bridge's model. HTML bodies are
// reduced to plain text; a comment without an explicit visibility is public.
func (p *WebhookPayload) TicketEvent(md markdown.MarkdownService, now time.Time) (bridge.TicketEvent, error) {
	id := p.ID()
	if id == 0 {
		return bridge.TicketEvent{}, ErrMissingTicketID
	}

	ev := bridge.TicketEvent{TicketID: id, Public: true, OccurredAt: now}
	if t, err := time.Parse(time.RFC3339, p.UpdatedAt); err == nil {
		ev.OccurredAt = t.UTC()
	}

	c := p.CurrentComment
	if c == nil {
		return ev, nil
	}
	if c.Public != nil {
		ev.Public = *c.Public
	}
	ev.AuthorName = strings.TrimSpace(c.AuthorName)
	ev.AuthorEmail = strings.TrimSpace(c.AuthorEmail)

	body := c.Body
	switch {
	case strings.TrimSpace(body) == "" && c.HTMLBody != "":
		body = md.ToPlainText(c.HTMLBody)
	case htmlTag.MatchString(body):
		body = md.ToPlainText(body)
	}
	ev.Body = strings.TrimSpace(body)
	return ev, nil
}
