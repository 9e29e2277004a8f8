package zendesk

import (
	"context"
	"fmt"
	"net/http"

	"deskbridge/internal/application/bridge"
	"deskbridge/internal/domain/form"
)

type ticketComment struct {
	Body     string `json:"body"`
	HTMLBody string `json:"html_body,omitempty"`
	Public   bool   `json:"public"`
}

type customField struct {
	ID    int64  `json:"id"`
	Value string `json:"value"`
}

type requester struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type ticketPayload struct {
	Subject      string         `json:"subject,omitempty"`
	Comment      *ticketComment `json:"comment,omitempty"`
	TicketFormID int64          `json:"ticket_form_id,omitempty"`
	CustomFields []customField  `json:"custom_fields,omitempty"`
	GroupID      int64          `json:"group_id,omitempty"`
	Priority     string         `json:"priority,omitempty"`
	Tags         []string       `json:"tags,omitempty"`
	Requester    *requester     `json:"requester,omitempty"`
	ExternalID   string         `json:"external_id,omitempty"`
}

type ticketEnvelope struct {
	Ticket ticketPayload `json:"ticket"`
}

type ticketResponse struct {
	Ticket struct {
		ID  int64  `json:"id"`
		URL string `json:"url"`
	} `json:"ticket"`
}

// CreateTicket creates a ticket whose first public comment is the rendered
// description.
func (c *Client) CreateTicket(ctx context.Context, req form.TicketRequest) (*bridge.CreatedTicket, error) {
	payload := ticketPayload{
		Subject:      req.Subject,
		Comment:      c.descriptionComment(req.Description),
		TicketFormID: req.TicketFormID,
		GroupID:      req.GroupID,
		Priority:     req.Priority,
		Tags:         req.Tags,
		ExternalID:   req.ExternalID,
	}
	for _, f := range req.CustomFields {
		payload.CustomFields = append(payload.CustomFields, customField{ID: f.ID, Value: f.Value})
	}
	if req.Requester.Email != "" {
		payload.Requester = &requester{Name: req.Requester.Name, Email: req.Requester.Email}
	}

	var resp ticketResponse
	err := c.call(ctx, apiRequest{
		Method:         http.MethodPost,
		Path:           "/api/v2/tickets.json",
		Body:           ticketEnvelope{Ticket: payload},
		Out:            &resp,
		IdempotencyKey: idempotencyKey(req.ExternalID),
	})
	if err != nil {
		return nil, err
	}
	if resp.Ticket.ID == 0 {
		return nil, fmt.Errorf("zendesk returned a ticket without id")
	}

	c.logger.Infow("zendesk ticket created", "ticket_id", resp.Ticket.ID, "ticket_form_id", req.TicketFormID)
	return &bridge.CreatedTicket{ID: resp.Ticket.ID, URL: c.TicketURL(resp.Ticket.ID)}, nil
}

func (c *Client) descriptionComment(description string) *ticketComment {
	comment := &ticketComment{Body: description, Public: true}
	if c.markdown == nil {
		return comment
	}
	rendered, err := c.markdown.ToHTMLSanitized(description)
	if err != nil {
		c.logger.Warnw("failed to render ticket description, sending plain text", "error", err)
		return comment
	}
	comment.HTMLBody = rendered
	return comment
}

// AddInternalNote appends a private comment to a ticket.
func (c *Client) AddInternalNote(ctx context.Context, ticketID int64, body string) error {
	payload := ticketEnvelope{Ticket: ticketPayload{Comment: &ticketComment{Body: body, Public: false}}}
	path := fmt.Sprintf("/api/v2/tickets/%d.json", ticketID)
	return c.call(ctx, apiRequest{Method: http.MethodPut, Path: path, Body: payload})
}

// idempotencyKey derives the create key from the thread key. A create replayed
// within Zendesk's idempotency window returns the ticket it already made.
func idempotencyKey(externalID string) string {
	if externalID == "" {
		return ""
	}
	return "deskbridge:" + externalID
}
