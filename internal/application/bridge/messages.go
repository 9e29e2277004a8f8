package bridge

import (
	"fmt"
	"strings"

	"deskbridge/internal/shared/errors"
)

const (
	msgChannelNotEnabled = "This integration is not enabled for this channel."
	msgNotAForm          = "Could not parse message data. Please ensure this is a workflow form message."
	msgTicketCreated     = "Ticket #%d created successfully! Check the thread for details."
	msgTicketFailed      = "Failed to create ticket: %s"
	msgTicketUnlinked    = "Ticket #%d was created but could not be linked to this thread. Replies here will not sync."
)

func ticketFailedText(err error) string {
	reason := "the ticketing service is unavailable, please try again later"
	if appErr := errors.GetAppError(err); appErr != nil && appErr.Message != "" {
		reason = appErr.Message
	}
	return fmt.Sprintf(msgTicketFailed, reason)
}

func ticketCreatedThreadText(t *CreatedTicket) string {
	var b strings.Builder
	b.WriteString(":ticket: *Zendesk Ticket Created*\n")
	fmt.Fprintf(&b, "Ticket ID: #%d", t.ID)
	if t.URL != "" {
		fmt.Fprintf(&b, "\nView ticket: %s", t.URL)
	}
	b.WriteString("\nReplies in this thread are added to the ticket as internal notes.")
	return b.String()
}

func chatReplyNote(author, text string) string {
	if author == "" {
		author = "a Slack user"
	}
	return fmt.Sprintf("Slack reply from %s:\n%s", author, text)
}

func ticketCommentText(ev TicketEvent) string {
	author := ev.AuthorName
	if author == "" {
		author = "Support agent"
	}
	if !ev.Public {
		return fmt.Sprintf("🔒 Internal note from %s:\n%s", author, ev.Body)
	}
	if ev.AuthorEmail != "" {
		return fmt.Sprintf("💬 %s (%s) replied:\n%s", author, ev.AuthorEmail, ev.Body)
	}
	return fmt.Sprintf("💬 %s replied:\n%s", author, ev.Body)
}
