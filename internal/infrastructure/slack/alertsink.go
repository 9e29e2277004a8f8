package slack

import (
	"context"
	"strings"

	"deskbridge/internal/infrastructure/cache"
	"deskbridge/internal/shared/logger"
)

// AlertSink posts operator alerts to a channel. When a deduplicator is set,
// alerts with the same message and error are sent once per cooldown.
type AlertSink struct {
	client    *Client
	channelID string
	dedup     *cache.AlertDeduplicator
}

func NewAlertSink(client *Client, channelID string, dedup *cache.AlertDeduplicator) *AlertSink {
	return &AlertSink{client: client, channelID: channelID, dedup: dedup}
}

func (s *AlertSink) SendAlert(ctx context.Context, text string) error {
	ctx = logger.WithoutAlerts(ctx)

	if s.dedup != nil {
		acquired, err := s.dedup.TryAcquireAlertLock(ctx, alertFingerprint(text))
		if err == nil && !acquired {
			return nil
		}
	}

	_, err := s.client.PostMessage(ctx, s.channelID, text)
	return err
}

// alertFingerprint keeps the lines that identify the failure and drops the
// ones that change per occurrence (time, instance, stack).
func alertFingerprint(text string) string {
	var parts []string
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "*Message:*") || strings.HasPrefix(line, "*Error:*") || strings.HasPrefix(line, "*Logger:*") {
			parts = append(parts, line)
		}
	}
	if len(parts) == 0 {
		return text
	}
	return strings.Join(parts, "\n")
}
