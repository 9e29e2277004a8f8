package http

import (
	healthHandlers "deskbridge/internal/interfaces/http/handlers/health"
	slackHandlers "deskbridge/internal/interfaces/http/handlers/slack"
	zendeskHandlers "deskbridge/internal/interfaces/http/handlers/zendesk"
)

// allHandlers holds all HTTP handler instances used by the application.
type allHandlers struct {
	healthHandler  *healthHandlers.Handler
	slackHandler   *slackHandlers.Handler
	zendeskHandler *zendeskHandlers.Handler
}
