package routes

import (
	"github.com/gin-gonic/gin"

	slackHandlers "deskbridge/internal/interfaces/http/handlers/slack"
)

// SlackRouteConfig holds the configuration for Slack routes
type SlackRouteConfig struct {
	Handler           *slackHandlers.Handler
	SignatureVerifier gin.HandlerFunc
}

// SetupSlackRoutes configures the Events API and interactivity endpoints.
// Both are called by Slack and authenticated by request signature.
func SetupSlackRoutes(engine *gin.Engine, config *SlackRouteConfig) {
	slack := engine.Group("/slack")
	slack.Use(config.SignatureVerifier)
	{
		// POST /slack/events - message events and url_verification
		slack.POST("/events", config.Handler.HandleEvents)

		// POST /slack/interactivity - message shortcuts
		slack.POST("/interactivity", config.Handler.HandleInteractivity)
	}
}
