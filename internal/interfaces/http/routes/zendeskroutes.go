package routes

import (
	"github.com/gin-gonic/gin"

	zendeskHandlers "deskbridge/internal/interfaces/http/handlers/zendesk"
)

// ZendeskRouteConfig holds the configuration for Zendesk routes
type ZendeskRouteConfig struct {
	Handler           *zendeskHandlers.Handler
	SignatureVerifier gin.HandlerFunc
}

// SetupZendeskRoutes configures the ticket webhook endpoint
func SetupZendeskRoutes(engine *gin.Engine, config *ZendeskRouteConfig) {
	zendesk := engine.Group("/zendesk")
	zendesk.Use(config.SignatureVerifier)
	{
		zendesk.POST("/webhook", config.Handler.HandleWebhook)
	}
}
