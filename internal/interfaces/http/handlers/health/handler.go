package health

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"deskbridge/internal/shared/version"
)

type Handler struct {
	service     string
	environment string
}

func NewHandler(service, environment string) *Handler {
	return &Handler{service: service, environment: environment}
}

// Health reports liveness
// GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"service":     h.service,
		"environment": h.environment,
	})
}

// Home describes the service
// GET /
func (h *Handler) Home(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": h.service,
		"version": version.Get(),
		"status":  "running",
		"endpoints": gin.H{
			"health":              "/health",
			"slack_events":        "/slack/events",
			"slack_interactivity": "/slack/interactivity",
			"zendesk_webhook":     "/zendesk/webhook",
		},
	})
}
