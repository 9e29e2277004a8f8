package routes

import (
	"github.com/gin-gonic/gin"

	healthHandlers "deskbridge/internal/interfaces/http/handlers/health"
)

type HealthRouteConfig struct {
	Handler *healthHandlers.Handler
}

func SetupHealthRoutes(engine *gin.Engine, config *HealthRouteConfig) {
	engine.GET("/", config.Handler.Home)
	engine.GET("/health", config.Handler.Health)
}
