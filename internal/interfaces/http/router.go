package http

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"deskbridge/internal/infrastructure/config"
	"deskbridge/internal/interfaces/http/middleware"
	"deskbridge/internal/interfaces/http/routes"
	"deskbridge/internal/shared/logger"
)

// Router represents the HTTP router configuration
type Router struct {
	*Container
}

// NewRouter creates a new HTTP router with all dependencies
func NewRouter(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, log logger.Interface) (*Router, error) {
	c, err := NewContainer(db, redisClient, cfg, log)
	if err != nil {
		return nil, err
	}
	return &Router{Container: c}, nil
}

// SetupRoutes configures all HTTP routes
func (r *Router) SetupRoutes() {
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.CustomLogger(r.log))
	r.engine.Use(middleware.ErrorHandler())

	routes.SetupHealthRoutes(r.engine, &routes.HealthRouteConfig{
		Handler: r.hdlrs.healthHandler,
	})

	routes.SetupSlackRoutes(r.engine, &routes.SlackRouteConfig{
		Handler:           r.hdlrs.slackHandler,
		SignatureVerifier: middleware.SlackSignature(r.cfg.Slack.SigningSecret, r.clock, r.log),
	})

	routes.SetupZendeskRoutes(r.engine, &routes.ZendeskRouteConfig{
		Handler:           r.hdlrs.zendeskHandler,
		SignatureVerifier: middleware.ZendeskSignature(r.cfg.Zendesk.WebhookSecret, r.clock, r.log),
	})
}

// GetEngine returns the Gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

// StartScheduler starts the mapping purge job.
func (r *Router) StartScheduler() {
	r.schedulerManager.Start()
}

// Shutdown stops background work once the HTTP server has stopped accepting
// requests. In-flight events finish first, then the scheduler and any purge
// still running.
func (r *Router) Shutdown(ctx context.Context) error {
	var errs []error

	if err := r.dispatcher.Shutdown(ctx); err != nil {
		r.log.Warnw("in-flight events did not finish before shutdown deadline", "error", err)
		errs = append(errs, err)
	}

	if err := r.schedulerManager.Stop(); err != nil {
		r.log.Errorw("failed to stop scheduler", "error", err)
		errs = append(errs, err)
	}

	r.cleaner.Close()

	return errors.Join(errs...)
}
