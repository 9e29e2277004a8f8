package http

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"deskbridge/internal/application/bridge"
	"deskbridge/internal/application/parser"
	"deskbridge/internal/domain/form"
	"deskbridge/internal/infrastructure/config"
	"deskbridge/internal/infrastructure/scheduler"
	slackInfra "deskbridge/internal/infrastructure/slack"
	zendeskInfra "deskbridge/internal/infrastructure/zendesk"
	"deskbridge/internal/interfaces/http/handlers/common"
	"deskbridge/internal/shared/biztime"
	"deskbridge/internal/shared/logger"
	"deskbridge/internal/shared/services/markdown"
)

// Container holds infrastructure clients, repositories, the sync engine,
// handlers and background services. It wires everything together and
// provides Shutdown for graceful termination.
type Container struct {
	// Core infrastructure
	engine *gin.Engine
	db     *gorm.DB
	cfg    *config.Config
	log    logger.Interface
	redis  *redis.Client
	clock  biztime.Clock

	// Repositories
	repos *repositories

	// Handlers
	hdlrs *allHandlers

	// Upstream clients
	slackClient   *slackInfra.Client
	zendeskClient *zendeskInfra.Client
	userResolver  *slackInfra.UserResolver
	markdownSvc   markdown.MarkdownService

	// Sync
	catalog    *form.Catalog
	formParser *parser.Parser
	syncEngine *bridge.Engine
	cleaner    *bridge.Cleaner
	dispatcher *common.Dispatcher

	// Background services
	schedulerManager *scheduler.SchedulerManager
}

// NewContainer creates a Container with all dependencies wired together.
// redisClient may be nil: deduplication then stays in process and outbound
// calls are not paced. The caller owns the Redis client.
func NewContainer(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, log logger.Interface) (*Container, error) {
	c := &Container{
		engine: gin.New(),
		db:     db,
		cfg:    cfg,
		log:    log,
		redis:  redisClient,
		clock:  biztime.System(),
	}

	// Section 1: Infrastructure - Repositories, Upstream Clients
	c.initInfrastructure()

	// Section 2: Sync - Catalog, Parser, Engine, Cleaner
	if err := c.initSync(); err != nil {
		return nil, err
	}

	// Section 3: Scheduler - Mapping Purge
	if err := c.initScheduler(); err != nil {
		return nil, err
	}

	// Section 4: Handlers
	c.initHandlers()

	return c, nil
}

// Engine returns the sync engine.
func (c *Container) Engine() *bridge.Engine {
	return c.syncEngine
}
