package http

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"deskbridge/internal/application/bridge"
	"deskbridge/internal/application/parser"
	"deskbridge/internal/domain/relay"
	"deskbridge/internal/infrastructure/cache"
	"deskbridge/internal/infrastructure/config"
	"deskbridge/internal/infrastructure/ratelimit"
	"deskbridge/internal/infrastructure/retry"
	"deskbridge/internal/infrastructure/scheduler"
	slackInfra "deskbridge/internal/infrastructure/slack"
	zendeskInfra "deskbridge/internal/infrastructure/zendesk"
	"deskbridge/internal/interfaces/http/handlers/common"
	healthHandlers "deskbridge/internal/interfaces/http/handlers/health"
	slackHandlers "deskbridge/internal/interfaces/http/handlers/slack"
	zendeskHandlers "deskbridge/internal/interfaces/http/handlers/zendesk"
	"deskbridge/internal/shared/logger"
	"deskbridge/internal/shared/services/markdown"
)

const (
	rateLimitPrefix = "deskbridge:ratelimit"
	botIdentityWait = 10 * time.Second
)

// ============================================================
// Section 1: Infrastructure - Repositories, Upstream Clients
// ============================================================

// initInfrastructure builds repositories and the Slack and Zendesk clients.
func (c *Container) initInfrastructure() {
	cfg := c.cfg
	log := c.log

	c.repos = newRepositories(c.db, log)
	c.markdownSvc = markdown.NewMarkdownService()

	policy := retry.FromConfig(cfg.Retry)

	slackOpts := []slackInfra.Option{
		slackInfra.WithRetryPolicy(policy),
		slackInfra.WithLogger(log.Named("slack")),
	}
	zendeskOpts := []zendeskInfra.Option{
		zendeskInfra.WithRetryPolicy(policy),
		zendeskInfra.WithMarkdown(c.markdownSvc),
		zendeskInfra.WithLogger(log.Named("zendesk")),
	}
	if c.redis != nil {
		limiter := ratelimit.NewRedisRateLimiter(c.redis, rateLimitPrefix)
		slackOpts = append(slackOpts, slackInfra.WithRateLimiter(limiter, cfg.Slack.PostsPerSecond))
		zendeskOpts = append(zendeskOpts, zendeskInfra.WithRateLimiter(limiter, cfg.Zendesk.RequestsPerMinute))
	}

	c.slackClient = slackInfra.NewClient(cfg.Slack, slackOpts...)
	c.zendeskClient = zendeskInfra.NewClient(cfg.Zendesk, zendeskOpts...)
	c.userResolver = slackInfra.NewUserResolver(c.slackClient, 0, 0)
}

// InitRedis creates the Redis client and verifies the connection.
func InitRedis(cfg *config.Config, log logger.Interface) (*redis.Client, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Infow("redis connection established", "address", cfg.Redis.GetAddr())

	return redisClient, nil
}

// ============================================================
// Section 2: Sync - Catalog, Parser, Engine, Cleaner
// ============================================================

func (c *Container) initSync() error {
	cfg := c.cfg
	log := c.log

	catalog, err := config.BuildCatalog(&cfg.Sync, cfg.Zendesk.DefaultTicketFormID)
	if err != nil {
		return fmt.Errorf("invalid sync configuration: %w", err)
	}
	c.catalog = catalog

	if len(catalog.Channels()) == 0 {
		log.Warnw("no channels configured for sync, form submissions will be ignored")
	}

	c.formParser = parser.NewParser(c.userResolver, log.Named("parser"))

	c.cleaner = bridge.NewCleaner(
		c.repos.threadMappingRepo,
		cfg.Sync.Retention,
		cfg.Sync.StoreTimeout,
		c.clock,
		log.Named("cleanup"),
	)

	var dedup bridge.EventDeduplicator
	if c.redis != nil {
		dedup = cache.NewRedisEventDeduplicator(c.redis, cfg.Sync.DedupTTL)
	} else {
		dedup = cache.NewMemoryEventDeduplicator(cfg.Sync.DedupTTL)
	}

	c.syncEngine = bridge.NewEngine(bridge.Deps{
		Catalog:  catalog,
		Parser:   c.formParser,
		Mappings: c.repos.threadMappingRepo,
		Chat:     c.slackClient,
		Tickets:  c.zendeskClient,
		Users:    c.userResolver,
		Dedup:    dedup,
		Filter:   relay.NewFilter(relay.Signature(cfg.Sync.RelaySignature)),
		Cleaner:  c.cleaner,
		Clock:    c.clock,
	}, bridge.Options{
		StoreTimeout:       cfg.Sync.StoreTimeout,
		BotUserID:          c.resolveBotUserID(),
		ShortcutCallbackID: cfg.Sync.ShortcutCallbackID,
		IgnoredAuthors:     cfg.Sync.IgnoredAuthors,
	}, log.Named("bridge"))

	c.dispatcher = common.NewDispatcher(cfg.Sync.EventTimeout, log.Named("dispatcher"))

	return nil
}

// resolveBotUserID returns the configured bot user id or asks Slack for it.
// Without one, the bot's own messages are still recognized by bot_id and the
// relay signature.
func (c *Container) resolveBotUserID() string {
	if id := c.cfg.Slack.BotUserID; id != "" {
		return id
	}
	if c.cfg.Slack.BotToken == "" {
		c.log.Warnw("slack bot token not configured, chat calls will fail")
		return ""
	}

	ctx, cancel := context.WithTimeout(context.Background(), botIdentityWait)
	defer cancel()
	id, err := c.slackClient.AuthTest(ctx)
	if err != nil {
		c.log.Warnw("failed to resolve slack bot user id", "error", err)
		return ""
	}
	c.log.Infow("resolved slack bot identity", "bot_user_id", id)
	return id
}

// ============================================================
// Section 3: Scheduler - Mapping Purge
// ============================================================

func (c *Container) initScheduler() error {
	manager, err := scheduler.NewSchedulerManager(c.log.Named("scheduler"))
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	if err := manager.RegisterMappingPurgeJob(c.cleaner, c.cfg.Sync.CleanupInterval, c.cfg.Sync.StoreTimeout); err != nil {
		return fmt.Errorf("failed to register mapping purge job: %w", err)
	}
	c.schedulerManager = manager
	return nil
}

// ============================================================
// Section 4: Handlers
// ============================================================

func (c *Container) initHandlers() {
	cfg := c.cfg
	log := c.log

	c.hdlrs = &allHandlers{
		healthHandler:  healthHandlers.NewHandler(cfg.Server.ServiceName, cfg.Server.Environment),
		slackHandler:   slackHandlers.NewHandler(c.syncEngine, c.dispatcher, log.Named("slack-handler")),
		zendeskHandler: zendeskHandlers.NewHandler(c.syncEngine, c.dispatcher, c.markdownSvc, c.clock, log.Named("zendesk-handler")),
	}
}
