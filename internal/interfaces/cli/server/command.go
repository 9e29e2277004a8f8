package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"deskbridge/internal/infrastructure/cache"
	"deskbridge/internal/infrastructure/config"
	"deskbridge/internal/infrastructure/database"
	"deskbridge/internal/infrastructure/migration"
	"deskbridge/internal/infrastructure/retry"
	"deskbridge/internal/infrastructure/slack"
	"deskbridge/internal/interfaces/cli/clienv"
	httpRouter "deskbridge/internal/interfaces/http"
	sharedConfig "deskbridge/internal/shared/config"
	"deskbridge/internal/shared/logger"
	"deskbridge/internal/shared/version"
)

var (
	env            string
	configPath     string
	skipMigrations bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		Long:  `Start the webhook server that keeps Slack threads and Zendesk tickets in sync.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "production", "Environment (development, test, production)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "Do not apply database migrations on startup")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(clienv.GinMode(env), configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger, cfg.Server.Mode == gin.DebugMode); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	gin.SetMode(cfg.Server.Mode)
	gin.DefaultWriter = io.Discard
	gin.DebugPrintRouteFunc = func(httpMethod, absolutePath, handlerName string, nuHandlers int) {}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = httpRouter.InitRedis(cfg, logger.NewLogger())
		if err != nil {
			return err
		}
		defer redisClient.Close()
	}

	// Alerts must be installed before any component captures the logger.
	alerts := installAlerts(cfg, redisClient)

	log := logger.NewLogger()
	log.Infow("starting server",
		"environment", cfg.Server.Environment,
		"version", version.Get(),
		"mode", cfg.Server.Mode,
		"redis", cfg.Redis.Enabled)

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	if err := runMigrations(&cfg.Database, log); err != nil {
		return err
	}

	router, err := httpRouter.NewRouter(database.Get(), redisClient, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}
	router.SetupRoutes()
	router.StartScheduler()

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      router.GetEngine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(sigCtx)
	g.Go(func() error {
		log.Infow("server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Infow("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Errorw("server forced to shutdown", "error", err)
		}
		if err := router.Shutdown(ctx); err != nil {
			log.Warnw("background work did not stop cleanly", "error", err)
		}
		if alerts != nil {
			if err := alerts.Close(ctx); err != nil {
				log.Warnw("pending alerts dropped on shutdown", "error", err)
			}
		}
		return nil
	})

	runErr := g.Wait()
	if runErr != nil {
		log.Errorw("server stopped unexpectedly", "error", runErr)
		return runErr
	}
	log.Infow("server exited")
	return nil
}

func runMigrations(dbCfg *sharedConfig.DatabaseConfig, log logger.Interface) error {
	if skipMigrations {
		log.Infow("skipping database migrations")
		return nil
	}

	manager, err := migration.NewManager(dbCfg)
	if err != nil {
		return err
	}
	if err := manager.Migrate(database.Get(), migration.AutoMigrateModels()...); err != nil {
		return fmt.Errorf("migration handling failed: %w", err)
	}
	return nil
}

// installAlerts mirrors error records to the alert channel. Its Slack client
// logs through the base logger so that a failing alert never alerts itself.
func installAlerts(cfg *config.Config, redisClient *redis.Client) *logger.AlertHandler {
	if !cfg.Alert.Enabled {
		return nil
	}

	client := slack.NewClient(cfg.Slack,
		slack.WithRetryPolicy(retry.NoRetry()),
		slack.WithLogger(logger.NewLoggerWithSlog(logger.Base())),
	)

	var dedup *cache.AlertDeduplicator
	if redisClient != nil {
		dedup = cache.NewAlertDeduplicator(redisClient, 0)
	}
	sink := slack.NewAlertSink(client, cfg.Alert.ChannelID, dedup)

	host, _ := os.Hostname()
	meta := logger.AlertMeta{
		Service:     cfg.Server.ServiceName,
		Instance:    cfg.Alert.Instance,
		Environment: cfg.Server.Environment,
		Host:        host,
	}

	var handler *logger.AlertHandler
	logger.Wrap(func(next slog.Handler) slog.Handler {
		handler = logger.NewAlertHandler(next, sink, logger.ParseLevel(cfg.Alert.Level, slog.LevelError), meta)
		return handler
	})
	return handler
}
