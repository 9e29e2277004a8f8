package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"deskbridge/internal/application/bridge"
	"deskbridge/internal/infrastructure/database"
	"deskbridge/internal/infrastructure/repository"
	"deskbridge/internal/infrastructure/scheduler"
	"deskbridge/internal/interfaces/cli/clienv"
	"deskbridge/internal/shared/biztime"
)

// The worker runs only the mapping purge schedule, for deployments where the
// web process is scaled out and should not purge from every replica.
func main() {
	env := "development"
	if len(os.Args) > 1 {
		env = os.Args[1]
	}
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, log, err := clienv.Setup(clienv.GinMode(env), "")
	if err != nil {
		fmt.Printf("failed to start worker: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	log.Infow("starting mapping purge worker",
		"environment", env,
		"retention", cfg.Sync.Retention,
		"interval", cfg.Sync.CleanupInterval,
	)

	repo := repository.NewThreadMappingRepository(database.Get(), log)
	cleaner := bridge.NewCleaner(repo, cfg.Sync.Retention, cfg.Sync.StoreTimeout, biztime.System(), log.Named("cleanup"))

	manager, err := scheduler.NewSchedulerManager(log.Named("scheduler"))
	if err != nil {
		log.Errorw("failed to create scheduler", "error", err)
		os.Exit(1)
	}
	if err := manager.RegisterMappingPurgeJob(cleaner, cfg.Sync.CleanupInterval, cfg.Sync.StoreTimeout); err != nil {
		log.Errorw("failed to register purge job", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	manager.Start()
	<-ctx.Done()

	log.Infow("received signal, shutting down")
	if err := manager.Stop(); err != nil {
		log.Errorw("scheduler stopped with error", "error", err)
	}
	log.Infow("mapping purge worker stopped")
}
