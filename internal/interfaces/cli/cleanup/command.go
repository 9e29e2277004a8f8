package cleanup

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"deskbridge/internal/application/bridge"
	"deskbridge/internal/infrastructure/database"
	"deskbridge/internal/infrastructure/repository"
	"deskbridge/internal/interfaces/cli/clienv"
	"deskbridge/internal/shared/biztime"
)

var (
	env        string
	configPath string
	retention  time.Duration
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Purge idle thread mappings",
		Long:  `Delete thread mappings whose last activity is older than the retention window, then exit.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "production", "Environment (development, test, production)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")
	cmd.Flags().DurationVar(&retention, "retention", 0, "Override sync.retention (e.g. 720h)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, log, err := clienv.Setup(clienv.GinMode(env), configPath)
	if err != nil {
		return err
	}
	defer database.Close()

	window := cfg.Sync.Retention
	if retention > 0 {
		window = retention
	}

	repo := repository.NewThreadMappingRepository(database.Get(), log)
	cleaner := bridge.NewCleaner(repo, window, 0, biztime.System(), log.Named("cleanup"))

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	removed, err := cleaner.Execute(ctx)
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}

	fmt.Printf("Removed %d thread mappings idle for more than %s\n", removed, window)
	return nil
}
