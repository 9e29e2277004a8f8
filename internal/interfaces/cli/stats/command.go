package stats

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"deskbridge/internal/infrastructure/database"
	"deskbridge/internal/infrastructure/repository"
	"deskbridge/internal/interfaces/cli/clienv"
)

var (
	env        string
	configPath string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show thread mapping statistics",
		Long:  `Print the number of stored thread mappings and their activity range.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "production", "Environment (development, test, production)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, log, err := clienv.Setup(clienv.GinMode(env), configPath)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	stats, err := repository.NewThreadMappingRepository(database.Get(), log).Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read stats: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Driver:\t%s\n", cfg.Database.Driver)
	fmt.Fprintf(w, "Thread mappings:\t%d\n", stats.Total)
	fmt.Fprintf(w, "Oldest activity:\t%s\n", formatTime(stats.OldestActivity))
	fmt.Fprintf(w, "Newest activity:\t%s\n", formatTime(stats.NewestActivity))
	fmt.Fprintf(w, "Retention:\t%s\n", cfg.Sync.Retention)
	return w.Flush()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.RFC3339)
}
