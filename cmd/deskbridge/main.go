package main

import (
	"os"

	"github.com/spf13/cobra"

	"deskbridge/internal/interfaces/cli/cleanup"
	"deskbridge/internal/interfaces/cli/migrate"
	"deskbridge/internal/interfaces/cli/server"
	"deskbridge/internal/interfaces/cli/stats"
	"deskbridge/internal/shared/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "deskbridge",
		Short:   "Deskbridge - Slack and Zendesk thread sync",
		Long:    `Deskbridge turns Slack form posts into Zendesk tickets and keeps the Slack thread and the ticket conversation in sync.`,
		Version: version.Get(),
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
		cleanup.NewCommand(),
		stats.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
