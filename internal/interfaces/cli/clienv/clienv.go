// Package clienv prepares configuration, logging and the database for
// one-shot commands.
package clienv

import (
	"fmt"

	"deskbridge/internal/infrastructure/config"
	"deskbridge/internal/infrastructure/database"
	"deskbridge/internal/shared/logger"
)

// Setup loads configuration, initializes the logger and opens the database.
// Callers close the database with database.Close.
func Setup(mode, configPath string) (*config.Config, logger.Interface, error) {
	cfg, err := config.Load(mode, configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger, cfg.Server.Mode == "debug"); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := database.Init(&cfg.Database); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return cfg, logger.NewLogger(), nil
}

// GinMode maps an environment name to a server mode.
func GinMode(environment string) string {
	switch environment {
	case "production", "prod", "release":
		return "release"
	case "development", "dev", "debug":
		return "debug"
	case "test", "testing":
		return "test"
	default:
		return "release"
	}
}
