package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"deskbridge/internal/shared/logger"
)

var migrationName = regexp.MustCompile(`^[a-z0-9_]+$`)

// Generator writes new goose script files into the source tree, one per dialect.
type Generator struct {
	scriptsPath string
	logger      logger.Interface
	now         func() time.Time
}

// NewGenerator creates a generator rooted at the scripts directory
// (internal/infrastructure/migration/scripts).
func NewGenerator(scriptsPath string) *Generator {
	return &Generator{
		scriptsPath: scriptsPath,
		logger:      logger.NewLogger().With("component", "migration.generator"),
		now:         time.Now,
	}
}

// CreateMigration creates an empty script for every dialect and returns their paths.
func (g *Generator) CreateMigration(name string) ([]string, error) {
	if !migrationName.MatchString(name) {
		return nil, fmt.Errorf("migration name must be lower snake case, got %q", name)
	}
	g.logger.Infow("creating new migration", "name", name)

	fileName := fmt.Sprintf("%s_%s.sql", g.now().UTC().Format("20060102150405"), name)

	var created []string
	for _, dialect := range []string{"postgres", "mysql", "sqlite3"} {
		dir := filepath.Join(g.scriptsPath, dialect)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return created, fmt.Errorf("failed to create scripts directory: %w", err)
		}

		path := filepath.Join(dir, fileName)
		if err := os.WriteFile(path, []byte(g.template(name, dialect)), 0o644); err != nil {
			return created, fmt.Errorf("failed to create migration file: %w", err)
		}
		created = append(created, path)
	}

	g.logger.Infow("migration files created successfully", "files", created)
	return created, nil
}

func (g *Generator) template(name, dialect string) string {
	return fmt.Sprintf(`-- Migration: %s (%s)
-- Created: %s

-- +goose Up

-- +goose Down
`, name, dialect, g.now().UTC().Format("2006-01-02 15:04:05"))
}
