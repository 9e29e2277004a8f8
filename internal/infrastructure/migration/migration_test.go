package migration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"deskbridge/internal/shared/config"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestGooseStrategyUpAndDown(t *testing.T) {
	db := openSQLite(t)
	strategy, err := NewGooseStrategy("sqlite")
	require.NoError(t, err)

	require.NoError(t, strategy.Migrate(db))
	assert.True(t, db.Migrator().HasTable("thread_mappings"))

	version, err := strategy.GetVersion(db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	// Applying again is a no-op.
	require.NoError(t, strategy.Migrate(db))

	require.NoError(t, strategy.MigrateDown(db, 1))
	assert.False(t, db.Migrator().HasTable("thread_mappings"))
}

func TestGooseStrategyUnknownDriver(t *testing.T) {
	_, err := NewGooseStrategy("oracle")
	assert.Error(t, err)
}

func TestEveryDialectShipsTheSameScripts(t *testing.T) {
	var names map[string]bool
	for _, dialect := range []string{"postgres", "mysql", "sqlite3"} {
		entries, err := scripts.ReadDir("scripts/" + dialect)
		require.NoError(t, err)

		got := make(map[string]bool)
		for _, e := range entries {
			got[e.Name()] = true
		}
		if names == nil {
			names = got
			continue
		}
		assert.Equal(t, names, got, dialect)
	}
	assert.NotEmpty(t, names)
}

func TestNewManagerSelectsStrategy(t *testing.T) {
	m, err := NewManager(&config.DatabaseConfig{Driver: "sqlite", AutoMigrate: true})
	require.NoError(t, err)
	assert.Equal(t, "gorm_auto_migrate", m.GetStrategy().GetName())

	m, err = NewManager(&config.DatabaseConfig{Driver: "postgres"})
	require.NoError(t, err)
	assert.Equal(t, "goose", m.GetStrategy().GetName())
}

func TestManagerAutoMigrate(t *testing.T) {
	db := openSQLite(t)
	m := NewManagerWithStrategy(NewGormAutoMigrateStrategy())

	require.NoError(t, m.Migrate(db))
	assert.True(t, db.Migrator().HasTable("thread_mappings"))
}

func TestGeneratorCreatesOneScriptPerDialect(t *testing.T) {
	dir := t.TempDir()
	g := NewGenerator(dir)
	g.now = func() time.Time { return time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC) }

	files, err := g.CreateMigration("add_channel_index")
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, filepath.Join(dir, "postgres", "20260504030201_add_channel_index.sql"), files[0])

	content, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(content), "-- +goose Up")
	assert.Contains(t, string(content), "-- +goose Down")

	_, err = g.CreateMigration("Bad Name")
	assert.Error(t, err)
}
