package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"deskbridge/internal/domain/threadmapping"
	"deskbridge/internal/infrastructure/persistence/models"
	apperrors "deskbridge/internal/shared/errors"
	"deskbridge/internal/shared/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every pooled connection to :memory: would otherwise get its own database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.ThreadMappingModel{}))
	return db
}

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newMapping(t *testing.T, channel, ts string, ticketID int64, at time.Time) *threadmapping.ThreadMapping {
	t.Helper()
	key, err := threadmapping.NewThreadKey(channel, ts)
	require.NoError(t, err)
	m, err := threadmapping.NewThreadMapping(key, ticketID, "account_change", at)
	require.NoError(t, err)
	return m
}

func TestThreadMappingRepository_PutAndGet(t *testing.T) {
	repo := NewThreadMappingRepository(setupTestDB(t), logger.NewNop())
	ctx := context.Background()

	m := newMapping(t, "C1", "1700000000.000100", 1001, t0)
	require.NoError(t, repo.Put(ctx, m))

	t.Run("by thread", func(t *testing.T) {
		found, err := repo.GetByThread(ctx, m.Key())
		require.NoError(t, err)
		assert.Equal(t, int64(1001), found.TicketID())
		assert.Equal(t, "account_change", found.FormKey())
		assert.True(t, t0.Equal(found.CreatedAt()))
		assert.True(t, t0.Equal(found.LastActivityAt()))
	})

	t.Run("by ticket", func(t *testing.T) {
		found, err := repo.GetByTicket(ctx, 1001)
		require.NoError(t, err)
		assert.Equal(t, m.Key(), found.Key())
	})

	t.Run("misses return the sentinel", func(t *testing.T) {
		_, err := repo.GetByTicket(ctx, 9999)
		assert.ErrorIs(t, err, threadmapping.ErrMappingNotFound)

		_, err = repo.GetByThread(ctx, threadmapping.ThreadKey{ChannelID: "C1", ThreadTS: "1.0"})
		assert.ErrorIs(t, err, threadmapping.ErrMappingNotFound)
	})
}

func TestThreadMappingRepository_PutKeepsBothSidesUnique(t *testing.T) {
	repo := NewThreadMappingRepository(setupTestDB(t), logger.NewNop())
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, newMapping(t, "C1", "1.1", 1001, t0)))

	// Same thread, new ticket: the row is replaced.
	require.NoError(t, repo.Put(ctx, newMapping(t, "C1", "1.1", 1002, t0.Add(time.Minute))))
	found, err := repo.GetByThread(ctx, threadmapping.ThreadKey{ChannelID: "C1", ThreadTS: "1.1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1002), found.TicketID())
	_, err = repo.GetByTicket(ctx, 1001)
	assert.ErrorIs(t, err, threadmapping.ErrMappingNotFound)

	// Same ticket, new thread: the old thread is released.
	require.NoError(t, repo.Put(ctx, newMapping(t, "C1", "2.2", 1002, t0.Add(2*time.Minute))))
	_, err = repo.GetByThread(ctx, threadmapping.ThreadKey{ChannelID: "C1", ThreadTS: "1.1"})
	assert.ErrorIs(t, err, threadmapping.ErrMappingNotFound)

	found, err = repo.GetByTicket(ctx, 1002)
	require.NoError(t, err)
	assert.Equal(t, "2.2", found.ThreadTS())

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestThreadMappingRepository_Touch(t *testing.T) {
	repo := NewThreadMappingRepository(setupTestDB(t), logger.NewNop())
	ctx := context.Background()

	m := newMapping(t, "C1", "1.1", 1001, t0)
	require.NoError(t, repo.Put(ctx, m))

	later := t0.Add(2 * time.Hour)
	require.NoError(t, repo.Touch(ctx, m.Key(), later))

	found, err := repo.GetByThread(ctx, m.Key())
	require.NoError(t, err)
	assert.True(t, later.Equal(found.LastActivityAt()))

	// An older touch is accepted but does not move the clock back.
	require.NoError(t, repo.Touch(ctx, m.Key(), t0.Add(time.Hour)))
	found, err = repo.GetByThread(ctx, m.Key())
	require.NoError(t, err)
	assert.True(t, later.Equal(found.LastActivityAt()))

	err = repo.Touch(ctx, threadmapping.ThreadKey{ChannelID: "C9", ThreadTS: "9.9"}, later)
	assert.ErrorIs(t, err, threadmapping.ErrMappingNotFound)
}

func TestThreadMappingRepository_PurgeExpired(t *testing.T) {
	repo := NewThreadMappingRepository(setupTestDB(t), logger.NewNop())
	ctx := context.Background()

	now := t0.Add(40 * 24 * time.Hour)
	require.NoError(t, repo.Put(ctx, newMapping(t, "C1", "1.1", 1001, now.Add(-31*24*time.Hour))))
	require.NoError(t, repo.Put(ctx, newMapping(t, "C1", "2.2", 1002, now.Add(-29*24*time.Hour))))
	fresh := newMapping(t, "C1", "3.3", 1003, now.Add(-35*24*time.Hour))
	require.NoError(t, repo.Put(ctx, fresh))
	require.NoError(t, repo.Touch(ctx, fresh.Key(), now.Add(-time.Hour)))

	removed, err := repo.PurgeExpired(ctx, now.Add(-threadmapping.DefaultRetention))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = repo.GetByTicket(ctx, 1001)
	assert.ErrorIs(t, err, threadmapping.ErrMappingNotFound)
	_, err = repo.GetByTicket(ctx, 1003)
	assert.NoError(t, err, "touched mappings survive")

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
	assert.True(t, now.Add(-29*24*time.Hour).Equal(stats.OldestActivity))
	assert.True(t, now.Add(-time.Hour).Equal(stats.NewestActivity))
}

func TestThreadMappingRepository_StoreFailure(t *testing.T) {
	db := setupTestDB(t)
	repo := NewThreadMappingRepository(db, logger.NewNop())
	require.NoError(t, db.Migrator().DropTable(&models.ThreadMappingModel{}))

	err := repo.Put(context.Background(), newMapping(t, "C1", "1.1", 1001, t0))
	assert.True(t, apperrors.IsStoreFailure(err))
	assert.True(t, apperrors.IsRetryable(err))

	_, err = repo.GetByTicket(context.Background(), 1001)
	assert.True(t, apperrors.IsStoreFailure(err))
}
