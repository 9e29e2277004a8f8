package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"deskbridge/internal/domain/threadmapping"
	"deskbridge/internal/infrastructure/persistence/mappers"
	"deskbridge/internal/infrastructure/persistence/models"
	"deskbridge/internal/shared/db"
	apperrors "deskbridge/internal/shared/errors"
	"deskbridge/internal/shared/logger"
)

// ThreadMappingRepository stores thread mappings in a relational table.
// thread_key is the primary key and ticket_id is unique, so each side of a
// correlation has at most one row.
type ThreadMappingRepository struct {
	db     *gorm.DB
	tm     *db.TransactionManager
	mapper mappers.ThreadMappingMapper
	logger logger.Interface
}

func NewThreadMappingRepository(gdb *gorm.DB, log logger.Interface) *ThreadMappingRepository {
	return &ThreadMappingRepository{
		db:     gdb,
		tm:     db.NewTransactionManager(gdb, 0),
		mapper: mappers.NewThreadMappingMapper(),
		logger: log,
	}
}

// Put upserts the mapping for its thread. A stale row still holding the same
// ticket under another thread is deleted first, inside the same transaction.
func (r *ThreadMappingRepository) Put(ctx context.Context, m *threadmapping.ThreadMapping) error {
	model := r.mapper.ToModel(m)

	err := r.tm.RunInTransaction(ctx, func(txCtx context.Context) error {
		tx := db.GetTxFromContext(txCtx, r.db)

		if err := tx.
			Where("ticket_id = ? AND thread_key <> ?", model.TicketID, model.ThreadKey).
			Delete(&models.ThreadMappingModel{}).Error; err != nil {
			return fmt.Errorf("failed to release ticket %d: %w", model.TicketID, err)
		}

		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "thread_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"channel_id", "thread_ts", "ticket_id", "form_key", "created_at", "last_activity_at"}),
		}).Create(model).Error
	})
	if err != nil {
		r.logger.Errorw("failed to put thread mapping", "thread", model.ThreadKey, "ticket_id", model.TicketID, "error", err)
		return apperrors.NewStoreError("failed to put thread mapping", err)
	}
	return nil
}

func (r *ThreadMappingRepository) GetByThread(ctx context.Context, key threadmapping.ThreadKey) (*threadmapping.ThreadMapping, error) {
	return r.first(ctx, "thread_key = ?", key.String())
}

func (r *ThreadMappingRepository) GetByTicket(ctx context.Context, ticketID int64) (*threadmapping.ThreadMapping, error) {
	return r.first(ctx, "ticket_id = ?", ticketID)
}

func (r *ThreadMappingRepository) first(ctx context.Context, query string, arg any) (*threadmapping.ThreadMapping, error) {
	var model models.ThreadMappingModel
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Where(query, arg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, threadmapping.ErrMappingNotFound
		}
		return nil, apperrors.NewStoreError("failed to find thread mapping", err)
	}

	return r.mapper.ToDomain(&model)
}

// Touch moves last_activity_at forward to at. It never moves it backwards.
func (r *ThreadMappingRepository) Touch(ctx context.Context, key threadmapping.ThreadKey, at time.Time) error {
	tx := db.GetTxFromContext(ctx, r.db)
	millis := at.UTC().UnixMilli()

	result := tx.Model(&models.ThreadMappingModel{}).
		Where("thread_key = ? AND last_activity_at < ?", key.String(), millis).
		Update("last_activity_at", millis)
	if result.Error != nil {
		return apperrors.NewStoreError("failed to touch thread mapping", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// Zero rows: either the row is gone or it is already newer than at.
	var count int64
	if err := tx.Model(&models.ThreadMappingModel{}).Where("thread_key = ?", key.String()).Count(&count).Error; err != nil {
		return apperrors.NewStoreError("failed to touch thread mapping", err)
	}
	if count == 0 {
		return threadmapping.ErrMappingNotFound
	}
	return nil
}

func (r *ThreadMappingRepository) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	result := tx.Where("last_activity_at < ?", cutoff.UTC().UnixMilli()).Delete(&models.ThreadMappingModel{})
	if result.Error != nil {
		return 0, apperrors.NewStoreError("failed to purge expired thread mappings", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *ThreadMappingRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Model(&models.ThreadMappingModel{}).Count(&count).Error; err != nil {
		return 0, apperrors.NewStoreError("failed to count thread mappings", err)
	}
	return count, nil
}

// Stats summarizes the table for operators.
type Stats struct {
	Total          int64
	OldestActivity time.Time
	NewestActivity time.Time
}

func (r *ThreadMappingRepository) Stats(ctx context.Context) (*Stats, error) {
	var row struct {
		Total  int64
		Oldest *int64
		Newest *int64
	}
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Model(&models.ThreadMappingModel{}).
		Select("COUNT(*) AS total, MIN(last_activity_at) AS oldest, MAX(last_activity_at) AS newest").
		Scan(&row).Error; err != nil {
		return nil, apperrors.NewStoreError("failed to read thread mapping stats", err)
	}

	stats := &Stats{Total: row.Total}
	if row.Oldest != nil {
		stats.OldestActivity = time.UnixMilli(*row.Oldest).UTC()
	}
	if row.Newest != nil {
		stats.NewestActivity = time.UnixMilli(*row.Newest).UTC()
	}
	return stats, nil
}

var _ threadmapping.Repository = (*ThreadMappingRepository)(nil)
