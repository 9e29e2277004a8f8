package http

import (
	"gorm.io/gorm"

	"deskbridge/internal/domain/threadmapping"
	"deskbridge/internal/infrastructure/repository"
	"deskbridge/internal/shared/logger"
)

// repositories holds all repository instances used by the application.
type repositories struct {
	threadMappingRepo *repository.ThreadMappingRepository
}

// newRepositories creates all repository instances from the database connection.
func newRepositories(db *gorm.DB, log logger.Interface) *repositories {
	return &repositories{
		threadMappingRepo: repository.NewThreadMappingRepository(db, log),
	}
}

var _ threadmapping.Repository = (*repository.ThreadMappingRepository)(nil)
