package migration

import (
	"deskbridge/internal/infrastructure/persistence/models"
)

func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.ThreadMappingModel{},
	}
}
