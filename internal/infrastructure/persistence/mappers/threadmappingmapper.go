package mappers

import (
	"fmt"
	"time"

	"deskbridge/internal/domain/threadmapping"
	"deskbridge/internal/infrastructure/persistence/models"
)

// ThreadMappingMapper converts between thread mappings and their rows.
type ThreadMappingMapper interface {
	ToModel(m *threadmapping.ThreadMapping) *models.ThreadMappingModel
	ToDomain(model *models.ThreadMappingModel) (*threadmapping.ThreadMapping, error)
}

type ThreadMappingMapperImpl struct{}

func NewThreadMappingMapper() ThreadMappingMapper {
	return &ThreadMappingMapperImpl{}
}

func (m *ThreadMappingMapperImpl) ToModel(tm *threadmapping.ThreadMapping) *models.ThreadMappingModel {
	return &models.ThreadMappingModel{
		ThreadKey:      tm.Key().String(),
		ChannelID:      tm.ChannelID(),
		ThreadTS:       tm.ThreadTS(),
		TicketID:       tm.TicketID(),
		FormKey:        tm.FormKey(),
		CreatedAt:      tm.CreatedAt().UnixMilli(),
		LastActivityAt: tm.LastActivityAt().UnixMilli(),
	}
}

func (m *ThreadMappingMapperImpl) ToDomain(model *models.ThreadMappingModel) (*threadmapping.ThreadMapping, error) {
	key, err := threadmapping.NewThreadKey(model.ChannelID, model.ThreadTS)
	if err != nil {
		return nil, fmt.Errorf("corrupt thread mapping row %q: %w", model.ThreadKey, err)
	}

	return threadmapping.ReconstructThreadMapping(
		key,
		model.TicketID,
		model.FormKey,
		time.UnixMilli(model.CreatedAt),
		time.UnixMilli(model.LastActivityAt),
	), nil
}
