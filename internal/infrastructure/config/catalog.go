package config

import (
	"fmt"

	"deskbridge/internal/domain/form"
	sharedConfig "deskbridge/internal/shared/config"
)

// BuildCatalog turns the configured forms and channel allowlist into the
// lookup table the engine consults. defaultFormID fills forms that do not
// name a ticket form of their own.
func BuildCatalog(sync *sharedConfig.SyncConfig, defaultFormID int64) (*form.Catalog, error) {
	mappings := make([]form.Mapping, 0, len(sync.Forms))
	for _, fc := range sync.Forms {
		m := form.Mapping{
			Key:             fc.Key,
			TicketFormID:    fc.TicketFormID,
			SubjectTemplate: fc.SubjectTemplate,
			PriorityField:   fc.PriorityField,
			Tags:            fc.Tags,
			Group: form.GroupRules{
				Field:          fc.Group.Field,
				DefaultGroupID: fc.Group.DefaultGroupID,
			},
		}
		if m.TicketFormID == 0 {
			m.TicketFormID = defaultFormID
		}
		for _, f := range fc.Fields {
			m.Fields = append(m.Fields, form.FieldTarget{Source: f.Source, TargetID: f.TargetID})
		}
		for _, r := range fc.Group.Rules {
			m.Group.Rules = append(m.Group.Rules, form.GroupRule{Match: r.Match, GroupID: r.GroupID})
		}
		mappings = append(mappings, m)
	}

	routes := make([]form.ChannelRoute, 0, len(sync.Channels))
	for _, ch := range sync.Channels {
		routes = append(routes, form.ChannelRoute{ChannelID: ch.ID, FormKey: ch.Form})
	}

	catalog, err := form.NewCatalog(mappings, routes)
	if err != nil {
		return nil, fmt.Errorf("invalid form configuration: %w", err)
	}
	return catalog, nil
}
