package models

// ThreadMappingModel is one row per chat thread. Timestamps are unix milliseconds (UTC).
type ThreadMappingModel struct {
	ThreadKey      string `gorm:"primaryKey;size:64"`
	ChannelID      string `gorm:"size:32;not null"`
	ThreadTS       string `gorm:"size:32;not null"`
	TicketID       int64  `gorm:"uniqueIndex:uk_thread_mappings_ticket_id;not null"`
	FormKey        string `gorm:"size:100;not null;default:''"`
	CreatedAt      int64  `gorm:"not null"`
	LastActivityAt int64  `gorm:"not null;index:idx_thread_mappings_last_activity_at"`
}

func (ThreadMappingModel) TableName() string {
	return "thread_mappings"
}
