package model

// ExternalEvent records one logical inbound completion event. The composite
// unique index on (external_event_id, tag_normalized) is the event-level
// dedup arbiter: redeliveries fail the insert and never create a second row.
type ExternalEvent struct {
	EventID           uint64 `gorm:"column:event_id;primaryKey;autoIncrement"`
	ExternalEventID   string `gorm:"column:external_event_id;type:text;not null;uniqueIndex:idx_external_event_tag"`
	TagNormalized     string `gorm:"column:tag_normalized;type:text;not null;uniqueIndex:idx_external_event_tag"`
	TagRaw            string `gorm:"column:tag_raw;type:text;not null"`
	ExternalContactID string `gorm:"column:external_contact_id;type:text;not null"`
	Email             string `gorm:"column:email;type:text;not null"`
	EventTime         string `gorm:"column:event_time;type:text;not null"`
	Status            string `gorm:"column:status;type:text;not null;index"`
	ReceivedAt        string `gorm:"column:received_at;type:text;not null"`
}

func (ExternalEvent) TableName() string {
	return "external_events"
}
