package model

// LedgerEntry is an immutable point transaction. The unique index on
// external_event_id (nullable) is the at-most-once guarantee for awarding,
// independent of the event and grant constraints.
type LedgerEntry struct {
	EntryID         uint64  `gorm:"column:entry_id;primaryKey;autoIncrement"`
	UserID          uint64  `gorm:"column:user_id;not null;index"`
	ActivityCode    string  `gorm:"column:activity_code;type:text;not null"`
	Source          string  `gorm:"column:source;type:text;not null"`
	ExternalSource  *string `gorm:"column:external_source;type:text"`
	ExternalEventID *string `gorm:"column:external_event_id;type:text;uniqueIndex"`
	DeltaPoints     int     `gorm:"column:delta_points;not null"`
	EventTime       string  `gorm:"column:event_time;type:text;not null"`
	MetadataJSON    string  `gorm:"column:metadata_json;type:text;not null"`
	CreatedAt       string  `gorm:"column:created_at;type:text;not null"`
}

func (LedgerEntry) TableName() string {
	return "ledger_entries"
}
