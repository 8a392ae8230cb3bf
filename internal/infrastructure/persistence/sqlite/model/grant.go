package model

// Grant is one award per (user, tag), independent of which external event
// produced it. Guards against re-tagging under a fresh event id.
type Grant struct {
	UserID    uint64 `gorm:"column:user_id;not null;primaryKey"`
	TagName   string `gorm:"column:tag_name;type:text;not null;primaryKey"`
	GrantedAt string `gorm:"column:granted_at;type:text;not null"`
}

func (Grant) TableName() string {
	return "grants"
}
