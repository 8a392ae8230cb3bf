package model

type Badge struct {
	BadgeCode              string `gorm:"column:badge_code;type:text;primaryKey"`
	Name                   string `gorm:"column:name;type:text;not null"`
	Description            string `gorm:"column:description;type:text;not null"`
	MinTotalPoints         int    `gorm:"column:min_total_points;not null;default:0"`
	MinApprovedSubmissions int    `gorm:"column:min_approved_submissions;not null;default:0"`
}

func (Badge) TableName() string {
	return "badges"
}

// EarnedBadge awarding is monotonic; the composite key keeps it idempotent.
type EarnedBadge struct {
	UserID    uint64 `gorm:"column:user_id;not null;primaryKey"`
	BadgeCode string `gorm:"column:badge_code;type:text;not null;primaryKey"`
	EarnedAt  string `gorm:"column:earned_at;type:text;not null"`
}

func (EarnedBadge) TableName() string {
	return "earned_badges"
}
