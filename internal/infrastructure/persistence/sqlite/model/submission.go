package model

type Submission struct {
	SubmissionID  uint64  `gorm:"column:submission_id;primaryKey;autoIncrement"`
	UserID        uint64  `gorm:"column:user_id;not null;index"`
	ActivityCode  string  `gorm:"column:activity_code;type:text;not null"`
	Status        string  `gorm:"column:status;type:text;not null;index"`
	Visibility    string  `gorm:"column:visibility;type:text;not null"`
	PayloadJSON   string  `gorm:"column:payload_json;type:text;not null"`
	PointsAwarded *int    `gorm:"column:points_awarded"`
	ReviewerID    *uint64 `gorm:"column:reviewer_id"`
	ReviewNote    *string `gorm:"column:review_note;type:text"`
	ReviewedAt    *string `gorm:"column:reviewed_at;type:text"`
	CreatedAt     string  `gorm:"column:created_at;type:text;not null"`
	UpdatedAt     string  `gorm:"column:updated_at;type:text;not null"`
}

func (Submission) TableName() string {
	return "submissions"
}
