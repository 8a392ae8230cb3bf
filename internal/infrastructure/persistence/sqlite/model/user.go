package model

type User struct {
	UserID            uint64  `gorm:"column:user_id;primaryKey;autoIncrement"`
	Email             string  `gorm:"column:email;type:text;not null;uniqueIndex"`
	DisplayName       string  `gorm:"column:display_name;type:text;not null"`
	ExternalContactID *string `gorm:"column:external_contact_id;type:text;uniqueIndex"`
	AccountType       string  `gorm:"column:account_type;type:text;not null"`
	Role              string  `gorm:"column:role;type:text;not null"`
	CreatedAt         string  `gorm:"column:created_at;type:text;not null"`
}

func (User) TableName() string {
	return "users"
}
