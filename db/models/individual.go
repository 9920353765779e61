package models

type Individual struct {
	ID              uint    `gorm:"column:id;primaryKey;autoIncrement"`
	Email           *string `gorm:"column:email;type:text;index:idx_individuals_email"`
	EOAAddress      *string `gorm:"column:eoa_address;type:text;index:idx_individuals_eoa"`
	ParticipantUAID *string `gorm:"column:participant_uaid;type:text"`
	CreatedAt       int64   `gorm:"column:created_at;not null"`
	UpdatedAt       int64   `gorm:"column:updated_at;not null"`
}

func (Individual) TableName() string { return "individuals" }
