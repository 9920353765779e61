package models

type IndividualOrganization struct {
	ID             uint   `gorm:"column:id;primaryKey;autoIncrement"`
	IndividualID   uint   `gorm:"column:individual_id;not null;uniqueIndex:uniq_individual_org,priority:1;index:idx_indorg_individual"`
	OrganizationID uint   `gorm:"column:organization_id;not null;uniqueIndex:uniq_individual_org,priority:2"`
	IsPrimary      bool   `gorm:"column:is_primary;not null;default:false"`
	Role           string `gorm:"column:role;type:text"`
	CreatedAt      int64  `gorm:"column:created_at;not null"`
	UpdatedAt      int64  `gorm:"column:updated_at;not null"`
}

func (IndividualOrganization) TableName() string { return "individual_organizations" }
