package models

type OrganizationRole struct {
	ID             uint   `gorm:"column:id;primaryKey;autoIncrement"`
	OrganizationID uint   `gorm:"column:organization_id;not null;uniqueIndex:uniq_org_role,priority:1"`
	Role           string `gorm:"column:role;type:text;not null;uniqueIndex:uniq_org_role,priority:2"`
	CreatedAt      int64  `gorm:"column:created_at;not null"`
}

func (OrganizationRole) TableName() string { return "organization_roles" }
