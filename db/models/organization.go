package models

type Organization struct {
	ID          uint    `gorm:"column:id;primaryKey;autoIncrement"`
	ENSName     string  `gorm:"column:ens_name;type:text;not null;uniqueIndex:uniq_organizations_ens_name"`
	OrgName     string  `gorm:"column:org_name;type:text;not null"`
	OrgAddress  string  `gorm:"column:org_address;type:text"`
	EmailDomain string  `gorm:"column:email_domain;type:text"`
	UAID        *string `gorm:"column:uaid;type:text"`
	AgentRowID  *uint   `gorm:"column:agent_row_id;index:idx_organizations_agent_row"`
	// OrgMetadata is an opaque JSON blob produced by the settings UI.
	OrgMetadata *string `gorm:"column:org_metadata;type:text"`
	CreatedAt   int64   `gorm:"column:created_at;not null"`
	UpdatedAt   int64   `gorm:"column:updated_at;not null"`
}

func (Organization) TableName() string { return "organizations" }
