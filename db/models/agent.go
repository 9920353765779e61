package models

// Agent is the canonical de-duplicated identity record. At most one row
// may hold a given non-null UAID; the partial unique index is the
// backstop against concurrent inserts racing the lookup-before-insert.
type Agent struct {
	ID          uint    `gorm:"column:id;primaryKey;autoIncrement"`
	UAID        *string `gorm:"column:uaid;type:text;uniqueIndex:idx_agents_uaid_unique,where:uaid IS NOT NULL"`
	ENSName     string  `gorm:"column:ens_name;type:text"`
	AgentName   string  `gorm:"column:agent_name;type:text"`
	EmailDomain string  `gorm:"column:email_domain;type:text;not null;default:unknown"`
	// SessionPackage and AgentCardJSON are opaque blobs owned by the
	// identity platform; the store replaces them wholesale.
	SessionPackage *string `gorm:"column:session_package;type:text"`
	AgentCardJSON  *string `gorm:"column:agent_card_json;type:text"`
	CreatedAt      int64   `gorm:"column:created_at;not null"`
	UpdatedAt      int64   `gorm:"column:updated_at;not null"`
}

func (Agent) TableName() string { return "agents" }
