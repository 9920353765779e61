package models

type Message struct {
	MessageID   string `gorm:"column:message_id;type:text;primaryKey"`
	FromAgentID string `gorm:"column:from_agent_id;type:text;not null;index:idx_messages_from"`
	ToAgentID   string `gorm:"column:to_agent_id;type:text;not null;index:idx_messages_to"`
	Subject     string `gorm:"column:subject;type:text"`
	Body        string `gorm:"column:body;type:text"`
	ContentType string `gorm:"column:content_type;type:text"`
	ReadAt      *int64 `gorm:"column:read_at"`
	CreatedAt   int64  `gorm:"column:created_at;not null"`
}

func (Message) TableName() string { return "messages" }
