package models

const (
	FeedbackStatusPending  = "pending"
	FeedbackStatusApproved = "approved"
	FeedbackStatusRejected = "rejected"
)

// AgentFeedbackRequest tracks the feedback-authorization workflow. It is
// append-mostly and references agents by UAID string, not by foreign key.
type AgentFeedbackRequest struct {
	RequestID      string  `gorm:"column:request_id;type:text;primaryKey"`
	AgentUAID      string  `gorm:"column:agent_uaid;type:text;not null;index:idx_feedback_agent_uaid"`
	ClientUAID     string  `gorm:"column:client_uaid;type:text;not null"`
	FeedbackAuthID *string `gorm:"column:feedback_auth_id;type:text"`
	Status         string  `gorm:"column:status;type:text;not null"`
	Note           string  `gorm:"column:note;type:text"`
	CreatedAt      int64   `gorm:"column:created_at;not null"`
	UpdatedAt      int64   `gorm:"column:updated_at;not null"`
}

func (AgentFeedbackRequest) TableName() string { return "agent_feedback_requests" }
