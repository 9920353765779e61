package registry

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/itglabs/impact-agent/db/models"
	"github.com/itglabs/impact-agent/uaid"
	"gorm.io/gorm"
)

var (
	ErrFeedbackRequestNotFound = errors.New("feedback request not found")
	ErrMessageNotFound         = errors.New("message not found")
)

// CreateFeedbackRequest opens a pending feedback-authorization record
// between two agent identities and returns its id.
func (s *Store) CreateFeedbackRequest(ctx context.Context, agentUAID, clientUAID, note string) (*models.AgentFeedbackRequest, error) {
	agentUAID = strings.TrimSpace(agentUAID)
	clientUAID = strings.TrimSpace(clientUAID)
	if agentUAID == "" || clientUAID == "" {
		return nil, ErrUAIDRequired
	}
	now := time.Now().Unix()
	row := models.AgentFeedbackRequest{
		RequestID:  "afr_" + uuid.NewString(),
		AgentUAID:  uaid.Canonical(agentUAID),
		ClientUAID: uaid.Canonical(clientUAID),
		Status:     models.FeedbackStatusPending,
		Note:       strings.TrimSpace(note),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *Store) GetFeedbackRequest(ctx context.Context, requestID string) (*models.AgentFeedbackRequest, bool, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return nil, false, nil
	}
	var row models.AgentFeedbackRequest
	err := s.DB.WithContext(ctx).Where("request_id = ?", requestID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &row, true, nil
}

func (s *Store) ListFeedbackRequests(ctx context.Context, agentUAID string, status string, limit int) ([]models.AgentFeedbackRequest, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	q := s.DB.WithContext(ctx).
		Model(&models.AgentFeedbackRequest{}).
		Order("created_at DESC").
		Limit(limit)
	if v := strings.TrimSpace(agentUAID); v != "" {
		q = q.Where("agent_uaid = ?", uaid.Canonical(v))
	}
	if v := strings.ToLower(strings.TrimSpace(status)); v != "" {
		q = q.Where("status = ?", v)
	}
	var rows []models.AgentFeedbackRequest
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ResolveFeedbackRequest transitions a pending request to approved or
// rejected. Approval records the issued authorization id.
func (s *Store) ResolveFeedbackRequest(ctx context.Context, requestID, status string, feedbackAuthID *string) error {
	if status != models.FeedbackStatusApproved && status != models.FeedbackStatusRejected {
		return errors.New("status must be approved or rejected")
	}
	updates := map[string]any{
		"status":     status,
		"updated_at": time.Now().Unix(),
	}
	if feedbackAuthID != nil {
		updates["feedback_auth_id"] = strings.TrimSpace(*feedbackAuthID)
	}
	res := s.DB.WithContext(ctx).
		Model(&models.AgentFeedbackRequest{}).
		Where("request_id = ?", strings.TrimSpace(requestID)).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrFeedbackRequestNotFound
	}
	return nil
}

// AppendMessage stores an inbox message and returns it with its id.
func (s *Store) AppendMessage(ctx context.Context, msg models.Message) (*models.Message, error) {
	msg.FromAgentID = strings.TrimSpace(msg.FromAgentID)
	msg.ToAgentID = strings.TrimSpace(msg.ToAgentID)
	if msg.FromAgentID == "" || msg.ToAgentID == "" {
		return nil, errors.New("from_agent_id and to_agent_id are required")
	}
	if strings.TrimSpace(msg.MessageID) == "" {
		msg.MessageID = "msg_" + uuid.NewString()
	}
	if strings.TrimSpace(msg.ContentType) == "" {
		msg.ContentType = "text/plain"
	}
	if msg.CreatedAt == 0 {
		msg.CreatedAt = time.Now().Unix()
	}
	if err := s.DB.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *Store) GetMessage(ctx context.Context, messageID string) (*models.Message, bool, error) {
	messageID = strings.TrimSpace(messageID)
	if messageID == "" {
		return nil, false, nil
	}
	var row models.Message
	err := s.DB.WithContext(ctx).Where("message_id = ?", messageID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &row, true, nil
}

// ListMessages returns an agent's inbox, newest first, optionally
// filtered by sender and unread state.
func (s *Store) ListMessages(ctx context.Context, toAgentID, fromAgentID string, unreadOnly bool, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	q := s.DB.WithContext(ctx).
		Model(&models.Message{}).
		Order("created_at DESC, message_id DESC").
		Limit(limit)
	if v := strings.TrimSpace(toAgentID); v != "" {
		q = q.Where("to_agent_id = ?", v)
	}
	if v := strings.TrimSpace(fromAgentID); v != "" {
		q = q.Where("from_agent_id = ?", v)
	}
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}
	var rows []models.Message
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) MarkMessageRead(ctx context.Context, messageID string) error {
	now := time.Now().Unix()
	res := s.DB.WithContext(ctx).
		Model(&models.Message{}).
		Where("message_id = ? AND read_at IS NULL", strings.TrimSpace(messageID)).
		Update("read_at", now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Already read or absent; distinguish for the 404 path.
		_, found, err := s.GetMessage(ctx, messageID)
		if err != nil {
			return err
		}
		if !found {
			return ErrMessageNotFound
		}
	}
	return nil
}

func (s *Store) DeleteMessage(ctx context.Context, messageID string) error {
	res := s.DB.WithContext(ctx).
		Where("message_id = ?", strings.TrimSpace(messageID)).
		Delete(&models.Message{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrMessageNotFound
	}
	return nil
}
