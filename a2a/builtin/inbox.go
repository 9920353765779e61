package builtin

import (
	"context"
	"strings"

	"github.com/itglabs/impact-agent/a2a"
	"github.com/itglabs/impact-agent/db/models"
	"github.com/itglabs/impact-agent/internal/strutil"
	"github.com/itglabs/impact-agent/registry"
)

const previewMaxBytes = 160

// SendMessageSkill appends a message to the target agent's inbox.
type SendMessageSkill struct {
	Store *registry.Store
}

func NewSendMessageSkill(store *registry.Store) *SendMessageSkill {
	return &SendMessageSkill{Store: store}
}

func (s *SendMessageSkill) Name() string { return "send-message" }

func (s *SendMessageSkill) Description() string {
	return "Delivers a message to another agent's inbox."
}

func (s *SendMessageSkill) Subdomain() string { return "" }

func (s *SendMessageSkill) Handle(ctx context.Context, req *a2a.Request) (any, error) {
	to := strings.TrimSpace(req.ToAgentID)
	if to == "" {
		to = a2a.OptionalString(req.Payload, "to_agent_id")
	}
	if to == "" {
		return nil, &a2a.ValidationError{Field: "to_agent_id"}
	}
	from := strings.TrimSpace(req.FromAgentID)
	if from == "" {
		from = a2a.OptionalString(req.Payload, "from_agent_id")
	}
	if from == "" {
		return nil, &a2a.ValidationError{Field: "from_agent_id"}
	}
	body := a2a.OptionalString(req.Payload, "body")
	if body == "" {
		body = strings.TrimSpace(req.Message)
	}
	if body == "" {
		return nil, &a2a.ValidationError{Field: "body"}
	}

	msg, err := s.Store.AppendMessage(ctx, models.Message{
		FromAgentID: from,
		ToAgentID:   to,
		Subject:     a2a.OptionalString(req.Payload, "subject"),
		Body:        body,
		ContentType: a2a.OptionalString(req.Payload, "content_type"),
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"messageId": msg.MessageID, "delivered": true}, nil
}

// ListMessagesSkill reads an agent's inbox; bodies are truncated to a
// preview, fetch the full message by id.
type ListMessagesSkill struct {
	Store *registry.Store
}

func NewListMessagesSkill(store *registry.Store) *ListMessagesSkill {
	return &ListMessagesSkill{Store: store}
}

func (s *ListMessagesSkill) Name() string { return "list-messages" }

func (s *ListMessagesSkill) Description() string {
	return "Lists inbox messages for an agent, newest first."
}

func (s *ListMessagesSkill) Subdomain() string { return a2a.SubdomainInbox }

func (s *ListMessagesSkill) Handle(ctx context.Context, req *a2a.Request) (any, error) {
	to := a2a.OptionalString(req.Payload, "to_agent_id")
	if to == "" {
		to = strings.TrimSpace(req.ToAgentID)
	}
	if to == "" {
		return nil, &a2a.ValidationError{Field: "to_agent_id"}
	}
	rows, err := s.Store.ListMessages(ctx, to,
		a2a.OptionalString(req.Payload, "from_agent_id"),
		a2a.OptionalBool(req.Payload, "unread_only"),
		a2a.OptionalInt(req.Payload, "limit"))
	if err != nil {
		return nil, err
	}

	type preview struct {
		MessageID   string `json:"messageId"`
		FromAgentID string `json:"fromAgentId"`
		Subject     string `json:"subject"`
		Preview     string `json:"preview"`
		ContentType string `json:"contentType"`
		Read        bool   `json:"read"`
		CreatedAt   int64  `json:"createdAt"`
	}
	out := make([]preview, 0, len(rows))
	for _, row := range rows {
		out = append(out, preview{
			MessageID:   row.MessageID,
			FromAgentID: row.FromAgentID,
			Subject:     row.Subject,
			Preview:     strutil.TruncateUTF8(row.Body, previewMaxBytes),
			ContentType: row.ContentType,
			Read:        row.ReadAt != nil,
			CreatedAt:   row.CreatedAt,
		})
	}
	return map[string]any{"messages": out, "count": len(out)}, nil
}

// GetMessageSkill fetches one full message.
type GetMessageSkill struct {
	Store *registry.Store
}

func NewGetMessageSkill(store *registry.Store) *GetMessageSkill {
	return &GetMessageSkill{Store: store}
}

func (s *GetMessageSkill) Name() string { return "get-message" }

func (s *GetMessageSkill) Description() string {
	return "Fetches a single inbox message by id."
}

func (s *GetMessageSkill) Subdomain() string { return a2a.SubdomainInbox }

func (s *GetMessageSkill) Handle(ctx context.Context, req *a2a.Request) (any, error) {
	messageID, err := a2a.StringField(req.Payload, "message_id")
	if err != nil {
		return nil, err
	}
	row, found, err := s.Store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &a2a.NotFoundError{What: "message"}
	}
	return row, nil
}

// MarkMessageReadSkill flags a message as read.
type MarkMessageReadSkill struct {
	Store *registry.Store
}

func NewMarkMessageReadSkill(store *registry.Store) *MarkMessageReadSkill {
	return &MarkMessageReadSkill{Store: store}
}

func (s *MarkMessageReadSkill) Name() string { return "mark-message-read" }

func (s *MarkMessageReadSkill) Description() string {
	return "Marks an inbox message as read."
}

func (s *MarkMessageReadSkill) Subdomain() string { return a2a.SubdomainInbox }

func (s *MarkMessageReadSkill) Handle(ctx context.Context, req *a2a.Request) (any, error) {
	messageID, err := a2a.StringField(req.Payload, "message_id")
	if err != nil {
		return nil, err
	}
	if err := s.Store.MarkMessageRead(ctx, messageID); err != nil {
		if err == registry.ErrMessageNotFound {
			return nil, &a2a.NotFoundError{What: "message"}
		}
		return nil, err
	}
	return map[string]any{"messageId": messageID, "read": true}, nil
}

// DeleteMessageSkill removes a message; restricted to the admin host.
type DeleteMessageSkill struct {
	Store *registry.Store
}

func NewDeleteMessageSkill(store *registry.Store) *DeleteMessageSkill {
	return &DeleteMessageSkill{Store: store}
}

func (s *DeleteMessageSkill) Name() string { return "delete-message" }

func (s *DeleteMessageSkill) Description() string {
	return "Deletes an inbox message."
}

func (s *DeleteMessageSkill) Subdomain() string { return a2a.SubdomainAdmin }

func (s *DeleteMessageSkill) Handle(ctx context.Context, req *a2a.Request) (any, error) {
	messageID, err := a2a.StringField(req.Payload, "message_id")
	if err != nil {
		return nil, err
	}
	if err := s.Store.DeleteMessage(ctx, messageID); err != nil {
		if err == registry.ErrMessageNotFound {
			return nil, &a2a.NotFoundError{What: "message"}
		}
		return nil, err
	}
	return map[string]any{"messageId": messageID, "deleted": true}, nil
}
