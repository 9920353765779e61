package builtin

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/itglabs/impact-agent/a2a"
	"github.com/itglabs/impact-agent/db/models"
	"github.com/itglabs/impact-agent/registry"
)

// IssueFeedbackAuthSkill issues a feedback authorization for a client
// agent. When a pending request id is supplied it is approved in place;
// otherwise an already-approved record is created.
type IssueFeedbackAuthSkill struct {
	Store *registry.Store
	Log   *slog.Logger
}

func NewIssueFeedbackAuthSkill(store *registry.Store, log *slog.Logger) *IssueFeedbackAuthSkill {
	if log == nil {
		log = slog.Default()
	}
	return &IssueFeedbackAuthSkill{Store: store, Log: log}
}

func (s *IssueFeedbackAuthSkill) Name() string { return "issue-feedback-auth" }

func (s *IssueFeedbackAuthSkill) Description() string {
	return "Issues a feedback authorization id for a client agent."
}

func (s *IssueFeedbackAuthSkill) Subdomain() string { return "" }

func (s *IssueFeedbackAuthSkill) Handle(ctx context.Context, req *a2a.Request) (any, error) {
	agentUAID, err := a2a.StringField(req.Payload, "agent_uaid")
	if err != nil {
		return nil, err
	}
	clientUAID, err := a2a.StringField(req.Payload, "client_uaid")
	if err != nil {
		return nil, err
	}

	// Opportunistic canonical-row reconciliation; failure here must not
	// fail the issuance.
	if _, upErr := s.Store.UpsertAgent(ctx, registry.AgentUpsert{UAID: agentUAID}); upErr != nil {
		s.Log.Warn("agent upsert during feedback auth failed", "uaid", agentUAID, "error", upErr)
	}

	authID := "auth_" + uuid.NewString()

	if requestID := a2a.OptionalString(req.Payload, "request_id"); requestID != "" {
		if err := s.Store.ResolveFeedbackRequest(ctx, requestID, models.FeedbackStatusApproved, &authID); err != nil {
			if err == registry.ErrFeedbackRequestNotFound {
				return nil, &a2a.NotFoundError{What: "feedback request"}
			}
			return nil, err
		}
		return map[string]any{
			"requestId":      requestID,
			"feedbackAuthId": authID,
			"status":         models.FeedbackStatusApproved,
		}, nil
	}

	row, err := s.Store.CreateFeedbackRequest(ctx, agentUAID, clientUAID, a2a.OptionalString(req.Payload, "note"))
	if err != nil {
		return nil, err
	}
	if err := s.Store.ResolveFeedbackRequest(ctx, row.RequestID, models.FeedbackStatusApproved, &authID); err != nil {
		return nil, err
	}
	return map[string]any{
		"requestId":      row.RequestID,
		"feedbackAuthId": authID,
		"status":         models.FeedbackStatusApproved,
	}, nil
}

// ProcessValidationRequestSkill answers a validation request against
// the canonical agents table and drops a notification in the target
// agent's inbox, best-effort.
type ProcessValidationRequestSkill struct {
	Store *registry.Store
	Log   *slog.Logger
}

func NewProcessValidationRequestSkill(store *registry.Store, log *slog.Logger) *ProcessValidationRequestSkill {
	if log == nil {
		log = slog.Default()
	}
	return &ProcessValidationRequestSkill{Store: store, Log: log}
}

func (s *ProcessValidationRequestSkill) Name() string { return "process-validation-request" }

func (s *ProcessValidationRequestSkill) Description() string {
	return "Validates an agent identity and data hash against the registry."
}

func (s *ProcessValidationRequestSkill) Subdomain() string { return "" }

func (s *ProcessValidationRequestSkill) Handle(ctx context.Context, req *a2a.Request) (any, error) {
	agentUAID, err := a2a.StringField(req.Payload, "agent_uaid")
	if err != nil {
		return nil, err
	}
	dataHash, err := a2a.StringField(req.Payload, "data_hash")
	if err != nil {
		return nil, err
	}

	row, found, err := s.Store.GetAgentByUAID(ctx, agentUAID)
	if err != nil {
		return nil, err
	}

	result := map[string]any{
		"agentFound": found,
		"dataHash":   dataHash,
		"validated":  found,
	}
	if found && row.UAID != nil {
		result["uaid"] = *row.UAID

		// Inbox notification is a best-effort side effect.
		if _, msgErr := s.Store.AppendMessage(ctx, models.Message{
			FromAgentID: req.FromAgentID,
			ToAgentID:   *row.UAID,
			Subject:     "validation request processed",
			Body:        "data hash " + dataHash + " was validated against your registry entry",
		}); msgErr != nil {
			s.Log.Warn("validation inbox notification failed", "uaid", *row.UAID, "error", msgErr)
		}
	}
	return result, nil
}

// CreateFeedbackRequestSkill opens a pending feedback request.
type CreateFeedbackRequestSkill struct {
	Store *registry.Store
}

func NewCreateFeedbackRequestSkill(store *registry.Store) *CreateFeedbackRequestSkill {
	return &CreateFeedbackRequestSkill{Store: store}
}

func (s *CreateFeedbackRequestSkill) Name() string { return "create-feedback-request" }

func (s *CreateFeedbackRequestSkill) Description() string {
	return "Opens a pending feedback-authorization request."
}

func (s *CreateFeedbackRequestSkill) Subdomain() string { return "" }

func (s *CreateFeedbackRequestSkill) Handle(ctx context.Context, req *a2a.Request) (any, error) {
	agentUAID, err := a2a.StringField(req.Payload, "agent_uaid")
	if err != nil {
		return nil, err
	}
	clientUAID, err := a2a.StringField(req.Payload, "client_uaid")
	if err != nil {
		return nil, err
	}
	row, err := s.Store.CreateFeedbackRequest(ctx, agentUAID, clientUAID, a2a.OptionalString(req.Payload, "note"))
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"requestId": row.RequestID,
		"status":    row.Status,
	}, nil
}

// GetFeedbackRequestSkill fetches one request by id.
type GetFeedbackRequestSkill struct {
	Store *registry.Store
}

func NewGetFeedbackRequestSkill(store *registry.Store) *GetFeedbackRequestSkill {
	return &GetFeedbackRequestSkill{Store: store}
}

func (s *GetFeedbackRequestSkill) Name() string { return "get-feedback-request" }

func (s *GetFeedbackRequestSkill) Description() string {
	return "Fetches a feedback request by id."
}

func (s *GetFeedbackRequestSkill) Subdomain() string { return "" }

func (s *GetFeedbackRequestSkill) Handle(ctx context.Context, req *a2a.Request) (any, error) {
	requestID, err := a2a.StringField(req.Payload, "request_id")
	if err != nil {
		return nil, err
	}
	row, found, err := s.Store.GetFeedbackRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &a2a.NotFoundError{What: "feedback request"}
	}
	return row, nil
}

// ListFeedbackRequestsSkill lists requests, optionally filtered.
type ListFeedbackRequestsSkill struct {
	Store *registry.Store
}

func NewListFeedbackRequestsSkill(store *registry.Store) *ListFeedbackRequestsSkill {
	return &ListFeedbackRequestsSkill{Store: store}
}

func (s *ListFeedbackRequestsSkill) Name() string { return "list-feedback-requests" }

func (s *ListFeedbackRequestsSkill) Description() string {
	return "Lists feedback requests for an agent."
}

func (s *ListFeedbackRequestsSkill) Subdomain() string { return "" }

func (s *ListFeedbackRequestsSkill) Handle(ctx context.Context, req *a2a.Request) (any, error) {
	rows, err := s.Store.ListFeedbackRequests(ctx,
		a2a.OptionalString(req.Payload, "agent_uaid"),
		a2a.OptionalString(req.Payload, "status"),
		a2a.OptionalInt(req.Payload, "limit"))
	if err != nil {
		return nil, err
	}
	return map[string]any{"requests": rows, "count": len(rows)}, nil
}

// resolveFeedbackSkill factors the shared approve/reject handling.
type resolveFeedbackSkill struct {
	Store  *registry.Store
	status string
}

func (s *resolveFeedbackSkill) Handle(ctx context.Context, req *a2a.Request) (any, error) {
	requestID, err := a2a.StringField(req.Payload, "request_id")
	if err != nil {
		return nil, err
	}
	var authID *string
	if s.status == models.FeedbackStatusApproved {
		v := "auth_" + uuid.NewString()
		authID = &v
	}
	if err := s.Store.ResolveFeedbackRequest(ctx, requestID, s.status, authID); err != nil {
		if err == registry.ErrFeedbackRequestNotFound {
			return nil, &a2a.NotFoundError{What: "feedback request"}
		}
		return nil, err
	}
	out := map[string]any{"requestId": requestID, "status": s.status}
	if authID != nil {
		out["feedbackAuthId"] = *authID
	}
	return out, nil
}

type ApproveFeedbackRequestSkill struct{ resolveFeedbackSkill }

func NewApproveFeedbackRequestSkill(store *registry.Store) *ApproveFeedbackRequestSkill {
	return &ApproveFeedbackRequestSkill{resolveFeedbackSkill{Store: store, status: models.FeedbackStatusApproved}}
}

func (s *ApproveFeedbackRequestSkill) Name() string { return "approve-feedback-request" }

func (s *ApproveFeedbackRequestSkill) Description() string {
	return "Approves a pending feedback request and issues the authorization."
}

func (s *ApproveFeedbackRequestSkill) Subdomain() string { return a2a.SubdomainAdmin }

type RejectFeedbackRequestSkill struct{ resolveFeedbackSkill }

func NewRejectFeedbackRequestSkill(store *registry.Store) *RejectFeedbackRequestSkill {
	return &RejectFeedbackRequestSkill{resolveFeedbackSkill{Store: store, status: models.FeedbackStatusRejected}}
}

func (s *RejectFeedbackRequestSkill) Name() string { return "reject-feedback-request" }

func (s *RejectFeedbackRequestSkill) Description() string {
	return "Rejects a pending feedback request."
}

func (s *RejectFeedbackRequestSkill) Subdomain() string { return a2a.SubdomainAdmin }
