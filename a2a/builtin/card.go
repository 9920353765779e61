package builtin

import (
	"context"

	"github.com/itglabs/impact-agent/a2a"
)

// GetAgentCardSkill serves the same document as the well-known route,
// for agents that only speak the skill envelope.
type GetAgentCardSkill struct {
	Card func() any
}

func NewGetAgentCardSkill(card func() any) *GetAgentCardSkill {
	return &GetAgentCardSkill{Card: card}
}

func (s *GetAgentCardSkill) Name() string { return "get-agent-card" }

func (s *GetAgentCardSkill) Description() string {
	return "Returns this agent's card document."
}

func (s *GetAgentCardSkill) Subdomain() string { return "" }

func (s *GetAgentCardSkill) Handle(ctx context.Context, req *a2a.Request) (any, error) {
	_ = ctx
	_ = req
	if s.Card == nil {
		return nil, &a2a.NotFoundError{What: "agent card"}
	}
	return s.Card(), nil
}
