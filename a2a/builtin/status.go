// Package builtin holds the stock skill set served by the A2A
// dispatcher.
package builtin

import (
	"context"
	"time"

	"github.com/itglabs/impact-agent/a2a"
)

type StatusSkill struct {
	AgentName string
	Version   string
}

func NewStatusSkill(agentName, version string) *StatusSkill {
	return &StatusSkill{AgentName: agentName, Version: version}
}

func (s *StatusSkill) Name() string { return "status" }

func (s *StatusSkill) Description() string {
	return "Echoes agent liveness, name and version."
}

func (s *StatusSkill) Subdomain() string { return "" }

func (s *StatusSkill) Handle(ctx context.Context, req *a2a.Request) (any, error) {
	_ = ctx
	return map[string]any{
		"status":  "ok",
		"agent":   s.AgentName,
		"version": s.Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
		"echo":    req.Message,
	}, nil
}
