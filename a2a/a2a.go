// Package a2a implements the agent-to-agent request/response
// convention: a JSON envelope dispatched to a named skill.
package a2a

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Subdomains gating admin- and inbox-only skills. The check compares
// the resolved request subdomain against these literals; it is a
// naming-convention guard, not a cryptographic one.
const (
	SubdomainAdmin = "agents-admin"
	SubdomainInbox = "agents-inbox"
)

type Request struct {
	SkillID     string         `json:"skillId"`
	Payload     map[string]any `json:"payload,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	FromAgentID string         `json:"fromAgentId,omitempty"`
	ToAgentID   string         `json:"toAgentId,omitempty"`
	Message     string         `json:"message,omitempty"`
	Auth        map[string]any `json:"auth,omitempty"`

	// Subdomain is resolved from the transport (Host header), never
	// from the request body.
	Subdomain string `json:"-"`
}

type Response struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
	Response  any    `json:"response"`
}

// Skill is one named operation. Subdomain returns the required
// subdomain literal, or "" when the skill is open.
type Skill interface {
	Name() string
	Description() string
	Subdomain() string
	Handle(ctx context.Context, req *Request) (any, error)
}

var ErrUnknownSkill = errors.New("unknown skill")

// ValidationError marks a missing or malformed payload field; the
// transport maps it to HTTP 400.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// ForbiddenError marks a subdomain-gated skill invoked from the wrong
// host; the transport maps it to HTTP 403.
type ForbiddenError struct {
	Skill    string
	Required string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("skill %s requires subdomain %s", e.Skill, e.Required)
}

// NotFoundError marks an unresolvable entity; the transport maps it to
// HTTP 404.
type NotFoundError struct {
	What string
}

func (e *NotFoundError) Error() string {
	return e.What + " not found"
}

// StringField reads a required string payload field.
func StringField(payload map[string]any, key string) (string, error) {
	raw, ok := payload[key]
	if !ok {
		return "", &ValidationError{Field: key}
	}
	s, ok := raw.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", &ValidationError{Field: key}
	}
	return strings.TrimSpace(s), nil
}

// OptionalString reads an optional string payload field; absent or
// blank values return "".
func OptionalString(payload map[string]any, key string) string {
	raw, ok := payload[key]
	if !ok {
		return ""
	}
	if s, ok := raw.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// OptionalBool reads an optional boolean payload field.
func OptionalBool(payload map[string]any, key string) bool {
	raw, ok := payload[key]
	if !ok {
		return false
	}
	b, _ := raw.(bool)
	return b
}

// OptionalInt reads an optional numeric payload field (JSON numbers
// decode as float64).
func OptionalInt(payload map[string]any, key string) int {
	raw, ok := payload[key]
	if !ok {
		return 0
	}
	switch v := raw.(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
