package a2a

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/itglabs/impact-agent/internal/jsonutil"
)

// Registry is the skill dispatch table. Registration order is kept for
// the discovery documents.
type Registry struct {
	mu     sync.RWMutex
	skills map[string]Skill
	order  []string
}

func NewRegistry() *Registry {
	return &Registry{skills: map[string]Skill{}}
}

func (r *Registry) Register(s Skill) {
	if s == nil {
		return
	}
	name := strings.TrimSpace(s.Name())
	if name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.skills[name]; !exists {
		r.order = append(r.order, name)
	}
	r.skills[name] = s
}

func (r *Registry) Get(name string) (Skill, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.skills[strings.TrimSpace(name)]
	return s, ok
}

// List returns the registered skills in registration order.
func (r *Registry) List() []Skill {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Skill, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.skills[name])
	}
	return out
}

// Dispatch resolves the skill, enforces its subdomain gate, and wraps
// the handler result in the response envelope. Each dispatch is an
// independent transaction; there are no cross-call ordering guarantees.
func (r *Registry) Dispatch(ctx context.Context, req *Request) (Response, error) {
	if req == nil {
		return Response{}, &ValidationError{Field: "skillId"}
	}
	name := strings.TrimSpace(req.SkillID)
	if name == "" {
		return Response{}, &ValidationError{Field: "skillId"}
	}
	skill, ok := r.Get(name)
	if !ok {
		return Response{}, ErrUnknownSkill
	}
	if required := strings.TrimSpace(skill.Subdomain()); required != "" && required != strings.TrimSpace(req.Subdomain) {
		return Response{}, &ForbiddenError{Skill: name, Required: required}
	}

	// Callers sometimes carry the payload as JSON embedded inside the
	// free-text message; recover it before the handler validates.
	if len(req.Payload) == 0 && strings.TrimSpace(req.Message) != "" {
		var fallback map[string]any
		if err := jsonutil.DecodeWithFallback(req.Message, &fallback); err == nil && len(fallback) > 0 {
			req.Payload = fallback
		}
	}

	result, err := skill.Handle(ctx, req)
	if err != nil {
		return Response{}, err
	}
	return Response{
		Success:   true,
		MessageID: "a2a_" + uuid.NewString(),
		Response:  result,
	}, nil
}
