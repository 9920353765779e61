package builtin

import (
	"context"
	"hash/fnv"
	"strings"

	"github.com/itglabs/impact-agent/a2a"
)

// MovieChatSkill is the demo conversational skill. It answers from a
// canned set; there is no model behind it.
type MovieChatSkill struct{}

func NewMovieChatSkill() *MovieChatSkill { return &MovieChatSkill{} }

var movieChatLines = []string{
	"Tonight's pick: a slow-burn heist film where nobody says what they mean.",
	"If you liked that one, try the director's earlier black-and-white work.",
	"Skip the remake. The 1974 original has the better ending.",
	"A double feature: one space opera, one courtroom drama. Trust me.",
	"The best movie about agents is still the one where nothing is explained.",
}

func (s *MovieChatSkill) Name() string { return "movie-chat" }

func (s *MovieChatSkill) Description() string {
	return "Demo movie-recommendation chat with canned responses."
}

func (s *MovieChatSkill) Subdomain() string { return "" }

func (s *MovieChatSkill) Handle(ctx context.Context, req *a2a.Request) (any, error) {
	_ = ctx
	prompt := strings.TrimSpace(req.Message)
	if prompt == "" {
		prompt = a2a.OptionalString(req.Payload, "message")
	}
	if prompt == "" {
		return nil, &a2a.ValidationError{Field: "message"}
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(prompt)))
	line := movieChatLines[h.Sum32()%uint32(len(movieChatLines))]
	return map[string]any{
		"prompt": prompt,
		"reply":  line,
	}, nil
}
