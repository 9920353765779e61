package builtin

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/itglabs/impact-agent/a2a"
	"github.com/itglabs/impact-agent/db"
	"github.com/itglabs/impact-agent/db/models"
	"github.com/itglabs/impact-agent/registry"
)

func newTestStore(t *testing.T) *registry.Store {
	t.Helper()
	cfg := db.DefaultConfig()
	cfg.DSN = ":memory:"
	cfg.SQLite.WAL = false
	gdb, err := db.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("db.Open() error = %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("db.AutoMigrate() error = %v", err)
	}
	return registry.NewStore(gdb)
}

func TestStatusSkill(t *testing.T) {
	s := NewStatusSkill("impact-agent", "0.1.0")
	out, err := s.Handle(context.Background(), &a2a.Request{Message: "ping"})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	m := out.(map[string]any)
	if m["status"] != "ok" || m["agent"] != "impact-agent" || m["echo"] != "ping" {
		t.Fatalf("Handle() = %v", m)
	}
}

func TestMovieChatDeterministic(t *testing.T) {
	s := NewMovieChatSkill()
	first, err := s.Handle(context.Background(), &a2a.Request{Message: "something noir"})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	second, err := s.Handle(context.Background(), &a2a.Request{Message: "Something Noir"})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if first.(map[string]any)["reply"] != second.(map[string]any)["reply"] {
		t.Fatal("Handle() replies differ for case-equivalent prompts")
	}

	if _, err := s.Handle(context.Background(), &a2a.Request{}); err == nil {
		t.Fatal("Handle() with empty prompt succeeded, want validation error")
	}
}

func TestIssueFeedbackAuthApprovesImmediately(t *testing.T) {
	store := newTestStore(t)
	s := NewIssueFeedbackAuthSkill(store, nil)

	out, err := s.Handle(context.Background(), &a2a.Request{Payload: map[string]any{
		"agent_uaid":  "uaid:1:0xAAA111;11155111",
		"client_uaid": "uaid:1:0xBBB222;11155111",
	}})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	m := out.(map[string]any)
	if m["status"] != models.FeedbackStatusApproved {
		t.Fatalf("Handle() status = %v", m["status"])
	}
	authID, _ := m["feedbackAuthId"].(string)
	if !strings.HasPrefix(authID, "auth_") {
		t.Fatalf("Handle() feedbackAuthId = %q", authID)
	}

	// The opportunistic upsert should have left a canonical agent row.
	row, found, err := store.GetAgentByUAID(context.Background(), "uaid:1:0xAAA111;11155111")
	if err != nil || !found {
		t.Fatalf("GetAgentByUAID() = %v, %v, %v", row, found, err)
	}
}

func TestFeedbackRequestLifecycleViaSkills(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := NewCreateFeedbackRequestSkill(store).Handle(ctx, &a2a.Request{Payload: map[string]any{
		"agent_uaid":  "uaid:1:0xAAA111;11155111",
		"client_uaid": "uaid:1:0xBBB222;11155111",
	}})
	if err != nil {
		t.Fatalf("create Handle() error = %v", err)
	}
	requestID := created.(map[string]any)["requestId"].(string)
	if created.(map[string]any)["status"] != models.FeedbackStatusPending {
		t.Fatalf("create Handle() status = %v", created.(map[string]any)["status"])
	}

	approved, err := NewApproveFeedbackRequestSkill(store).Handle(ctx, &a2a.Request{Payload: map[string]any{
		"request_id": requestID,
	}})
	if err != nil {
		t.Fatalf("approve Handle() error = %v", err)
	}
	if approved.(map[string]any)["status"] != models.FeedbackStatusApproved {
		t.Fatalf("approve Handle() status = %v", approved.(map[string]any)["status"])
	}

	got, err := NewGetFeedbackRequestSkill(store).Handle(ctx, &a2a.Request{Payload: map[string]any{
		"request_id": requestID,
	}})
	if err != nil {
		t.Fatalf("get Handle() error = %v", err)
	}
	row := got.(*models.AgentFeedbackRequest)
	if row.Status != models.FeedbackStatusApproved || row.FeedbackAuthID == nil {
		t.Fatalf("get Handle() row = %+v", row)
	}

	var nf *a2a.NotFoundError
	_, err = NewRejectFeedbackRequestSkill(store).Handle(ctx, &a2a.Request{Payload: map[string]any{
		"request_id": "afr_missing",
	}})
	if !errors.As(err, &nf) {
		t.Fatalf("reject Handle() error = %v, want not found", err)
	}
}

func TestProcessValidationRequestNotifiesInbox(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if _, err := store.UpsertAgent(ctx, registry.AgentUpsert{UAID: "uaid:1:0xAAA111;11155111"}); err != nil {
		t.Fatalf("UpsertAgent() error = %v", err)
	}

	out, err := NewProcessValidationRequestSkill(store, nil).Handle(ctx, &a2a.Request{
		FromAgentID: "11155111:0xbbb222",
		Payload: map[string]any{
			"agent_uaid": "uaid:1:0xAAA111;11155111",
			"data_hash":  "0xdeadbeef",
		},
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	m := out.(map[string]any)
	if m["validated"] != true {
		t.Fatalf("Handle() validated = %v", m["validated"])
	}

	msgs, err := store.ListMessages(ctx, "11155111:0xaaa111", "", false, 0)
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("ListMessages() = %d messages, want 1", len(msgs))
	}
}

func TestInboxSkills(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sent, err := NewSendMessageSkill(store).Handle(ctx, &a2a.Request{
		FromAgentID: "11155111:0xaaa111",
		ToAgentID:   "11155111:0xbbb222",
		Payload: map[string]any{
			"subject": "hello",
			"body":    strings.Repeat("x", 400),
		},
	})
	if err != nil {
		t.Fatalf("send Handle() error = %v", err)
	}
	messageID := sent.(map[string]any)["messageId"].(string)

	listed, err := NewListMessagesSkill(store).Handle(ctx, &a2a.Request{
		ToAgentID: "11155111:0xbbb222",
	})
	if err != nil {
		t.Fatalf("list Handle() error = %v", err)
	}
	lm := listed.(map[string]any)
	if lm["count"] != 1 {
		t.Fatalf("list Handle() count = %v", lm["count"])
	}

	if _, err := NewMarkMessageReadSkill(store).Handle(ctx, &a2a.Request{Payload: map[string]any{
		"message_id": messageID,
	}}); err != nil {
		t.Fatalf("mark read Handle() error = %v", err)
	}

	got, err := NewGetMessageSkill(store).Handle(ctx, &a2a.Request{Payload: map[string]any{
		"message_id": messageID,
	}})
	if err != nil {
		t.Fatalf("get Handle() error = %v", err)
	}
	row := got.(*models.Message)
	if row.ReadAt == nil || len(row.Body) != 400 {
		t.Fatalf("get Handle() row = %+v", row)
	}

	if _, err := NewDeleteMessageSkill(store).Handle(ctx, &a2a.Request{Payload: map[string]any{
		"message_id": messageID,
	}}); err != nil {
		t.Fatalf("delete Handle() error = %v", err)
	}
	var nf *a2a.NotFoundError
	_, err = NewGetMessageSkill(store).Handle(ctx, &a2a.Request{Payload: map[string]any{
		"message_id": messageID,
	}})
	if !errors.As(err, &nf) {
		t.Fatalf("get Handle() after delete error = %v, want not found", err)
	}
}
