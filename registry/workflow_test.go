package registry

import (
	"context"
	"testing"

	"github.com/itglabs/impact-agent/db/models"
)

func TestFeedbackRequestLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	req, err := s.CreateFeedbackRequest(ctx,
		"uaid:1:0xABC0000000000000000000000000000000000040;1",
		"uaid:1:0xABC0000000000000000000000000000000000041;1",
		"please authorize")
	if err != nil {
		t.Fatalf("CreateFeedbackRequest() error = %v", err)
	}
	if req.Status != models.FeedbackStatusPending {
		t.Fatalf("status = %q, want pending", req.Status)
	}

	authID := "auth_123"
	if err := s.ResolveFeedbackRequest(ctx, req.RequestID, models.FeedbackStatusApproved, &authID); err != nil {
		t.Fatalf("ResolveFeedbackRequest() error = %v", err)
	}
	got, found, err := s.GetFeedbackRequest(ctx, req.RequestID)
	if err != nil || !found {
		t.Fatalf("GetFeedbackRequest() = (%v, %v), want found", found, err)
	}
	if got.Status != models.FeedbackStatusApproved {
		t.Fatalf("status = %q, want approved", got.Status)
	}
	if got.FeedbackAuthID == nil || *got.FeedbackAuthID != authID {
		t.Fatalf("feedback_auth_id = %v, want %q", got.FeedbackAuthID, authID)
	}

	if err := s.ResolveFeedbackRequest(ctx, "afr_missing", models.FeedbackStatusRejected, nil); err != ErrFeedbackRequestNotFound {
		t.Fatalf("ResolveFeedbackRequest(missing) error = %v, want ErrFeedbackRequestNotFound", err)
	}
}

func TestListFeedbackRequestsFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	agent := "uaid:1:0xABC0000000000000000000000000000000000042;1"
	for i := 0; i < 3; i++ {
		if _, err := s.CreateFeedbackRequest(ctx, agent, "uaid:1:0xABC0000000000000000000000000000000000043;1", ""); err != nil {
			t.Fatalf("CreateFeedbackRequest() error = %v", err)
		}
	}
	rows, err := s.ListFeedbackRequests(ctx, agent, models.FeedbackStatusPending, 0)
	if err != nil {
		t.Fatalf("ListFeedbackRequests() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	rows, err = s.ListFeedbackRequests(ctx, agent, models.FeedbackStatusApproved, 0)
	if err != nil {
		t.Fatalf("ListFeedbackRequests(approved) error = %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("approved rows = %d, want 0", len(rows))
	}
}

func TestMessageInbox(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	msg, err := s.AppendMessage(ctx, models.Message{
		FromAgentID: "1:0xaaa",
		ToAgentID:   "1:0xbbb",
		Subject:     "hello",
		Body:        "first contact",
	})
	if err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}
	if msg.MessageID == "" {
		t.Fatalf("message id not assigned")
	}
	if msg.ContentType != "text/plain" {
		t.Fatalf("content_type = %q, want text/plain default", msg.ContentType)
	}

	inbox, err := s.ListMessages(ctx, "1:0xbbb", "", true, 0)
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if len(inbox) != 1 {
		t.Fatalf("inbox = %d, want 1", len(inbox))
	}

	if err := s.MarkMessageRead(ctx, msg.MessageID); err != nil {
		t.Fatalf("MarkMessageRead() error = %v", err)
	}
	// Marking twice is fine; the row exists and is already read.
	if err := s.MarkMessageRead(ctx, msg.MessageID); err != nil {
		t.Fatalf("MarkMessageRead() rerun error = %v", err)
	}
	inbox, err = s.ListMessages(ctx, "1:0xbbb", "", true, 0)
	if err != nil {
		t.Fatalf("ListMessages() after read error = %v", err)
	}
	if len(inbox) != 0 {
		t.Fatalf("unread inbox = %d, want 0", len(inbox))
	}

	if err := s.DeleteMessage(ctx, msg.MessageID); err != nil {
		t.Fatalf("DeleteMessage() error = %v", err)
	}
	if err := s.DeleteMessage(ctx, msg.MessageID); err != ErrMessageNotFound {
		t.Fatalf("DeleteMessage(gone) error = %v, want ErrMessageNotFound", err)
	}
}
