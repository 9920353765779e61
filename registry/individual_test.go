package registry

import (
	"context"
	"errors"
	"testing"
)

func TestFindOrCreateIndividualReusesRow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.FindOrCreateIndividual(ctx, "0xAAA1111111111111111111111111111111111111", "")
	if err != nil {
		t.Fatalf("FindOrCreateIndividual() error = %v", err)
	}
	second, err := s.FindOrCreateIndividual(ctx, "0xaaa1111111111111111111111111111111111111", "")
	if err != nil {
		t.Fatalf("FindOrCreateIndividual() second error = %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("FindOrCreateIndividual() ids differ: %d vs %d", first.ID, second.ID)
	}
}

func TestUpdateIndividualPartialPatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ind, err := s.FindOrCreateIndividual(ctx, "0xBBB2222222222222222222222222222222222222", "")
	if err != nil {
		t.Fatalf("FindOrCreateIndividual() error = %v", err)
	}

	if err := s.UpdateIndividual(ctx, ind.ID, IndividualPatch{Email: strptr("User@Example.ORG")}); err != nil {
		t.Fatalf("UpdateIndividual() error = %v", err)
	}

	got, found, err := s.GetIndividual(ctx, ind.ID)
	if err != nil || !found {
		t.Fatalf("GetIndividual() = %v, %v, %v", got, found, err)
	}
	if got.Email == nil || *got.Email != "user@example.org" {
		t.Fatalf("email = %v, want lowered patch value", got.Email)
	}
	if got.EOAAddress == nil || *got.EOAAddress != "0xbbb2222222222222222222222222222222222222" {
		t.Fatalf("eoa_address = %v, want preserved", got.EOAAddress)
	}
}

func TestUpdateIndividualUnknownID(t *testing.T) {
	s := newTestStore(t)
	err := s.UpdateIndividual(context.Background(), 9999, IndividualPatch{Email: strptr("x@y.z")})
	if !errors.Is(err, ErrIndividualNotFound) {
		t.Fatalf("UpdateIndividual() error = %v, want ErrIndividualNotFound", err)
	}
}

func TestUpdateIndividualParticipantSelfHeals(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ind, err := s.FindOrCreateIndividual(ctx, "", "owner@example.org")
	if err != nil {
		t.Fatalf("FindOrCreateIndividual() error = %v", err)
	}

	patch := IndividualPatch{ParticipantUAID: strptr("uaid:1:0xCCC333;11155111")}
	if err := s.UpdateIndividual(ctx, ind.ID, patch); err != nil {
		t.Fatalf("UpdateIndividual() error = %v", err)
	}

	row, found, err := s.GetAgentByUAID(ctx, "11155111:0xccc333")
	if err != nil || !found {
		t.Fatalf("GetAgentByUAID() after self-heal = %v, %v, %v", row, found, err)
	}

	// Re-applying the same patch must not mint a second agent row.
	if err := s.UpdateIndividual(ctx, ind.ID, patch); err != nil {
		t.Fatalf("UpdateIndividual() second error = %v", err)
	}
	if n := countAgents(t, s.DB); n != 1 {
		t.Fatalf("agents after repeated self-heal = %d, want 1", n)
	}
}
