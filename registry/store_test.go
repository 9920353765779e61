package registry

import (
	"context"
	"testing"

	"github.com/itglabs/impact-agent/db"
	"github.com/itglabs/impact-agent/db/models"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) *Store {
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
	return NewStore(gdb)
}

func countAgents(t *testing.T, gdb *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := gdb.Model(&models.Agent{}).Count(&n).Error; err != nil {
		t.Fatalf("count agents: %v", err)
	}
	return n
}

func strptr(s string) *string { return &s }

func TestUpsertAgentCreatesOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id1, err := s.UpsertAgent(ctx, AgentUpsert{UAID: "uaid:1:0xABC0000000000000000000000000000000000001;11155111"})
	if err != nil {
		t.Fatalf("UpsertAgent() error = %v", err)
	}
	// Same identity, different casing and no prefix.
	id2, err := s.UpsertAgent(ctx, AgentUpsert{UAID: "1:0xabc0000000000000000000000000000000000001;11155111"})
	if err != nil {
		t.Fatalf("UpsertAgent() second call error = %v", err)
	}
	if id1 != id2 {
		t.Fatalf("row ids differ: %d vs %d", id1, id2)
	}
	if n := countAgents(t, s.DB); n != 1 {
		t.Fatalf("agents count = %d, want 1", n)
	}
}

func TestUpsertAgentFillIfNull(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := "uaid:1:0xABC0000000000000000000000000000000000002;1"

	if _, err := s.UpsertAgent(ctx, AgentUpsert{UAID: id, ENSName: "acme.eth"}); err != nil {
		t.Fatalf("UpsertAgent() error = %v", err)
	}
	// Blank ens_name must not clobber the populated value; agent_name
	// fills in because it was empty.
	if _, err := s.UpsertAgent(ctx, AgentUpsert{UAID: id, AgentName: "acme"}); err != nil {
		t.Fatalf("UpsertAgent() update error = %v", err)
	}
	row, found, err := s.GetAgentByUAID(ctx, id)
	if err != nil || !found {
		t.Fatalf("GetAgentByUAID() = (%v, %v), want found", found, err)
	}
	if row.ENSName != "acme.eth" {
		t.Fatalf("ens_name = %q, want acme.eth", row.ENSName)
	}
	if row.AgentName != "acme" {
		t.Fatalf("agent_name = %q, want acme", row.AgentName)
	}

	// A stale non-empty value must not overwrite either.
	if _, err := s.UpsertAgent(ctx, AgentUpsert{UAID: id, ENSName: "other.eth"}); err != nil {
		t.Fatalf("UpsertAgent() stale write error = %v", err)
	}
	row, _, err = s.GetAgentByUAID(ctx, id)
	if err != nil {
		t.Fatalf("GetAgentByUAID() error = %v", err)
	}
	if row.ENSName != "acme.eth" {
		t.Fatalf("ens_name overwritten to %q", row.ENSName)
	}
}

func TestUpsertAgentSessionLastWriteWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := "uaid:1:0xABC0000000000000000000000000000000000003;1"

	if _, err := s.UpsertAgent(ctx, AgentUpsert{UAID: id, SessionPackage: strptr(`{"v":1}`)}); err != nil {
		t.Fatalf("UpsertAgent() error = %v", err)
	}
	if _, err := s.UpsertAgent(ctx, AgentUpsert{UAID: id, SessionPackage: strptr(`{"v":2}`)}); err != nil {
		t.Fatalf("UpsertAgent() second error = %v", err)
	}
	row, found, err := s.GetAgentByUAID(ctx, id)
	if err != nil || !found {
		t.Fatalf("GetAgentByUAID() = (%v, %v), want found", found, err)
	}
	if row.SessionPackage == nil || *row.SessionPackage != `{"v":2}` {
		t.Fatalf("session_package = %v, want v2", row.SessionPackage)
	}
}

func TestUpsertAgentDefaultEmailDomain(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.UpsertAgent(ctx, AgentUpsert{UAID: "uaid:1:0xABC0000000000000000000000000000000000004;1"}); err != nil {
		t.Fatalf("UpsertAgent() error = %v", err)
	}
	row, _, err := s.GetAgentByUAID(ctx, "uaid:1:0xABC0000000000000000000000000000000000004;1")
	if err != nil {
		t.Fatalf("GetAgentByUAID() error = %v", err)
	}
	if row.EmailDomain != DefaultEmailDomain {
		t.Fatalf("email_domain = %q, want %q", row.EmailDomain, DefaultEmailDomain)
	}
}

func TestUpsertAgentLegacyEncodingMerges(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Seed a legacy row holding a prefixed, mixed-case encoding.
	legacy := "uaid:1:0xABC0000000000000000000000000000000000005;11155111"
	seed := models.Agent{UAID: &legacy, EmailDomain: DefaultEmailDomain, CreatedAt: 1, UpdatedAt: 1}
	if err := s.DB.Create(&seed).Error; err != nil {
		t.Fatalf("seed legacy row: %v", err)
	}

	id, err := s.UpsertAgent(ctx, AgentUpsert{UAID: "1:0xabc0000000000000000000000000000000000005;11155111", ENSName: "acme.eth"})
	if err != nil {
		t.Fatalf("UpsertAgent() error = %v", err)
	}
	if id != seed.ID {
		t.Fatalf("resolved id = %d, want legacy row %d", id, seed.ID)
	}
	if n := countAgents(t, s.DB); n != 1 {
		t.Fatalf("agents count = %d, want 1", n)
	}
	// The stored encoding is normalized on merge.
	row, _, err := s.GetAgentByUAID(ctx, legacy)
	if err != nil {
		t.Fatalf("GetAgentByUAID() error = %v", err)
	}
	if row.UAID == nil || *row.UAID != "11155111:0xabc0000000000000000000000000000000000005" {
		t.Fatalf("uaid not normalized: %v", row.UAID)
	}
}

func TestUpsertAgentRequiresUAID(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.UpsertAgent(context.Background(), AgentUpsert{}); err != ErrUAIDRequired {
		t.Fatalf("UpsertAgent() error = %v, want ErrUAIDRequired", err)
	}
}

func TestSelfHealParticipant(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	part := "uaid:1:0xABC0000000000000000000000000000000000006;1"
	ind := models.Individual{ParticipantUAID: &part, CreatedAt: 1, UpdatedAt: 1}
	if err := s.DB.Create(&ind).Error; err != nil {
		t.Fatalf("seed individual: %v", err)
	}

	if err := s.SelfHealParticipant(ctx, ind.ID); err != nil {
		t.Fatalf("SelfHealParticipant() error = %v", err)
	}
	if _, found, err := s.GetAgentByUAID(ctx, part); err != nil || !found {
		t.Fatalf("participant agent missing after self-heal: found=%v err=%v", found, err)
	}

	// Second run is a no-op, not a duplicate.
	if err := s.SelfHealParticipant(ctx, ind.ID); err != nil {
		t.Fatalf("SelfHealParticipant() rerun error = %v", err)
	}
	if n := countAgents(t, s.DB); n != 1 {
		t.Fatalf("agents count = %d, want 1", n)
	}
}
