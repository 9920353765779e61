// Package registry implements the canonical-agent-record reconciliation
// layer: find-or-create upserts over the individuals, organizations and
// agents tables, keyed by the canonical UAID.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/itglabs/impact-agent/db/models"
	"github.com/itglabs/impact-agent/uaid"
	"gorm.io/gorm"
)

var (
	ErrUAIDRequired       = errors.New("uaid is required")
	ErrENSNameRequired    = errors.New("ens_name is required")
	ErrAgentNameRequired  = errors.New("agent_name is required")
	ErrIndividualNotFound = errors.New("individual not found")
)

// DefaultEmailDomain is the sentinel stored when an agent is created
// without a known email domain.
const DefaultEmailDomain = "unknown"

type Store struct {
	DB *gorm.DB
}

func NewStore(gdb *gorm.DB) *Store {
	return &Store{DB: gdb}
}

type AgentUpsert struct {
	UAID        string
	ENSName     string
	AgentName   string
	EmailDomain string

	// SessionPackage and AgentCardJSON replace the stored value
	// wholesale whenever non-nil; the other fields fill in only when
	// the stored value is empty.
	SessionPackage *string
	AgentCardJSON  *string
}

// UpsertAgent resolves or creates the canonical agents row for the given
// UAID and returns its row id. The same identity never produces a second
// row: lookups canonicalize casing and legacy "uaid:" prefixes, and an
// insert that loses a race against the unique index falls back to the
// update path instead of surfacing the driver error.
func (s *Store) UpsertAgent(ctx context.Context, in AgentUpsert) (uint, error) {
	raw := strings.TrimSpace(in.UAID)
	if raw == "" {
		return 0, ErrUAIDRequired
	}
	canon := uaid.Canonical(raw)

	row, found, err := s.findAgentByUAID(ctx, raw)
	if err != nil {
		return 0, err
	}
	if found {
		return row.ID, s.updateAgentLocked(ctx, row, canon, in)
	}

	now := time.Now().Unix()
	emailDomain := strings.TrimSpace(in.EmailDomain)
	if emailDomain == "" {
		emailDomain = DefaultEmailDomain
	}
	fresh := models.Agent{
		UAID:           &canon,
		ENSName:        strings.TrimSpace(in.ENSName),
		AgentName:      strings.TrimSpace(in.AgentName),
		EmailDomain:    emailDomain,
		SessionPackage: in.SessionPackage,
		AgentCardJSON:  in.AgentCardJSON,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err = s.DB.WithContext(ctx).Create(&fresh).Error
	if err == nil {
		return fresh.ID, nil
	}
	if !isUniqueViolation(err) {
		return 0, err
	}

	// Lost the insert race: the index holds exactly one row now, so the
	// re-lookup must succeed and we merge into it.
	row, found, err = s.findAgentByUAID(ctx, raw)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("agent upsert: conflict on %s but row not found", canon)
	}
	return row.ID, s.updateAgentLocked(ctx, row, canon, in)
}

func (s *Store) updateAgentLocked(ctx context.Context, row *models.Agent, canon string, in AgentUpsert) error {
	updates := map[string]any{
		"updated_at": time.Now().Unix(),
	}
	if row.UAID == nil || *row.UAID != canon {
		updates["uaid"] = canon
	}
	if v := strings.TrimSpace(in.ENSName); v != "" && strings.TrimSpace(row.ENSName) == "" {
		updates["ens_name"] = v
	}
	if v := strings.TrimSpace(in.AgentName); v != "" && strings.TrimSpace(row.AgentName) == "" {
		updates["agent_name"] = v
	}
	if v := strings.TrimSpace(in.EmailDomain); v != "" && strings.TrimSpace(row.EmailDomain) == "" {
		updates["email_domain"] = v
	}
	if in.SessionPackage != nil {
		updates["session_package"] = *in.SessionPackage
	}
	if in.AgentCardJSON != nil {
		updates["agent_card_json"] = *in.AgentCardJSON
	}
	return s.DB.WithContext(ctx).
		Model(&models.Agent{}).
		Where("id = ?", row.ID).
		Updates(updates).Error
}

// GetAgentByUAID returns the canonical row for any encoding of the
// identity, or (nil, false, nil) when absent.
func (s *Store) GetAgentByUAID(ctx context.Context, id string) (*models.Agent, bool, error) {
	return s.findAgentByUAID(ctx, id)
}

func (s *Store) findAgentByUAID(ctx context.Context, id string) (*models.Agent, bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, false, nil
	}
	canon := uaid.Canonical(id)

	var row models.Agent
	err := s.DB.WithContext(ctx).
		Where("uaid = ?", canon).
		First(&row).Error
	if err == nil {
		return &row, true, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	// Legacy rows may hold prefixed or mixed-case encodings; narrow by
	// the account substring, then compare canonically.
	parsed, ok := uaid.Parse(id)
	if !ok {
		return nil, false, nil
	}
	var candidates []models.Agent
	err = s.DB.WithContext(ctx).
		Where("uaid IS NOT NULL AND lower(uaid) LIKE ?", "%"+parsed.AgentAccount+"%").
		Find(&candidates).Error
	if err != nil {
		return nil, false, err
	}
	for i := range candidates {
		if candidates[i].UAID != nil && uaid.Equal(*candidates[i].UAID, id) {
			return &candidates[i], true, nil
		}
	}
	return nil, false, nil
}

// SelfHealParticipant propagates an individual's own participant UAID
// into the agents table when it is missing there. Callers treat failure
// as non-fatal.
func (s *Store) SelfHealParticipant(ctx context.Context, individualID uint) error {
	var ind models.Individual
	err := s.DB.WithContext(ctx).First(&ind, individualID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrIndividualNotFound
		}
		return err
	}
	if ind.ParticipantUAID == nil || strings.TrimSpace(*ind.ParticipantUAID) == "" {
		return nil
	}
	if _, ok := uaid.Parse(*ind.ParticipantUAID); !ok {
		return nil
	}
	_, found, err := s.findAgentByUAID(ctx, *ind.ParticipantUAID)
	if err != nil {
		return err
	}
	if found {
		return nil
	}
	_, err = s.UpsertAgent(ctx, AgentUpsert{UAID: *ind.ParticipantUAID})
	return err
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed: UNIQUE")
}
