package registry

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/itglabs/impact-agent/db/models"
	"gorm.io/gorm"
)

// FindOrCreateIndividual resolves a human user by EOA address or email,
// creating the row on first reference. Individuals are never hard
// deleted.
func (s *Store) FindOrCreateIndividual(ctx context.Context, eoaAddress, email string) (*models.Individual, error) {
	return s.resolveIndividual(ctx, OrganizationUpsert{
		EOAAddress: eoaAddress,
		Email:      email,
	})
}

func (s *Store) GetIndividual(ctx context.Context, id uint) (*models.Individual, bool, error) {
	var row models.Individual
	err := s.DB.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &row, true, nil
}

type IndividualPatch struct {
	Email           *string
	EOAAddress      *string
	ParticipantUAID *string
}

// UpdateIndividual applies a partial patch; omitted (nil) fields are
// preserved. Setting a participant UAID also self-heals the agents
// table, best-effort.
func (s *Store) UpdateIndividual(ctx context.Context, id uint, patch IndividualPatch) error {
	_, found, err := s.GetIndividual(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return ErrIndividualNotFound
	}

	updates := map[string]any{
		"updated_at": time.Now().Unix(),
	}
	if patch.Email != nil {
		updates["email"] = strings.ToLower(strings.TrimSpace(*patch.Email))
	}
	if patch.EOAAddress != nil {
		updates["eoa_address"] = strings.ToLower(strings.TrimSpace(*patch.EOAAddress))
	}
	if patch.ParticipantUAID != nil {
		updates["participant_uaid"] = strings.TrimSpace(*patch.ParticipantUAID)
	}
	if err := s.DB.WithContext(ctx).
		Model(&models.Individual{}).
		Where("id = ?", id).
		Updates(updates).Error; err != nil {
		return err
	}

	if patch.ParticipantUAID != nil {
		// Non-fatal by contract; the caller logs and continues.
		return s.SelfHealParticipant(ctx, id)
	}
	return nil
}
