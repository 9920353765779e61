package registry

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/itglabs/impact-agent/db/models"
	"github.com/itglabs/impact-agent/uaid"
	"gorm.io/gorm"
)

// ValidOrgRoles is the closed set of organization role tags. Unknown
// tags supplied by callers are dropped, not rejected.
var ValidOrgRoles = map[string]bool{
	"coalition":   true,
	"contributor": true,
	"funding":     true,
	"member":      true,
}

type OrganizationUpsert struct {
	// Exactly one of IndividualID (strict: must exist) or the
	// EOAAddress/Email pair (find-or-create) identifies the caller.
	IndividualID *uint
	EOAAddress   string
	Email        string

	ENSName   string // required, unique organization key
	AgentName string // required
	UAID      string // required

	OrgName     string
	OrgAddress  string
	EmailDomain string
	OrgMetadata *string

	SessionPackage *string
	AgentCardJSON  *string

	IsPrimary bool
	Role      string
	// OrgRoles nil means "not provided" (existing tags kept); a non-nil
	// slice, including an empty one, replaces the tag set wholesale.
	OrgRoles []string
}

type OrganizationResult struct {
	OrganizationID uint
	IndividualID   uint
	AgentRowID     uint
	UAID           string
}

// UpsertOrganization resolves the individual, finds-or-creates the
// organization row by ENS name, reconciles the canonical agent row, and
// links the individual through the join table. The agent upsert is
// fatal here, unlike the opportunistic call sites.
func (s *Store) UpsertOrganization(ctx context.Context, in OrganizationUpsert) (OrganizationResult, error) {
	if strings.TrimSpace(in.ENSName) == "" {
		return OrganizationResult{}, ErrENSNameRequired
	}
	if strings.TrimSpace(in.AgentName) == "" {
		return OrganizationResult{}, ErrAgentNameRequired
	}
	if strings.TrimSpace(in.UAID) == "" {
		return OrganizationResult{}, ErrUAIDRequired
	}

	ind, err := s.resolveIndividual(ctx, in)
	if err != nil {
		return OrganizationResult{}, err
	}

	agentID, err := s.UpsertAgent(ctx, AgentUpsert{
		UAID:           in.UAID,
		ENSName:        in.ENSName,
		AgentName:      in.AgentName,
		EmailDomain:    in.EmailDomain,
		SessionPackage: in.SessionPackage,
		AgentCardJSON:  in.AgentCardJSON,
	})
	if err != nil {
		return OrganizationResult{}, err
	}
	canon := uaid.Canonical(in.UAID)

	org, err := s.upsertOrganizationRow(ctx, in, agentID, canon)
	if err != nil {
		return OrganizationResult{}, err
	}

	if in.OrgRoles != nil {
		if err := s.replaceOrgRoles(ctx, org.ID, in.OrgRoles); err != nil {
			return OrganizationResult{}, err
		}
	}

	if err := s.upsertMembership(ctx, ind.ID, org.ID, in.IsPrimary, in.Role); err != nil {
		return OrganizationResult{}, err
	}

	return OrganizationResult{
		OrganizationID: org.ID,
		IndividualID:   ind.ID,
		AgentRowID:     agentID,
		UAID:           canon,
	}, nil
}

func (s *Store) resolveIndividual(ctx context.Context, in OrganizationUpsert) (*models.Individual, error) {
	if in.IndividualID != nil {
		var row models.Individual
		err := s.DB.WithContext(ctx).First(&row, *in.IndividualID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrIndividualNotFound
			}
			return nil, err
		}
		return &row, nil
	}

	eoa := strings.ToLower(strings.TrimSpace(in.EOAAddress))
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if eoa == "" && email == "" {
		return nil, ErrIndividualNotFound
	}

	var row models.Individual
	q := s.DB.WithContext(ctx).Model(&models.Individual{})
	if eoa != "" {
		q = q.Where("lower(eoa_address) = ?", eoa)
	} else {
		q = q.Where("lower(email) = ?", email)
	}
	err := q.First(&row).Error
	if err == nil {
		return &row, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := time.Now().Unix()
	row = models.Individual{CreatedAt: now, UpdatedAt: now}
	if eoa != "" {
		row.EOAAddress = &eoa
	}
	if email != "" {
		row.Email = &email
	}
	if err := s.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *Store) upsertOrganizationRow(ctx context.Context, in OrganizationUpsert, agentID uint, canon string) (*models.Organization, error) {
	ens := strings.TrimSpace(in.ENSName)
	now := time.Now().Unix()

	var org models.Organization
	err := s.DB.WithContext(ctx).Where("ens_name = ?", ens).First(&org).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		org = models.Organization{
			ENSName:     ens,
			OrgName:     strings.TrimSpace(in.OrgName),
			OrgAddress:  strings.TrimSpace(in.OrgAddress),
			EmailDomain: strings.TrimSpace(in.EmailDomain),
			UAID:        &canon,
			AgentRowID:  &agentID,
			OrgMetadata: in.OrgMetadata,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if org.OrgName == "" {
			org.OrgName = strings.TrimSpace(in.AgentName)
		}
		if createErr := s.DB.WithContext(ctx).Create(&org).Error; createErr != nil {
			return nil, createErr
		}
		return &org, nil
	}
	if err != nil {
		return nil, err
	}

	// Settings saves overwrite display fields; uaid and agent_row_id
	// follow COALESCE semantics so an existing value survives unless a
	// new non-null one arrived.
	updates := map[string]any{
		"uaid":         gorm.Expr("COALESCE(?, uaid)", canon),
		"agent_row_id": gorm.Expr("COALESCE(?, agent_row_id)", agentID),
		"updated_at":   now,
	}
	if v := strings.TrimSpace(in.OrgName); v != "" {
		updates["org_name"] = v
	}
	if v := strings.TrimSpace(in.OrgAddress); v != "" {
		updates["org_address"] = v
	}
	if v := strings.TrimSpace(in.EmailDomain); v != "" {
		updates["email_domain"] = v
	}
	if in.OrgMetadata != nil {
		updates["org_metadata"] = *in.OrgMetadata
	}
	if err := s.DB.WithContext(ctx).
		Model(&models.Organization{}).
		Where("id = ?", org.ID).
		Updates(updates).Error; err != nil {
		return nil, err
	}
	org.UAID = &canon
	org.AgentRowID = &agentID
	return &org, nil
}

func (s *Store) replaceOrgRoles(ctx context.Context, orgID uint, roles []string) error {
	if err := s.DB.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Delete(&models.OrganizationRole{}).Error; err != nil {
		return err
	}
	now := time.Now().Unix()
	seen := map[string]bool{}
	for _, role := range roles {
		role = strings.ToLower(strings.TrimSpace(role))
		if role == "" || seen[role] || !ValidOrgRoles[role] {
			continue
		}
		seen[role] = true
		row := models.OrganizationRole{
			OrganizationID: orgID,
			Role:           role,
			CreatedAt:      now,
		}
		if err := s.DB.WithContext(ctx).Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) upsertMembership(ctx context.Context, individualID, orgID uint, isPrimary bool, role string) error {
	now := time.Now().Unix()
	role = strings.TrimSpace(role)

	var link models.IndividualOrganization
	err := s.DB.WithContext(ctx).
		Where("individual_id = ? AND organization_id = ?", individualID, orgID).
		First(&link).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		link = models.IndividualOrganization{
			IndividualID:   individualID,
			OrganizationID: orgID,
			IsPrimary:      isPrimary,
			Role:           role,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.DB.WithContext(ctx).Create(&link).Error; err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		if err := s.DB.WithContext(ctx).
			Model(&models.IndividualOrganization{}).
			Where("id = ?", link.ID).
			Updates(map[string]any{
				"is_primary": isPrimary,
				"role":       role,
				"updated_at": now,
			}).Error; err != nil {
			return err
		}
	}

	// The demotion sweep is the only mechanism behind the at-most-one
	// primary invariant, and it runs only on an explicit primary-set.
	if isPrimary {
		return s.DB.WithContext(ctx).
			Model(&models.IndividualOrganization{}).
			Where("individual_id = ? AND organization_id <> ?", individualID, orgID).
			Update("is_primary", false).Error
	}
	return nil
}

type Membership struct {
	Organization models.Organization
	IsPrimary    bool
	Role         string
	OrgRoles     []string
}

// ListMemberships returns the organizations an individual belongs to,
// primary first.
func (s *Store) ListMemberships(ctx context.Context, individualID uint) ([]Membership, error) {
	var links []models.IndividualOrganization
	err := s.DB.WithContext(ctx).
		Where("individual_id = ?", individualID).
		Find(&links).Error
	if err != nil {
		return nil, err
	}

	out := make([]Membership, 0, len(links))
	for _, link := range links {
		var org models.Organization
		if err := s.DB.WithContext(ctx).First(&org, link.OrganizationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		tags, err := s.orgRoleTags(ctx, org.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, Membership{
			Organization: org,
			IsPrimary:    link.IsPrimary,
			Role:         link.Role,
			OrgRoles:     tags,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsPrimary != out[j].IsPrimary {
			return out[i].IsPrimary
		}
		return out[i].Organization.ENSName < out[j].Organization.ENSName
	})
	return out, nil
}

// GetOrganizationByENS returns (nil, false, nil) when absent.
func (s *Store) GetOrganizationByENS(ctx context.Context, ensName string) (*models.Organization, bool, error) {
	ensName = strings.TrimSpace(ensName)
	if ensName == "" {
		return nil, false, nil
	}
	var org models.Organization
	err := s.DB.WithContext(ctx).Where("ens_name = ?", ensName).First(&org).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &org, true, nil
}

func (s *Store) orgRoleTags(ctx context.Context, orgID uint) ([]string, error) {
	var rows []models.OrganizationRole
	err := s.DB.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("role ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Role)
	}
	return out, nil
}
