package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/itglabs/impact-agent/internal/httpx"
	"github.com/itglabs/impact-agent/registry"
	"github.com/itglabs/impact-agent/uaid"
)

type organizationRequest struct {
	IndividualID *uint  `json:"individualId,omitempty"`
	EOAAddress   string `json:"eoaAddress,omitempty"`
	Email        string `json:"email,omitempty"`

	ENSName   string `json:"ens_name"`
	AgentName string `json:"agent_name"`
	UAID      string `json:"uaid"`

	OrgName     string  `json:"org_name,omitempty"`
	OrgAddress  string  `json:"org_address,omitempty"`
	EmailDomain string  `json:"email_domain,omitempty"`
	OrgMetadata *string `json:"org_metadata,omitempty"`

	SessionPackage *string `json:"session_package,omitempty"`
	AgentCardJSON  *string `json:"agent_card_json,omitempty"`

	IsPrimary bool      `json:"isPrimary,omitempty"`
	Role      string    `json:"role,omitempty"`
	OrgRoles  *[]string `json:"orgRoles,omitempty"`
}

func (s *Server) handleOrganizationsPost(w http.ResponseWriter, r *http.Request) {
	var req organizationRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_JSON", err.Error(), nil)
		return
	}

	in := registry.OrganizationUpsert{
		IndividualID:   req.IndividualID,
		EOAAddress:     req.EOAAddress,
		Email:          req.Email,
		ENSName:        req.ENSName,
		AgentName:      req.AgentName,
		UAID:           req.UAID,
		OrgName:        req.OrgName,
		OrgAddress:     req.OrgAddress,
		EmailDomain:    req.EmailDomain,
		OrgMetadata:    req.OrgMetadata,
		SessionPackage: req.SessionPackage,
		AgentCardJSON:  req.AgentCardJSON,
		IsPrimary:      req.IsPrimary,
		Role:           req.Role,
	}
	if req.OrgRoles != nil {
		in.OrgRoles = *req.OrgRoles
	}

	result, err := s.store.UpsertOrganization(r.Context(), in)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"organizationId": result.OrganizationID,
		"individualId":   result.IndividualID,
		"agentRowId":     result.AgentRowID,
		"uaid":           result.UAID,
	})
}

func (s *Server) handleOrganizationsGet(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("individualId"))
	if raw == "" {
		httpx.WriteError(w, http.StatusBadRequest, "VALIDATION", "individualId query parameter is required", nil)
		return
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "VALIDATION", "individualId must be numeric", nil)
		return
	}

	memberships, err := s.store.ListMemberships(r.Context(), uint(id))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	type orgView struct {
		OrganizationID uint     `json:"organizationId"`
		ENSName        string   `json:"ens_name"`
		OrgName        string   `json:"org_name,omitempty"`
		UAID           *string  `json:"uaid,omitempty"`
		AgentRowID     *uint    `json:"agent_row_id,omitempty"`
		IsPrimary      bool     `json:"is_primary"`
		Role           string   `json:"role,omitempty"`
		OrgRoles       []string `json:"orgRoles"`
	}
	out := make([]orgView, 0, len(memberships))
	for _, m := range memberships {
		out = append(out, orgView{
			OrganizationID: m.Organization.ID,
			ENSName:        m.Organization.ENSName,
			OrgName:        m.Organization.OrgName,
			UAID:           m.Organization.UAID,
			AgentRowID:     m.Organization.AgentRowID,
			IsPrimary:      m.IsPrimary,
			Role:           m.Role,
			OrgRoles:       m.OrgRoles,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"organizations": out})
}

// handleIndividualPost finds or creates the individual row for an EOA
// address or email.
func (s *Server) handleIndividualPost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EOAAddress string `json:"eoa_address"`
		Email      string `json:"email"`
	}
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_JSON", err.Error(), nil)
		return
	}
	if strings.TrimSpace(req.EOAAddress) == "" && strings.TrimSpace(req.Email) == "" {
		httpx.WriteError(w, http.StatusBadRequest, "VALIDATION", "eoa_address or email is required", nil)
		return
	}
	row, err := s.store.FindOrCreateIndividual(r.Context(), req.EOAAddress, req.Email)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "individual": row})
}

func (s *Server) handleIndividualGet(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("id"))
	if raw == "" {
		httpx.WriteError(w, http.StatusBadRequest, "VALIDATION", "id query parameter is required", nil)
		return
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "VALIDATION", "id must be numeric", nil)
		return
	}
	row, found, err := s.store.GetIndividual(r.Context(), uint(id))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if !found {
		httpx.WriteError(w, http.StatusNotFound, "NOT_FOUND", "individual not found", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"individual": row})
}

// handleIndividualPatch applies a partial update; a supplied
// participant UAID also reconciles the agents table.
func (s *Server) handleIndividualPatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IndividualID    *uint   `json:"individualId"`
		Email           *string `json:"email,omitempty"`
		EOAAddress      *string `json:"eoa_address,omitempty"`
		ParticipantUAID *string `json:"participant_uaid,omitempty"`
	}
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_JSON", err.Error(), nil)
		return
	}
	if req.IndividualID == nil {
		httpx.WriteError(w, http.StatusBadRequest, "VALIDATION", "individualId is required", nil)
		return
	}
	err := s.store.UpdateIndividual(r.Context(), *req.IndividualID, registry.IndividualPatch{
		Email:           req.Email,
		EOAAddress:      req.EOAAddress,
		ParticipantUAID: req.ParticipantUAID,
	})
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleAgentAccount(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("uaid"))
	if id == "" {
		httpx.WriteError(w, http.StatusBadRequest, "VALIDATION", "uaid query parameter is required", nil)
		return
	}
	row, found, err := s.store.GetAgentByUAID(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if !found {
		httpx.WriteError(w, http.StatusNotFound, "NOT_FOUND", "agent not found", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"agent": row})
}

// handleClientAddress decomposes a UAID into its chain id and account
// address without touching storage.
func (s *Server) handleClientAddress(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("uaid"))
	if id == "" {
		httpx.WriteError(w, http.StatusBadRequest, "VALIDATION", "uaid query parameter is required", nil)
		return
	}
	parsed, ok := uaid.Parse(id)
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "VALIDATION", "uaid is not parseable", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"chainId":       parsed.ChainID,
		"clientAddress": parsed.AgentAccount,
		"uaid":          parsed.String(),
	})
}

func (s *Server) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("uaid"))
	if id == "" {
		httpx.WriteError(w, http.StatusBadRequest, "VALIDATION", "uaid query parameter is required", nil)
		return
	}
	row, found, err := s.store.GetAgentByUAID(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if !found || row.SessionPackage == nil {
		httpx.WriteError(w, http.StatusNotFound, "NOT_FOUND", "no session package stored for this agent", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"uaid":            row.UAID,
		"session_package": row.SessionPackage,
	})
}

func (s *Server) handleSessionPost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UAID           string  `json:"uaid"`
		SessionPackage *string `json:"session_package"`
	}
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_JSON", err.Error(), nil)
		return
	}
	if req.SessionPackage == nil {
		httpx.WriteError(w, http.StatusBadRequest, "VALIDATION", "session_package is required", nil)
		return
	}
	if _, err := s.store.UpsertAgent(r.Context(), registry.AgentUpsert{
		UAID:           req.UAID,
		SessionPackage: req.SessionPackage,
	}); err != nil {
		s.writeStoreError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleWalletAddress resolves a stored agent's wallet address from its
// canonical UAID.
func (s *Server) handleWalletAddress(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("uaid"))
	if id == "" {
		httpx.WriteError(w, http.StatusBadRequest, "VALIDATION", "uaid query parameter is required", nil)
		return
	}
	row, found, err := s.store.GetAgentByUAID(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if !found || row.UAID == nil {
		httpx.WriteError(w, http.StatusNotFound, "NOT_FOUND", "agent not found", nil)
		return
	}
	parsed, ok := uaid.Parse(*row.UAID)
	if !ok {
		httpx.WriteError(w, http.StatusInternalServerError, "INTERNAL",
			"stored uaid is not parseable; re-run the agent upsert to normalize it", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"uaid":          parsed.String(),
		"walletAddress": parsed.AgentAccount,
		"chainId":       parsed.ChainID,
	})
}

// writeStoreError maps the store's sentinel errors onto the HTTP error
// taxonomy.
func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registry.ErrUAIDRequired),
		errors.Is(err, registry.ErrENSNameRequired),
		errors.Is(err, registry.ErrAgentNameRequired):
		httpx.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	case errors.Is(err, registry.ErrIndividualNotFound):
		httpx.WriteError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	default:
		s.log.Error("store operation failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "INTERNAL",
			"database operation failed; verify the db.dsn setting and that the schema has been migrated", nil)
	}
}
