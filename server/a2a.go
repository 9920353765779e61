package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/itglabs/impact-agent/a2a"
	"github.com/itglabs/impact-agent/httpsig"
	"github.com/itglabs/impact-agent/internal/httpx"
)

func (s *Server) handleA2APost(w http.ResponseWriter, r *http.Request) {
	var req a2a.Request
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_JSON", err.Error(), nil)
		return
	}
	req.Subdomain = s.subdomain(r)

	resp, err := s.dispatcher.Dispatch(r.Context(), &req)
	if err != nil {
		s.writeDispatchError(w, req.SkillID, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// handleA2AGet is the discovery echo. When a signing key is configured
// the response carries Signature-Input/Signature headers over the
// aid-challenge, method, target URI, host and date.
func (s *Server) handleA2AGet(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"agent":    s.cfg.AgentName,
		"version":  s.cfg.Version,
		"protocol": "a2a",
		"skills":   len(s.dispatcher.List()),
	}

	if s.signer != nil {
		now := time.Now().UTC()
		target := s.cfg.BaseURL + r.URL.RequestURI()
		sigInput, signature, err := s.signer.Headers(httpsig.Input{
			Challenge: r.Header.Get("AID-Challenge"),
			Method:    r.Method,
			TargetURI: target,
			Host:      r.Host,
			Date:      now,
		})
		if err != nil {
			s.log.Error("signature construction failed", "error", err)
			httpx.WriteError(w, http.StatusInternalServerError,
				"SIGNATURE_FAILED", "could not sign discovery response", nil)
			return
		}
		w.Header().Set("Date", now.Format(time.RFC1123))
		w.Header().Set("Signature-Input", sigInput)
		w.Header().Set("Signature", signature)
		body["keyId"] = s.signer.KeyID()
	}

	httpx.WriteJSON(w, http.StatusOK, body)
}

// writeDispatchError maps the skill error taxonomy onto HTTP statuses:
// validation 400, forbidden 403, not-found and unknown skill 404,
// everything else 500 with a hint.
func (s *Server) writeDispatchError(w http.ResponseWriter, skillID string, err error) {
	var verr *a2a.ValidationError
	if errors.As(err, &verr) {
		httpx.WriteError(w, http.StatusBadRequest, "VALIDATION", verr.Error(), nil)
		return
	}
	var ferr *a2a.ForbiddenError
	if errors.As(err, &ferr) {
		httpx.WriteError(w, http.StatusForbidden, "FORBIDDEN", ferr.Error(), nil)
		return
	}
	var nerr *a2a.NotFoundError
	if errors.As(err, &nerr) {
		httpx.WriteError(w, http.StatusNotFound, "NOT_FOUND", nerr.Error(), nil)
		return
	}
	if errors.Is(err, a2a.ErrUnknownSkill) {
		httpx.WriteError(w, http.StatusNotFound, "UNKNOWN_SKILL",
			"no skill registered under id "+skillID, nil)
		return
	}
	s.log.Error("skill dispatch failed", "skill", skillID, "error", err)
	httpx.WriteError(w, http.StatusInternalServerError, "INTERNAL",
		"skill execution failed; check database connectivity and server logs", nil)
}
