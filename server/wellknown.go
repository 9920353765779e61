package server

import (
	"net/http"

	"github.com/itglabs/impact-agent/internal/httpx"
)

func (s *Server) handleAgentCard(w http.ResponseWriter, _ *http.Request) {
	if s.card == nil {
		httpx.WriteError(w, http.StatusNotFound, "NOT_FOUND", "agent card not configured", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, s.card.Card())
}

func (s *Server) handleAgentDescriptor(w http.ResponseWriter, _ *http.Request) {
	if s.card == nil {
		httpx.WriteError(w, http.StatusNotFound, "NOT_FOUND", "agent card not configured", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, s.card.Descriptor())
}
