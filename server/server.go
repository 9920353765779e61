// Package server exposes the HTTP surface: the A2A skill endpoint, the
// REST routes, and the well-known discovery documents.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/itglabs/impact-agent/a2a"
	"github.com/itglabs/impact-agent/agentcard"
	"github.com/itglabs/impact-agent/httpsig"
	"github.com/itglabs/impact-agent/internal/httpx"
	"github.com/itglabs/impact-agent/registry"
)

// SubdomainHeader overrides the Host-derived subdomain; intended for
// local development where everything runs on localhost. It is ignored
// unless Config.AllowSubdomainOverride is set.
const SubdomainHeader = "X-Agent-Subdomain"

type Config struct {
	Addr      string
	BaseURL   string
	AgentName string
	Version   string

	// AllowSubdomainOverride honors the SubdomainHeader instead of the
	// Host label. Dev-only: a client asserting the header would
	// otherwise walk through the admin and inbox gates.
	AllowSubdomainOverride bool

	// MaxUploadBytes caps /api/ipfs/upload bodies. Zero means the
	// default of 1 MiB.
	MaxUploadBytes int64
}

type Server struct {
	cfg        Config
	log        *slog.Logger
	store      *registry.Store
	dispatcher *a2a.Registry
	signer     *httpsig.Signer // nil when no key is configured
	card       *agentcard.Builder
}

func New(cfg Config, log *slog.Logger, store *registry.Store, dispatcher *a2a.Registry, signer *httpsig.Signer, card *agentcard.Builder) *Server {
	if log == nil {
		log = slog.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 1 << 20
	}
	return &Server{
		cfg:        cfg,
		log:        log,
		store:      store,
		dispatcher: dispatcher,
		signer:     signer,
		card:       card,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Get("/.well-known/agent-card.json", s.handleAgentCard)
	r.Get("/.well-known/agent", s.handleAgentDescriptor)

	r.Route("/api", func(api chi.Router) {
		api.Post("/a2a", s.handleA2APost)
		api.Get("/a2a", s.handleA2AGet)

		api.Post("/users/organizations", s.handleOrganizationsPost)
		api.Get("/users/organizations", s.handleOrganizationsGet)
		api.Post("/users/account", s.handleIndividualPost)
		api.Get("/users/account", s.handleIndividualGet)
		api.Patch("/users/account", s.handleIndividualPatch)
		api.Get("/agent/account", s.handleAgentAccount)
		api.Get("/client-address", s.handleClientAddress)
		api.Get("/auth/session", s.handleSessionGet)
		api.Post("/auth/session", s.handleSessionPost)
		api.Get("/auth/wallet-address", s.handleWalletAddress)
		api.Post("/ipfs/upload", s.handleIPFSUpload)
	})

	return r
}

func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// recoverer converts panics into a JSON 500 so no handler failure
// escapes without an envelope.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error("handler panic", "path", r.URL.Path, "panic", rec)
				httpx.WriteError(w, http.StatusInternalServerError,
					"INTERNAL", "internal server error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// subdomain resolves the gating subdomain from the Host header's first
// label. The override header is consulted only in dev mode.
func (s *Server) subdomain(r *http.Request) string {
	if s.cfg.AllowSubdomainOverride {
		if v := strings.TrimSpace(r.Header.Get(SubdomainHeader)); v != "" {
			return v
		}
	}
	host := r.Host
	if idx := strings.IndexByte(host, ':'); idx >= 0 {
		host = host[:idx]
	}
	parts := strings.Split(host, ".")
	if len(parts) < 3 {
		// Bare domains and localhost carry no gating subdomain.
		return ""
	}
	return strings.ToLower(parts[0])
}
