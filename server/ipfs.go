package server

import (
	"io"
	"net/http"

	"github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"

	"github.com/itglabs/impact-agent/internal/httpx"
)

// handleIPFSUpload content-addresses the request body and returns its
// CIDv1. The body is hashed locally; pinning to a remote node is a
// deployment concern, so the response reports pinned=false.
func (s *Server) handleIPFSUpload(w http.ResponseWriter, r *http.Request) {
	limited := io.LimitReader(r.Body, s.cfg.MaxUploadBytes+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_BODY", err.Error(), nil)
		return
	}
	if len(data) == 0 {
		httpx.WriteError(w, http.StatusBadRequest, "VALIDATION", "request body is empty", nil)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		httpx.WriteError(w, http.StatusInternalServerError, "UPLOAD_TOO_LARGE",
			"upload exceeds the configured limit; raise server.maxUploadBytes to accept larger payloads", nil)
		return
	}

	digest, err := mh.Sum(data, mh.SHA2_256, -1)
	if err != nil {
		s.log.Error("multihash digest failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "INTERNAL", "content addressing failed", nil)
		return
	}
	id := cid.NewCidV1(cid.Raw, digest)

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"cid":    id.String(),
		"size":   len(data),
		"pinned": false,
	})
}
