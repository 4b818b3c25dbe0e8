package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hubvault/hubvault/pkg/engine"
	"github.com/hubvault/hubvault/pkg/models"
)

// DeletionHandler serves secure deletion, its records and certificates.
// Every route here is admin only; the router enforces the role.
type DeletionHandler struct {
	engine *engine.Engine
}

// NewDeletionHandler creates the deletion handler.
func NewDeletionHandler(e *engine.Engine) *DeletionHandler {
	return &DeletionHandler{engine: e}
}

// wipeRequest names the content to destroy and why.
type wipeRequest struct {
	ContentHash string `json:"content_hash"`
	Reason      string `json:"reason"`
}

// Wipe securely destroys unreferenced content.
//
// POST /api/v1/deletions
func (h *DeletionHandler) Wipe(w http.ResponseWriter, r *http.Request) {
	var req wipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.ContentHash == "" {
		writeBadRequest(w, "content_hash is required")
		return
	}

	record, err := h.engine.Deletion().SecureDeleteContent(r.Context(), req.ContentHash, actingUser(r), req.Reason)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeCreated(w, record)
}

// List returns deletion records, newest first, optionally filtered by
// status.
//
// GET /api/v1/deletions?status=FAILED
func (h *DeletionHandler) List(w http.ResponseWriter, r *http.Request) {
	status := models.DeletionStatus(r.URL.Query().Get("status"))
	records, err := h.engine.Deletion().ListRecords(r.Context(), status)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeOK(w, records)
}

// Get returns one deletion record.
//
// GET /api/v1/deletions/{recordID}
func (h *DeletionHandler) Get(w http.ResponseWriter, r *http.Request) {
	record, err := h.engine.Deletion().GetRecord(r.Context(), chi.URLParam(r, "recordID"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeOK(w, record)
}

// Retry reruns a failed wipe.
//
// POST /api/v1/deletions/{recordID}/retry
func (h *DeletionHandler) Retry(w http.ResponseWriter, r *http.Request) {
	record, err := h.engine.Deletion().RetryDeletion(r.Context(), chi.URLParam(r, "recordID"), actingUser(r))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeOK(w, record)
}

// Certificate generates (or regenerates) the deletion certificate for a
// finished record.
//
// POST /api/v1/deletions/{recordID}/certificate
func (h *DeletionHandler) Certificate(w http.ResponseWriter, r *http.Request) {
	cert, err := h.engine.Deletion().GenerateCertificate(r.Context(), chi.URLParam(r, "recordID"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeOK(w, cert)
}
