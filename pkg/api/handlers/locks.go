package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hubvault/hubvault/pkg/engine"
)

// LockHandler serves lock inspection and the administrative override.
type LockHandler struct {
	engine *engine.Engine
}

// NewLockHandler creates the lock handler.
func NewLockHandler(e *engine.Engine) *LockHandler {
	return &LockHandler{engine: e}
}

// Get returns the current lock on a file, if any.
//
// GET /api/v1/files/{fileID}/lock
func (h *LockHandler) Get(w http.ResponseWriter, r *http.Request) {
	lock, err := h.engine.Locks().Get(r.Context(), chi.URLParam(r, "fileID"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeOK(w, lock)
}

// List returns the live locks held in a project.
//
// GET /api/v1/projects/{projectID}/locks
func (h *LockHandler) List(w http.ResponseWriter, r *http.Request) {
	locks, err := h.engine.Locks().List(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeOK(w, locks)
}

// ForceRelease breaks a lock regardless of holder. Admin only; the
// override is audited against the acting admin.
//
// DELETE /api/v1/files/{fileID}/lock
func (h *LockHandler) ForceRelease(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.ForceReleaseLock(r.Context(), chi.URLParam(r, "fileID"), actingUser(r), requestMeta(r)); err != nil {
		writeEngineError(w, err)
		return
	}
	writeOK(w, nil)
}
