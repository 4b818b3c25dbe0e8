package handlers

import (
	"net/http"
	"time"

	"github.com/hubvault/hubvault/pkg/content"
	"github.com/hubvault/hubvault/pkg/store"
)

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	store   *store.Store
	content *content.Store
}

// NewHealthHandler creates a health handler over the vault's two storage
// planes.
func NewHealthHandler(s *store.Store, cs *content.Store) *HealthHandler {
	return &HealthHandler{store: s, content: cs}
}

// Liveness reports that the process is up.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Response{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
	})
}

// Readiness reports whether both the metadata store and the content store
// answer.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	checks := map[string]string{
		"database": "healthy",
		"storage":  "healthy",
	}
	healthy := true

	if err := h.store.HealthCheck(ctx); err != nil {
		checks["database"] = err.Error()
		healthy = false
	}
	if err := h.content.HealthCheck(ctx); err != nil {
		checks["storage"] = err.Error()
		healthy = false
	}

	status := "healthy"
	code := http.StatusOK
	if !healthy {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, Response{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Data:      checks,
	})
}
