package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hubvault/hubvault/pkg/engine"
)

// ProjectHandler serves project management and compliance reporting.
type ProjectHandler struct {
	engine *engine.Engine
}

// NewProjectHandler creates the project handler.
func NewProjectHandler(e *engine.Engine) *ProjectHandler {
	return &ProjectHandler{engine: e}
}

// createProjectRequest is the body of a project creation call.
type createProjectRequest struct {
	Name      string `json:"name"`
	TeamID    string `json:"team_id"`
	ChannelID string `json:"channel_id"`
}

// Create binds a workspace channel to a new project.
//
// POST /api/v1/projects
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Name == "" || req.ChannelID == "" {
		writeBadRequest(w, "name and channel_id are required")
		return
	}

	project, err := h.engine.CreateProject(r.Context(), engine.CreateProjectParams{
		Name:      req.Name,
		TeamID:    req.TeamID,
		ChannelID: req.ChannelID,
		CreatedBy: actingUser(r),
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeCreated(w, project)
}

// Get returns a project by id.
//
// GET /api/v1/projects/{projectID}
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	project, err := h.engine.GetProject(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeOK(w, project)
}

// deleteProjectRequest is the body of a project deletion call.
type deleteProjectRequest struct {
	Reason string `json:"reason"`
}

// Delete removes a project and everything in it, wiping orphaned blobs.
// Admin only; the router enforces the role.
//
// DELETE /api/v1/projects/{projectID}
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req deleteProjectRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	report, err := h.engine.DeleteProject(r.Context(), chi.URLParam(r, "projectID"), actingUser(r), req.Reason)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeOK(w, report)
}

// Report produces the audit summary for a project and time window.
//
// GET /api/v1/projects/{projectID}/report?from=RFC3339&to=RFC3339
func (h *ProjectHandler) Report(w http.ResponseWriter, r *http.Request) {
	to := time.Now().UTC()
	from := to.AddDate(0, -1, 0)

	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeBadRequest(w, "from must be RFC3339")
			return
		}
		from = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeBadRequest(w, "to must be RFC3339")
			return
		}
		to = t
	}

	report, err := h.engine.ComplianceReport(r.Context(), chi.URLParam(r, "projectID"), from, to)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeOK(w, report)
}
