package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hubvault/hubvault/pkg/api/middleware"
	"github.com/hubvault/hubvault/pkg/engine"
)

// FileHandler serves file lifecycle operations: upload, metadata, version
// history, checkout, check-in and deletion.
type FileHandler struct {
	engine *engine.Engine
}

// NewFileHandler creates the file handler.
func NewFileHandler(e *engine.Engine) *FileHandler {
	return &FileHandler{engine: e}
}

// actingUser returns the platform identity the request acts as.
func actingUser(r *http.Request) string {
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		return claims.UserID
	}
	return ""
}

// spoolUpload writes the request's multipart "file" part to a temporary
// file and returns its path, the client-reported filename, and a cleanup
// function. The engine reads uploads from the filesystem, not from the
// request body, so a failed request never holds a half-read stream.
func spoolUpload(r *http.Request) (path, filename string, cleanup func(), err error) {
	file, header, err := r.FormFile("file")
	if err != nil {
		return "", "", nil, fmt.Errorf("missing multipart field %q: %w", "file", err)
	}
	defer file.Close()

	tmp, err := os.CreateTemp("", "hubvault-upload-*")
	if err != nil {
		return "", "", nil, fmt.Errorf("creating spool file: %w", err)
	}

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", "", nil, fmt.Errorf("spooling upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", "", nil, fmt.Errorf("closing spool file: %w", err)
	}

	name := tmp.Name()
	return name, filepath.Base(header.Filename), func() { os.Remove(name) }, nil
}

// Create handles the initial upload of a file into a project.
//
// POST /api/v1/projects/{projectID}/files (multipart: file, optional
// name, path, message)
func (h *FileHandler) Create(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")

	src, clientName, cleanup, err := spoolUpload(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	defer cleanup()

	name := r.FormValue("name")
	if name == "" {
		name = clientName
	}
	if name == "" {
		writeBadRequest(w, "file name is required")
		return
	}

	params := engine.CreateParams{
		ProjectID:  projectID,
		Name:       name,
		Path:       r.FormValue("path"),
		MimeType:   r.FormValue("mime_type"),
		SourcePath: src,
		UploaderID: actingUser(r),
	}
	if msg := r.FormValue("message"); msg != "" {
		params.Message = &msg
	}

	file, err := h.engine.Create(r.Context(), params, requestMeta(r))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeCreated(w, file)
}

// Get returns a file's metadata.
//
// GET /api/v1/files/{fileID}
func (h *FileHandler) Get(w http.ResponseWriter, r *http.Request) {
	file, err := h.engine.GetFile(r.Context(), chi.URLParam(r, "fileID"), actingUser(r), requestMeta(r))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeOK(w, file)
}

// List returns a project's files.
//
// GET /api/v1/projects/{projectID}/files
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	files, err := h.engine.ListFiles(r.Context(), chi.URLParam(r, "projectID"), actingUser(r), requestMeta(r))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeOK(w, files)
}

// ListVersions returns a file's version history.
//
// GET /api/v1/files/{fileID}/versions
func (h *FileHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := h.engine.ListVersions(r.Context(), chi.URLParam(r, "fileID"), actingUser(r), requestMeta(r))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeOK(w, versions)
}

// Delete removes a file with its history.
//
// DELETE /api/v1/files/{fileID}
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Delete(r.Context(), chi.URLParam(r, "fileID"), actingUser(r), requestMeta(r)); err != nil {
		writeEngineError(w, err)
		return
	}
	writeOK(w, nil)
}

// checkoutRequest is the body of a checkout call.
type checkoutRequest struct {
	Reason *string `json:"reason,omitempty"`
}

// Checkout claims the exclusive editing lock on a file.
//
// POST /api/v1/files/{fileID}/checkout
func (h *FileHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	res, err := h.engine.Checkout(r.Context(), chi.URLParam(r, "fileID"), actingUser(r), req.Reason, requestMeta(r))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeOK(w, res)
}

// Checkin stores uploaded content as the file's next version and releases
// the caller's lock.
//
// POST /api/v1/files/{fileID}/checkin (multipart: file, optional message)
func (h *FileHandler) Checkin(w http.ResponseWriter, r *http.Request) {
	src, _, cleanup, err := spoolUpload(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	defer cleanup()

	params := engine.CheckinParams{
		FileID:     chi.URLParam(r, "fileID"),
		UserID:     actingUser(r),
		SourcePath: src,
	}
	if msg := r.FormValue("message"); msg != "" {
		params.Message = &msg
	}

	res, err := h.engine.Checkin(r.Context(), params, requestMeta(r))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeOK(w, res)
}

// CancelCheckout releases the caller's lock without creating a version.
//
// POST /api/v1/files/{fileID}/checkout/cancel
func (h *FileHandler) CancelCheckout(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.CancelCheckout(r.Context(), chi.URLParam(r, "fileID"), actingUser(r), requestMeta(r)); err != nil {
		writeEngineError(w, err)
		return
	}
	writeOK(w, nil)
}

// extendRequest is the body of a lock extension call.
type extendRequest struct {
	Hours int `json:"hours"`
}

// ExtendCheckout pushes the caller's lock expiry out.
//
// POST /api/v1/files/{fileID}/checkout/extend
func (h *FileHandler) ExtendCheckout(w http.ResponseWriter, r *http.Request) {
	var req extendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Hours <= 0 {
		writeBadRequest(w, "hours must be positive")
		return
	}

	lock, err := h.engine.ExtendCheckout(r.Context(), chi.URLParam(r, "fileID"), actingUser(r), req.Hours, requestMeta(r))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeOK(w, lock)
}

// CreateDownloadToken issues a single-use download link for a file
// version.
//
// POST /api/v1/files/{fileID}/download-token?version=N
func (h *FileHandler) CreateDownloadToken(w http.ResponseWriter, r *http.Request) {
	var version *int32
	if v := r.URL.Query().Get("version"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 1 {
			writeBadRequest(w, "version must be a positive integer")
			return
		}
		n32 := int32(n)
		version = &n32
	}

	issued, err := h.engine.CreateDownloadToken(r.Context(), chi.URLParam(r, "fileID"), actingUser(r), version, requestMeta(r))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeCreated(w, issued)
}

// decodeOptionalBody decodes a JSON body when one is present; an empty
// body leaves dst untouched.
func decodeOptionalBody(r *http.Request, dst interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}
