// Package handlers implements the HTTP handlers of the vault API.
package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/hubvault/hubvault/internal/logger"
	"github.com/hubvault/hubvault/pkg/audit"
	vaulterrors "github.com/hubvault/hubvault/pkg/engine/errors"
)

// Response is the standard API response wrapper.
type Response struct {
	Status    string      `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody carries a failed operation's code and context.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`

	FileID    string     `json:"file_id,omitempty"`
	ProjectID string     `json:"project_id,omitempty"`
	Version   int32      `json:"version,omitempty"`
	LockedBy  string     `json:"locked_by,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// writeJSON writes a JSON response with the given status code. Encoding
// goes to a buffer first so an encode failure can still produce an error
// response before headers are sent.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", logger.Err(err))
		http.Error(w, `{"status":"error","error":{"code":"Internal","message":"failed to encode response"}}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// writeOK writes a success response wrapping data.
func writeOK(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, Response{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
}

// writeCreated writes a 201 response wrapping data.
func writeCreated(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusCreated, Response{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
}

// writeEngineError maps a vault error to its HTTP shape.
func writeEngineError(w http.ResponseWriter, err error) {
	body := &ErrorBody{
		Code:    vaulterrors.ErrInternal.String(),
		Message: "internal error",
	}

	var ve *vaulterrors.VaultError
	if errors.As(err, &ve) {
		body.Code = ve.Code.String()
		body.Message = ve.Message
		body.FileID = ve.FileID
		body.ProjectID = ve.ProjectID
		body.Version = ve.Version
		body.LockedBy = ve.LockedBy
		if !ve.ExpiresAt.IsZero() {
			t := ve.ExpiresAt
			body.ExpiresAt = &t
		}
	} else {
		logger.Error("unclassified API error", logger.Err(err))
	}

	writeJSON(w, statusOf(vaulterrors.CodeOf(err)), Response{
		Status:    "error",
		Timestamp: time.Now().UTC(),
		Error:     body,
	})
}

// writeBadRequest reports a malformed request.
func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, Response{
		Status:    "error",
		Timestamp: time.Now().UTC(),
		Error:     &ErrorBody{Code: vaulterrors.ErrInvalidArgument.String(), Message: msg},
	})
}

// statusOf maps vault error codes to HTTP status codes.
func statusOf(code vaulterrors.ErrorCode) int {
	switch code {
	case vaulterrors.ErrNotFound,
		vaulterrors.ErrVersionNotFound,
		vaulterrors.ErrLockNotFound:
		return http.StatusNotFound
	case vaulterrors.ErrLocked,
		vaulterrors.ErrAlreadyExists,
		vaulterrors.ErrStillReferenced,
		vaulterrors.ErrTokenAlreadyUsed:
		return http.StatusConflict
	case vaulterrors.ErrNotLockOwner,
		vaulterrors.ErrAccessDenied,
		vaulterrors.ErrTokenUserMismatch:
		return http.StatusForbidden
	case vaulterrors.ErrTokenExpired:
		return http.StatusGone
	case vaulterrors.ErrInvalidArgument:
		return http.StatusBadRequest
	case vaulterrors.ErrTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// requestMeta extracts the client context an audit entry records.
func requestMeta(r *http.Request) audit.RequestMeta {
	return audit.RequestMeta{
		IP:        r.RemoteAddr,
		UserAgent: r.UserAgent(),
	}
}
