package apiclient

import (
	"fmt"
	"time"
)

// APIError represents an error response from the API. It mirrors the
// server's error body, so lock conflicts carry the holder and the expiry.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message"`

	FileID    string     `json:"file_id,omitempty"`
	ProjectID string     `json:"project_id,omitempty"`
	Version   int32      `json:"version,omitempty"`
	LockedBy  string     `json:"locked_by,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// IsNotFound returns true if the requested resource does not exist.
func (e *APIError) IsNotFound() bool {
	return e.Code == "NotFound" || e.Code == "VersionNotFound" || e.Code == "LockNotFound"
}

// IsLocked returns true if the file is checked out by someone else.
func (e *APIError) IsLocked() bool {
	return e.Code == "Locked"
}

// IsAccessDenied returns true if the caller lacks the required role or
// project membership.
func (e *APIError) IsAccessDenied() bool {
	return e.Code == "AccessDenied" || e.Code == "NotLockOwner"
}

// IsConflict returns true if the operation lost to concurrent state: a name
// collision, a still-referenced file, or a reused token.
func (e *APIError) IsConflict() bool {
	return e.Code == "AlreadyExists" || e.Code == "StillReferenced" || e.Code == "TokenAlreadyUsed"
}

// IsExpired returns true if a download link was already used or timed out.
func (e *APIError) IsExpired() bool {
	return e.Code == "TokenExpired"
}
