// Package errors provides error types and error codes for the vault engine.
// This is a leaf package with no internal dependencies, designed to be imported
// by the content, lock, version, token and deletion packages as well as the
// engine itself without causing circular imports.
//
// Import graph: errors <- content/lock/version/token/deletion <- engine <- api
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorCode represents the type of error that occurred.
type ErrorCode int

const (
	// ErrNotFound indicates the requested file, project or user does not exist.
	ErrNotFound ErrorCode = iota + 1

	// ErrVersionNotFound indicates the requested version of an existing file
	// does not exist.
	ErrVersionNotFound

	// ErrLocked indicates the file is checked out by another user.
	ErrLocked

	// ErrLockNotFound indicates no lock exists for the file.
	ErrLockNotFound

	// ErrNotLockOwner indicates the caller holds no claim on the lock it is
	// trying to release or extend.
	ErrNotLockOwner

	// ErrAccessDenied indicates the caller is not a member of the project's
	// workspace channel.
	ErrAccessDenied

	// ErrTokenExpired indicates the download token is absent, expired or was
	// consumed concurrently by another request.
	ErrTokenExpired

	// ErrTokenAlreadyUsed indicates the download token was already redeemed.
	ErrTokenAlreadyUsed

	// ErrTokenUserMismatch indicates the token is bound to a different user.
	ErrTokenUserMismatch

	// ErrAlreadyExists indicates a file with the same name already exists in
	// the project. Name comparison is case-insensitive.
	ErrAlreadyExists

	// ErrStillReferenced indicates content cannot be deleted because versions
	// still point at it.
	ErrStillReferenced

	// ErrCorruptedContent indicates authenticated decryption failed; the
	// stored envelope was tampered with or the key is wrong.
	ErrCorruptedContent

	// ErrStorageInconsistent indicates metadata references a blob that is
	// missing from the content store.
	ErrStorageInconsistent

	// ErrDeletionFailed indicates a secure deletion could not complete.
	ErrDeletionFailed

	// ErrTransient indicates a transaction conflict persisted across all
	// retry attempts. The operation may succeed if repeated.
	ErrTransient

	// ErrInvalidArgument indicates an invalid argument was provided.
	ErrInvalidArgument

	// ErrInternal indicates an unexpected internal failure.
	ErrInternal
)

// String returns a human-readable name for the error code.
func (e ErrorCode) String() string {
	switch e {
	case ErrNotFound:
		return "NotFound"
	case ErrVersionNotFound:
		return "VersionNotFound"
	case ErrLocked:
		return "Locked"
	case ErrLockNotFound:
		return "LockNotFound"
	case ErrNotLockOwner:
		return "NotLockOwner"
	case ErrAccessDenied:
		return "AccessDenied"
	case ErrTokenExpired:
		return "TokenExpired"
	case ErrTokenAlreadyUsed:
		return "TokenAlreadyUsed"
	case ErrTokenUserMismatch:
		return "TokenUserMismatch"
	case ErrAlreadyExists:
		return "AlreadyExists"
	case ErrStillReferenced:
		return "StillReferenced"
	case ErrCorruptedContent:
		return "CorruptedContent"
	case ErrStorageInconsistent:
		return "StorageInconsistent"
	case ErrDeletionFailed:
		return "DeletionFailed"
	case ErrTransient:
		return "Transient"
	case ErrInvalidArgument:
		return "InvalidArgument"
	case ErrInternal:
		return "Internal"
	default:
		return fmt.Sprintf("Unknown(%d)", e)
	}
}

// VaultError represents a vault engine error with an error code and the
// structured payload callers need to act on it.
type VaultError struct {
	Code    ErrorCode
	Message string

	// Resource identification, set when known.
	FileID    string
	ProjectID string
	UserID    string
	Version   int32

	// Lock contention details, set on ErrLocked.
	LockedBy  string
	LockedAt  time.Time
	ExpiresAt time.Time

	// Reference count blocking deletion, set on ErrStillReferenced.
	References int64

	// Underlying cause, set when the failure wraps a lower-level error.
	Cause error
}

// Error implements the error interface.
func (e *VaultError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.FileID != "" {
		msg = fmt.Sprintf("%s (file: %s)", msg, e.FileID)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause, if any.
func (e *VaultError) Unwrap() error {
	return e.Cause
}

// CodeOf extracts the ErrorCode from err, unwrapping as needed.
// Returns 0 when err carries no VaultError.
func CodeOf(err error) ErrorCode {
	var ve *VaultError
	if stderrors.As(err, &ve) {
		return ve.Code
	}
	return 0
}

// ============================================================================
// Factory Functions
// ============================================================================

// NewNotFoundError creates a NotFound error for the given resource.
func NewNotFoundError(id, resourceType string) *VaultError {
	return &VaultError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resourceType),
		FileID:  id,
	}
}

// NewVersionNotFoundError creates a VersionNotFound error.
func NewVersionNotFoundError(fileID string, version int32) *VaultError {
	return &VaultError{
		Code:    ErrVersionNotFound,
		Message: fmt.Sprintf("version %d not found", version),
		FileID:  fileID,
		Version: version,
	}
}

// NewLockedError creates a Locked error carrying the holder details.
func NewLockedError(fileID, lockedBy string, lockedAt, expiresAt time.Time) *VaultError {
	return &VaultError{
		Code:      ErrLocked,
		Message:   "file is checked out by another user",
		FileID:    fileID,
		LockedBy:  lockedBy,
		LockedAt:  lockedAt,
		ExpiresAt: expiresAt,
	}
}

// NewLockNotFoundError creates a LockNotFound error.
func NewLockNotFoundError(fileID string) *VaultError {
	return &VaultError{
		Code:    ErrLockNotFound,
		Message: "file is not checked out",
		FileID:  fileID,
	}
}

// NewNotLockOwnerError creates a NotLockOwner error.
func NewNotLockOwnerError(fileID, userID string) *VaultError {
	return &VaultError{
		Code:    ErrNotLockOwner,
		Message: "lock is held by a different user",
		FileID:  fileID,
		UserID:  userID,
	}
}

// NewAccessDeniedError creates an AccessDenied error.
func NewAccessDeniedError(userID, projectID string) *VaultError {
	return &VaultError{
		Code:      ErrAccessDenied,
		Message:   "user is not a member of the project workspace",
		UserID:    userID,
		ProjectID: projectID,
	}
}

// NewTokenExpiredError creates a TokenExpired error.
func NewTokenExpiredError() *VaultError {
	return &VaultError{
		Code:    ErrTokenExpired,
		Message: "download token is invalid or expired",
	}
}

// NewTokenAlreadyUsedError creates a TokenAlreadyUsed error.
func NewTokenAlreadyUsedError(fileID string) *VaultError {
	return &VaultError{
		Code:    ErrTokenAlreadyUsed,
		Message: "download token was already used",
		FileID:  fileID,
	}
}

// NewTokenUserMismatchError creates a TokenUserMismatch error.
func NewTokenUserMismatchError(fileID, userID string) *VaultError {
	return &VaultError{
		Code:    ErrTokenUserMismatch,
		Message: "download token belongs to a different user",
		FileID:  fileID,
		UserID:  userID,
	}
}

// NewAlreadyExistsError creates an AlreadyExists error.
func NewAlreadyExistsError(projectID, name string) *VaultError {
	return &VaultError{
		Code:      ErrAlreadyExists,
		Message:   fmt.Sprintf("file %q already exists in project", name),
		ProjectID: projectID,
	}
}

// NewStillReferencedError creates a StillReferenced error.
func NewStillReferencedError(hash string, references int64) *VaultError {
	return &VaultError{
		Code:       ErrStillReferenced,
		Message:    fmt.Sprintf("content %s is referenced by %d version(s)", hash, references),
		References: references,
	}
}

// NewCorruptedContentError creates a CorruptedContent error.
func NewCorruptedContentError(hash string, cause error) *VaultError {
	return &VaultError{
		Code:    ErrCorruptedContent,
		Message: fmt.Sprintf("content %s failed authentication", hash),
		Cause:   cause,
	}
}

// NewStorageInconsistentError creates a StorageInconsistent error.
func NewStorageInconsistentError(fileID, hash string) *VaultError {
	return &VaultError{
		Code:    ErrStorageInconsistent,
		Message: fmt.Sprintf("content %s is missing from storage", hash),
		FileID:  fileID,
	}
}

// NewDeletionFailedError creates a DeletionFailed error wrapping the cause.
func NewDeletionFailedError(hash string, cause error) *VaultError {
	return &VaultError{
		Code:    ErrDeletionFailed,
		Message: fmt.Sprintf("secure deletion of %s failed", hash),
		Cause:   cause,
	}
}

// NewTransientError creates a Transient error wrapping the last conflict.
func NewTransientError(cause error) *VaultError {
	return &VaultError{
		Code:    ErrTransient,
		Message: "operation conflicted with concurrent requests, retry later",
		Cause:   cause,
	}
}

// NewInvalidArgumentError creates an InvalidArgument error.
func NewInvalidArgumentError(message string) *VaultError {
	return &VaultError{
		Code:    ErrInvalidArgument,
		Message: message,
	}
}

// NewInternalError creates an Internal error wrapping the cause.
func NewInternalError(message string, cause error) *VaultError {
	return &VaultError{
		Code:    ErrInternal,
		Message: message,
		Cause:   cause,
	}
}

// ============================================================================
// Error Type Checking Helpers
// ============================================================================

// IsNotFound returns true if the error is a NotFound or VersionNotFound error.
func IsNotFound(err error) bool {
	code := CodeOf(err)
	return code == ErrNotFound || code == ErrVersionNotFound
}

// IsLocked returns true if the error is a lock contention error.
func IsLocked(err error) bool {
	return CodeOf(err) == ErrLocked
}

// IsAccessDenied returns true if the error is a membership denial.
func IsAccessDenied(err error) bool {
	return CodeOf(err) == ErrAccessDenied
}

// IsTokenError returns true for any token redemption failure.
func IsTokenError(err error) bool {
	code := CodeOf(err)
	return code == ErrTokenExpired || code == ErrTokenAlreadyUsed || code == ErrTokenUserMismatch
}

// IsTransient returns true if the operation may succeed when repeated.
func IsTransient(err error) bool {
	return CodeOf(err) == ErrTransient
}
