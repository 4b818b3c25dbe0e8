package logger

import (
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements so aggregated logs
// stay queryable across the vault, token and deletion subsystems.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID   = "trace_id"   // OpenTelemetry trace ID for request correlation
	KeySpanID    = "span_id"    // OpenTelemetry span ID for operation tracking
	KeyRequestID = "request_id" // Request id assigned at the API boundary

	// ========================================================================
	// Vault Operations
	// ========================================================================
	KeyOperation = "operation"  // Operation name: checkout, checkin, upload, download, delete
	KeyOutcome   = "outcome"    // Operation outcome: success, failure, denied
	KeyEventKind = "event_kind" // Audit event kind
	KeyActor     = "actor"     // Acting user id
	KeyProject   = "project"   // Project id
	KeyFile      = "file"      // File id
	KeyFilename  = "filename"  // Display name of the file
	KeyVersion   = "version"   // Version number
	KeyHash      = "hash"      // Content hash (hex)
	KeyPath      = "path"      // Filesystem or logical path
	KeySize      = "size"      // Size in bytes

	// ========================================================================
	// Client Identification
	// ========================================================================
	KeyClientIP  = "client_ip"  // Client IP address
	KeyUserAgent = "user_agent" // Client user agent
	KeyChannel   = "channel"    // Workspace channel id

	// ========================================================================
	// Locking
	// ========================================================================
	KeyLockOwner  = "lock_owner"  // User holding the lock
	KeyLockExpiry = "lock_expiry" // Lock expiry timestamp
	KeyReaped     = "reaped"      // Number of expired locks removed

	// ========================================================================
	// Tokens
	// ========================================================================
	KeyToken    = "token"     // Download token (always truncated before logging)
	KeyTokenTTL = "token_ttl" // Token time to live

	// ========================================================================
	// Deletion
	// ========================================================================
	KeyDeletionID = "deletion_id" // Deletion record id
	KeyWipePass   = "wipe_pass"   // Overwrite pass number
	KeyCertID     = "certificate" // Deletion certificate id

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyAttempt    = "attempt"     // Retry attempt number
	KeyMaxRetries = "max_retries" // Maximum retry attempts
	KeyStore      = "store"       // Backend store name: sqlite, postgres, badger, redis
	KeyCount      = "count"       // Generic count
	KeyReason     = "reason"      // Free-form reason supplied by the caller
)

// ============================================================================
// Field constructors for type safety
// ============================================================================

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// RequestID returns a slog.Attr for the request id
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// Operation returns a slog.Attr for the vault operation name
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Outcome returns a slog.Attr for the operation outcome
func Outcome(o string) slog.Attr {
	return slog.String(KeyOutcome, o)
}

// EventKind returns a slog.Attr for an audit event kind
func EventKind(kind string) slog.Attr {
	return slog.String(KeyEventKind, kind)
}

// Actor returns a slog.Attr for the acting user id
func Actor(userID string) slog.Attr {
	return slog.String(KeyActor, userID)
}

// Project returns a slog.Attr for the project id
func Project(id string) slog.Attr {
	return slog.String(KeyProject, id)
}

// File returns a slog.Attr for the file id
func File(id string) slog.Attr {
	return slog.String(KeyFile, id)
}

// Filename returns a slog.Attr for the file display name
func Filename(name string) slog.Attr {
	return slog.String(KeyFilename, name)
}

// Version returns a slog.Attr for a version number
func Version(v int32) slog.Attr {
	return slog.Int(KeyVersion, int(v))
}

// Hash returns a slog.Attr for a content hash
func Hash(h string) slog.Attr {
	return slog.String(KeyHash, h)
}

// Path returns a slog.Attr for a path
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Size returns a slog.Attr for a size in bytes
func Size(s uint64) slog.Attr {
	return slog.Uint64(KeySize, s)
}

// ClientIP returns a slog.Attr for client IP address
func ClientIP(addr string) slog.Attr {
	return slog.String(KeyClientIP, addr)
}

// UserAgent returns a slog.Attr for the client user agent
func UserAgent(ua string) slog.Attr {
	return slog.String(KeyUserAgent, ua)
}

// Channel returns a slog.Attr for a workspace channel id
func Channel(id string) slog.Attr {
	return slog.String(KeyChannel, id)
}

// LockOwner returns a slog.Attr for the lock owner
func LockOwner(userID string) slog.Attr {
	return slog.String(KeyLockOwner, userID)
}

// TokenPrefix returns a slog.Attr for a download token.
// Only the first 8 characters are logged; full tokens never reach the log.
func TokenPrefix(token string) slog.Attr {
	if len(token) > 8 {
		token = token[:8]
	}
	return slog.String(KeyToken, token)
}

// DeletionID returns a slog.Attr for a deletion record id
func DeletionID(id string) slog.Attr {
	return slog.String(KeyDeletionID, id)
}

// WipePass returns a slog.Attr for an overwrite pass number
func WipePass(n int) slog.Attr {
	return slog.Int(KeyWipePass, n)
}

// CertID returns a slog.Attr for a deletion certificate id
func CertID(id string) slog.Attr {
	return slog.String(KeyCertID, id)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Attempt returns a slog.Attr for retry attempt number
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// MaxRetries returns a slog.Attr for maximum retry attempts
func MaxRetries(n int) slog.Attr {
	return slog.Int(KeyMaxRetries, n)
}

// Store returns a slog.Attr for a backend store name
func Store(name string) slog.Attr {
	return slog.String(KeyStore, name)
}

// Count returns a slog.Attr for a generic count
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}

// Reason returns a slog.Attr for a caller-supplied reason
func Reason(r string) slog.Attr {
	return slog.String(KeyReason, r)
}
