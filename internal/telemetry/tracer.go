package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for vault operations.
// These follow OpenTelemetry semantic conventions where applicable.
const (
	// User/Auth attributes
	AttrUserID   = "user.id"
	AttrUserRole = "user.role"

	// Vault entity attributes
	AttrProjectID   = "project.id"
	AttrFileID      = "file.id"
	AttrFileName    = "file.name"
	AttrFileVersion = "file.version"
	AttrFileSize    = "file.size"
	AttrContentHash = "content.hash"
	AttrLockHolder  = "lock.holder"

	// Token attributes (never the token value itself)
	AttrTokenTTL = "token.ttl_seconds"

	// Deletion attributes
	AttrWipePass     = "wipe.pass"
	AttrDeletionID   = "deletion.id"
	AttrSecureWipe   = "deletion.secure_wipe"
	AttrWipeVerified = "deletion.verified"
)

// Span names for operations.
// Format: <component>.<operation>
const (
	SpanCheckout     = "engine.checkout"
	SpanCheckin      = "engine.checkin"
	SpanDownload     = "engine.download"
	SpanCreateFile   = "engine.create_file"
	SpanDeleteFile   = "engine.delete_file"
	SpanDeleteProj   = "engine.delete_project"
	SpanContentRead  = "content.read"
	SpanContentWrite = "content.write"
	SpanWipe         = "deletion.wipe"
)

// UserID returns an attribute for the acting user
func UserID(id string) attribute.KeyValue {
	return attribute.String(AttrUserID, id)
}

// ProjectID returns an attribute for the project
func ProjectID(id string) attribute.KeyValue {
	return attribute.String(AttrProjectID, id)
}

// FileID returns an attribute for the file
func FileID(id string) attribute.KeyValue {
	return attribute.String(AttrFileID, id)
}

// FileName returns an attribute for the file name
func FileName(name string) attribute.KeyValue {
	return attribute.String(AttrFileName, name)
}

// FileVersion returns an attribute for a version number
func FileVersion(v int32) attribute.KeyValue {
	return attribute.Int(AttrFileVersion, int(v))
}

// FileSize returns an attribute for a byte size
func FileSize(size uint64) attribute.KeyValue {
	return attribute.Int64(AttrFileSize, int64(size))
}

// ContentHash returns an attribute for a blob hash
func ContentHash(hash string) attribute.KeyValue {
	return attribute.String(AttrContentHash, hash)
}

// LockHolder returns an attribute for the user holding a lock
func LockHolder(userID string) attribute.KeyValue {
	return attribute.String(AttrLockHolder, userID)
}

// WipePass returns an attribute for the current overwrite pass
func WipePass(pass int) attribute.KeyValue {
	return attribute.Int(AttrWipePass, pass)
}

// DeletionID returns an attribute for a deletion record
func DeletionID(id string) attribute.KeyValue {
	return attribute.String(AttrDeletionID, id)
}

// StartFileSpan starts a span for a file operation, carrying the acting
// user and the file identity.
func StartFileSpan(ctx context.Context, name, userID, fileID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		UserID(userID),
		FileID(fileID),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, name, trace.WithAttributes(allAttrs...))
}

// StartProjectSpan starts a span for a project-scoped operation.
func StartProjectSpan(ctx context.Context, name, userID, projectID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		UserID(userID),
		ProjectID(projectID),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, name, trace.WithAttributes(allAttrs...))
}

// StartContentSpan starts a span for a blob store operation.
func StartContentSpan(ctx context.Context, name, hash string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		ContentHash(hash),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, name, trace.WithAttributes(allAttrs...))
}
