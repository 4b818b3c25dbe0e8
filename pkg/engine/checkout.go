package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/hubvault/hubvault/internal/logger"
	"github.com/hubvault/hubvault/internal/telemetry"
	"github.com/hubvault/hubvault/pkg/audit"
	vaulterrors "github.com/hubvault/hubvault/pkg/engine/errors"
	"github.com/hubvault/hubvault/pkg/models"
	"github.com/hubvault/hubvault/pkg/store"
	"github.com/hubvault/hubvault/pkg/version"
)

// CheckoutResult is what a successful checkout hands back: the file, the
// lock now held by the caller, and the path of the current version's blob.
type CheckoutResult struct {
	File     *models.File
	Lock     *models.FileLock
	BlobPath string
}

// Checkout acquires the exclusive editing claim on a file.
//
// Of two users racing for the same file exactly one succeeds; the loser
// gets a Locked error naming the winner and the expiry. Checkout touches no
// blobs and appends no versions, it only claims the lock and tells the
// caller where the current content lives.
func (e *Engine) Checkout(ctx context.Context, fileID, userID string, reason *string, meta audit.RequestMeta) (*CheckoutResult, error) {
	ctx, span := telemetry.StartFileSpan(ctx, telemetry.SpanCheckout, userID, fileID)
	defer span.End()

	file, err := e.loadFile(ctx, fileID)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, err
	}
	if _, err := e.requireProjectMember(ctx, userID, file, meta); err != nil {
		return nil, err
	}

	fileLock, err := e.locks.Acquire(ctx, fileID, userID, reason)
	if err != nil {
		if e.metrics != nil && vaulterrors.CodeOf(err) == vaulterrors.ErrLocked {
			e.metrics.RecordCheckout("conflict")
		}
		telemetry.RecordError(ctx, err)
		return nil, err
	}
	if e.metrics != nil {
		e.metrics.RecordCheckout("granted")
	}

	e.audit.Record(ctx, audit.Event{
		Kind:        audit.EventFileCheckout,
		Outcome:     audit.OutcomeSuccess,
		UserID:      userID,
		ProjectID:   file.ProjectID,
		FileID:      fileID,
		FileVersion: file.CurrentVersion,
		IP:          meta.IP,
		UserAgent:   meta.UserAgent,
		Details:     map[string]any{"file_name": file.Name},
	})
	logger.InfoCtx(ctx, "file checked out",
		logger.File(fileID),
		logger.Actor(userID),
		logger.Version(file.CurrentVersion))

	e.notifyUpdated(ctx, file)

	return &CheckoutResult{
		File:     file,
		Lock:     fileLock,
		BlobPath: e.content.BlobPath(file.ContentHash),
	}, nil
}

// CancelCheckout releases the caller's lock without creating a version.
func (e *Engine) CancelCheckout(ctx context.Context, fileID, userID string, meta audit.RequestMeta) error {
	file, err := e.loadFile(ctx, fileID)
	if err != nil {
		return err
	}
	if _, err := e.requireProjectMember(ctx, userID, file, meta); err != nil {
		return err
	}

	if err := e.locks.Release(ctx, fileID, userID); err != nil {
		return err
	}

	e.notifyUpdated(ctx, file)
	return nil
}

// ExtendCheckout pushes the caller's lock expiry to now plus hours.
func (e *Engine) ExtendCheckout(ctx context.Context, fileID, userID string, hours int, meta audit.RequestMeta) (*models.FileLock, error) {
	file, err := e.loadFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if _, err := e.requireProjectMember(ctx, userID, file, meta); err != nil {
		return nil, err
	}
	return e.locks.Extend(ctx, fileID, userID, time.Duration(hours)*time.Hour)
}

// ForceReleaseLock is the administrative lock override. It bypasses the
// ownership check and is audited as such.
func (e *Engine) ForceReleaseLock(ctx context.Context, fileID, adminID string, meta audit.RequestMeta) error {
	file, err := e.loadFile(ctx, fileID)
	if err != nil {
		return err
	}

	current, err := e.locks.Get(ctx, fileID)
	if err != nil {
		return err
	}

	if err := e.locks.ForceRelease(ctx, fileID); err != nil {
		return err
	}

	e.audit.Record(ctx, audit.Event{
		Kind:      audit.EventLockForceRelease,
		Outcome:   audit.OutcomeSuccess,
		UserID:    adminID,
		ProjectID: file.ProjectID,
		FileID:    fileID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Details:   map[string]any{"previous_holder": current.LockedBy},
	})
	logger.InfoCtx(ctx, "lock force released",
		logger.File(fileID),
		logger.Actor(adminID),
		logger.LockOwner(current.LockedBy))

	e.notifyUpdated(ctx, file)
	return nil
}

// CheckinParams carries a check-in request.
type CheckinParams struct {
	FileID     string
	UserID     string
	SourcePath string
	Message    *string
}

// CheckinResult is what a successful check-in hands back.
type CheckinResult struct {
	File    *models.File
	Version *models.FileVersion
}

// Checkin stores new content as the file's next version and releases the
// caller's lock, both in one committed act.
//
// The blob goes into the content store before the metadata transaction
// opens. If the transaction then fails, the orphaned blob is harmless: it
// is content-addressed, invisible to metadata readers, and the out-of-band
// garbage sweep collects it.
func (e *Engine) Checkin(ctx context.Context, p CheckinParams, meta audit.RequestMeta) (*CheckinResult, error) {
	ctx, span := telemetry.StartFileSpan(ctx, telemetry.SpanCheckin, p.UserID, p.FileID)
	defer span.End()

	file, err := e.loadFile(ctx, p.FileID)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, err
	}
	if _, err := e.requireProjectMember(ctx, p.UserID, file, meta); err != nil {
		return nil, err
	}

	// Fail before the blob write when the caller demonstrably holds no
	// claim. The authoritative check repeats inside the transaction.
	current, err := e.locks.Get(ctx, p.FileID)
	if err != nil {
		return nil, err
	}
	if current.LockedBy != p.UserID {
		return nil, vaulterrors.NewNotLockOwnerError(p.FileID, p.UserID)
	}

	hash, size, err := e.content.Put(ctx, p.SourcePath, file.ProjectID)
	if err != nil {
		e.recordStorageFailure(ctx, audit.EventFileCheckin, p.UserID, file, meta, err)
		return nil, fmt.Errorf("storing content: %w", err)
	}

	var ver *models.FileVersion
	err = e.withTxRetry(ctx, func(tx *store.Store) error {
		v, err := e.versions.WithStore(tx).AddVersion(ctx, version.AddVersionParams{
			FileID:      p.FileID,
			UploaderID:  p.UserID,
			ContentHash: hash,
			Size:        size,
			Message:     p.Message,
			ReleaseLock: true,
		})
		if err != nil {
			return err
		}
		ver = v
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := e.loadFile(ctx, p.FileID)
	if err != nil {
		return nil, err
	}

	e.audit.Record(ctx, audit.Event{
		Kind:        audit.EventFileCheckin,
		Outcome:     audit.OutcomeSuccess,
		UserID:      p.UserID,
		ProjectID:   file.ProjectID,
		FileID:      p.FileID,
		FileVersion: ver.VersionNumber,
		IP:          meta.IP,
		UserAgent:   meta.UserAgent,
		Details:     map[string]any{"file_name": file.Name, "size_bytes": size, "content_hash": hash},
	})
	logger.InfoCtx(ctx, "file checked in",
		logger.File(p.FileID),
		logger.Actor(p.UserID),
		logger.Version(ver.VersionNumber),
		logger.Size(size))

	if e.metrics != nil {
		e.metrics.RecordCheckin(size)
	}
	e.notifyUpdated(ctx, updated)

	return &CheckinResult{File: updated, Version: ver}, nil
}

// recordStorageFailure audits a blob-level failure of a mutating operation.
func (e *Engine) recordStorageFailure(ctx context.Context, kind audit.EventKind, userID string, file *models.File, meta audit.RequestMeta, cause error) {
	e.audit.Record(ctx, audit.Event{
		Kind:      kind,
		Outcome:   audit.OutcomeFailure,
		UserID:    userID,
		ProjectID: file.ProjectID,
		FileID:    file.ID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Details:   map[string]any{"error": cause.Error()},
	})
}
