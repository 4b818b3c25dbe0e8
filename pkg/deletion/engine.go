// Package deletion implements provable removal of vault content.
//
// Content blobs are shared between versions through the content-addressed
// store, so deletion is gated on the reference count: a blob is only wiped
// once no FileVersion anywhere points at it. Every wipe is tracked by a
// DeletionRecord whose lifecycle (PENDING, IN_PROGRESS, COMPLETED or FAILED,
// VERIFIED once certified) survives the content itself and is the evidence
// base for deletion certificates.
//
// The wipe itself follows DoD 5220.22-M: three full overwrite passes
// (zeros, ones, random) with an fsync after each, then unlink. Deployments
// on storage where overwrite-in-place is meaningless can disable the wipe
// and fall back to plain unlink; the record then says so.
package deletion

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/hubvault/hubvault/internal/logger"
	"github.com/hubvault/hubvault/pkg/audit"
	"github.com/hubvault/hubvault/pkg/content"
	vaulterrors "github.com/hubvault/hubvault/pkg/engine/errors"
	"github.com/hubvault/hubvault/pkg/models"
	"github.com/hubvault/hubvault/pkg/store"
)

// nowFunc returns the current time (allows mocking in tests).
var nowFunc = time.Now

// Config controls the deletion engine.
type Config struct {
	// SecureWipe enables the three-pass overwrite. When false blobs are
	// plainly unlinked and records carry secure_wipe=false.
	// Default: true
	SecureWipe bool

	// WipeConcurrency bounds how many blobs a project deletion wipes in
	// parallel. Default: 4
	WipeConcurrency int
}

// DefaultConfig returns the default deletion configuration.
func DefaultConfig() Config {
	return Config{
		SecureWipe:      true,
		WipeConcurrency: 4,
	}
}

// Engine performs refcount-gated secure deletion of vault content.
type Engine struct {
	store   *store.Store
	content *content.Store
	audit   *audit.Recorder
	cfg     Config
}

// NewEngine creates a deletion engine. The content store is always the
// plain one: wipes act on envelope bytes, never on plaintext.
func NewEngine(s *store.Store, cs *content.Store, recorder *audit.Recorder, cfg Config) *Engine {
	if cfg.WipeConcurrency <= 0 {
		cfg.WipeConcurrency = 4
	}
	return &Engine{store: s, content: cs, audit: recorder, cfg: cfg}
}

// SecureDeleteContent wipes one content blob, provided nothing references
// it anymore. Callers delete the referencing versions first; a non-zero
// reference count yields StillReferenced and no record is written.
func (e *Engine) SecureDeleteContent(ctx context.Context, contentHash, actor, reason string) (*models.DeletionRecord, error) {
	refs, err := e.store.CountVersionsByHash(ctx, contentHash)
	if err != nil {
		return nil, fmt.Errorf("counting references to %s: %w", contentHash, err)
	}
	if refs > 0 {
		return nil, vaulterrors.NewStillReferencedError(contentHash, refs)
	}

	record := &models.DeletionRecord{
		ContentHash: &contentHash,
		RequestedBy: actor,
		Reason:      reason,
		Status:      string(models.DeletionInProgress),
	}
	if _, err := e.store.CreateDeletionRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("creating deletion record: %w", err)
	}

	e.audit.Record(ctx, audit.Event{
		Kind:    audit.EventSecureDeleteStarted,
		Outcome: audit.OutcomeSuccess,
		UserID:  actor,
		Details: map[string]any{"content_hash": contentHash, "reason": reason, "deletion_record_id": record.ID},
	})

	if err := e.runWipe(ctx, record, contentHash, actor); err != nil {
		return record, err
	}
	return record, nil
}

// runWipe executes the wipe for an existing IN_PROGRESS record and settles
// the record into COMPLETED or FAILED.
func (e *Engine) runWipe(ctx context.Context, record *models.DeletionRecord, contentHash, actor string) error {
	blobPath := e.content.BlobPath(contentHash)

	exists, err := e.content.Exists(ctx, contentHash)
	if err != nil {
		e.markFailed(ctx, record)
		return vaulterrors.NewDeletionFailedError(contentHash, err)
	}

	if !exists {
		// Nothing on disk to wipe. The record still completes so the
		// request leaves a verifiable trace.
		verification := hashHex("already_deleted:" + contentHash + strconv.FormatInt(nowFunc().UTC().UnixMilli(), 10))
		e.complete(ctx, record, contentHash, false, verification)
		return nil
	}

	wiped := false
	if e.cfg.SecureWipe {
		if err := overwriteFile(ctx, blobPath); err != nil {
			e.markFailed(ctx, record)
			return vaulterrors.NewDeletionFailedError(contentHash, err)
		}
		wiped = true
	}

	if err := e.content.Delete(ctx, contentHash); err != nil {
		e.markFailed(ctx, record)
		return vaulterrors.NewDeletionFailedError(contentHash, err)
	}

	verification, err := verificationHash(contentHash)
	if err != nil {
		e.markFailed(ctx, record)
		return vaulterrors.NewDeletionFailedError(contentHash, err)
	}

	e.complete(ctx, record, contentHash, wiped, verification)
	logger.InfoCtx(ctx, "content securely deleted",
		logger.Hash(contentHash),
		logger.DeletionID(record.ID),
		logger.Actor(actor))
	return nil
}

// complete settles a record as COMPLETED and emits the completion event.
func (e *Engine) complete(ctx context.Context, record *models.DeletionRecord, contentHash string, wiped bool, verification string) {
	now := nowFunc().UTC()
	record.Status = string(models.DeletionCompleted)
	record.SecureWipe = wiped
	record.VerificationHash = &verification
	record.CompletedAt = &now

	if err := e.store.UpdateDeletionStatus(ctx, record.ID, models.DeletionCompleted, wiped, &verification, &now); err != nil {
		// The blob is gone; losing the status update must not resurrect
		// the operation. Log and keep the in-memory record authoritative.
		logger.ErrorCtx(ctx, "deletion record completion not persisted",
			logger.DeletionID(record.ID), logger.Err(err))
	}

	e.audit.Record(ctx, audit.Event{
		Kind:    audit.EventSecureDeleteCompleted,
		Outcome: audit.OutcomeSuccess,
		UserID:  record.RequestedBy,
		Details: map[string]any{
			"content_hash":       contentHash,
			"deletion_record_id": record.ID,
			"secure_wipe":        wiped,
		},
	})
}

// markFailed settles a record as FAILED. The record stays retryable.
func (e *Engine) markFailed(ctx context.Context, record *models.DeletionRecord) {
	record.Status = string(models.DeletionFailed)
	if err := e.store.UpdateDeletionStatus(ctx, record.ID, models.DeletionFailed, false, nil, nil); err != nil {
		logger.ErrorCtx(ctx, "deletion record failure not persisted",
			logger.DeletionID(record.ID), logger.Err(err))
	}
}

// RetryDeletion re-runs a FAILED deletion. The record's reason gains a
// "Retry: " prefix and its lifecycle restarts at PENDING before the wipe
// moves it to IN_PROGRESS again.
func (e *Engine) RetryDeletion(ctx context.Context, recordID, actor string) (*models.DeletionRecord, error) {
	record, err := e.store.GetDeletionRecord(ctx, recordID)
	if err != nil {
		if errors.Is(err, models.ErrDeletionRecordNotFound) {
			return nil, vaulterrors.NewNotFoundError(recordID, "deletion record")
		}
		return nil, fmt.Errorf("loading deletion record %s: %w", recordID, err)
	}

	if record.GetStatus() != models.DeletionFailed {
		return nil, vaulterrors.NewInvalidArgumentError(
			fmt.Sprintf("deletion record is %s, only FAILED records can be retried", record.Status))
	}
	if record.ContentHash == nil {
		return nil, vaulterrors.NewInvalidArgumentError("deletion record names no content hash")
	}

	reason := record.Reason
	if len(reason) < 7 || reason[:7] != "Retry: " {
		reason = "Retry: " + reason
	}
	moved, err := e.store.MarkDeletionRetry(ctx, recordID, reason)
	if err != nil {
		return nil, fmt.Errorf("resetting deletion record %s: %w", recordID, err)
	}
	if !moved {
		// A concurrent retry got there first.
		return nil, vaulterrors.NewInvalidArgumentError("deletion record is already being retried")
	}
	record.Reason = reason

	// A version may have re-referenced the hash since the original attempt.
	refs, err := e.store.CountVersionsByHash(ctx, *record.ContentHash)
	if err != nil {
		return nil, fmt.Errorf("counting references to %s: %w", *record.ContentHash, err)
	}
	if refs > 0 {
		return nil, vaulterrors.NewStillReferencedError(*record.ContentHash, refs)
	}

	if err := e.store.UpdateDeletionStatus(ctx, recordID, models.DeletionInProgress, false, nil, nil); err != nil {
		return nil, fmt.Errorf("starting deletion retry %s: %w", recordID, err)
	}
	record.Status = string(models.DeletionInProgress)

	e.audit.Record(ctx, audit.Event{
		Kind:    audit.EventSecureDeleteStarted,
		Outcome: audit.OutcomeSuccess,
		UserID:  actor,
		Details: map[string]any{"content_hash": *record.ContentHash, "reason": reason, "deletion_record_id": record.ID, "retry": true},
	})

	if err := e.runWipe(ctx, record, *record.ContentHash, actor); err != nil {
		return record, err
	}
	return record, nil
}

// ListRecords returns deletion records, optionally filtered by status.
func (e *Engine) ListRecords(ctx context.Context, status models.DeletionStatus) ([]*models.DeletionRecord, error) {
	return e.store.ListDeletionRecords(ctx, status)
}

// GetRecord returns one deletion record.
func (e *Engine) GetRecord(ctx context.Context, id string) (*models.DeletionRecord, error) {
	record, err := e.store.GetDeletionRecord(ctx, id)
	if errors.Is(err, models.ErrDeletionRecordNotFound) {
		return nil, vaulterrors.NewNotFoundError(id, "deletion record")
	}
	return record, err
}

// verificationHash derives the completion proof recorded with a wipe. The
// random component makes each proof unique even for repeated deletions of
// the same hash.
func verificationHash(contentHash string) (string, error) {
	nonce := make([]byte, 8)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generating verification nonce: %w", err)
	}
	ms := strconv.FormatInt(nowFunc().UTC().UnixMilli(), 10)
	return hashHex("deleted:" + contentHash + ":" + ms + ":" + hex.EncodeToString(nonce)), nil
}

// hashHex returns the lowercase hex SHA-256 of s.
func hashHex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
