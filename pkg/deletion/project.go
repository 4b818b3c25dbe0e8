package deletion

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hubvault/hubvault/internal/logger"
	"github.com/hubvault/hubvault/pkg/audit"
	vaulterrors "github.com/hubvault/hubvault/pkg/engine/errors"
	"github.com/hubvault/hubvault/pkg/models"
	"github.com/hubvault/hubvault/pkg/store"
)

// HashError records one blob-level failure inside a project deletion.
type HashError struct {
	ContentHash string `json:"content_hash"`
	Error       string `json:"error"`
}

// ProjectDeletionReport summarizes a project deletion.
type ProjectDeletionReport struct {
	ProjectID        string        `json:"project_id"`
	ProjectName      string        `json:"project_name"`
	FilesDeleted     int64         `json:"files_deleted"`
	VersionsDeleted  int64         `json:"versions_deleted"`
	ReferencesDeleted int64        `json:"references_deleted"`
	LocksDeleted     int64         `json:"locks_deleted"`
	BlobsDeleted     int           `json:"blobs_deleted"`
	BlobsSkipped     int           `json:"blobs_skipped"`
	BlobErrors       []HashError   `json:"blob_errors,omitempty"`
	Outcome          audit.Outcome `json:"outcome"`
}

// ProjectDeletionPreview estimates what a project deletion would remove,
// without touching anything.
type ProjectDeletionPreview struct {
	ProjectID      string `json:"project_id"`
	ProjectName    string `json:"project_name"`
	Files          int64  `json:"files"`
	Versions       int64  `json:"versions"`
	References     int64  `json:"references"`
	Locks          int64  `json:"locks"`
	UniqueHashes   int    `json:"unique_hashes"`
	DeletableBlobs int    `json:"deletable_blobs"`
}

// DeleteProject removes a project with everything in it.
//
// All metadata goes in one transaction: references, locks, versions, files,
// then the project row. Blob wipes run afterwards, outside the transaction,
// because filesystem writes cannot roll back with it; each candidate hash
// is re-checked against the global reference count at wipe time, so blobs
// shared with other projects survive. A failed blob wipe degrades the
// outcome to PARTIAL and leaves a FAILED record to retry; it never brings
// the metadata back.
func (e *Engine) DeleteProject(ctx context.Context, projectID, actor, reason string) (*ProjectDeletionReport, error) {
	project, err := e.store.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, models.ErrProjectNotFound) {
			return nil, vaulterrors.NewNotFoundError(projectID, "project")
		}
		return nil, fmt.Errorf("loading project %s: %w", projectID, err)
	}

	hashes, err := e.store.ListDistinctHashesByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing content hashes of project %s: %w", projectID, err)
	}

	report := &ProjectDeletionReport{
		ProjectID:   projectID,
		ProjectName: project.Name,
	}

	err = e.store.Transaction(ctx, func(tx *store.Store) error {
		var txErr error
		if report.ReferencesDeleted, txErr = tx.DeleteReferencesByProject(ctx, projectID); txErr != nil {
			return fmt.Errorf("deleting references: %w", txErr)
		}
		if report.LocksDeleted, txErr = tx.DeleteLocksByProject(ctx, projectID); txErr != nil {
			return fmt.Errorf("deleting locks: %w", txErr)
		}
		if report.VersionsDeleted, txErr = tx.DeleteVersionsByProject(ctx, projectID); txErr != nil {
			return fmt.Errorf("deleting versions: %w", txErr)
		}
		if report.FilesDeleted, txErr = tx.DeleteFilesByProject(ctx, projectID); txErr != nil {
			return fmt.Errorf("deleting files: %w", txErr)
		}
		return tx.DeleteProjectRow(ctx, projectID)
	})
	if err != nil {
		e.audit.Record(ctx, audit.Event{
			Kind:      audit.EventProjectDelete,
			Outcome:   audit.OutcomeFailure,
			UserID:    actor,
			ProjectID: projectID,
			Details:   map[string]any{"reason": reason, "error": err.Error()},
		})
		return nil, fmt.Errorf("deleting project %s metadata: %w", projectID, err)
	}

	e.wipeOrphanedBlobs(ctx, hashes, actor, reason, report)

	report.Outcome = audit.OutcomeSuccess
	if len(report.BlobErrors) > 0 {
		report.Outcome = audit.OutcomePartial
	}

	e.audit.Record(ctx, audit.Event{
		Kind:      audit.EventProjectDelete,
		Outcome:   report.Outcome,
		UserID:    actor,
		ProjectID: projectID,
		Details: map[string]any{
			"reason":        reason,
			"project_name":  project.Name,
			"files":         report.FilesDeleted,
			"versions":      report.VersionsDeleted,
			"blobs_deleted": report.BlobsDeleted,
			"blob_errors":   len(report.BlobErrors),
		},
	})
	logger.InfoCtx(ctx, "project deleted",
		logger.Project(projectID),
		logger.Count(int(report.FilesDeleted)),
		logger.Outcome(string(report.Outcome)))

	return report, nil
}

// wipeOrphanedBlobs securely deletes every hash that has no remaining
// references, a bounded number at a time. Per-hash failures are collected
// into the report instead of aborting the sweep.
func (e *Engine) wipeOrphanedBlobs(ctx context.Context, hashes []string, actor, reason string, report *ProjectDeletionReport) {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.WipeConcurrency)

	for _, hash := range hashes {
		hash := hash
		g.Go(func() error {
			_, err := e.SecureDeleteContent(gctx, hash, actor, reason)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				report.BlobsDeleted++
			case vaulterrors.CodeOf(err) == vaulterrors.ErrStillReferenced:
				// Shared with another project; not ours to wipe.
				report.BlobsSkipped++
			default:
				report.BlobErrors = append(report.BlobErrors, HashError{
					ContentHash: hash,
					Error:       err.Error(),
				})
			}
			return nil
		})
	}
	_ = g.Wait()
}

// PreviewProjectDeletion reports what DeleteProject would remove. The blob
// estimate counts hashes no file outside the project references; the actual
// deletion re-checks globally at wipe time, so the preview can overcount
// when sharing changes in between.
func (e *Engine) PreviewProjectDeletion(ctx context.Context, projectID string) (*ProjectDeletionPreview, error) {
	project, err := e.store.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, models.ErrProjectNotFound) {
			return nil, vaulterrors.NewNotFoundError(projectID, "project")
		}
		return nil, fmt.Errorf("loading project %s: %w", projectID, err)
	}

	counts, err := e.store.CountProjectRows(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("counting project %s rows: %w", projectID, err)
	}

	hashes, err := e.store.ListDistinctHashesByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing content hashes of project %s: %w", projectID, err)
	}

	deletable := 0
	for _, hash := range hashes {
		outside, err := e.store.CountVersionsByHashOutsideProject(ctx, hash, projectID)
		if err != nil {
			return nil, fmt.Errorf("counting outside references to %s: %w", hash, err)
		}
		if outside == 0 {
			deletable++
		}
	}

	return &ProjectDeletionPreview{
		ProjectID:      projectID,
		ProjectName:    project.Name,
		Files:          counts.Files,
		Versions:       counts.Versions,
		References:     counts.References,
		Locks:          counts.Locks,
		UniqueHashes:   len(hashes),
		DeletableBlobs: deletable,
	}, nil
}
