package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/hubvault/hubvault/internal/logger"
	"github.com/hubvault/hubvault/pkg/audit"
	vaulterrors "github.com/hubvault/hubvault/pkg/engine/errors"
	"github.com/hubvault/hubvault/pkg/models"
	"github.com/hubvault/hubvault/pkg/store"
)

// CreateParams carries an initial upload.
type CreateParams struct {
	ProjectID  string
	Name       string
	Path       string
	MimeType   string
	SourcePath string
	UploaderID string
	Message    *string
}

// Create uploads a new file into a project as its version 1.
//
// File names are unique per project ignoring case. The collision check runs
// before anything is stored, so a rejected upload writes neither a blob nor
// any metadata; the unique index re-checks inside the transaction for
// concurrent creators racing the same name.
func (e *Engine) Create(ctx context.Context, p CreateParams, meta audit.RequestMeta) (*models.File, error) {
	project, err := e.store.GetProject(ctx, p.ProjectID)
	if err != nil {
		if errors.Is(err, models.ErrProjectNotFound) {
			return nil, vaulterrors.NewNotFoundError(p.ProjectID, "project")
		}
		return nil, err
	}
	if err := e.requireMember(ctx, p.UploaderID, project, meta); err != nil {
		return nil, err
	}

	if _, err := e.store.GetFileByName(ctx, p.ProjectID, p.Name); err == nil {
		return nil, vaulterrors.NewAlreadyExistsError(p.ProjectID, p.Name)
	} else if !errors.Is(err, models.ErrFileNotFound) {
		return nil, err
	}

	hash, size, err := e.content.Put(ctx, p.SourcePath, p.ProjectID)
	if err != nil {
		e.audit.Record(ctx, audit.Event{
			Kind:      audit.EventFileUpload,
			Outcome:   audit.OutcomeFailure,
			UserID:    p.UploaderID,
			ProjectID: p.ProjectID,
			IP:        meta.IP,
			UserAgent: meta.UserAgent,
			Details:   map[string]any{"file_name": p.Name, "error": err.Error()},
		})
		return nil, fmt.Errorf("storing content: %w", err)
	}

	file := &models.File{
		ProjectID:      p.ProjectID,
		Name:           p.Name,
		Path:           p.Path,
		ContentHash:    hash,
		SizeBytes:      size,
		MimeType:       p.MimeType,
		CurrentVersion: 1,
	}

	err = e.withTxRetry(ctx, func(tx *store.Store) error {
		if _, err := tx.CreateFile(ctx, file); err != nil {
			return err
		}
		_, err := tx.CreateVersion(ctx, &models.FileVersion{
			FileID:        file.ID,
			VersionNumber: 1,
			ContentHash:   hash,
			SizeBytes:     size,
			UploadedBy:    p.UploaderID,
			Message:       p.Message,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, models.ErrDuplicateFile) {
			return nil, vaulterrors.NewAlreadyExistsError(p.ProjectID, p.Name)
		}
		return nil, err
	}

	e.audit.Record(ctx, audit.Event{
		Kind:        audit.EventFileUpload,
		Outcome:     audit.OutcomeSuccess,
		UserID:      p.UploaderID,
		ProjectID:   p.ProjectID,
		FileID:      file.ID,
		FileVersion: 1,
		IP:          meta.IP,
		UserAgent:   meta.UserAgent,
		Details:     map[string]any{"file_name": file.Name, "size_bytes": size, "content_hash": hash},
	})
	logger.InfoCtx(ctx, "file uploaded",
		logger.File(file.ID),
		logger.Filename(file.Name),
		logger.Actor(p.UploaderID),
		logger.Size(size))

	if e.metrics != nil {
		e.metrics.RecordUpload(size)
	}
	e.notifyUpdated(ctx, file)
	return file, nil
}

// Delete removes a file with its whole version history. A locked file
// cannot be deleted; the holder releases or an administrator overrides
// first. Blobs stay on disk: which content gets wiped, and when, is
// deletion-engine policy, not a side effect of metadata removal.
func (e *Engine) Delete(ctx context.Context, fileID, userID string, meta audit.RequestMeta) error {
	file, err := e.loadFile(ctx, fileID)
	if err != nil {
		return err
	}
	if _, err := e.requireProjectMember(ctx, userID, file, meta); err != nil {
		return err
	}

	locked, err := e.locks.IsLocked(ctx, fileID)
	if err != nil {
		return err
	}
	if locked {
		current, err := e.locks.Get(ctx, fileID)
		if err != nil {
			return err
		}
		var expiresAt = current.LockedAt
		if current.ExpiresAt != nil {
			expiresAt = *current.ExpiresAt
		}
		return vaulterrors.NewLockedError(fileID, current.LockedBy, current.LockedAt, expiresAt)
	}

	err = e.withTxRetry(ctx, func(tx *store.Store) error {
		if _, err := tx.DeleteReferencesByFile(ctx, fileID); err != nil {
			return err
		}
		if _, err := tx.DeleteVersionsByFile(ctx, fileID); err != nil {
			return err
		}
		return tx.DeleteFileRow(ctx, fileID)
	})
	if err != nil {
		return err
	}

	e.audit.Record(ctx, audit.Event{
		Kind:      audit.EventFileDelete,
		Outcome:   audit.OutcomeSuccess,
		UserID:    userID,
		ProjectID: file.ProjectID,
		FileID:    fileID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Details:   map[string]any{"file_name": file.Name, "versions": file.CurrentVersion},
	})
	logger.InfoCtx(ctx, "file deleted",
		logger.File(fileID),
		logger.Filename(file.Name),
		logger.Actor(userID))

	e.notifyDeleted(ctx, file)
	return nil
}

// GetFile returns a file's metadata after a membership check, audited as a
// view.
func (e *Engine) GetFile(ctx context.Context, fileID, userID string, meta audit.RequestMeta) (*models.File, error) {
	file, err := e.loadFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if _, err := e.requireProjectMember(ctx, userID, file, meta); err != nil {
		return nil, err
	}

	e.audit.Record(ctx, audit.Event{
		Kind:      audit.EventFileView,
		Outcome:   audit.OutcomeSuccess,
		UserID:    userID,
		ProjectID: file.ProjectID,
		FileID:    fileID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	})
	return file, nil
}

// ListFiles returns a project's files after a membership check.
func (e *Engine) ListFiles(ctx context.Context, projectID, userID string, meta audit.RequestMeta) ([]*models.File, error) {
	project, err := e.store.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, models.ErrProjectNotFound) {
			return nil, vaulterrors.NewNotFoundError(projectID, "project")
		}
		return nil, err
	}
	if err := e.requireMember(ctx, userID, project, meta); err != nil {
		return nil, err
	}
	return e.store.ListFilesByProject(ctx, projectID)
}

// ListVersions returns a file's history after a membership check.
func (e *Engine) ListVersions(ctx context.Context, fileID, userID string, meta audit.RequestMeta) ([]*models.FileVersion, error) {
	file, err := e.loadFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if _, err := e.requireProjectMember(ctx, userID, file, meta); err != nil {
		return nil, err
	}
	return e.versions.ListVersions(ctx, fileID)
}

// VersionPath resolves the blob path of a version. A nil number means the
// current version. The path points at stored bytes: plaintext in standard
// mode, the encrypted envelope otherwise.
func (e *Engine) VersionPath(ctx context.Context, fileID string, number *int32) (string, error) {
	file, err := e.loadFile(ctx, fileID)
	if err != nil {
		return "", err
	}

	n := file.CurrentVersion
	if number != nil {
		n = *number
	}
	ver, err := e.versions.GetVersion(ctx, fileID, n)
	if err != nil {
		return "", err
	}
	return e.content.BlobPath(ver.ContentHash), nil
}
