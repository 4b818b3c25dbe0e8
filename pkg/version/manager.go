// Package version maintains the immutable version history of vaulted files.
//
// Every content change appends a new FileVersion row; rows are never updated
// or renumbered afterwards. Numbering is strictly monotonic per file and is
// enforced twice: the file row is read under a row lock before choosing the
// next number, and a composite unique index on (file_id, version_number)
// rejects any concurrent writer that picked the same one. A rejected append
// surfaces as models.ErrVersionConflict so the surrounding transaction can
// be retried from scratch.
package version

import (
	"context"
	"errors"
	"fmt"

	"github.com/hubvault/hubvault/internal/logger"
	vaulterrors "github.com/hubvault/hubvault/pkg/engine/errors"
	"github.com/hubvault/hubvault/pkg/models"
	"github.com/hubvault/hubvault/pkg/store"
)

// Manager appends and reads file versions.
type Manager struct {
	store *store.Store
}

// NewManager creates a version manager backed by the given store.
func NewManager(s *store.Store) *Manager {
	return &Manager{store: s}
}

// WithStore returns a manager bound to a different store handle, typically
// a transaction obtained from store.Transaction. The receiver is unchanged.
func (m *Manager) WithStore(s *store.Store) *Manager {
	return &Manager{store: s}
}

// AddVersionParams carries everything needed to append one version.
type AddVersionParams struct {
	FileID      string
	UploaderID  string
	ContentHash string
	Size        uint64

	// Message is an optional uploader-supplied change note.
	Message *string

	// ReleaseLock deletes the uploader's lock in the same operation, turning
	// the append into a check-in. The lock must be held by UploaderID; a
	// missing or foreign lock aborts the append.
	ReleaseLock bool
}

// AddVersion appends the next version of a file and advances the file's
// current-version pointer to it. Both writes, and the optional lock release,
// must commit or roll back together, so callers run AddVersion inside
// store.Transaction and pass the transactional store via WithStore.
//
// The version number is always the file's current version plus one. Deleted
// versions never free their numbers for reuse.
func (m *Manager) AddVersion(ctx context.Context, p AddVersionParams) (*models.FileVersion, error) {
	file, err := m.store.GetFileForUpdate(ctx, p.FileID)
	if err != nil {
		if errors.Is(err, models.ErrFileNotFound) {
			return nil, vaulterrors.NewNotFoundError(p.FileID, "file")
		}
		return nil, fmt.Errorf("loading file %s: %w", p.FileID, err)
	}

	next := file.CurrentVersion + 1
	ver := &models.FileVersion{
		FileID:        p.FileID,
		VersionNumber: next,
		ContentHash:   p.ContentHash,
		SizeBytes:     p.Size,
		UploadedBy:    p.UploaderID,
		Message:       p.Message,
	}
	if _, err := m.store.CreateVersion(ctx, ver); err != nil {
		// A duplicate number means another writer appended between our read
		// and our insert. Propagate the sentinel untouched so the engine's
		// retry loop recognizes it and reruns the whole transaction.
		if errors.Is(err, models.ErrVersionConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("inserting version %d of file %s: %w", next, p.FileID, err)
	}

	if err := m.store.UpdateFileCurrent(ctx, p.FileID, next, p.ContentHash, p.Size); err != nil {
		return nil, fmt.Errorf("advancing current version of file %s: %w", p.FileID, err)
	}

	if p.ReleaseLock {
		if err := m.releaseUploaderLock(ctx, p.FileID, p.UploaderID); err != nil {
			return nil, err
		}
	}

	logger.DebugCtx(ctx, "version appended",
		logger.File(p.FileID),
		logger.Version(next),
		logger.Hash(p.ContentHash),
		logger.Size(p.Size))
	return ver, nil
}

// releaseUploaderLock removes the uploader's lock, failing the append when
// the lock is missing or held by someone else. An expired lock still counts
// as held here: check-in is the natural end of a lock's life, and refusing
// it would only strand the uploaded content.
func (m *Manager) releaseUploaderLock(ctx context.Context, fileID, uploaderID string) error {
	deleted, err := m.store.DeleteLockIfOwner(ctx, fileID, uploaderID)
	if err != nil {
		return fmt.Errorf("releasing lock on file %s: %w", fileID, err)
	}
	if deleted {
		return nil
	}
	lock, err := m.store.GetLock(ctx, fileID)
	switch {
	case errors.Is(err, models.ErrLockNotFound):
		return vaulterrors.NewLockNotFoundError(fileID)
	case err != nil:
		return fmt.Errorf("inspecting lock on file %s: %w", fileID, err)
	default:
		logger.WarnCtx(ctx, "check-in rejected, lock held by another user",
			logger.File(fileID),
			logger.Actor(uploaderID),
			logger.LockOwner(lock.LockedBy))
		return vaulterrors.NewNotLockOwnerError(fileID, uploaderID)
	}
}

// GetVersion returns a specific version of a file.
func (m *Manager) GetVersion(ctx context.Context, fileID string, number int32) (*models.FileVersion, error) {
	ver, err := m.store.GetVersion(ctx, fileID, number)
	if err != nil {
		if errors.Is(err, models.ErrVersionNotFound) {
			return nil, vaulterrors.NewVersionNotFoundError(fileID, number)
		}
		return nil, fmt.Errorf("loading version %d of file %s: %w", number, fileID, err)
	}
	return ver, nil
}

// GetCurrent returns the version the file's pointer currently designates.
func (m *Manager) GetCurrent(ctx context.Context, fileID string) (*models.FileVersion, error) {
	file, err := m.store.GetFile(ctx, fileID)
	if err != nil {
		if errors.Is(err, models.ErrFileNotFound) {
			return nil, vaulterrors.NewNotFoundError(fileID, "file")
		}
		return nil, fmt.Errorf("loading file %s: %w", fileID, err)
	}
	return m.GetVersion(ctx, fileID, file.CurrentVersion)
}

// ListVersions returns a file's full history, oldest first.
func (m *Manager) ListVersions(ctx context.Context, fileID string) ([]*models.FileVersion, error) {
	versions, err := m.store.ListVersions(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("listing versions of file %s: %w", fileID, err)
	}
	return versions, nil
}
