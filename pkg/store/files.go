package store

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/hubvault/hubvault/pkg/models"
)

// ============================================
// FILE OPERATIONS
// ============================================

func (s *Store) GetFile(ctx context.Context, id string) (*models.File, error) {
	return getByField[models.File](s.db, ctx, "id", id, models.ErrFileNotFound)
}

// GetFileForUpdate loads a file row and, on PostgreSQL, takes a row-level
// write lock on it for the remainder of the surrounding transaction. SQLite
// has no FOR UPDATE; its single-writer model serializes the transaction
// anyway, so the plain read is equivalent there.
func (s *Store) GetFileForUpdate(ctx context.Context, id string) (*models.File, error) {
	q := s.db.WithContext(ctx)
	if s.config.Type == DatabaseTypePostgres {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var file models.File
	err := q.Where("id = ?", id).First(&file).Error
	if err != nil {
		return nil, convertNotFoundError(err, models.ErrFileNotFound)
	}
	return &file, nil
}

// GetFileByName resolves a file by its case-insensitive name within a project.
func (s *Store) GetFileByName(ctx context.Context, projectID, name string) (*models.File, error) {
	var file models.File
	err := s.db.WithContext(ctx).
		Where("project_id = ? AND name_key = ?", projectID, models.NameKeyOf(name)).
		First(&file).Error
	if err != nil {
		return nil, convertNotFoundError(err, models.ErrFileNotFound)
	}
	return &file, nil
}

func (s *Store) ListFilesByProject(ctx context.Context, projectID string) ([]*models.File, error) {
	return listByField[models.File](s.db, ctx, "project_id", projectID, "name_key ASC")
}

// CreateFile inserts a new file row. The name key is always derived here so
// the case-insensitive uniqueness index cannot be bypassed by callers.
func (s *Store) CreateFile(ctx context.Context, file *models.File) (string, error) {
	file.NameKey = models.NameKeyOf(file.Name)
	file.Path = models.NormalizePath(file.Path)
	if err := file.Validate(); err != nil {
		return "", err
	}
	file.CreatedAt = time.Now()
	file.UpdatedAt = file.CreatedAt
	return createWithID(s.db, ctx, file, func(f *models.File, id string) { f.ID = id }, file.ID, models.ErrDuplicateFile)
}

// UpdateFileCurrent advances the file's current-version pointer and the
// denormalized content fields. Must run in the same transaction as the
// version insert so invariant readers never observe a mismatch.
func (s *Store) UpdateFileCurrent(ctx context.Context, fileID string, version int32, contentHash string, sizeBytes uint64) error {
	result := s.db.WithContext(ctx).
		Model(&models.File{}).
		Where("id = ?", fileID).
		Updates(map[string]any{
			"current_version": version,
			"content_hash":    contentHash,
			"size_bytes":      sizeBytes,
			"updated_at":      time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrFileNotFound
	}
	return nil
}

// UpdateFileCardMessage records the chat message id of the file's hub card.
func (s *Store) UpdateFileCardMessage(ctx context.Context, fileID, messageID string) error {
	result := s.db.WithContext(ctx).
		Model(&models.File{}).
		Where("id = ?", fileID).
		Update("card_message_id", messageID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrFileNotFound
	}
	return nil
}

// DeleteFileRow removes the file row itself. Versions, references and locks
// are deleted by the caller inside the same transaction.
func (s *Store) DeleteFileRow(ctx context.Context, id string) error {
	return deleteByField[models.File](s.db, ctx, "id", id, models.ErrFileNotFound)
}

// DeleteFilesByProject removes all file rows of a project.
func (s *Store) DeleteFilesByProject(ctx context.Context, projectID string) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Delete(&models.File{})
	return result.RowsAffected, result.Error
}
