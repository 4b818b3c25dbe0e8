package store

import (
	"context"
	"time"

	"github.com/hubvault/hubvault/pkg/models"
)

// ============================================
// FILE REFERENCE OPERATIONS
// ============================================

func (s *Store) GetFileReference(ctx context.Context, id string) (*models.FileReference, error) {
	return getByField[models.FileReference](s.db, ctx, "id", id, models.ErrReferenceNotFound)
}

func (s *Store) ListReferencesByFile(ctx context.Context, fileID string) ([]*models.FileReference, error) {
	return listByField[models.FileReference](s.db, ctx, "file_id", fileID, "shared_at ASC")
}

func (s *Store) CreateFileReference(ctx context.Context, ref *models.FileReference) (string, error) {
	if err := ref.Validate(); err != nil {
		return "", err
	}
	ref.SharedAt = time.Now()
	return createWithID(s.db, ctx, ref, func(r *models.FileReference, id string) { r.ID = id }, ref.ID, models.ErrReferenceNotFound)
}

func (s *Store) DeleteReferencesByFile(ctx context.Context, fileID string) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("file_id = ?", fileID).
		Delete(&models.FileReference{})
	return result.RowsAffected, result.Error
}

func (s *Store) DeleteReferencesByProject(ctx context.Context, projectID string) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Delete(&models.FileReference{})
	return result.RowsAffected, result.Error
}
