package store

import (
	"context"
	"time"

	"github.com/hubvault/hubvault/pkg/models"
)

// ============================================
// FILE VERSION OPERATIONS
// ============================================

func (s *Store) GetVersion(ctx context.Context, fileID string, number int32) (*models.FileVersion, error) {
	var version models.FileVersion
	err := s.db.WithContext(ctx).
		Where("file_id = ? AND version_number = ?", fileID, number).
		First(&version).Error
	if err != nil {
		return nil, convertNotFoundError(err, models.ErrVersionNotFound)
	}
	return &version, nil
}

func (s *Store) ListVersions(ctx context.Context, fileID string) ([]*models.FileVersion, error) {
	return listByField[models.FileVersion](s.db, ctx, "file_id", fileID, "version_number ASC")
}

// CreateVersion inserts a version row. The composite unique index on
// (file_id, version_number) turns concurrent same-number inserts into
// models.ErrVersionConflict instead of silent overwrites.
func (s *Store) CreateVersion(ctx context.Context, version *models.FileVersion) (string, error) {
	if err := version.Validate(); err != nil {
		return "", err
	}
	version.CreatedAt = time.Now()
	return createWithID(s.db, ctx, version, func(v *models.FileVersion, id string) { v.ID = id }, version.ID, models.ErrVersionConflict)
}

// DeleteVersionsByFile removes all version rows of a file.
func (s *Store) DeleteVersionsByFile(ctx context.Context, fileID string) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("file_id = ?", fileID).
		Delete(&models.FileVersion{})
	return result.RowsAffected, result.Error
}

// DeleteVersionsByProject removes all version rows belonging to a project's files.
func (s *Store) DeleteVersionsByProject(ctx context.Context, projectID string) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("file_id IN (?)", s.projectFileIDs(projectID)).
		Delete(&models.FileVersion{})
	return result.RowsAffected, result.Error
}

// CountVersionsByHash returns how many versions across the whole vault still
// reference the given content hash. This is the reference count gating
// secure deletion.
func (s *Store) CountVersionsByHash(ctx context.Context, contentHash string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.FileVersion{}).
		Where("content_hash = ?", contentHash).
		Count(&count).Error
	return count, err
}

// CountVersionsByHashOutsideProject counts references to a hash held by
// files outside the given project. Used by the deletion preview to estimate
// which blobs become orphaned when the project goes away.
func (s *Store) CountVersionsByHashOutsideProject(ctx context.Context, contentHash, projectID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.FileVersion{}).
		Joins("JOIN files ON files.id = file_versions.file_id").
		Where("file_versions.content_hash = ? AND files.project_id <> ?", contentHash, projectID).
		Count(&count).Error
	return count, err
}

// ListDistinctHashesByProject returns the distinct content hashes referenced
// by a project's versions.
func (s *Store) ListDistinctHashesByProject(ctx context.Context, projectID string) ([]string, error) {
	hashes := []string{}
	err := s.db.WithContext(ctx).
		Model(&models.FileVersion{}).
		Joins("JOIN files ON files.id = file_versions.file_id").
		Where("files.project_id = ?", projectID).
		Distinct("file_versions.content_hash").
		Pluck("file_versions.content_hash", &hashes).Error
	return hashes, err
}

// ListDistinctHashes returns every content hash referenced by any version.
// Used by the orphan sweep to diff metadata against blobs on disk.
func (s *Store) ListDistinctHashes(ctx context.Context) ([]string, error) {
	hashes := []string{}
	err := s.db.WithContext(ctx).
		Model(&models.FileVersion{}).
		Distinct("content_hash").
		Pluck("content_hash", &hashes).Error
	return hashes, err
}
