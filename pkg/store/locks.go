package store

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/hubvault/hubvault/pkg/models"
)

// ============================================
// FILE LOCK OPERATIONS
// ============================================
//
// The file id is the primary key of file_locks, so all cross-request mutual
// exclusion reduces to row contention on that key. The primitives here are
// each a single statement; the lock manager composes them into check-out
// semantics without ever holding a process mutex across I/O.

func (s *Store) GetLock(ctx context.Context, fileID string) (*models.FileLock, error) {
	return getByField[models.FileLock](s.db, ctx, "file_id", fileID, models.ErrLockNotFound)
}

func (s *Store) ListLocks(ctx context.Context) ([]*models.FileLock, error) {
	return listAll[models.FileLock](s.db, ctx, "locked_at ASC")
}

func (s *Store) ListLocksByProject(ctx context.Context, projectID string) ([]*models.FileLock, error) {
	locks := []*models.FileLock{}
	err := s.db.WithContext(ctx).
		Where("file_id IN (?)", s.projectFileIDs(projectID)).
		Order("locked_at ASC").
		Find(&locks).Error
	return locks, err
}

// InsertLockIfAbsent attempts to claim the lock row. Returns true when this
// caller inserted the row, false when another lock already exists. The
// ON CONFLICT DO NOTHING clause makes concurrent claims race safely: exactly
// one caller observes true.
func (s *Store) InsertLockIfAbsent(ctx context.Context, lock *models.FileLock) (bool, error) {
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "file_id"}},
			DoNothing: true,
		}).
		Create(lock)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// RefreshLock restarts a lock held by userID: the acquisition time and
// expiry both move forward. Returns false when the lock is absent or held
// by someone else.
func (s *Store) RefreshLock(ctx context.Context, fileID, userID string, lockedAt time.Time, expiresAt *time.Time, reason *string) (bool, error) {
	updates := map[string]any{
		"locked_at":  lockedAt,
		"expires_at": expiresAt,
	}
	if reason != nil {
		updates["reason"] = reason
	}
	result := s.db.WithContext(ctx).
		Model(&models.FileLock{}).
		Where("file_id = ? AND locked_by = ?", fileID, userID).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ExtendLock moves the expiry of a lock held by userID without touching the
// acquisition time. Returns false when the lock is absent or held by someone
// else.
func (s *Store) ExtendLock(ctx context.Context, fileID, userID string, expiresAt time.Time) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&models.FileLock{}).
		Where("file_id = ? AND locked_by = ?", fileID, userID).
		Update("expires_at", expiresAt)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// TakeOverExpiredLock atomically transfers an expired lock to a new holder.
// The WHERE clause only matches rows whose expiry has lapsed; the first
// racing caller to commit moves the expiry into the future and the second
// caller matches nothing.
func (s *Store) TakeOverExpiredLock(ctx context.Context, lock *models.FileLock, now time.Time) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&models.FileLock{}).
		Where("file_id = ? AND expires_at IS NOT NULL AND expires_at <= ?", lock.FileID, now).
		Updates(map[string]any{
			"locked_by":  lock.LockedBy,
			"locked_at":  lock.LockedAt,
			"expires_at": lock.ExpiresAt,
			"reason":     lock.Reason,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteLockIfOwner releases a lock only when held by userID. Returns false
// when the lock is absent or owned by someone else.
func (s *Store) DeleteLockIfOwner(ctx context.Context, fileID, userID string) (bool, error) {
	result := s.db.WithContext(ctx).
		Where("file_id = ? AND locked_by = ?", fileID, userID).
		Delete(&models.FileLock{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteLock removes a lock regardless of holder. Administrative override.
func (s *Store) DeleteLock(ctx context.Context, fileID string) error {
	return deleteByField[models.FileLock](s.db, ctx, "file_id", fileID, models.ErrLockNotFound)
}

// DeleteLocksByProject removes all locks on a project's files.
func (s *Store) DeleteLocksByProject(ctx context.Context, projectID string) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("file_id IN (?)", s.projectFileIDs(projectID)).
		Delete(&models.FileLock{})
	return result.RowsAffected, result.Error
}

// DeleteLockIfExpired reaps a single lapsed lock. Returns true when a row was
// removed, false when the lock is live or already gone.
func (s *Store) DeleteLockIfExpired(ctx context.Context, fileID string, now time.Time) (bool, error) {
	result := s.db.WithContext(ctx).
		Where("file_id = ? AND expires_at IS NOT NULL AND expires_at <= ?", fileID, now).
		Delete(&models.FileLock{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteExpiredLocks reaps every lapsed lock and returns how many rows went
// away. Safe to run concurrently; double reaping is harmless.
func (s *Store) DeleteExpiredLocks(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now).
		Delete(&models.FileLock{})
	return result.RowsAffected, result.Error
}
