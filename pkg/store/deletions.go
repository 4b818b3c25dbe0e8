package store

import (
	"context"
	"time"

	"github.com/hubvault/hubvault/pkg/models"
)

// ============================================
// DELETION RECORD OPERATIONS
// ============================================

func (s *Store) GetDeletionRecord(ctx context.Context, id string) (*models.DeletionRecord, error) {
	return getByField[models.DeletionRecord](s.db, ctx, "id", id, models.ErrDeletionRecordNotFound)
}

func (s *Store) ListDeletionRecords(ctx context.Context, status models.DeletionStatus) ([]*models.DeletionRecord, error) {
	if status == "" {
		return listAll[models.DeletionRecord](s.db, ctx, "requested_at DESC")
	}
	return listByField[models.DeletionRecord](s.db, ctx, "status", string(status), "requested_at DESC")
}

func (s *Store) CreateDeletionRecord(ctx context.Context, record *models.DeletionRecord) (string, error) {
	if err := record.Validate(); err != nil {
		return "", err
	}
	record.RequestedAt = time.Now()
	return createWithID(s.db, ctx, record, func(r *models.DeletionRecord, id string) { r.ID = id }, record.ID, models.ErrDeletionRecordNotFound)
}

// MarkDeletionRetry moves a FAILED record back to PENDING with a new reason.
// The WHERE clause only matches FAILED rows, so a terminal or in-flight
// record, or a concurrent retry that got there first, returns false.
func (s *Store) MarkDeletionRetry(ctx context.Context, id, reason string) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&models.DeletionRecord{}).
		Where("id = ? AND status = ?", id, string(models.DeletionFailed)).
		Updates(map[string]any{
			"status": string(models.DeletionPending),
			"reason": reason,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// UpdateDeletionStatus moves a record through its lifecycle. CompletedAt and
// the verification hash are set together with terminal states.
func (s *Store) UpdateDeletionStatus(ctx context.Context, id string, status models.DeletionStatus, secureWipe bool, verificationHash *string, completedAt *time.Time) error {
	updates := map[string]any{
		"status":      string(status),
		"secure_wipe": secureWipe,
	}
	if verificationHash != nil {
		updates["verification_hash"] = *verificationHash
	}
	if completedAt != nil {
		updates["completed_at"] = *completedAt
	}

	result := s.db.WithContext(ctx).
		Model(&models.DeletionRecord{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrDeletionRecordNotFound
	}
	return nil
}
