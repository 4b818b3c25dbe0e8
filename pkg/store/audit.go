package store

import (
	"context"
	"time"

	"github.com/hubvault/hubvault/pkg/models"
)

// ============================================
// AUDIT LOG OPERATIONS
// ============================================
//
// Audit rows are append-only. This file deliberately exposes no update or
// delete method; retention enforcement belongs to database-level tooling,
// not application code.

func (s *Store) InsertAuditLog(ctx context.Context, entry *models.AuditLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

// AuditQuery filters audit rows for reporting.
type AuditQuery struct {
	ProjectID string
	FileID    string
	UserID    string
	From      time.Time
	To        time.Time
	Limit     int
}

// QueryAuditLogs returns matching audit rows ordered by time. An empty
// filter field is ignored; From/To bound the window inclusively at From and
// exclusively at To.
func (s *Store) QueryAuditLogs(ctx context.Context, q AuditQuery) ([]*models.AuditLog, error) {
	entries := []*models.AuditLog{}

	query := s.db.WithContext(ctx).Model(&models.AuditLog{})
	if q.ProjectID != "" {
		query = query.Where("project_id = ?", q.ProjectID)
	}
	if q.FileID != "" {
		query = query.Where("file_id = ?", q.FileID)
	}
	if q.UserID != "" {
		query = query.Where("user_id = ?", q.UserID)
	}
	if !q.From.IsZero() {
		query = query.Where("timestamp >= ?", q.From)
	}
	if !q.To.IsZero() {
		query = query.Where("timestamp < ?", q.To)
	}
	query = query.Order("timestamp ASC")
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	err := query.Find(&entries).Error
	return entries, err
}
