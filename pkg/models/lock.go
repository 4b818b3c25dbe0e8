package models

import (
	"time"
)

// FileLock represents an exclusive check-out claim on a file. The file id
// is the primary key, so the database enforces at most one lock per file
// and concurrent acquisitions contend on the row instead of racing.
type FileLock struct {
	FileID    string     `gorm:"primaryKey;size:36" json:"file_id"`
	LockedBy  string     `gorm:"not null;size:36" json:"locked_by"`
	LockedAt  time.Time  `gorm:"not null" json:"locked_at"`
	ExpiresAt *time.Time `gorm:"index" json:"expires_at,omitempty"`
	Reason    *string    `gorm:"size:512" json:"reason,omitempty"`
}

// TableName returns the table name for FileLock.
func (FileLock) TableName() string {
	return "file_locks"
}

// Expired reports whether the lock has lapsed at the given instant.
// A nil expiry never lapses.
func (l *FileLock) Expired(now time.Time) bool {
	if l.ExpiresAt == nil {
		return false
	}
	return !now.Before(*l.ExpiresAt)
}

// HeldBy reports whether the lock is currently held by the given user.
func (l *FileLock) HeldBy(userID string, now time.Time) bool {
	return l.LockedBy == userID && !l.Expired(now)
}
