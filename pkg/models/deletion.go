package models

import (
	"fmt"
	"time"
)

// DeletionStatus represents the lifecycle state of a deletion record.
type DeletionStatus string

const (
	// DeletionPending is a recorded request that has not started yet.
	DeletionPending DeletionStatus = "PENDING"
	// DeletionInProgress marks a wipe that is underway.
	DeletionInProgress DeletionStatus = "IN_PROGRESS"
	// DeletionCompleted marks a finished wipe.
	DeletionCompleted DeletionStatus = "COMPLETED"
	// DeletionFailed marks a wipe that errored; it can be retried.
	DeletionFailed DeletionStatus = "FAILED"
	// DeletionVerified marks a completed wipe for which a certificate
	// has been issued.
	DeletionVerified DeletionStatus = "VERIFIED"
)

// IsValid checks if the status is a known DeletionStatus.
func (s DeletionStatus) IsValid() bool {
	switch s {
	case DeletionPending, DeletionInProgress, DeletionCompleted, DeletionFailed, DeletionVerified:
		return true
	}
	return false
}

// IsTerminal reports whether the status admits no further wipe attempts.
func (s DeletionStatus) IsTerminal() bool {
	return s == DeletionCompleted || s == DeletionVerified
}

// DeletionRecord tracks one secure deletion request for a piece of
// content. Records survive the content they describe and are the basis
// for deletion certificates.
type DeletionRecord struct {
	ID               string     `gorm:"primaryKey;size:36" json:"id"`
	ContentHash      *string    `gorm:"size:64;index" json:"content_hash,omitempty"`
	RequestedBy      string     `gorm:"not null;size:36" json:"requested_by"`
	Reason           string     `gorm:"not null;size:512" json:"reason"`
	Status           string     `gorm:"not null;size:16;index" json:"status"`
	SecureWipe       bool       `gorm:"not null;default:false" json:"secure_wipe"`
	VerificationHash *string    `gorm:"size:64" json:"verification_hash,omitempty"`
	RequestedAt      time.Time  `gorm:"autoCreateTime" json:"requested_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// TableName returns the table name for DeletionRecord.
func (DeletionRecord) TableName() string {
	return "deletion_records"
}

// GetStatus returns the record's status as a DeletionStatus.
func (r *DeletionRecord) GetStatus() DeletionStatus {
	return DeletionStatus(r.Status)
}

// Validate checks if the record has valid configuration.
func (r *DeletionRecord) Validate() error {
	if r.RequestedBy == "" {
		return fmt.Errorf("requesting user is required")
	}
	if r.Reason == "" {
		return fmt.Errorf("reason is required")
	}
	if !DeletionStatus(r.Status).IsValid() {
		return fmt.Errorf("invalid status %q", r.Status)
	}
	return nil
}
