package models

import (
	"time"
)

// AuditLog is one append-only audit event. Rows are only ever inserted;
// no update or delete path exists anywhere in the codebase. Details holds
// a JSON object with event-specific fields.
type AuditLog struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Timestamp   time.Time `gorm:"not null;index:idx_audit_project_time,priority:2;index:idx_audit_file_time,priority:2" json:"timestamp"`
	EventKind   string    `gorm:"not null;size:64;index" json:"event_kind"`
	Outcome     string    `gorm:"not null;size:16" json:"outcome"`
	UserID      *string   `gorm:"size:36;index" json:"user_id,omitempty"`
	ProjectID   *string   `gorm:"size:36;index:idx_audit_project_time,priority:1" json:"project_id,omitempty"`
	FileID      *string   `gorm:"size:36;index:idx_audit_file_time,priority:1" json:"file_id,omitempty"`
	FileVersion *int32    `json:"file_version,omitempty"`
	IPAddress   *string   `gorm:"size:64" json:"ip_address,omitempty"`
	UserAgent   *string   `gorm:"size:512" json:"user_agent,omitempty"`
	Details     string    `gorm:"type:text" json:"details,omitempty"`
}

// TableName returns the table name for AuditLog.
func (AuditLog) TableName() string {
	return "audit_logs"
}
