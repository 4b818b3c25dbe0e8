package models

import (
	"fmt"
	"time"
)

// FileReference records a share of a file into a chat channel. References
// track where file cards live so they can be refreshed when the file
// changes, and they are removed when the file or project is deleted.
type FileReference struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	FileID        string    `gorm:"not null;size:36;index" json:"file_id"`
	ProjectID     string    `gorm:"not null;size:36;index" json:"project_id"`
	SharedBy      string    `gorm:"not null;size:36" json:"shared_by"`
	SharedVersion int32     `gorm:"not null" json:"shared_version"`
	ChannelID     string    `gorm:"not null;size:64" json:"channel_id"`
	MessageID     string    `gorm:"size:64" json:"message_id,omitempty"`
	ThreadID      *string   `gorm:"size:64" json:"thread_id,omitempty"`
	SharedAt      time.Time `gorm:"autoCreateTime" json:"shared_at"`
}

// TableName returns the table name for FileReference.
func (FileReference) TableName() string {
	return "file_references"
}

// Validate checks if the reference has valid configuration.
func (r *FileReference) Validate() error {
	if r.FileID == "" {
		return fmt.Errorf("file id is required")
	}
	if r.ProjectID == "" {
		return fmt.Errorf("project id is required")
	}
	if r.ChannelID == "" {
		return fmt.Errorf("channel id is required")
	}
	if r.SharedVersion < 1 {
		return fmt.Errorf("shared version must be at least 1")
	}
	return nil
}
