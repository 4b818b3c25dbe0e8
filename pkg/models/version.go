package models

import (
	"fmt"
	"time"
)

// FileVersion represents one immutable version of a file. Version numbers
// start at 1 and are strictly monotonic per file; rows are never updated
// or renumbered after insert.
type FileVersion struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	FileID        string    `gorm:"not null;size:36;index;uniqueIndex:idx_file_versions_file_number" json:"file_id"`
	VersionNumber int32     `gorm:"not null;uniqueIndex:idx_file_versions_file_number" json:"version_number"`
	ContentHash   string    `gorm:"not null;size:64;index" json:"content_hash"`
	SizeBytes     uint64    `gorm:"not null" json:"size_bytes"`
	UploadedBy    string    `gorm:"not null;size:36" json:"uploaded_by"`
	Message       *string   `gorm:"size:1024" json:"message,omitempty"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for FileVersion.
func (FileVersion) TableName() string {
	return "file_versions"
}

// Validate checks if the version has valid configuration.
func (v *FileVersion) Validate() error {
	if v.FileID == "" {
		return fmt.Errorf("file id is required")
	}
	if v.VersionNumber < 1 {
		return fmt.Errorf("version number must be at least 1")
	}
	if v.ContentHash == "" {
		return fmt.Errorf("content hash is required")
	}
	if v.UploadedBy == "" {
		return fmt.Errorf("uploader is required")
	}
	return nil
}
