package models

import (
	"fmt"
	"strings"
	"time"
)

// File represents a versioned file in a project.
//
// ContentHash, SizeBytes and CurrentVersion always describe the newest
// version; the full history lives in FileVersion rows. NameKey is the
// lowercased name used to enforce case-insensitive uniqueness per project.
type File struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	ProjectID      string    `gorm:"not null;size:36;index;uniqueIndex:idx_files_project_name_key" json:"project_id"`
	Name           string    `gorm:"not null;size:255" json:"name"`
	NameKey        string    `gorm:"not null;size:255;uniqueIndex:idx_files_project_name_key" json:"-"`
	Path           string    `gorm:"not null;size:1024" json:"path"`
	ContentHash    string    `gorm:"not null;size:64;index" json:"content_hash"`
	SizeBytes      uint64    `gorm:"not null" json:"size_bytes"`
	MimeType       string    `gorm:"size:255" json:"mime_type,omitempty"`
	CurrentVersion int32     `gorm:"not null;default:1" json:"current_version"`
	CardMessageID  *string   `gorm:"size:64" json:"card_message_id,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for File.
func (File) TableName() string {
	return "files"
}

// NameKeyOf returns the canonical key used for case-insensitive name
// comparison within a project.
func NameKeyOf(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NormalizePath canonicalizes a display path: a leading slash is ensured,
// repeated slashes are collapsed and a trailing slash is stripped. The
// root path stays "/".
func NormalizePath(p string) string {
	if p == "" {
		return "/"
	}
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

// Validate checks if the file has valid configuration.
func (f *File) Validate() error {
	if f.ProjectID == "" {
		return fmt.Errorf("project id is required")
	}
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("file name is required")
	}
	if f.ContentHash == "" {
		return fmt.Errorf("content hash is required")
	}
	if f.CurrentVersion < 1 {
		return fmt.Errorf("current version must be at least 1")
	}
	return nil
}
