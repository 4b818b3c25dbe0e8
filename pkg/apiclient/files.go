package apiclient

import (
	"fmt"
	"io"
	"time"
)

// File represents a versioned file in the vault.
type File struct {
	ID             string    `json:"id"`
	ProjectID      string    `json:"project_id"`
	Name           string    `json:"name"`
	Path           string    `json:"path"`
	ContentHash    string    `json:"content_hash"`
	SizeBytes      uint64    `json:"size_bytes"`
	MimeType       string    `json:"mime_type,omitempty"`
	CurrentVersion int32     `json:"current_version"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// FileVersion is one immutable entry of a file's history.
type FileVersion struct {
	ID            string    `json:"id"`
	FileID        string    `json:"file_id"`
	VersionNumber int32     `json:"version_number"`
	ContentHash   string    `json:"content_hash"`
	SizeBytes     uint64    `json:"size_bytes"`
	UploadedBy    string    `json:"uploaded_by"`
	Message       *string   `json:"message,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// FileLock is the exclusive editing claim on a file.
type FileLock struct {
	FileID    string     `json:"file_id"`
	LockedBy  string     `json:"locked_by"`
	LockedAt  time.Time  `json:"locked_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Reason    *string    `json:"reason,omitempty"`
}

// CheckoutResult is what a successful checkout hands back.
type CheckoutResult struct {
	File *File     `json:"File"`
	Lock *FileLock `json:"Lock"`
}

// CheckinResult is what a successful check-in hands back.
type CheckinResult struct {
	File    *File        `json:"File"`
	Version *FileVersion `json:"Version"`
}

// IssuedToken is a single-use download ticket.
type IssuedToken struct {
	Token     string    `json:"Token"`
	ExpiresAt time.Time `json:"ExpiresAt"`
}

// IssuedDownload is a ticket plus the URL that redeems it.
type IssuedDownload struct {
	Token *IssuedToken `json:"Token"`
	URL   string       `json:"URL"`
}

// UploadOptions carries the optional fields of an upload.
type UploadOptions struct {
	Name     string // stored name; defaults to the uploaded filename
	Path     string
	MimeType string
	Message  string
}

// UploadFile uploads content as a new file in a project.
func (c *Client) UploadFile(projectID, filename string, content io.Reader, opts UploadOptions) (*File, error) {
	var file File
	err := c.upload(resourcePath("/api/v1/projects/%s/files", projectID), filename, content, map[string]string{
		"name":      opts.Name,
		"path":      opts.Path,
		"mime_type": opts.MimeType,
		"message":   opts.Message,
	}, &file)
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// GetFile returns a file's metadata.
func (c *Client) GetFile(fileID string) (*File, error) {
	return getResource[File](c, resourcePath("/api/v1/files/%s", fileID))
}

// ListFiles returns a project's files.
func (c *Client) ListFiles(projectID string) ([]File, error) {
	return listResources[File](c, resourcePath("/api/v1/projects/%s/files", projectID))
}

// ListVersions returns a file's version history, newest first.
func (c *Client) ListVersions(fileID string) ([]FileVersion, error) {
	return listResources[FileVersion](c, resourcePath("/api/v1/files/%s/versions", fileID))
}

// DeleteFile removes a file with its history.
func (c *Client) DeleteFile(fileID string) error {
	return c.delete(resourcePath("/api/v1/files/%s", fileID), nil)
}

// Checkout claims the exclusive editing lock on a file. A lock conflict
// comes back as an APIError with IsLocked true, naming the holder.
func (c *Client) Checkout(fileID, reason string) (*CheckoutResult, error) {
	var body any
	if reason != "" {
		body = map[string]string{"reason": reason}
	}
	return createResource[CheckoutResult](c, resourcePath("/api/v1/files/%s/checkout", fileID), body)
}

// Checkin stores content as the file's next version and releases the
// caller's lock.
func (c *Client) Checkin(fileID, filename string, content io.Reader, message string) (*CheckinResult, error) {
	var result CheckinResult
	err := c.upload(resourcePath("/api/v1/files/%s/checkin", fileID), filename, content, map[string]string{
		"message": message,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// CancelCheckout releases the caller's lock without creating a version.
func (c *Client) CancelCheckout(fileID string) error {
	return c.post(resourcePath("/api/v1/files/%s/checkout/cancel", fileID), nil, nil)
}

// ExtendCheckout pushes the caller's lock expiry out by the given hours.
func (c *Client) ExtendCheckout(fileID string, hours int) (*FileLock, error) {
	return createResource[FileLock](c, resourcePath("/api/v1/files/%s/checkout/extend", fileID),
		map[string]int{"hours": hours})
}

// CreateDownloadToken issues a single-use download link for a file.
// Version 0 means the current version.
func (c *Client) CreateDownloadToken(fileID string, version int32) (*IssuedDownload, error) {
	path := resourcePath("/api/v1/files/%s/download-token", fileID)
	if version > 0 {
		path += fmt.Sprintf("?version=%d", version)
	}
	return createResource[IssuedDownload](c, path, nil)
}
