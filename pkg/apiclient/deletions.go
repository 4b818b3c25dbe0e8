package apiclient

import (
	"net/url"
	"time"
)

// DeletionRecord tracks one secure deletion from request to verification.
type DeletionRecord struct {
	ID               string     `json:"id"`
	ContentHash      *string    `json:"content_hash,omitempty"`
	RequestedBy      string     `json:"requested_by"`
	Reason           string     `json:"reason"`
	Status           string     `json:"status"`
	SecureWipe       bool       `json:"secure_wipe"`
	VerificationHash *string    `json:"verification_hash,omitempty"`
	RequestedAt      time.Time  `json:"requested_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// DeletionCertificate is the compliance evidence that a deletion
// completed.
type DeletionCertificate struct {
	CertificateID    string     `json:"certificateId"`
	DeletionRecordID string     `json:"deletionRecordId"`
	ContentHash      string     `json:"contentHash,omitempty"`
	DeletedAt        *time.Time `json:"deletedAt,omitempty"`
	WipeMethod       string     `json:"wipeMethod"`
	VerificationHash string     `json:"verificationHash,omitempty"`
	RequestedBy      string     `json:"requestedBy"`
	Reason           string     `json:"reason"`
	GeneratedAt      time.Time  `json:"generatedAt"`
}

// WipeRequest names the content to destroy and why.
type WipeRequest struct {
	ContentHash string `json:"content_hash"`
	Reason      string `json:"reason"`
}

// All deletion endpoints are admin only.

// Wipe securely destroys unreferenced content.
func (c *Client) Wipe(req WipeRequest) (*DeletionRecord, error) {
	return createResource[DeletionRecord](c, "/api/v1/deletions", req)
}

// ListDeletions returns deletion records, newest first. An empty status
// returns all of them.
func (c *Client) ListDeletions(status string) ([]DeletionRecord, error) {
	path := "/api/v1/deletions"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	return listResources[DeletionRecord](c, path)
}

// GetDeletion returns one deletion record.
func (c *Client) GetDeletion(recordID string) (*DeletionRecord, error) {
	return getResource[DeletionRecord](c, resourcePath("/api/v1/deletions/%s", recordID))
}

// RetryDeletion reruns a failed wipe.
func (c *Client) RetryDeletion(recordID string) (*DeletionRecord, error) {
	return createResource[DeletionRecord](c, resourcePath("/api/v1/deletions/%s/retry", recordID), nil)
}

// Certificate generates the deletion certificate for a finished record.
func (c *Client) Certificate(recordID string) (*DeletionCertificate, error) {
	return createResource[DeletionCertificate](c, resourcePath("/api/v1/deletions/%s/certificate", recordID), nil)
}
