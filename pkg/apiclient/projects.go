package apiclient

import (
	"net/url"
	"time"
)

// Project binds a workspace channel to a vault namespace.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	TeamID    string    `json:"team_id"`
	ChannelID string    `json:"channel_id"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateProjectRequest is the request to create a project.
type CreateProjectRequest struct {
	Name      string `json:"name"`
	TeamID    string `json:"team_id"`
	ChannelID string `json:"channel_id"`
}

// AuditEntry is one recorded event of a project's audit trail.
type AuditEntry struct {
	ID          uint64    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	EventKind   string    `json:"event_kind"`
	Outcome     string    `json:"outcome"`
	UserID      *string   `json:"user_id,omitempty"`
	ProjectID   *string   `json:"project_id,omitempty"`
	FileID      *string   `json:"file_id,omitempty"`
	FileVersion *int32    `json:"file_version,omitempty"`
	IPAddress   *string   `json:"ip_address,omitempty"`
	Details     string    `json:"details,omitempty"`
}

// TimelineBucket is one UTC calendar day of activity.
type TimelineBucket struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// ComplianceReport aggregates a project's audit trail over a window.
type ComplianceReport struct {
	ProjectID   string    `json:"project_id"`
	From        time.Time `json:"from"`
	To          time.Time `json:"to"`
	GeneratedAt time.Time `json:"generated_at"`

	TotalEvents int64            `json:"total_events"`
	ByKind      map[string]int64 `json:"by_kind"`
	ByOutcome   map[string]int64 `json:"by_outcome"`
	Timeline    []TimelineBucket `json:"timeline"`

	DeniedEvents   []AuditEntry `json:"denied_events"`
	SecurityEvents []AuditEntry `json:"security_events"`

	UniqueActors int   `json:"unique_actors"`
	Downloads    int64 `json:"downloads"`
	Checkouts    int64 `json:"checkouts"`
	Checkins     int64 `json:"checkins"`
}

// ProjectDeletionReport summarizes what a project deletion removed.
type ProjectDeletionReport struct {
	ProjectID         string `json:"project_id"`
	ProjectName       string `json:"project_name"`
	FilesDeleted      int64  `json:"files_deleted"`
	VersionsDeleted   int64  `json:"versions_deleted"`
	ReferencesDeleted int64  `json:"references_deleted"`
	LocksDeleted      int64  `json:"locks_deleted"`
	BlobsDeleted      int    `json:"blobs_deleted"`
	BlobsSkipped      int    `json:"blobs_skipped"`
	Outcome           string `json:"outcome"`
}

// CreateProject creates a new project.
func (c *Client) CreateProject(req CreateProjectRequest) (*Project, error) {
	return createResource[Project](c, "/api/v1/projects", req)
}

// GetProject returns a project by id.
func (c *Client) GetProject(projectID string) (*Project, error) {
	return getResource[Project](c, resourcePath("/api/v1/projects/%s", projectID))
}

// DeleteProject removes a project and everything in it. Admin only.
func (c *Client) DeleteProject(projectID, reason string) (*ProjectDeletionReport, error) {
	var report ProjectDeletionReport
	req := struct {
		Reason string `json:"reason"`
	}{Reason: reason}
	if err := c.do("DELETE", resourcePath("/api/v1/projects/%s", projectID), req, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Report produces the compliance report for a project over [from, to). A
// zero time leaves the bound to the server's default of the last month.
func (c *Client) Report(projectID string, from, to time.Time) (*ComplianceReport, error) {
	q := url.Values{}
	if !from.IsZero() {
		q.Set("from", from.Format(time.RFC3339))
	}
	if !to.IsZero() {
		q.Set("to", to.Format(time.RFC3339))
	}
	path := resourcePath("/api/v1/projects/%s/report", projectID)
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	return getResource[ComplianceReport](c, path)
}
