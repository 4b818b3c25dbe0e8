package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hubvault/hubvault/internal/logger"
	"github.com/hubvault/hubvault/pkg/models"
	"github.com/hubvault/hubvault/pkg/store"
)

// nowFunc returns the current time (allows mocking in tests).
var nowFunc = time.Now

// Store is the persistence surface the recorder needs. *store.Store
// satisfies it.
type Store interface {
	InsertAuditLog(ctx context.Context, entry *models.AuditLog) error
	QueryAuditLogs(ctx context.Context, q store.AuditQuery) ([]*models.AuditLog, error)
}

// RequestMeta carries caller attribution through service layers into the
// audit trail. Both fields may be empty for internally initiated work.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// Event is one auditable occurrence. Zero-valued fields are recorded as
// absent; Kind and Outcome are always required.
type Event struct {
	Kind        EventKind
	Outcome     Outcome
	UserID      string
	ProjectID   string
	FileID      string
	FileVersion int32
	IP          string
	UserAgent   string
	Details     map[string]any
}

// Recorder writes audit events and serves compliance reports over them.
type Recorder struct {
	store Store
}

// NewRecorder creates a recorder backed by the given store.
func NewRecorder(s Store) *Recorder {
	return &Recorder{store: s}
}

// Record persists one audit event with a server-generated UTC timestamp.
//
// Record never reports failure to the caller: the audited operation has
// already happened and must not be failed retroactively by its own paper
// trail. Write errors go to the error logger instead.
func (r *Recorder) Record(ctx context.Context, e Event) {
	entry := &models.AuditLog{
		Timestamp: nowFunc().UTC(),
		EventKind: string(e.Kind),
		Outcome:   string(e.Outcome),
	}

	if e.UserID != "" {
		entry.UserID = &e.UserID
	}
	if e.ProjectID != "" {
		entry.ProjectID = &e.ProjectID
	}
	if e.FileID != "" {
		entry.FileID = &e.FileID
	}
	if e.FileVersion != 0 {
		entry.FileVersion = &e.FileVersion
	}
	if e.IP != "" {
		entry.IPAddress = &e.IP
	}
	if e.UserAgent != "" {
		entry.UserAgent = &e.UserAgent
	}

	if len(e.Details) > 0 {
		raw, err := json.Marshal(e.Details)
		if err != nil {
			logger.WarnCtx(ctx, "audit details not serializable, recording event without them",
				logger.EventKind(string(e.Kind)), logger.Err(err))
		} else {
			entry.Details = string(raw)
		}
	}

	if err := r.store.InsertAuditLog(ctx, entry); err != nil {
		logger.ErrorCtx(ctx, "audit write failed, event lost",
			logger.EventKind(string(e.Kind)),
			logger.Outcome(string(e.Outcome)),
			logger.Err(err))
	}
}
