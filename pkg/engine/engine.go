// Package engine is the lifecycle coordinator of the vault: the façade the
// chat-integration layer calls for every checkout, check-in, upload,
// download and deletion.
//
// The engine owns the ordering rules that keep the metadata and the blobs
// consistent: blob writes happen before the metadata transaction (a failed
// transaction leaves a deduplication-harmless orphan, never inconsistent
// metadata), lock release commits atomically with the version append, and
// audit entries are written only after the outcome they describe is settled.
//
// Authorization is channel membership, answered by the access oracle. Every
// denial is audited before it is returned.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/hubvault/hubvault/internal/logger"
	"github.com/hubvault/hubvault/pkg/access"
	"github.com/hubvault/hubvault/pkg/audit"
	"github.com/hubvault/hubvault/pkg/content"
	"github.com/hubvault/hubvault/pkg/deletion"
	vaulterrors "github.com/hubvault/hubvault/pkg/engine/errors"
	"github.com/hubvault/hubvault/pkg/lock"
	"github.com/hubvault/hubvault/pkg/metrics"
	"github.com/hubvault/hubvault/pkg/models"
	"github.com/hubvault/hubvault/pkg/store"
	"github.com/hubvault/hubvault/pkg/token"
	"github.com/hubvault/hubvault/pkg/version"
)

// DefaultTxRetries is how often a conflicted metadata transaction is rerun
// before the caller gets a Transient error.
const DefaultTxRetries = 3

// Notifier receives best-effort UI hooks after successful mutations. The
// chat layer updates hub cards and reference cards from these; failures are
// logged and never propagate into the operation's result.
type Notifier interface {
	// FileUpdated fires after checkout, check-in, upload and lock changes.
	FileUpdated(ctx context.Context, file *models.File)

	// FileDeleted fires after a file is removed.
	FileDeleted(ctx context.Context, file *models.File)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

// FileUpdated implements Notifier.
func (NopNotifier) FileUpdated(context.Context, *models.File) {}

// FileDeleted implements Notifier.
func (NopNotifier) FileDeleted(context.Context, *models.File) {}

// Config tunes the engine.
type Config struct {
	// BaseURL is the public URL downloads are served under.
	BaseURL string

	// TxRetries bounds reruns of conflicted transactions. Default: 3
	TxRetries int

	// RetryInterval is the initial backoff between transaction retries.
	// Default: 50ms
	RetryInterval time.Duration
}

// Deps collects the engine's collaborators. Every field is required unless
// noted; pass access.AllowAll and NopNotifier where no chat platform is
// attached.
type Deps struct {
	Store    *store.Store
	Content  content.Backend
	Locks    *lock.Manager
	Versions *version.Manager
	Tokens   *token.Service
	Deletion *deletion.Engine
	Audit    *audit.Recorder
	Oracle   access.Oracle
	Notifier Notifier            // optional
	Metrics  metrics.VaultMetrics // optional
}

// Engine coordinates the vault's file lifecycle operations.
type Engine struct {
	store    *store.Store
	content  content.Backend
	locks    *lock.Manager
	versions *version.Manager
	tokens   *token.Service
	deletion *deletion.Engine
	audit    *audit.Recorder
	oracle   access.Oracle
	notifier Notifier
	metrics  metrics.VaultMetrics
	cfg      Config
}

// New assembles the engine.
func New(deps Deps, cfg Config) *Engine {
	if cfg.TxRetries <= 0 {
		cfg.TxRetries = DefaultTxRetries
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 50 * time.Millisecond
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Engine{
		store:    deps.Store,
		content:  deps.Content,
		locks:    deps.Locks,
		versions: deps.Versions,
		tokens:   deps.Tokens,
		deletion: deps.Deletion,
		audit:    deps.Audit,
		oracle:   deps.Oracle,
		notifier: notifier,
		metrics:  deps.Metrics,
		cfg:      cfg,
	}
}

// Deletion exposes the deletion engine for administrative surfaces.
func (e *Engine) Deletion() *deletion.Engine {
	return e.deletion
}

// Locks exposes the lock manager for the reaper and administrative surfaces.
func (e *Engine) Locks() *lock.Manager {
	return e.locks
}

// Audit exposes the recorder for compliance reporting surfaces.
func (e *Engine) Audit() *audit.Recorder {
	return e.audit
}

// loadFile resolves a file id to its row, mapping the store sentinel to the
// caller-facing NotFound.
func (e *Engine) loadFile(ctx context.Context, fileID string) (*models.File, error) {
	file, err := e.store.GetFile(ctx, fileID)
	if err != nil {
		if errors.Is(err, models.ErrFileNotFound) {
			return nil, vaulterrors.NewNotFoundError(fileID, "file")
		}
		return nil, err
	}
	return file, nil
}

// requireMember checks that userID belongs to the project's hub channel.
// A denial is audited before it is returned; an oracle failure propagates
// as-is, denying by default.
func (e *Engine) requireMember(ctx context.Context, userID string, project *models.Project, meta audit.RequestMeta) error {
	member, err := e.oracle.MemberOf(ctx, userID, project.ChannelID)
	if err != nil {
		return vaulterrors.NewInternalError("membership lookup failed", err)
	}
	if member {
		return nil
	}

	e.audit.Record(ctx, audit.Event{
		Kind:      audit.EventAccessDenied,
		Outcome:   audit.OutcomeDenied,
		UserID:    userID,
		ProjectID: project.ID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Details:   map[string]any{"channel_id": project.ChannelID},
	})
	logger.InfoCtx(ctx, "access denied",
		logger.Actor(userID),
		logger.Project(project.ID),
		logger.Channel(project.ChannelID))
	return vaulterrors.NewAccessDeniedError(userID, project.ID)
}

// requireProjectMember loads a file's project and checks membership.
func (e *Engine) requireProjectMember(ctx context.Context, userID string, file *models.File, meta audit.RequestMeta) (*models.Project, error) {
	project, err := e.store.GetProject(ctx, file.ProjectID)
	if err != nil {
		if errors.Is(err, models.ErrProjectNotFound) {
			return nil, vaulterrors.NewNotFoundError(file.ProjectID, "project")
		}
		return nil, err
	}
	if err := e.requireMember(ctx, userID, project, meta); err != nil {
		return nil, err
	}
	return project, nil
}

// withTxRetry runs fn inside a transaction, rerunning the whole unit on
// concurrency conflicts with exponential backoff. A version-number conflict
// counts as retriable: the rerun reads the advanced counter and appends
// behind the concurrent writer. Exhausted retries surface as Transient.
func (e *Engine) withTxRetry(ctx context.Context, fn func(tx *store.Store) error) error {
	attempt := 0
	op := func() error {
		attempt++
		err := e.store.Transaction(ctx, fn)
		if err == nil {
			return nil
		}
		if store.IsConflict(err) || errors.Is(err, models.ErrVersionConflict) {
			logger.DebugCtx(ctx, "transaction conflicted, retrying",
				logger.Attempt(attempt), logger.MaxRetries(e.cfg.TxRetries), logger.Err(err))
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = e.cfg.RetryInterval
	policy.MaxElapsedTime = 0

	err := backoff.Retry(op, backoff.WithContext(
		backoff.WithMaxRetries(policy, uint64(e.cfg.TxRetries)), ctx))
	if err == nil {
		return nil
	}
	if store.IsConflict(err) || errors.Is(err, models.ErrVersionConflict) {
		return vaulterrors.NewTransientError(err)
	}
	return err
}

// notifyUpdated fires the UI hook without letting it fail the operation.
func (e *Engine) notifyUpdated(ctx context.Context, file *models.File) {
	defer func() {
		if r := recover(); r != nil {
			logger.WarnCtx(ctx, "notifier panicked", logger.File(file.ID))
		}
	}()
	e.notifier.FileUpdated(ctx, file)
}

// notifyDeleted fires the deletion UI hook, also best-effort.
func (e *Engine) notifyDeleted(ctx context.Context, file *models.File) {
	defer func() {
		if r := recover(); r != nil {
			logger.WarnCtx(ctx, "notifier panicked", logger.File(file.ID))
		}
	}()
	e.notifier.FileDeleted(ctx, file)
}
