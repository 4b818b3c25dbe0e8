package engine

import (
	"context"
	"errors"
	"time"

	"github.com/hubvault/hubvault/internal/logger"
	"github.com/hubvault/hubvault/internal/telemetry"
	"github.com/hubvault/hubvault/pkg/audit"
	"github.com/hubvault/hubvault/pkg/deletion"
	vaulterrors "github.com/hubvault/hubvault/pkg/engine/errors"
	"github.com/hubvault/hubvault/pkg/models"
)

// CreateProjectParams carries a project creation request.
type CreateProjectParams struct {
	Name      string
	TeamID    string
	ChannelID string
	CreatedBy string
}

// CreateProject binds a workspace channel to a new project. A channel
// hosts at most one project; binding an occupied channel fails with
// AlreadyExists.
func (e *Engine) CreateProject(ctx context.Context, p CreateProjectParams) (*models.Project, error) {
	project := &models.Project{
		Name:      p.Name,
		TeamID:    p.TeamID,
		ChannelID: p.ChannelID,
		CreatedBy: p.CreatedBy,
	}
	if _, err := e.store.CreateProject(ctx, project); err != nil {
		if errors.Is(err, models.ErrDuplicateProject) {
			return nil, &vaulterrors.VaultError{
				Code:      vaulterrors.ErrAlreadyExists,
				Message:   "channel already hosts a project",
				ProjectID: p.ChannelID,
			}
		}
		return nil, err
	}

	logger.InfoCtx(ctx, "project created",
		logger.Project(project.ID),
		logger.Channel(p.ChannelID))
	return project, nil
}

// GetProject returns a project by id.
func (e *Engine) GetProject(ctx context.Context, projectID string) (*models.Project, error) {
	project, err := e.store.GetProject(ctx, projectID)
	if errors.Is(err, models.ErrProjectNotFound) {
		return nil, vaulterrors.NewNotFoundError(projectID, "project")
	}
	return project, err
}

// GetProjectByChannel resolves the project bound to a workspace channel.
func (e *Engine) GetProjectByChannel(ctx context.Context, channelID string) (*models.Project, error) {
	project, err := e.store.GetProjectByChannel(ctx, channelID)
	if errors.Is(err, models.ErrProjectNotFound) {
		return nil, vaulterrors.NewNotFoundError(channelID, "project")
	}
	return project, err
}

// DeleteProject removes a project and everything in it, wiping orphaned
// blobs. Administrative operation; membership does not gate it.
func (e *Engine) DeleteProject(ctx context.Context, projectID, actor, reason string) (*deletion.ProjectDeletionReport, error) {
	ctx, span := telemetry.StartProjectSpan(ctx, telemetry.SpanDeleteProj, actor, projectID)
	defer span.End()

	report, err := e.deletion.DeleteProject(ctx, projectID, actor, reason)
	if err != nil {
		telemetry.RecordError(ctx, err)
	}
	return report, err
}

// EnsureUser resolves a platform identity to a vault user, creating the
// user on first observation.
func (e *Engine) EnsureUser(ctx context.Context, platformUserID, platformTeamID, displayName string) (*models.User, error) {
	return e.store.EnsureUser(ctx, &models.User{
		PlatformUserID: platformUserID,
		PlatformTeamID: platformTeamID,
		DisplayName:    displayName,
	})
}

// ComplianceReport produces the audit summary for a project and window.
func (e *Engine) ComplianceReport(ctx context.Context, projectID string, from, to time.Time) (*audit.ComplianceReport, error) {
	return e.audit.Report(ctx, projectID, from, to)
}
