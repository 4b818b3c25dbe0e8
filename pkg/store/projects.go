package store

import (
	"context"
	"time"

	"github.com/hubvault/hubvault/pkg/models"
)

// ============================================
// PROJECT OPERATIONS
// ============================================

func (s *Store) GetProject(ctx context.Context, id string) (*models.Project, error) {
	return getByField[models.Project](s.db, ctx, "id", id, models.ErrProjectNotFound)
}

func (s *Store) GetProjectByChannel(ctx context.Context, channelID string) (*models.Project, error) {
	return getByField[models.Project](s.db, ctx, "channel_id", channelID, models.ErrProjectNotFound)
}

func (s *Store) ListProjects(ctx context.Context) ([]*models.Project, error) {
	return listAll[models.Project](s.db, ctx, "created_at ASC")
}

func (s *Store) ListProjectsByTeam(ctx context.Context, teamID string) ([]*models.Project, error) {
	return listByField[models.Project](s.db, ctx, "team_id", teamID, "created_at ASC")
}

func (s *Store) CreateProject(ctx context.Context, project *models.Project) (string, error) {
	if err := project.Validate(); err != nil {
		return "", err
	}
	project.CreatedAt = time.Now()
	return createWithID(s.db, ctx, project, func(p *models.Project, id string) { p.ID = id }, project.ID, models.ErrDuplicateProject)
}

// DeleteProjectRow removes the project row itself. Dependent rows are the
// caller's responsibility; the deletion engine removes them in one
// transaction before calling this.
func (s *Store) DeleteProjectRow(ctx context.Context, id string) error {
	return deleteByField[models.Project](s.db, ctx, "id", id, models.ErrProjectNotFound)
}

// ProjectCounts summarizes the rows belonging to a project.
type ProjectCounts struct {
	Files      int64
	Versions   int64
	References int64
	Locks      int64
}

// CountProjectRows returns per-table row counts for a project. Used by the
// deletion preview and the project deletion report.
func (s *Store) CountProjectRows(ctx context.Context, projectID string) (*ProjectCounts, error) {
	var counts ProjectCounts

	if err := s.db.WithContext(ctx).Model(&models.File{}).
		Where("project_id = ?", projectID).
		Count(&counts.Files).Error; err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&models.FileVersion{}).
		Where("file_id IN (?)", s.projectFileIDs(projectID)).
		Count(&counts.Versions).Error; err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&models.FileReference{}).
		Where("project_id = ?", projectID).
		Count(&counts.References).Error; err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&models.FileLock{}).
		Where("file_id IN (?)", s.projectFileIDs(projectID)).
		Count(&counts.Locks).Error; err != nil {
		return nil, err
	}

	return &counts, nil
}

// projectFileIDs returns a subquery selecting the file ids of a project.
func (s *Store) projectFileIDs(projectID string) any {
	return s.db.Model(&models.File{}).Select("id").Where("project_id = ?", projectID)
}
