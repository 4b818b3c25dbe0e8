package store

import (
	"context"
	"errors"
	"time"

	"github.com/hubvault/hubvault/pkg/models"
)

// ============================================
// USER OPERATIONS
// ============================================

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return getByField[models.User](s.db, ctx, "id", id, models.ErrUserNotFound)
}

func (s *Store) GetUserByPlatformID(ctx context.Context, platformUserID, platformTeamID string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("platform_user_id = ? AND platform_team_id = ?", platformUserID, platformTeamID).
		First(&user).Error
	if err != nil {
		return nil, convertNotFoundError(err, models.ErrUserNotFound)
	}
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]*models.User, error) {
	return listAll[models.User](s.db, ctx, "created_at ASC")
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) (string, error) {
	if err := user.Validate(); err != nil {
		return "", err
	}
	user.CreatedAt = time.Now()
	return createWithID(s.db, ctx, user, func(u *models.User, id string) { u.ID = id }, user.ID, models.ErrDuplicateUser)
}

// EnsureUser returns the user with the given platform identity, creating it
// on first observation. Concurrent first observations race on the unique
// platform index; the loser re-reads the winner's row.
func (s *Store) EnsureUser(ctx context.Context, user *models.User) (*models.User, error) {
	existing, err := s.GetUserByPlatformID(ctx, user.PlatformUserID, user.PlatformTeamID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, models.ErrUserNotFound) {
		return nil, err
	}

	if _, err := s.CreateUser(ctx, user); err != nil {
		if errors.Is(err, models.ErrDuplicateUser) {
			return s.GetUserByPlatformID(ctx, user.PlatformUserID, user.PlatformTeamID)
		}
		return nil, err
	}
	return user, nil
}

// UpdateUserProfile refreshes the mutable profile fields observed from the
// chat platform.
func (s *Store) UpdateUserProfile(ctx context.Context, user *models.User) error {
	var existing models.User
	if err := s.db.WithContext(ctx).Where("id = ?", user.ID).First(&existing).Error; err != nil {
		return convertNotFoundError(err, models.ErrUserNotFound)
	}

	return s.db.WithContext(ctx).
		Model(&existing).
		Select("DisplayName", "Email", "AvatarURL").
		Updates(user).Error
}
