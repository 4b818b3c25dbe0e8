package models

import (
	"fmt"
	"time"
)

// User represents a workspace member observed by the vault.
//
// Users are created lazily the first time a platform identity touches a
// vault operation; there is no registration flow. The platform pair
// (user id, team id) is the stable identity, the row id is internal.
type User struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	PlatformUserID string    `gorm:"not null;size:64;uniqueIndex:idx_users_platform_identity" json:"platform_user_id"`
	PlatformTeamID string    `gorm:"not null;size:64;uniqueIndex:idx_users_platform_identity" json:"platform_team_id"`
	DisplayName    string    `gorm:"size:255" json:"display_name,omitempty"`
	Email          string    `gorm:"size:255" json:"email,omitempty"`
	AvatarURL      string    `gorm:"size:512" json:"avatar_url,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for User.
func (User) TableName() string {
	return "users"
}

// GetDisplayName returns the display name, or the platform user id if no
// display name is set.
func (u *User) GetDisplayName() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.PlatformUserID
}

// Validate checks if the user has valid configuration.
func (u *User) Validate() error {
	if u.PlatformUserID == "" {
		return fmt.Errorf("platform user id is required")
	}
	if u.PlatformTeamID == "" {
		return fmt.Errorf("platform team id is required")
	}
	return nil
}
