package models

import (
	"fmt"
	"time"
)

// Project represents a collaborative workspace bound to a single chat
// channel. The channel binding is exclusive: one channel hosts at most one
// project, and membership of that channel is what grants access to the
// project's files.
type Project struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"not null;size:255" json:"name"`
	TeamID    string    `gorm:"not null;size:64;index" json:"team_id"`
	ChannelID string    `gorm:"uniqueIndex;not null;size:64" json:"channel_id"`
	CreatedBy string    `gorm:"size:36" json:"created_by,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for Project.
func (Project) TableName() string {
	return "projects"
}

// Validate checks if the project has valid configuration.
func (p *Project) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("project name is required")
	}
	if p.ChannelID == "" {
		return fmt.Errorf("channel id is required")
	}
	if p.TeamID == "" {
		return fmt.Errorf("team id is required")
	}
	return nil
}
