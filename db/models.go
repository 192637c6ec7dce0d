// Package db provides database models and utilities for buildboard.
package db

import (
	"time"

	"github.com/google/uuid"
)

type BaseModel struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type MigrationModel struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"not null;unique"`
	AppliedAt time.Time
}

func (MigrationModel) TableName() string {
	return "migrations"
}

type ServerModel struct {
	BaseModel
	Name string `gorm:"not null;unique;check:name <> ''"` // slug of the name given on ingestion
	URL  string `gorm:"not null"`

	Projects []ProjectModel `gorm:"foreignKey:ServerID;constraint:OnDelete:CASCADE"`
}

func (ServerModel) TableName() string {
	return "servers"
}

type ProjectModel struct {
	BaseModel
	Name             string    `gorm:"not null;uniqueIndex:idx_projects_identity;check:name <> ''"`
	ServerID         uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_projects_identity"`
	DB               string    `gorm:"column:db;not null;index:idx_projects_version_db,priority:2"`
	Version          string    `gorm:"not null;index:idx_projects_version_db,priority:1"`
	Category         string    `gorm:"not null"`
	Activity         string    `gorm:"not null"`
	Status           string    `gorm:"not null"` // success, rebuilding, failure, down or the raw value reported
	LastBuilt        *time.Time
	LastSHA          string `gorm:"column:last_sha;not null"`
	WebURL           string `gorm:"column:web_url;not null"`
	IncludedInStatus bool   `gorm:"not null"` // set on creation, toggled only by operators

	Server ServerModel `gorm:"foreignKey:ServerID;constraint:OnDelete:CASCADE"`
}

func (ProjectModel) TableName() string {
	return "projects"
}
