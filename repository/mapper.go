// Package repository provides the data access layer for servers and projects.
package repository

import (
	"github.com/buildboard/buildboard/db"
	"github.com/buildboard/buildboard/domain"
)

type ProjectMapper struct{}

func (m *ProjectMapper) ToDomain(p *db.ProjectModel) *domain.Project {
	return &domain.Project{
		ID:               p.ID,
		Name:             p.Name,
		ServerID:         p.ServerID,
		Database:         p.DB,
		Version:          p.Version,
		Category:         p.Category,
		Activity:         p.Activity,
		Status:           domain.Status(p.Status),
		LastBuilt:        p.LastBuilt,
		LastSHA:          p.LastSHA,
		WebURL:           p.WebURL,
		IncludedInStatus: p.IncludedInStatus,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func (m *ProjectMapper) ToModel(p *domain.Project) *db.ProjectModel {
	return &db.ProjectModel{
		BaseModel: db.BaseModel{
			ID:        p.ID,
			CreatedAt: p.CreatedAt,
			UpdatedAt: p.UpdatedAt,
		},
		Name:             p.Name,
		ServerID:         p.ServerID,
		DB:               p.Database,
		Version:          p.Version,
		Category:         p.Category,
		Activity:         p.Activity,
		Status:           p.Status.String(),
		LastBuilt:        p.LastBuilt,
		LastSHA:          p.LastSHA,
		WebURL:           p.WebURL,
		IncludedInStatus: p.IncludedInStatus,
	}
}

type ServerMapper struct{}

func (m *ServerMapper) ToDomain(s *db.ServerModel) *domain.Server {
	return &domain.Server{
		ID:        s.ID,
		Name:      s.Name,
		URL:       s.URL,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func (m *ServerMapper) ToModel(s *domain.Server) *db.ServerModel {
	return &db.ServerModel{
		BaseModel: db.BaseModel{
			ID:        s.ID,
			CreatedAt: s.CreatedAt,
			UpdatedAt: s.UpdatedAt,
		},
		Name: s.Name,
		URL:  s.URL,
	}
}
