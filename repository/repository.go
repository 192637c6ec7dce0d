package repository

import (
	"errors"
	"log/slog"

	"github.com/buildboard/buildboard/db"
	"github.com/buildboard/buildboard/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("record not found")

type ProjectRepository interface {
	FindByID(id uuid.UUID) (*domain.Project, error)
	FindByIdentity(name string, serverID uuid.UUID) (*domain.Project, error)
	Create(project *domain.Project) (*domain.Project, error)
	Update(project *domain.Project) error
	// UpdateDerived writes only the fields derived from a build report;
	// name, server and the inclusion flag keep their stored values
	UpdateDerived(project *domain.Project) error
	// List returns every project ordered by (version, database)
	List() ([]*domain.Project, error)
	ListByVersions(versions ...string) ([]*domain.Project, error)
	ListByServer(serverID uuid.UUID) ([]*domain.Project, error)
	Versions() ([]string, error)
	Delete(id uuid.UUID) error
	// Transaction runs fn against a repository bound to a single transaction
	Transaction(fn func(ProjectRepository) error) error
}

type projectRepository struct {
	db     *gorm.DB
	mapper *ProjectMapper
}

func (r *projectRepository) toDomain(models []db.ProjectModel) []*domain.Project {
	projects := make([]*domain.Project, len(models))
	for i := range models {
		projects[i] = r.mapper.ToDomain(&models[i])
	}
	return projects
}

func (r *projectRepository) ordered() *gorm.DB {
	return r.db.Order("version").Order("db").Order("created_at").Order("id")
}

func (r *projectRepository) List() ([]*domain.Project, error) {
	var models []db.ProjectModel
	if err := r.ordered().Find(&models).Error; err != nil {
		return nil, err
	}
	return r.toDomain(models), nil
}

func (r *projectRepository) ListByVersions(versions ...string) ([]*domain.Project, error) {
	if len(versions) == 0 {
		return r.List()
	}

	var models []db.ProjectModel
	if err := r.ordered().Where("version IN ?", versions).Find(&models).Error; err != nil {
		return nil, err
	}
	return r.toDomain(models), nil
}

func (r *projectRepository) ListByServer(serverID uuid.UUID) ([]*domain.Project, error) {
	var models []db.ProjectModel
	if err := r.ordered().Where("server_id = ?", serverID).Find(&models).Error; err != nil {
		return nil, err
	}
	return r.toDomain(models), nil
}

func (r *projectRepository) Versions() ([]string, error) {
	var versions []string
	if err := r.db.Model(&db.ProjectModel{}).Distinct("version").Order("version").Pluck("version", &versions).Error; err != nil {
		return nil, err
	}
	return versions, nil
}

func (r *projectRepository) FindByID(id uuid.UUID) (*domain.Project, error) {
	var m db.ProjectModel
	if err := r.db.Where("id = ?", id).First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return r.mapper.ToDomain(&m), nil
}

func (r *projectRepository) FindByIdentity(name string, serverID uuid.UUID) (*domain.Project, error) {
	var m db.ProjectModel
	if err := r.db.Where("name = ? AND server_id = ?", name, serverID).First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return r.mapper.ToDomain(&m), nil
}

func (r *projectRepository) Create(project *domain.Project) (*domain.Project, error) {
	m := r.mapper.ToModel(project)
	if err := r.db.Omit(clause.Associations).Create(m).Error; err != nil {
		slog.Error("Database operation failed",
			"layer", "repository",
			"operation", "create_project",
			"project_name", project.Name,
			"server_id", project.ServerID,
			"error", err)
		return nil, err
	}
	return r.mapper.ToDomain(m), nil
}

func (r *projectRepository) Update(project *domain.Project) error {
	m := r.mapper.ToModel(project)

	// Select("*") writes zero values too, so a cleared LastBuilt becomes NULL
	res := r.db.Model(&db.ProjectModel{}).
		Where("id = ?", m.ID).
		Select("*").
		Omit("created_at", clause.Associations).
		Updates(m)
	if res.Error != nil {
		slog.Error("Database operation failed",
			"layer", "repository",
			"operation", "update_project",
			"project_id", project.ID,
			"error", res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// derivedColumns are the project columns a build report can change
var derivedColumns = []string{
	"db", "version", "category", "activity", "status",
	"last_built", "last_sha", "web_url", "updated_at",
}

func (r *projectRepository) UpdateDerived(project *domain.Project) error {
	m := r.mapper.ToModel(project)

	res := r.db.Model(&db.ProjectModel{}).
		Where("id = ?", m.ID).
		Select(derivedColumns).
		Updates(m)
	if res.Error != nil {
		slog.Error("Database operation failed",
			"layer", "repository",
			"operation", "update_project_derived",
			"project_id", project.ID,
			"error", res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *projectRepository) Delete(id uuid.UUID) error {
	err := r.db.Delete(&db.ProjectModel{}, "id = ?", id).Error
	if err != nil {
		slog.Error("Database operation failed",
			"layer", "repository",
			"operation", "delete_project",
			"project_id", id,
			"error", err)
	}
	return err
}

func (r *projectRepository) Transaction(fn func(ProjectRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&projectRepository{db: tx, mapper: r.mapper})
	})
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{
		db:     db,
		mapper: &ProjectMapper{},
	}
}

type ServerRepository interface {
	FindByID(id uuid.UUID) (*domain.Server, error)
	FindByName(name string) (*domain.Server, error)
	Create(server *domain.Server) (*domain.Server, error)
	List() ([]*domain.Server, error)
}

type serverRepository struct {
	db     *gorm.DB
	mapper *ServerMapper
}

func (r *serverRepository) FindByID(id uuid.UUID) (*domain.Server, error) {
	var m db.ServerModel
	if err := r.db.Where("id = ?", id).First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return r.mapper.ToDomain(&m), nil
}

func (r *serverRepository) FindByName(name string) (*domain.Server, error) {
	var m db.ServerModel
	if err := r.db.Where("name = ?", name).First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return r.mapper.ToDomain(&m), nil
}

func (r *serverRepository) Create(server *domain.Server) (*domain.Server, error) {
	m := r.mapper.ToModel(server)
	if err := r.db.Omit(clause.Associations).Create(m).Error; err != nil {
		slog.Error("Database operation failed",
			"layer", "repository",
			"operation", "create_server",
			"server_name", server.Name,
			"error", err)
		return nil, err
	}
	return r.mapper.ToDomain(m), nil
}

func (r *serverRepository) List() ([]*domain.Server, error) {
	var models []db.ServerModel
	if err := r.db.Order("name").Find(&models).Error; err != nil {
		return nil, err
	}

	servers := make([]*domain.Server, len(models))
	for i := range models {
		servers[i] = r.mapper.ToDomain(&models[i])
	}
	return servers, nil
}

func NewServerRepository(db *gorm.DB) ServerRepository {
	return &serverRepository{
		db:     db,
		mapper: &ServerMapper{},
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
