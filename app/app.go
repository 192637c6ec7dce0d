// Package app wires the database, repositories and services of buildboard.
package app

import (
	"fmt"
	"os"

	"github.com/buildboard/buildboard/config"
	"github.com/buildboard/buildboard/db"
	"github.com/buildboard/buildboard/display"
	"github.com/buildboard/buildboard/domain"
	"github.com/buildboard/buildboard/inbox"
	"github.com/buildboard/buildboard/ingest"
	"github.com/buildboard/buildboard/repository"
	"github.com/buildboard/buildboard/rollup"
	"github.com/buildboard/buildboard/watcher"
	"gorm.io/gorm"
)

// Version is set at build time via -ldflags
var Version = "dev"

// App holds the initialized components for one process
type App struct {
	Config *config.Config
	DB     *gorm.DB

	Projects repository.ProjectRepository
	Servers  repository.ServerRepository

	Ingest     *ingest.Service
	Categories *display.Registry
	Links      display.Links
	Refresher  *watcher.RefreshService
}

// New opens the database and builds every service from cfg
func New(cfg *config.Config) (*App, error) {
	if cfg.DatabasePath != db.MemoryPath {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	database, err := db.InitDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	categories, err := display.LoadRegistry(cfg.CategoriesPath)
	if err != nil {
		return nil, err
	}

	return newWithDB(cfg, database, categories), nil
}

func newWithDB(cfg *config.Config, database *gorm.DB, categories *display.Registry) *App {
	projects := repository.NewProjectRepository(database)

	return &App{
		Config:     cfg,
		DB:         database,
		Projects:   projects,
		Servers:    repository.NewServerRepository(database),
		Ingest:     ingest.NewService(projects, cfg.Location),
		Categories: categories,
		Links:      cfg.Links(),
		Refresher:  watcher.NewRefreshService(projects, cfg.Order, cfg.RefreshInterval),
	}
}

// ResolveServer finds or registers a server by name
func (a *App) ResolveServer(name string) (*domain.Server, error) {
	return ingest.ResolveServer(a.Servers, name, "")
}

// Inbox returns the drop directory watcher for the configured inbox
func (a *App) Inbox() *inbox.Inbox {
	return inbox.New(a.Config.InboxDir, a.Config.DefaultServer, a.Ingest, a.ResolveServer)
}

// Rollup aggregates the current records, optionally limited to versions
func (a *App) Rollup(versions ...string) (*rollup.Tree, error) {
	var (
		records []*domain.Project
		err     error
	)
	if len(versions) == 0 {
		records, err = a.Projects.List()
	} else {
		records, err = a.Projects.ListByVersions(versions...)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return rollup.Aggregate(records, a.Config.Order), nil
}

// Close releases the database connection
func (a *App) Close() error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
