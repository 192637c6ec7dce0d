package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/buildboard/buildboard/domain"
	"github.com/buildboard/buildboard/repository"
	"github.com/google/uuid"
	"github.com/ubuntu/decorate"
)

// Apply derives every normalized field of project from report.
// Name, ServerID and IncludedInStatus are left untouched.
func Apply(project *domain.Project, report Report, loc *time.Location) error {
	parts, err := domain.ParseName(report.Name)
	if err != nil {
		return err
	}

	activity, status := domain.NormalizeActivity(report.Activity, report.LastBuildStatus)

	project.Activity = activity
	project.Status = status
	project.Database = parts.Database
	project.Version = parts.Version
	project.Category = parts.Category
	project.LastBuilt = domain.ParseLastBuilt(report.LastBuildTime, loc)
	project.LastSHA = domain.ShortSHA(report.LastBuildLabel)
	project.WebURL = report.WebURL
	return nil
}

// Service upserts reports into the project repository
type Service struct {
	projects repository.ProjectRepository
	location *time.Location
	locks    *keyedMutex
}

// NewService creates an ingestion service. Build times are interpreted in loc.
func NewService(projects repository.ProjectRepository, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		projects: projects,
		location: loc,
		locks:    newKeyedMutex(),
	}
}

// Upsert applies report to the project identified by (report.Name, serverID),
// creating it if it was never seen. Calls for the same identity are serialized.
func (s *Service) Upsert(ctx context.Context, serverID uuid.UUID, report Report) (*domain.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(identityKey(report.Name, serverID))
	defer unlock()

	var result *domain.Project
	err := s.projects.Transaction(func(repo repository.ProjectRepository) error {
		project, err := repo.FindByIdentity(report.Name, serverID)
		isNew := errors.Is(err, repository.ErrNotFound)
		if err != nil && !isNew {
			return fmt.Errorf("looking up project %q: %w", report.Name, err)
		}
		if isNew {
			p := domain.NewProject(report.Name, serverID)
			project = &p
		}

		if err := Apply(project, report, s.location); err != nil {
			return err
		}

		if isNew {
			created, err := repo.Create(project)
			if err != nil {
				return fmt.Errorf("creating project %q: %w", report.Name, err)
			}
			result = created
			return nil
		}

		if err := repo.UpdateDerived(project); err != nil {
			return fmt.Errorf("updating project %q: %w", report.Name, err)
		}
		// Re-read so fields left alone by the update reflect the stored row
		stored, err := repo.FindByID(project.ID)
		if err != nil {
			return fmt.Errorf("reloading project %q: %w", report.Name, err)
		}
		result = stored
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("Project updated from report",
		"layer", "ingest",
		"project_name", result.Name,
		"server_id", serverID,
		"version", result.Version,
		"status", result.Status.String())
	return result, nil
}

// Rejection records a report that could not be ingested
type Rejection struct {
	Name string
	Err  error
}

// BatchResult summarizes the ingestion of a set of reports
type BatchResult struct {
	Updated  []*domain.Project
	Rejected []Rejection
}

// IngestBatch upserts every report. Reports with malformed names are
// rejected individually; any other failure aborts the batch.
func (s *Service) IngestBatch(ctx context.Context, serverID uuid.UUID, reports []Report) (result BatchResult, err error) {
	defer decorate.OnError(&err, "ingesting %d reports for server %s", len(reports), serverID)

	for _, report := range reports {
		project, err := s.Upsert(ctx, serverID, report)
		if errors.Is(err, domain.ErrMalformedName) {
			slog.Warn("Rejected report",
				"layer", "ingest",
				"project_name", report.Name,
				"server_id", serverID,
				"error", err)
			result.Rejected = append(result.Rejected, Rejection{Name: report.Name, Err: err})
			continue
		}
		if err != nil {
			return result, err
		}
		result.Updated = append(result.Updated, project)
	}

	slog.Info("Reports ingested",
		"layer", "ingest",
		"server_id", serverID,
		"updated", len(result.Updated),
		"rejected", len(result.Rejected))
	return result, nil
}

func identityKey(name string, serverID uuid.UUID) string {
	return serverID.String() + "/" + name
}

// keyedMutex hands out one lock per key and forgets keys nobody holds
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

func (k *keyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
