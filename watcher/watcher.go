// Package watcher keeps a recomputed rollup tree for readers that must not hit the database.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/buildboard/buildboard/domain"
	"github.com/buildboard/buildboard/rollup"
)

// ProjectLister is the read side of the project store the refresher needs
type ProjectLister interface {
	List() ([]*domain.Project, error)
}

type RefreshService struct {
	projects ProjectLister
	order    rollup.Comparator
	interval time.Duration

	mu        sync.RWMutex
	current   *rollup.Tree
	refreshed time.Time
}

func NewRefreshService(projects ProjectLister, order rollup.Comparator, interval time.Duration) *RefreshService {
	return &RefreshService{
		projects: projects,
		order:    order,
		interval: interval,
		current:  &rollup.Tree{},
	}
}

// Start refreshes immediately and then on every tick until ctx is done
func (w *RefreshService) Start(ctx context.Context) error {
	slog.Info("Rollup refresher starting", "refresh_interval", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	if err := w.Refresh(); err != nil {
		slog.Error("Initial rollup refresh failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("Rollup refresher shutting down")
			return nil
		case <-ticker.C:
			if err := w.Refresh(); err != nil {
				slog.Error("Rollup refresh failed", "error", err)
			}
		}
	}
}

// Refresh recomputes the tree from the store. On failure the previous tree is kept.
func (w *RefreshService) Refresh() error {
	records, err := w.projects.List()
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}

	tree := rollup.Aggregate(records, w.order)

	w.mu.Lock()
	previous := w.current
	w.current = tree
	w.refreshed = time.Now()
	w.mu.Unlock()

	logTransitions(previous, tree)

	slog.Debug("Rollup refreshed",
		"records", len(records),
		"versions", len(tree.Versions),
		"status", tree.Status.String())

	return nil
}

// Current returns the latest tree. Callers must treat it as read-only.
func (w *RefreshService) Current() *rollup.Tree {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// RefreshedAt returns when the tree was last recomputed; zero before the first refresh
func (w *RefreshService) RefreshedAt() time.Time {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.refreshed
}

func logTransitions(previous, next *rollup.Tree) {
	if previous.Status != next.Status {
		slog.Info("Overall status changed",
			"from", previous.Status.String(),
			"to", next.Status.String())
	}

	for _, name := range next.VersionNames() {
		var from domain.Status
		if v, ok := previous.Versions[name]; ok {
			from = v.Status
		}
		if to := next.Versions[name].Status; from != to {
			slog.Info("Version status changed",
				"version", name,
				"from", from.String(),
				"to", to.String())
		}
	}
}
