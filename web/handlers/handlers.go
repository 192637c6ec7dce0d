// Package handlers implements the read-only JSON API over the rollup.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/buildboard/buildboard/display"
	"github.com/buildboard/buildboard/domain"
	"github.com/buildboard/buildboard/repository"
	"github.com/buildboard/buildboard/rollup"
	"github.com/google/uuid"
)

// TreeSource supplies the most recently computed rollup
type TreeSource interface {
	Current() *rollup.Tree
}

// Handlers serves the API from a cached tree and the project store
type Handlers struct {
	Tree       TreeSource
	Projects   repository.ProjectRepository
	Categories *display.Registry
	Links      display.Links
	Version    string
}

// ProjectView is a record with its derived links
type ProjectView struct {
	ID            uuid.UUID     `json:"id"`
	Name          string        `json:"name"`
	ServerID      uuid.UUID     `json:"server_id"`
	Version       string        `json:"version"`
	Database      string        `json:"db"`
	Category      string        `json:"category"`
	CategoryTitle string        `json:"category_title"`
	Activity      string        `json:"activity"`
	Status        domain.Status `json:"status"`
	LastBuilt     string        `json:"last_built,omitempty"`
	LastSHA       string        `json:"last_sha,omitempty"`
	WebURL        string        `json:"web_url,omitempty"`
	CommitURL     string        `json:"commit_url,omitempty"`
	Included      bool          `json:"included_in_status"`
}

type VersionView struct {
	Status domain.Status                     `json:"status,omitempty"`
	DBs    map[string]map[string]ProjectView `json:"dbs"`
}

type TreeView struct {
	Status   domain.Status          `json:"status,omitempty"`
	Versions map[string]VersionView `json:"versions"`
}

func (h *Handlers) projectView(p *domain.Project) ProjectView {
	v := ProjectView{
		ID:            p.ID,
		Name:          p.Name,
		ServerID:      p.ServerID,
		Version:       p.Version,
		Database:      p.Database,
		Category:      p.Category,
		CategoryTitle: h.Categories.Title(p.Category),
		Activity:      p.Activity,
		Status:        p.Status,
		LastBuilt:     p.LastBuiltStr(),
		LastSHA:       p.LastSHA,
		WebURL:        display.ProjectWebURL(p),
		Included:      p.IncludedInStatus,
	}
	if p.LastSHA != "" {
		v.CommitURL = h.Links.ProjectCommitURL(p)
	}
	return v
}

func (h *Handlers) treeView(tree *rollup.Tree) TreeView {
	view := TreeView{
		Status:   tree.Status,
		Versions: make(map[string]VersionView, len(tree.Versions)),
	}
	for name, version := range tree.Versions {
		vv := VersionView{
			Status: version.Status,
			DBs:    make(map[string]map[string]ProjectView, len(version.DBs)),
		}
		for db, categories := range version.DBs {
			cells := make(map[string]ProjectView, len(categories))
			for category, p := range categories {
				cells[category] = h.projectView(p)
			}
			vv.DBs[db] = cells
		}
		view.Versions[name] = vv
	}
	return view
}

// Health reports liveness
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		LogOperationError("health_check", "web", err)
	}
}

// Status returns the cached rollup, limited to the requested versions
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	tree := h.Tree.Current().Filter(QueryVersions(r)...)
	WriteJSON(w, http.StatusOK, h.treeView(tree), "get_status")
}

// Versions lists the distinct version labels in the store
func (h *Handlers) Versions(w http.ResponseWriter, r *http.Request) {
	versions, err := h.Projects.Versions()
	if err != nil {
		LogOperationError("list_versions", "web", err)
		WriteError(w, http.StatusInternalServerError, "failed to list versions")
		return
	}
	if versions == nil {
		versions = []string{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"versions": versions, "app_version": h.Version}, "list_versions")
}

// ListProjects lists stored records, optionally filtered by version
func (h *Handlers) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Projects.ListByVersions(QueryVersions(r)...)
	if err != nil {
		LogOperationError("list_projects", "web", err)
		WriteError(w, http.StatusInternalServerError, "failed to list projects")
		return
	}

	views := make([]ProjectView, len(projects))
	for i, p := range projects {
		views[i] = h.projectView(p)
	}
	WriteJSON(w, http.StatusOK, map[string]any{"projects": views}, "list_projects")
}

// QueryVersions collects ?version= values; each may hold a comma separated list
func QueryVersions(r *http.Request) []string {
	var versions []string
	for _, raw := range r.URL.Query()["version"] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				versions = append(versions, v)
			}
		}
	}
	return versions
}

// WriteJSON encodes body as the response
func WriteJSON(w http.ResponseWriter, status int, body any, operation string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		LogOperationError(operation, "web", err)
	}
}

// WriteError responds with {"error": message}
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message}, "write_error")
}

// LogOperationError logs errors with consistent format
func LogOperationError(operation, layer string, err error, fields ...any) {
	args := []any{"layer", layer, "operation", operation, "error", err}
	args = append(args, fields...)
	slog.Error("Operation failed", args...)
}
