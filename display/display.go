// Package display derives presentation values from project records: category
// titles, artifact links and commit links.
package display

import (
	"fmt"
	"os"
	"strings"

	"github.com/buildboard/buildboard/domain"
	"gopkg.in/yaml.v3"
)

const (
	CategoryMetrics  = "vmdb_metrics"
	CategoryBrakeman = "brakeman"

	DefaultUpstreamCommitURL   = "http://github.com/ManageIQ/manageiq/commit/%s"
	DefaultDownstreamCommitURL = "https://code.engineering.redhat.com/gerrit/gitweb?p=cfme.git;a=commitdiff;h=%s"
)

// Category describes one build category
type Category struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// Registry is the immutable set of known categories
type Registry struct {
	categories map[string]Category
}

// NewRegistry copies categories into a registry
func NewRegistry(categories map[string]Category) *Registry {
	r := &Registry{categories: make(map[string]Category, len(categories))}
	for name, c := range categories {
		r.categories[name] = c
	}
	return r
}

// LoadRegistry reads a YAML mapping of category name to either a title or a
// {title, description} object. An empty path yields an empty registry.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return NewRegistry(nil), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read category registry %s: %w", path, err)
	}

	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse category registry %s: %w", path, err)
	}

	categories := make(map[string]Category, len(raw))
	for name, node := range raw {
		var c Category
		if node.Kind == yaml.ScalarNode {
			c.Title = node.Value
		} else if err := node.Decode(&c); err != nil {
			return nil, fmt.Errorf("invalid category %q in %s: %w", name, path, err)
		}
		categories[name] = c
	}
	return NewRegistry(categories), nil
}

// Lookup returns the registered category
func (r *Registry) Lookup(name string) (Category, bool) {
	c, ok := r.categories[name]
	return c, ok
}

// Title returns the display title of a category, falling back to its name
func (r *Registry) Title(name string) string {
	if c, ok := r.categories[name]; ok && c.Title != "" {
		return c.Title
	}
	return name
}

// Len returns the number of registered categories
func (r *Registry) Len() int {
	return len(r.categories)
}

// WebURL returns the page to open for a build. Metrics and brakeman builds
// publish an artifact under the build's directory.
func WebURL(category, webURL, lastBuilt string) string {
	switch category {
	case CategoryMetrics:
		return webURL + lastBuilt + "/artifacts/output/index.html"
	case CategoryBrakeman:
		return webURL + lastBuilt + "/artifacts/brakeman.html"
	default:
		return webURL
	}
}

// ProjectWebURL is WebURL for a stored record
func ProjectWebURL(p *domain.Project) string {
	return WebURL(p.Category, p.WebURL, p.LastBuiltStr())
}

// Links holds the commit URL templates; each contains a single %s for the SHA
type Links struct {
	UpstreamCommitURL   string
	DownstreamCommitURL string
}

// DefaultLinks returns the public mirror and review system templates
func DefaultLinks() Links {
	return Links{
		UpstreamCommitURL:   DefaultUpstreamCommitURL,
		DownstreamCommitURL: DefaultDownstreamCommitURL,
	}
}

// CommitURL links a SHA to the public mirror for upstream builds and to the
// review system for every other version
func (l Links) CommitURL(version, sha string) string {
	tmpl := l.DownstreamCommitURL
	if version == domain.UpstreamVersion {
		tmpl = l.UpstreamCommitURL
	}
	if !strings.Contains(tmpl, "%s") {
		return tmpl + sha
	}
	return fmt.Sprintf(tmpl, sha)
}

// ProjectCommitURL is CommitURL for a stored record
func (l Links) ProjectCommitURL(p *domain.Project) string {
	return l.CommitURL(p.Version, p.LastSHA)
}
