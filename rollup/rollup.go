// Package rollup folds project records into a per-version status tree.
package rollup

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/buildboard/buildboard/domain"
)

// Comparator orders records; it returns a negative number when a sorts before b.
// For every (version, database, category) cell the record that sorts last is kept.
type Comparator func(a, b *domain.Project) int

// Cell orders understood by OrderByName.
const (
	OrderStored    = "stored"
	OrderLastBuilt = "last_built"
)

// DefaultOrder sorts by version, then database. Records sharing a cell
// compare equal, so the one stored last keeps it.
func DefaultOrder(a, b *domain.Project) int {
	if c := cmp.Compare(a.Version, b.Version); c != 0 {
		return c
	}
	return cmp.Compare(a.Database, b.Database)
}

// ByLastBuilt extends DefaultOrder with build time, unknown times first,
// so the most recently built record of a cell wins.
func ByLastBuilt(a, b *domain.Project) int {
	if c := DefaultOrder(a, b); c != 0 {
		return c
	}
	return compareBuilt(a.LastBuilt, b.LastBuilt)
}

// OrderByName returns the comparator for a configured cell order.
// An empty name selects DefaultOrder.
func OrderByName(name string) (Comparator, error) {
	switch name {
	case "", OrderStored:
		return DefaultOrder, nil
	case OrderLastBuilt:
		return ByLastBuilt, nil
	default:
		return nil, fmt.Errorf("unknown cell order %q (must be %s or %s)", name, OrderStored, OrderLastBuilt)
	}
}

func compareBuilt(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return a.Compare(*b)
	}
}

// Categories maps a category to the record shown for it
type Categories map[string]*domain.Project

// Version is the rollup of one version label
type Version struct {
	// Status is empty when no record of the version counts towards the rollup
	Status domain.Status `json:"status,omitempty"`
	// DBs maps database, then category, to a single record
	DBs map[string]Categories `json:"dbs"`
}

// Tree is the aggregated view over all records
type Tree struct {
	// Status is empty when no record counts towards the rollup
	Status   domain.Status       `json:"status,omitempty"`
	Versions map[string]*Version `json:"versions,omitempty"`
}

// Aggregate builds the rollup tree for records. A nil order means DefaultOrder.
// The input slice is not modified.
func Aggregate(records []*domain.Project, order Comparator) *Tree {
	if order == nil {
		order = DefaultOrder
	}

	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, order)

	tree := &Tree{}
	for i := len(sorted) - 1; i >= 0; i-- {
		tree.add(sorted[i])
	}
	return tree
}

// add places p in its cell unless a later-sorted record already holds it, and
// folds its status into the rollups when it is included
func (t *Tree) add(p *domain.Project) {
	if t.Versions == nil {
		t.Versions = make(map[string]*Version)
	}
	v, ok := t.Versions[p.Version]
	if !ok {
		v = &Version{DBs: make(map[string]Categories)}
		t.Versions[p.Version] = v
	}
	cats, ok := v.DBs[p.Database]
	if !ok {
		cats = make(Categories)
		v.DBs[p.Database] = cats
	}
	if _, taken := cats[p.Category]; !taken {
		cats[p.Category] = p
	}

	if p.IncludedInStatus {
		v.Status = domain.Worst(v.Status, p.Status)
		t.Status = domain.Worst(t.Status, p.Status)
	}
}

// VersionNames returns the version labels of the tree in sorted order
func (t *Tree) VersionNames() []string {
	names := make([]string, 0, len(t.Versions))
	for name := range t.Versions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Filter returns a tree holding only the given versions, with the global
// status recomputed from their statuses. No versions means all of them.
func (t *Tree) Filter(versions ...string) *Tree {
	if len(versions) == 0 {
		return t
	}

	filtered := &Tree{}
	for _, name := range versions {
		v, ok := t.Versions[name]
		if !ok {
			continue
		}
		if filtered.Versions == nil {
			filtered.Versions = make(map[string]*Version)
		}
		filtered.Versions[name] = v
		if v.Status != "" {
			filtered.Status = domain.Worst(filtered.Status, v.Status)
		}
	}
	return filtered
}

// Cell returns the record shown for a (version, database, category) triple
func (t *Tree) Cell(version, database, category string) (*domain.Project, bool) {
	v, ok := t.Versions[version]
	if !ok {
		return nil, false
	}
	p, ok := v.DBs[database][category]
	return p, ok
}
