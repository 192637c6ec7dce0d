// Package domain provides core domain types and normalization rules for buildboard.
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// UpstreamVersion is the version label of projects named without a version segment
	UpstreamVersion = "upstream"

	nameSeparator = "-"
	versionSuffix = ".x"
	shaLength     = 8
)

// ErrMalformedName is returned for project names with fewer than two segments
var ErrMalformedName = errors.New("malformed project name")

// Server is a CI agent that reports the status of its projects
type Server struct {
	ID        uuid.UUID
	Name      string
	URL       string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Project is the normalized state of one project on one server.
// (Name, ServerID) identifies it.
type Project struct {
	ID               uuid.UUID
	Name             string
	ServerID         uuid.UUID
	Database         string
	Version          string
	Category         string
	Activity         string
	Status           Status
	LastBuilt        *time.Time
	LastSHA          string
	WebURL           string
	IncludedInStatus bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewProject returns a record for a name seen for the first time on a server.
// New records count towards the status rollup.
func NewProject(name string, serverID uuid.UUID) Project {
	return Project{
		ID:               uuid.New(),
		Name:             name,
		ServerID:         serverID,
		IncludedInStatus: true,
	}
}

// LastBuiltStr formats LastBuilt the way build artifact paths expect it
func (p *Project) LastBuiltStr() string {
	if p.LastBuilt == nil {
		return ""
	}
	return p.LastBuilt.Format("2006-01-02 15:04:05 -0700")
}

// NameParts is the decomposition of a project name
type NameParts struct {
	Database string
	Version  string
	Category string
}

// ParseName splits a name such as "pg-vmdb" or "pg-5_2-vmdb" into its parts.
// Two segments denote an upstream project; otherwise the second segment is
// the version, with underscores turned into dots and ".x" appended.
func ParseName(name string) (NameParts, error) {
	segments := strings.Split(name, nameSeparator)
	switch {
	case len(segments) < 2:
		return NameParts{}, fmt.Errorf("%w: %q", ErrMalformedName, name)
	case len(segments) == 2:
		return NameParts{
			Database: segments[0],
			Version:  UpstreamVersion,
			Category: segments[1],
		}, nil
	default:
		return NameParts{
			Database: segments[0],
			Version:  strings.ReplaceAll(segments[1], "_", ".") + versionSuffix,
			Category: strings.Join(segments[2:], nameSeparator),
		}, nil
	}
}

// ShortSHA returns the first eight characters of a build label
func ShortSHA(label string) string {
	runes := []rune(label)
	if len(runes) <= shaLength {
		return label
	}
	return string(runes[:shaLength])
}
