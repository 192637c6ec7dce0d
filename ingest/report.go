// Package ingest turns build reports from CI agents into project records.
package ingest

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ubuntu/decorate"
	"gopkg.in/yaml.v3"
)

// Report is one project's latest build outcome as sent by a CI agent.
// Field names follow the cctray feed format.
type Report struct {
	Name            string `yaml:"name" json:"name" xml:"name,attr"`
	Activity        string `yaml:"activity" json:"activity" xml:"activity,attr"`
	LastBuildStatus string `yaml:"lastBuildStatus" json:"lastBuildStatus" xml:"lastBuildStatus,attr"`
	LastBuildTime   string `yaml:"lastBuildTime" json:"lastBuildTime" xml:"lastBuildTime,attr"`
	LastBuildLabel  string `yaml:"lastBuildLabel" json:"lastBuildLabel" xml:"lastBuildLabel,attr"`
	WebURL          string `yaml:"webUrl" json:"webUrl" xml:"webUrl,attr"`
}

// ReportFromMap builds a Report from raw key/value pairs. Missing keys are empty.
func ReportFromMap(data map[string]string) Report {
	return Report{
		Name:            data["name"],
		Activity:        data["activity"],
		LastBuildStatus: data["lastBuildStatus"],
		LastBuildTime:   data["lastBuildTime"],
		LastBuildLabel:  data["lastBuildLabel"],
		WebURL:          data["webUrl"],
	}
}

type cctrayFeed struct {
	XMLName  xml.Name `xml:"Projects"`
	Projects []Report `xml:"Project"`
}

// reportFile is the YAML/JSON layout: either a bare list or {projects: [...]}
type reportFile struct {
	Projects []Report `yaml:"projects"`
}

// Format identifies how a report file is encoded
type Format string

const (
	FormatYAML   Format = "yaml"
	FormatCCTray Format = "cctray"
)

// FormatForPath picks the format from the file extension
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return FormatCCTray
	default:
		return FormatYAML
	}
}

// LoadReports reads all reports from a YAML, JSON or cctray XML file
func LoadReports(path string) ([]Report, error) {
	return LoadReportsAs(path, FormatForPath(path))
}

// LoadReportsAs reads all reports from path decoded as format
func LoadReportsAs(path string, format Format) (reports []Report, err error) {
	defer decorate.OnError(&err, "could not load reports from %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseReports(data, format)
}

// ParseReports decodes reports. JSON is accepted as YAML.
func ParseReports(data []byte, format Format) ([]Report, error) {
	switch format {
	case FormatCCTray:
		var feed cctrayFeed
		if err := xml.Unmarshal(data, &feed); err != nil {
			return nil, fmt.Errorf("decoding cctray feed: %w", err)
		}
		return feed.Projects, nil
	case FormatYAML:
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return nil, fmt.Errorf("decoding report file: %w", err)
		}
		if len(node.Content) == 0 {
			return nil, nil
		}

		root := node.Content[0]
		if root.Kind == yaml.SequenceNode {
			var reports []Report
			if err := root.Decode(&reports); err != nil {
				return nil, fmt.Errorf("decoding report list: %w", err)
			}
			return reports, nil
		}

		var file reportFile
		if err := root.Decode(&file); err != nil {
			return nil, fmt.Errorf("decoding report file: %w", err)
		}
		return file.Projects, nil
	default:
		return nil, fmt.Errorf("unsupported report format %q", format)
	}
}
