// Package output provides functions to print messages with optional color formatting
package output

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/buildboard/buildboard/display"
	"github.com/buildboard/buildboard/domain"
	"github.com/buildboard/buildboard/rollup"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

const (
	Plain   = color.FgWhite
	Success = color.FgGreen
	Warning = color.FgYellow
	Error   = color.FgRed
)

var maybeColorize func(kind color.Attribute, tmpl string, a ...any) string

// InitColors sets up color functions based on environment
func InitColors(isColorDisabled bool) {
	if color.NoColor || isColorDisabled {
		maybeColorize = func(kind color.Attribute, tmpl string, a ...any) string {
			return fmt.Sprintf(tmpl, a...)
		}
	} else {
		maybeColorize = func(kind color.Attribute, tmpl string, a ...any) string {
			return color.New(kind).SprintfFunc()(tmpl, a...)
		}
	}
}

// Colorize formats a message in the given color when colors are enabled
func Colorize(kind color.Attribute, tmpl string, a ...any) string {
	if maybeColorize == nil || kind == Plain {
		return fmt.Sprintf(tmpl, a...)
	}
	return maybeColorize(kind, tmpl, a...)
}

// PrintMessage formats a message with color (if enabled) and a trailing newline
func PrintMessage(kind color.Attribute, tmpl string, a ...any) string {
	return Colorize(kind, tmpl, a...) + "\n"
}

// Fprint writes a colored message line to w
func Fprint(w io.Writer, kind color.Attribute, tmpl string, a ...any) error {
	_, err := io.WriteString(w, PrintMessage(kind, tmpl, a...))
	return err
}

// StatusColor maps a build status to its terminal color
func StatusColor(s domain.Status) color.Attribute {
	switch s {
	case domain.StatusSuccess:
		return Success
	case domain.StatusRebuilding:
		return Warning
	case domain.StatusFailure, domain.StatusDown:
		return Error
	default:
		return Plain
	}
}

// FormatStatus renders a status in its color; empty statuses render as "-"
func FormatStatus(s domain.Status) string {
	if s == "" {
		return "-"
	}
	return Colorize(StatusColor(s), "%s", s.String())
}

// FormatBuilt renders a build time relative to now
func FormatBuilt(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return humanize.Time(*t)
}

func PrintTable(header []string, data [][]string) (string, error) {
	buf := strings.Builder{}

	table := tablewriter.NewTable(
		&buf,
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines: tw.Lines{
					ShowHeaderLine: tw.Off,
				},
				Separators: tw.Separators{
					BetweenColumns: tw.Off,
				},
			},
		})),
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
		}))

	if len(header) > 0 {
		table.Header(header)
	}

	if err := table.Bulk(data); err != nil {
		return "", fmt.Errorf("bulk adding data to table: %w", err)
	}

	if err := table.Render(); err != nil {
		return "", fmt.Errorf("rendering table: %w", err)
	}

	return buf.String(), nil
}

// PrintStatusTree renders the overall status, one line per version and a
// table of the records shown in each cell
func PrintStatusTree(tree *rollup.Tree, categories *display.Registry) (string, error) {
	if len(tree.Versions) == 0 {
		return PrintMessage(Plain, "No builds reported."), nil
	}

	var b strings.Builder
	b.WriteString(PrintMessage(Plain, "Overall: %s", FormatStatus(tree.Status)))
	for _, name := range tree.VersionNames() {
		b.WriteString(PrintMessage(Plain, "  %-10s %s", name, FormatStatus(tree.Versions[name].Status)))
	}
	b.WriteString("\n")

	header := []string{"Version", "DB", "Category", "Status", "Activity", "Built", "SHA"}
	var data [][]string
	for _, name := range tree.VersionNames() {
		version := tree.Versions[name]
		for _, db := range sortedKeys(version.DBs) {
			cells := version.DBs[db]
			for _, category := range sortedKeys(cells) {
				p := cells[category]
				status := FormatStatus(p.Status)
				if !p.IncludedInStatus {
					status += " (excluded)"
				}
				data = append(data, []string{
					name,
					db,
					categories.Title(category),
					status,
					p.Activity,
					FormatBuilt(p.LastBuilt),
					p.LastSHA,
				})
			}
		}
	}

	table, err := PrintTable(header, data)
	if err != nil {
		return "", fmt.Errorf("printing status table: %w", err)
	}
	b.WriteString(table)
	return b.String(), nil
}

func PrintProjectList(projects []*domain.Project, servers map[string]string) (string, error) {
	if len(projects) == 0 {
		return PrintMessage(Plain, "No projects found."), nil
	}

	header := []string{"Name", "Server", "Version", "DB", "Category", "Status", "Included", "Built"}
	var data [][]string
	for _, p := range projects {
		included := "yes"
		if !p.IncludedInStatus {
			included = "no"
		}
		data = append(data, []string{
			p.Name,
			servers[p.ServerID.String()],
			p.Version,
			p.Database,
			p.Category,
			FormatStatus(p.Status),
			included,
			FormatBuilt(p.LastBuilt),
		})
	}

	table, err := PrintTable(header, data)
	if err != nil {
		return "", fmt.Errorf("printing project list table: %w", err)
	}
	return table, nil
}

func PrintServerList(servers []*domain.Server) (string, error) {
	if len(servers) == 0 {
		return PrintMessage(Plain, "No servers registered."), nil
	}

	header := []string{"Name", "URL", "ID", "Registered"}
	var data [][]string
	for _, s := range servers {
		data = append(data, []string{
			s.Name,
			s.URL,
			s.ID.String(),
			humanize.Time(s.CreatedAt),
		})
	}

	table, err := PrintTable(header, data)
	if err != nil {
		return "", fmt.Errorf("printing server list table: %w", err)
	}
	return table, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// CLI flag for disabling color output

// NoColor is a flag that can be used to disable colored output in the CLI.
var NoColor = &noColorFlag{set: false}

type noColorFlag struct {
	set bool
}

func (f *noColorFlag) Set(value string) error {
	// Boolean flag; the value is ignored
	f.set = true
	return nil
}

func (f *noColorFlag) String() string {
	if f.set {
		return "true"
	}
	return "false"
}

func (f *noColorFlag) Type() string {
	return "bool"
}

// IsSet returns true if the --no-color flag was explicitly set
func (f *noColorFlag) IsSet() bool {
	return f.set
}

// IsBoolFlag tells pflag this is a boolean flag (no argument required)
func (f *noColorFlag) IsBoolFlag() bool {
	return true
}
