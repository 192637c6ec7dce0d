// Package inbox ingests report files dropped into a directory.
//
// A file named <server>__<anything>.yaml is attributed to <server>; any other
// report file goes to the default server. Writers should create files under a
// dot-prefixed name and rename them into place, since hidden files are ignored.
// Handled files are moved to processed/ or failed/ under the inbox directory.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/buildboard/buildboard/domain"
	"github.com/buildboard/buildboard/ingest"
	"github.com/buildboard/buildboard/logging"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/ubuntu/decorate"
)

const (
	ProcessedDir = "processed"
	FailedDir    = "failed"

	serverSeparator = "__"
)

var reportExtensions = []string{".yaml", ".yml", ".json", ".xml"}

// Ingester stores a batch of reports for a server
type Ingester interface {
	IngestBatch(ctx context.Context, serverID uuid.UUID, reports []ingest.Report) (ingest.BatchResult, error)
}

// ServerResolver returns the server registered under name, creating it if needed
type ServerResolver func(name string) (*domain.Server, error)

type Inbox struct {
	dir           string
	defaultServer string
	ingester      Ingester
	resolve       ServerResolver

	log *slog.Logger
}

func New(dir, defaultServer string, ingester Ingester, resolve ServerResolver) *Inbox {
	return &Inbox{
		dir:           dir,
		defaultServer: defaultServer,
		ingester:      ingester,
		resolve:       resolve,
		log:           logging.Layer("inbox"),
	}
}

// ServerFor returns the server name a report file is attributed to
func (in *Inbox) ServerFor(path string) string {
	base := filepath.Base(path)
	if server, _, ok := strings.Cut(base, serverSeparator); ok && server != "" {
		return server
	}
	return in.defaultServer
}

// IsReportFile reports whether path names a visible file with a report extension
func IsReportFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return slices.Contains(reportExtensions, strings.ToLower(filepath.Ext(base)))
}

// Process ingests one report file and moves it out of the inbox
func (in *Inbox) Process(ctx context.Context, path string) (err error) {
	defer decorate.OnError(&err, "processing inbox file %s", filepath.Base(path))

	result, ingestErr := in.ingestFile(ctx, path)

	target := ProcessedDir
	if ingestErr != nil {
		target = FailedDir
	}
	moved, err := in.move(path, target)
	if err != nil {
		return errors.Join(ingestErr, err)
	}

	if ingestErr != nil {
		in.log.Warn("Report file failed", "file", path, "moved_to", moved, "error", ingestErr)
		return ingestErr
	}

	in.log.Info("Report file processed",
		"file", path,
		"moved_to", moved,
		"updated", len(result.Updated),
		"rejected", len(result.Rejected))
	return nil
}

func (in *Inbox) ingestFile(ctx context.Context, path string) (ingest.BatchResult, error) {
	reports, err := ingest.LoadReports(path)
	if err != nil {
		return ingest.BatchResult{}, err
	}

	server, err := in.resolve(in.ServerFor(path))
	if err != nil {
		return ingest.BatchResult{}, err
	}

	return in.ingester.IngestBatch(ctx, server.ID, reports)
}

// move renames path into the given subdirectory, prefixing a timestamp so
// repeated drops of the same name never collide
func (in *Inbox) move(path, subdir string) (string, error) {
	dir := filepath.Join(in.dir, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}

	stamp := time.Now().UTC().Format("20060102T150405.000000000")
	dest := filepath.Join(dir, stamp+"-"+filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		return "", fmt.Errorf("failed to move %s to %s: %w", path, dir, err)
	}
	return dest, nil
}

// Drain processes every report file already present in the inbox. Failures
// of single files are logged; only a failure to read the directory is returned.
func (in *Inbox) Drain(ctx context.Context) error {
	entries, err := os.ReadDir(in.dir)
	if err != nil {
		return fmt.Errorf("failed to read inbox %s: %w", in.dir, err)
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if entry.IsDir() || !IsReportFile(entry.Name()) {
			continue
		}
		if err := in.Process(ctx, filepath.Join(in.dir, entry.Name())); err != nil {
			in.log.Error("Failed to process inbox file", "file", entry.Name(), "error", err)
		}
	}
	return nil
}

// Watch creates the inbox, drains it and then processes files as they
// appear until ctx is done
func (in *Inbox) Watch(ctx context.Context) error {
	if err := os.MkdirAll(in.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create inbox %s: %w", in.dir, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(in.dir); err != nil {
		return fmt.Errorf("failed to watch inbox %s: %w", in.dir, err)
	}
	in.log.Info("Watching inbox", "dir", in.dir, "default_server", in.defaultServer)

	if err := in.Drain(ctx); err != nil {
		in.log.Warn("Initial inbox drain failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			in.log.Info("Inbox watcher stopped")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed unexpectedly")
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !IsReportFile(event.Name) {
				continue
			}
			// A Write following the Create of a file already moved away
			if _, err := os.Stat(event.Name); errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err := in.Process(ctx, event.Name); err != nil {
				in.log.Error("Failed to process inbox file", "file", event.Name, "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed unexpectedly")
			}
			in.log.Warn("Watcher error", "error", err)
		}
	}
}
