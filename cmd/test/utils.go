// Package test provides helpers for testing buildboard CLI commands
package test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/buildboard/buildboard/app"
	"github.com/buildboard/buildboard/config"
	"github.com/buildboard/buildboard/db"
	"github.com/buildboard/buildboard/domain"
	"github.com/buildboard/buildboard/ingest"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// NewApp returns an application backed by a private in-memory database
func NewApp(t *testing.T) *app.App {
	t.Helper()
	dir := t.TempDir()
	a, err := app.New(&config.Config{
		DataDir:         dir,
		DatabasePath:    db.MemoryPath,
		LogLevel:        "silent",
		RefreshInterval: time.Minute,
		Location:        time.UTC,
		InboxDir:        filepath.Join(dir, "inbox"),
		DefaultServer:   "default",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

// Provider adapts a fixed application to the command constructors
func Provider(a *app.App) func() *app.App {
	return func() *app.App { return a }
}

// Seed ingests reports for the named server
func Seed(t *testing.T, a *app.App, serverName string, reports ...ingest.Report) *domain.Server {
	t.Helper()
	server, err := a.ResolveServer(serverName)
	require.NoError(t, err)
	_, err = a.Ingest.IngestBatch(context.Background(), server.ID, reports)
	require.NoError(t, err)
	return server
}

// Execute runs cmd with args and returns what it wrote to stdout
func Execute(cmd *cobra.Command, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}
