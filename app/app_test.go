package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/buildboard/buildboard/config"
	"github.com/buildboard/buildboard/db"
	"github.com/buildboard/buildboard/domain"
	"github.com/buildboard/buildboard/ingest"
	"github.com/buildboard/buildboard/rollup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		DataDir:         dir,
		DatabasePath:    db.MemoryPath,
		LogLevel:        "silent",
		RefreshInterval: time.Minute,
		Location:        time.UTC,
		InboxDir:        filepath.Join(dir, "inbox"),
		DefaultServer:   "default",
	}
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	a, err := New(testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestNew_FileDatabase(t *testing.T) {
	cfg := testConfig(t)
	cfg.DataDir = filepath.Join(cfg.DataDir, "nested", "data")
	cfg.DatabasePath = filepath.Join(cfg.DataDir, "buildboard.db")

	a, err := New(cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.FileExists(t, cfg.DatabasePath)
	assert.Zero(t, a.Categories.Len())
}

func TestNew_BadCategories(t *testing.T) {
	cfg := testConfig(t)
	cfg.CategoriesPath = filepath.Join(cfg.DataDir, "missing.yml")

	_, err := New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "category registry")
}

func TestApp_IngestAndRollup(t *testing.T) {
	a := newTestApp(t)

	server, err := a.ResolveServer("CI 1")
	require.NoError(t, err)
	assert.Equal(t, "ci-1", server.Name)

	result, err := a.Ingest.IngestBatch(context.Background(), server.ID, []ingest.Report{
		{Name: "pg-vmdb", LastBuildStatus: "Success"},
		{Name: "pg-5_2-vmdb", LastBuildStatus: "Failure", Activity: "Building"},
		{Name: "broken"},
	})
	require.NoError(t, err)
	assert.Len(t, result.Updated, 2)
	assert.Len(t, result.Rejected, 1)

	tree, err := a.Rollup()
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRebuilding, tree.Status)
	assert.Equal(t, []string{"5.2.x", "upstream"}, tree.VersionNames())

	filtered, err := a.Rollup("upstream")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, filtered.Status)
	assert.Equal(t, []string{"upstream"}, filtered.VersionNames())

	require.NoError(t, a.Refresher.Refresh())
	assert.Equal(t, domain.StatusRebuilding, a.Refresher.Current().Status)
}

func TestApp_Inbox(t *testing.T) {
	a := newTestApp(t)
	require.NoError(t, os.MkdirAll(a.Config.InboxDir, 0o755))

	path := filepath.Join(a.Config.InboxDir, "box1__nightly.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- name: mysql-vmdb\n  lastBuildStatus: Success\n"), 0o644))

	require.NoError(t, a.Inbox().Process(context.Background(), path))

	server, err := a.Servers.FindByName("box1")
	require.NoError(t, err)
	projects, err := a.Projects.ListByServer(server.ID)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "mysql", projects[0].Database)
}

func TestApp_RollupCellOrder(t *testing.T) {
	ingestTwo := func(t *testing.T, a *App) {
		t.Helper()
		first, err := a.ResolveServer("first")
		require.NoError(t, err)
		second, err := a.ResolveServer("second")
		require.NoError(t, err)

		_, err = a.Ingest.Upsert(context.Background(), first.ID, ingest.Report{
			Name: "pg-vmdb", LastBuildStatus: "Success", LastBuildTime: "2014-03-21T17:12:36.0000000-0400",
		})
		require.NoError(t, err)
		_, err = a.Ingest.Upsert(context.Background(), second.ID, ingest.Report{
			Name: "pg-vmdb", LastBuildStatus: "Failure",
		})
		require.NoError(t, err)
	}

	t.Run("stored order by default", func(t *testing.T) {
		a := newTestApp(t)
		ingestTwo(t, a)

		tree, err := a.Rollup()
		require.NoError(t, err)
		cell, ok := tree.Cell("upstream", "pg", "vmdb")
		require.True(t, ok)
		assert.Nil(t, cell.LastBuilt, "the record stored last owns the cell")
	})

	t.Run("last built when configured", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Order = rollup.ByLastBuilt
		a, err := New(cfg)
		require.NoError(t, err)
		t.Cleanup(func() { _ = a.Close() })
		ingestTwo(t, a)

		tree, err := a.Rollup()
		require.NoError(t, err)
		cell, ok := tree.Cell("upstream", "pg", "vmdb")
		require.True(t, ok)
		assert.NotNil(t, cell.LastBuilt)

		require.NoError(t, a.Refresher.Refresh())
		cell, ok = a.Refresher.Current().Cell("upstream", "pg", "vmdb")
		require.True(t, ok)
		assert.NotNil(t, cell.LastBuilt)
	})
}
