package serve

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/buildboard/buildboard/cmd/test"
	"github.com/buildboard/buildboard/domain"
	"github.com/buildboard/buildboard/ingest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeHTTP(t *testing.T) {
	a := test.NewApp(t)
	test.Seed(t, a, "ci", ingest.Report{Name: "pg-vmdb", LastBuildStatus: "Failure"})
	require.NoError(t, a.Refresher.Refresh())

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serveHTTP(ctx, a, listener) }()

	base := "http://" + listener.Addr().String()

	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/api/status")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		body = string(data)
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)
	assert.Contains(t, body, `"status":"failure"`)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRun_InboxAndRefresh(t *testing.T) {
	a := test.NewApp(t)
	a.Config.HTTPHost = "127.0.0.1"
	a.Config.HTTPPort = freePort(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, a, true) }()

	require.Eventually(t, func() bool {
		_, err := os.Stat(a.Config.InboxDir)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	staged := filepath.Join(a.Config.InboxDir, ".nightly.yaml")
	require.NoError(t, os.WriteFile(staged, []byte("- name: pg-vmdb\n  lastBuildStatus: Success\n"), 0o644))
	require.NoError(t, os.Rename(staged, filepath.Join(a.Config.InboxDir, "nightly.yaml")))

	assert.Eventually(t, func() bool {
		projects, err := a.Projects.List()
		return err == nil && len(projects) == 1
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, a.Refresher.Refresh())
	assert.Equal(t, domain.StatusSuccess, a.Refresher.Current().Status)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}
