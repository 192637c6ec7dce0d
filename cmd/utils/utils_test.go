package utils

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/buildboard/buildboard/domain"
	"github.com/buildboard/buildboard/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandError(t *testing.T) {
	var logBuf bytes.Buffer
	originalLogger := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logBuf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer slog.SetDefault(originalLogger)

	err := CommandError("excluding project", fmt.Errorf("project %q: %w", "pg-vmdb", repository.ErrNotFound), "project_name", "pg-vmdb")
	require.Error(t, err)
	assert.Equal(t, `excluding project failed: project "pg-vmdb": record not found`, err.Error())

	logOutput := logBuf.String()
	assert.Contains(t, logOutput, "Command failed")
	assert.Contains(t, logOutput, "excluding project")
	assert.Contains(t, logOutput, "project_name=pg-vmdb")
}

func TestFormatErrorForUser(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "not found", err: fmt.Errorf("server %q: %w", "ci", repository.ErrNotFound), want: `server "ci": record not found`},
		{
			name: "malformed name",
			err:  fmt.Errorf("%w: %q", domain.ErrMalformedName, "vmdb"),
			want: domain.ErrMalformedName.Error() + `: "vmdb"`,
		},
		{name: "unique", err: errors.New("UNIQUE constraint failed: servers.name"), want: "this entry already exists"},
		{name: "missing file", err: errors.New("open reports.yaml: no such file or directory"), want: "file not found"},
		{name: "locked", err: errors.New("database is locked"), want: "database is busy, try again"},
		{name: "other", err: errors.New("invalid server name \"\""), want: "invalid server name \"\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatErrorForUser(tt.err))
		})
	}
}
