package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/buildboard/buildboard/display"
	"github.com/buildboard/buildboard/domain"
	"github.com/buildboard/buildboard/rollup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockEnvProvider implements EnvProvider for testing
type MockEnvProvider struct {
	envVars map[string]string
	homeDir string
}

func NewMockEnvProvider(homeDir string, envVars map[string]string) *MockEnvProvider {
	if envVars == nil {
		envVars = make(map[string]string)
	}
	return &MockEnvProvider{envVars: envVars, homeDir: homeDir}
}

func (m *MockEnvProvider) Getenv(key string) string {
	return m.envVars[key]
}

func (m *MockEnvProvider) UserHomeDir() (string, error) {
	return m.homeDir, nil
}

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := NewConfigWithEnv("", NewMockEnvProvider("/home/testuser", nil))
	require.NoError(t, err)

	assert.Equal(t, "/home/testuser/.local/share/buildboard", cfg.DataDir)
	assert.Equal(t, "/home/testuser/.local/share/buildboard/buildboard.db", cfg.DatabasePath)
	assert.Equal(t, "/home/testuser/.local/share/buildboard/inbox", cfg.InboxDir)
	assert.Empty(t, cfg.CategoriesPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.ColorEnabled)
	assert.Equal(t, "127.0.0.1", cfg.HTTPHost)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, time.Minute, cfg.RefreshInterval)
	assert.Equal(t, rollup.OrderStored, cfg.CellOrder)
	require.NotNil(t, cfg.Order)
	assert.Equal(t, time.Local, cfg.Location)
	assert.Equal(t, "default", cfg.DefaultServer)
	assert.Equal(t, display.DefaultLinks(), cfg.Links())
}

func TestNewConfig_XDGDataHome(t *testing.T) {
	env := NewMockEnvProvider("/home/testuser", map[string]string{
		"XDG_DATA_HOME": "/xdg/data",
	})

	cfg, err := NewConfigWithEnv("", env)
	require.NoError(t, err)
	assert.Equal(t, "/xdg/data/buildboard", cfg.DataDir)
	assert.Equal(t, "/xdg/data/buildboard/buildboard.db", cfg.DatabasePath)
}

func TestNewConfig_FromYAML(t *testing.T) {
	cfg, err := NewConfigWithEnv(filepath.Join("testdata", "buildboard.yaml"), NewMockEnvProvider("/home/testuser", nil))
	require.NoError(t, err)

	assert.Equal(t, "/srv/buildboard", cfg.DataDir)
	assert.Equal(t, "/srv/buildboard/buildboard.db", cfg.DatabasePath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.ColorEnabled)
	assert.Equal(t, "0.0.0.0", cfg.HTTPHost)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval)
	assert.Equal(t, "America/New_York", cfg.Location.String())
	assert.Equal(t, "jenkins", cfg.DefaultServer)
	assert.Equal(t, "https://github.example/commit/%s", cfg.UpstreamCommitURL)
	assert.Equal(t, display.DefaultDownstreamCommitURL, cfg.DownstreamCommitURL)
}

func TestNewConfig_EnvOverridesYAML(t *testing.T) {
	env := NewMockEnvProvider("/home/testuser", map[string]string{
		"BUILDBOARD_HTTP_PORT":        "7070",
		"BUILDBOARD_LOG_LEVEL":        "error",
		"BUILDBOARD_COLOR_ENABLED":    "true",
		"BUILDBOARD_REFRESH_INTERVAL": "5m",
		"BUILDBOARD_DATABASE_PATH":    "/tmp/other.db",
		"BUILDBOARD_TIME_ZONE":        "UTC",
	})

	cfg, err := NewConfigWithEnv(filepath.Join("testdata", "buildboard.yaml"), env)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.HTTPPort)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.True(t, cfg.ColorEnabled)
	assert.Equal(t, 5*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, "/tmp/other.db", cfg.DatabasePath)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, "0.0.0.0", cfg.HTTPHost, "unset variables keep the file value")
}

func TestNewConfig_CategoriesPathDefault(t *testing.T) {
	dataDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "project_categories.yml"), []byte("vmdb: VMDB\n"), 0o644))

	env := NewMockEnvProvider("/home/testuser", map[string]string{
		"BUILDBOARD_DATA_DIR": dataDir,
	})
	cfg, err := NewConfigWithEnv("", env)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataDir, "project_categories.yml"), cfg.CategoriesPath)
}

func TestNewConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "unknown log level",
			env:     map[string]string{"BUILDBOARD_LOG_LEVEL": "verbose"},
			wantErr: "invalid log level",
		},
		{
			name:    "port out of range",
			env:     map[string]string{"BUILDBOARD_HTTP_PORT": "70000"},
			wantErr: "invalid HTTP port",
		},
		{
			name:    "port not a number",
			env:     map[string]string{"BUILDBOARD_HTTP_PORT": "http"},
			wantErr: "BUILDBOARD_HTTP_PORT",
		},
		{
			name:    "zero refresh interval",
			env:     map[string]string{"BUILDBOARD_REFRESH_INTERVAL": "0s"},
			wantErr: "refresh interval must be positive",
		},
		{
			name:    "bad refresh interval",
			env:     map[string]string{"BUILDBOARD_REFRESH_INTERVAL": "soon"},
			wantErr: "BUILDBOARD_REFRESH_INTERVAL",
		},
		{
			name:    "unknown time zone",
			env:     map[string]string{"BUILDBOARD_TIME_ZONE": "Mars/Olympus"},
			wantErr: "invalid time zone",
		},
		{
			name:    "unknown cell order",
			env:     map[string]string{"BUILDBOARD_CELL_ORDER": "newest"},
			wantErr: "unknown cell order",
		},
		{
			name:    "bad color flag",
			env:     map[string]string{"BUILDBOARD_COLOR_ENABLED": "sometimes"},
			wantErr: "BUILDBOARD_COLOR_ENABLED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfigWithEnv("", NewMockEnvProvider("/home/testuser", tt.env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewConfig_FileErrors(t *testing.T) {
	env := NewMockEnvProvider("/home/testuser", nil)

	_, err := NewConfigWithEnv(filepath.Join(t.TempDir(), "missing.yaml"), env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("rollup:\n  refresh_interval: often\n"), 0o644))
	_, err = NewConfigWithEnv(bad, env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rollup.refresh_interval")

	garbage := filepath.Join(t.TempDir(), "garbage.yaml")
	require.NoError(t, os.WriteFile(garbage, []byte("http: [1, 2"), 0o644))
	_, err = NewConfigWithEnv(garbage, env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestNewConfig_CellOrder(t *testing.T) {
	never := &domain.Project{Version: "upstream", Database: "pg"}
	built := &domain.Project{Version: "upstream", Database: "pg", LastBuilt: &time.Time{}}

	cfg, err := NewConfigWithEnv(filepath.Join("testdata", "buildboard.yaml"), NewMockEnvProvider("/home/testuser", nil))
	require.NoError(t, err)
	assert.Equal(t, rollup.OrderLastBuilt, cfg.CellOrder)
	assert.Negative(t, cfg.Order(never, built))

	env := NewMockEnvProvider("/home/testuser", map[string]string{
		"BUILDBOARD_CELL_ORDER": "stored",
	})
	cfg, err = NewConfigWithEnv(filepath.Join("testdata", "buildboard.yaml"), env)
	require.NoError(t, err)
	assert.Equal(t, rollup.OrderStored, cfg.CellOrder)
	assert.Zero(t, cfg.Order(never, built))
}
