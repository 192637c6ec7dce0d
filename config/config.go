// Package config loads buildboard configuration from a YAML file and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/buildboard/buildboard/display"
	"github.com/buildboard/buildboard/logging"
	"github.com/buildboard/buildboard/rollup"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix      = "BUILDBOARD_"
	databaseFile   = "buildboard.db"
	categoriesFile = "project_categories.yml"
	inboxDir       = "inbox"
)

// EnvProvider abstracts environment variable access for testing
type EnvProvider interface {
	Getenv(key string) string
	UserHomeDir() (string, error)
}

// DefaultEnvProvider implements EnvProvider using real OS functions
type DefaultEnvProvider struct{}

func (p *DefaultEnvProvider) Getenv(key string) string {
	return os.Getenv(key)
}

func (p *DefaultEnvProvider) UserHomeDir() (string, error) {
	return os.UserHomeDir()
}

// Config holds configuration for all components
type Config struct {
	DataDir        string
	DatabasePath   string
	CategoriesPath string

	LogLevel     string
	ColorEnabled bool

	HTTPHost string
	HTTPPort int

	// RefreshInterval is how often the served rollup is recomputed
	RefreshInterval time.Duration

	// CellOrder picks which record owns a shared cell: "stored" or "last_built"
	CellOrder string
	Order     rollup.Comparator

	// TimeZone names the location legacy build timestamps are read in
	TimeZone string
	Location *time.Location

	UpstreamCommitURL   string
	DownstreamCommitURL string

	InboxDir      string
	DefaultServer string

	env EnvProvider
}

// yamlConfig mirrors the configuration file layout
type yamlConfig struct {
	DataDir        string `yaml:"data_dir"`
	DatabasePath   string `yaml:"database_path"`
	CategoriesPath string `yaml:"categories_path"`
	LogLevel       string `yaml:"log_level"`
	ColorEnabled   *bool  `yaml:"color_enabled"`
	TimeZone       string `yaml:"time_zone"`
	HTTP           struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"http"`
	Rollup struct {
		RefreshInterval string `yaml:"refresh_interval"`
		CellOrder       string `yaml:"cell_order"`
	} `yaml:"rollup"`
	Links struct {
		UpstreamCommitURL   string `yaml:"upstream_commit_url"`
		DownstreamCommitURL string `yaml:"downstream_commit_url"`
	} `yaml:"links"`
	Inbox struct {
		Dir           string `yaml:"dir"`
		DefaultServer string `yaml:"default_server"`
	} `yaml:"inbox"`
}

// GetDefaultDataDir returns the default data directory under XDG_DATA_HOME or ~/.local/share
func GetDefaultDataDir() string {
	return getDefaultDataDirWithEnv(&DefaultEnvProvider{})
}

func getDefaultDataDirWithEnv(env EnvProvider) string {
	if xdgDataHome := env.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
		return filepath.Join(xdgDataHome, "buildboard")
	}

	homeDir, _ := env.UserHomeDir()
	return filepath.Join(homeDir, ".local", "share", "buildboard")
}

// NewConfig loads configuration from configPath (optional) and the process environment
func NewConfig(configPath string) (*Config, error) {
	return NewConfigWithEnv(configPath, &DefaultEnvProvider{})
}

// NewConfigWithEnv loads configuration with a custom environment provider.
// Precedence: defaults, then the YAML file, then environment variables.
func NewConfigWithEnv(configPath string, env EnvProvider) (*Config, error) {
	c := &Config{env: env}

	c.setDefaults()

	if configPath != "" {
		if err := c.loadFromFile(configPath); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := c.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	c.derivePaths()

	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return c, nil
}

func (c *Config) setDefaults() {
	c.DataDir = getDefaultDataDirWithEnv(c.env)
	c.LogLevel = "info"
	c.ColorEnabled = true
	c.HTTPHost = "127.0.0.1"
	c.HTTPPort = 8080
	c.RefreshInterval = time.Minute
	c.CellOrder = rollup.OrderStored
	c.TimeZone = "Local"
	c.UpstreamCommitURL = display.DefaultUpstreamCommitURL
	c.DownstreamCommitURL = display.DefaultDownstreamCommitURL
	c.DefaultServer = "default"
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var y yamlConfig
	if err := yaml.Unmarshal(data, &y); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	setString(&c.DataDir, y.DataDir)
	setString(&c.DatabasePath, y.DatabasePath)
	setString(&c.CategoriesPath, y.CategoriesPath)
	setString(&c.LogLevel, y.LogLevel)
	setString(&c.TimeZone, y.TimeZone)
	setString(&c.HTTPHost, y.HTTP.Host)
	setString(&c.CellOrder, y.Rollup.CellOrder)
	setString(&c.UpstreamCommitURL, y.Links.UpstreamCommitURL)
	setString(&c.DownstreamCommitURL, y.Links.DownstreamCommitURL)
	setString(&c.InboxDir, y.Inbox.Dir)
	setString(&c.DefaultServer, y.Inbox.DefaultServer)

	if y.ColorEnabled != nil {
		c.ColorEnabled = *y.ColorEnabled
	}
	if y.HTTP.Port != 0 {
		c.HTTPPort = y.HTTP.Port
	}
	if y.Rollup.RefreshInterval != "" {
		d, err := time.ParseDuration(y.Rollup.RefreshInterval)
		if err != nil {
			return fmt.Errorf("invalid rollup.refresh_interval %q: %w", y.Rollup.RefreshInterval, err)
		}
		c.RefreshInterval = d
	}

	return nil
}

func (c *Config) loadFromEnv() error {
	c.setFromEnv(&c.DataDir, "DATA_DIR")
	c.setFromEnv(&c.DatabasePath, "DATABASE_PATH")
	c.setFromEnv(&c.CategoriesPath, "CATEGORIES_PATH")
	c.setFromEnv(&c.LogLevel, "LOG_LEVEL")
	c.setFromEnv(&c.TimeZone, "TIME_ZONE")
	c.setFromEnv(&c.HTTPHost, "HTTP_HOST")
	c.setFromEnv(&c.CellOrder, "CELL_ORDER")
	c.setFromEnv(&c.UpstreamCommitURL, "UPSTREAM_COMMIT_URL")
	c.setFromEnv(&c.DownstreamCommitURL, "DOWNSTREAM_COMMIT_URL")
	c.setFromEnv(&c.InboxDir, "INBOX_DIR")
	c.setFromEnv(&c.DefaultServer, "DEFAULT_SERVER")

	if v := c.getenv("COLOR_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sCOLOR_ENABLED: %w", envPrefix, err)
		}
		c.ColorEnabled = enabled
	}
	if v := c.getenv("HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sHTTP_PORT: %w", envPrefix, err)
		}
		c.HTTPPort = port
	}
	if v := c.getenv("REFRESH_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sREFRESH_INTERVAL: %w", envPrefix, err)
		}
		c.RefreshInterval = d
	}

	return nil
}

// derivePaths calculates dependent paths from the base DataDir
func (c *Config) derivePaths() {
	if c.DatabasePath == "" {
		c.DatabasePath = filepath.Join(c.DataDir, databaseFile)
	}
	if c.CategoriesPath == "" {
		// The registry is optional; only use the default location when it exists
		if p := filepath.Join(c.DataDir, categoriesFile); fileExists(p) {
			c.CategoriesPath = p
		}
	}
	if c.InboxDir == "" {
		c.InboxDir = filepath.Join(c.DataDir, inboxDir)
	}
}

func (c *Config) validate() error {
	valid := false
	for _, level := range logging.ValidLogLevels() {
		if c.LogLevel == level {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid log level: %s (must be one of %v)", c.LogLevel, logging.ValidLogLevels())
	}

	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d (must be 1-65535)", c.HTTPPort)
	}

	if c.RefreshInterval <= 0 {
		return fmt.Errorf("refresh interval must be positive, got: %v", c.RefreshInterval)
	}

	order, err := rollup.OrderByName(c.CellOrder)
	if err != nil {
		return err
	}
	c.Order = order

	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return fmt.Errorf("invalid time zone %q: %w", c.TimeZone, err)
	}
	c.Location = loc

	if c.DefaultServer == "" {
		return fmt.Errorf("default server name cannot be empty")
	}

	return nil
}

// Links returns the commit URL templates
func (c *Config) Links() display.Links {
	return display.Links{
		UpstreamCommitURL:   c.UpstreamCommitURL,
		DownstreamCommitURL: c.DownstreamCommitURL,
	}
}

func (c *Config) getenv(key string) string {
	return c.env.Getenv(envPrefix + key)
}

func (c *Config) setFromEnv(dst *string, key string) {
	setString(dst, c.getenv(key))
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
