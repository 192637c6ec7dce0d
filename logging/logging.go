// Package logging configures the process-wide slog logger for buildboard.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
)

// levelSilent is above every level slog emits
const levelSilent = slog.Level(1000)

// ParseLogLevel converts a configured level name to slog.Level.
// Unknown names fall back to info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warning", "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "silent", "none":
		return levelSilent
	default:
		return slog.LevelInfo
	}
}

// ValidLogLevels returns the level names accepted by configuration and flags
func ValidLogLevels() []string {
	return []string{"debug", "info", "warning", "error", "silent"}
}

// NewLogger builds a text logger writing to w at the given level
func NewLogger(w io.Writer, logLevel string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLogLevel(logLevel),
	}))
}

// InitLogging installs a stderr logger at logLevel as the slog default
func InitLogging(logLevel string) {
	slog.SetDefault(NewLogger(os.Stderr, logLevel))
}

// Layer returns the default logger tagged with an application layer
func Layer(name string) *slog.Logger {
	return slog.Default().With("layer", name)
}

// LogLevel is the --log-level flag; unset means the configured level applies
var LogLevel = &logLevelFlag{value: "info"}

type logLevelFlag struct {
	value string
	set   bool
}

func (l *logLevelFlag) Set(value string) error {
	if !slices.Contains(ValidLogLevels(), value) {
		return fmt.Errorf("invalid value '%s'. Allowed values: %s",
			value, strings.Join(ValidLogLevels(), ", "))
	}
	l.value = value
	l.set = true
	return nil
}

func (l *logLevelFlag) String() string {
	return l.value
}

func (l *logLevelFlag) Type() string {
	return fmt.Sprintf("one of [%s]", strings.Join(ValidLogLevels(), "|"))
}

// IsSet reports whether the flag was given on the command line
func (l *logLevelFlag) IsSet() bool {
	return l.set
}

// Resolve returns the flag value when set, otherwise configured
func (l *logLevelFlag) Resolve(configured string) string {
	if l.set {
		return l.value
	}
	return configured
}
