// Package utils provides helpers shared by the buildboard CLI commands.
package utils

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/buildboard/buildboard/app"
	"github.com/buildboard/buildboard/domain"
	"github.com/buildboard/buildboard/repository"
)

// AppProvider returns the application initialized by the root command
type AppProvider func() *app.App

// CommandError logs a failed operation and returns the message shown to the user
func CommandError(operation string, err error, context ...any) error {
	slog.Error("Command failed", append([]any{"operation", operation, "error", err}, context...)...)
	return fmt.Errorf("%s failed: %s", operation, FormatErrorForUser(err))
}

// FormatErrorForUser converts technical errors to user-friendly messages
func FormatErrorForUser(err error) string {
	if err == nil {
		return ""
	}

	// Sentinel errors are wrapped with the name that was looked up
	if errors.Is(err, repository.ErrNotFound) || errors.Is(err, domain.ErrMalformedName) {
		return err.Error()
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "unique constraint"):
		return "this entry already exists"
	case strings.Contains(errStr, "no such file"):
		return "file not found"
	case strings.Contains(errStr, "permission denied"):
		return "permission denied"
	case strings.Contains(errStr, "database is locked"), strings.Contains(errStr, "timeout"):
		return "database is busy, try again"
	default:
		return err.Error()
	}
}
