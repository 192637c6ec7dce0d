// Package serve implements the serve command running the API, the rollup
// refresher and the report inbox in one process.
package serve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/buildboard/buildboard/app"
	"github.com/buildboard/buildboard/cmd/utils"
	"github.com/buildboard/buildboard/web/handlers"
	"github.com/buildboard/buildboard/web/routes"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

// NewCmdServe creates a command to run the web API and background services
func NewCmdServe(getApp utils.AppProvider) *cobra.Command {
	var noInbox bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the status API and process the report inbox",
		Long: `Starts the read-only JSON API, recomputes the rollup every refresh
interval and ingests report files dropped into the inbox directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			go handleShutdown(ctx, cancel)

			return Run(ctx, getApp(), !noInbox)
		},
	}

	cmd.Flags().BoolVar(&noInbox, "no-inbox", false, "Do not watch the inbox directory")
	return cmd
}

// Run serves until ctx is done or a background service fails
func Run(ctx context.Context, a *app.App, withInbox bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	slog.Info("Starting buildboard server", "version", app.Version)

	go func() {
		if err := a.Refresher.Start(ctx); err != nil {
			slog.Error("Rollup refresher failed", "error", err)
			cancel()
		}
	}()

	if withInbox {
		go func() {
			if err := a.Inbox().Watch(ctx); err != nil {
				slog.Error("Inbox watcher failed", "error", err)
				cancel()
			}
		}()
	}

	address := net.JoinHostPort(a.Config.HTTPHost, strconv.Itoa(a.Config.HTTPPort))
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	return serveHTTP(ctx, a, listener)
}

func serveHTTP(ctx context.Context, a *app.App, listener net.Listener) error {
	router := routes.NewRouter(&handlers.Handlers{
		Tree:       a.Refresher,
		Projects:   a.Projects,
		Categories: a.Categories,
		Links:      a.Links,
		Version:    app.Version,
	})

	server := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Web server starting", "address", "http://"+listener.Addr().String())
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("web server failed: %w", err)
		}
	}

	slog.Info("Shutting down web server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web server shutdown failed: %w", err)
	}

	slog.Info("Web server stopped")
	return nil
}

// handleShutdown cancels on SIGINT or SIGTERM
func handleShutdown(ctx context.Context, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-sigChan:
		slog.Info("Shutdown signal received")
		cancel()
	case <-ctx.Done():
	}
}
