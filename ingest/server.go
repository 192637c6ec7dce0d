package ingest

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/buildboard/buildboard/domain"
	"github.com/buildboard/buildboard/repository"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// ServerKey normalizes a server name into the key it is stored under
func ServerKey(name string) string {
	return slug.Make(name)
}

// ResolveServer returns the server registered under name, registering it first if needed
func ResolveServer(servers repository.ServerRepository, name, url string) (*domain.Server, error) {
	key := ServerKey(name)
	if key == "" {
		return nil, fmt.Errorf("invalid server name %q", name)
	}

	server, err := servers.FindByName(key)
	if err == nil {
		return server, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("looking up server %q: %w", key, err)
	}

	server, err = servers.Create(&domain.Server{ID: uuid.New(), Name: key, URL: url})
	if err != nil {
		return nil, fmt.Errorf("registering server %q: %w", key, err)
	}

	slog.Info("Server registered", "layer", "ingest", "server_name", key, "server_id", server.ID)
	return server, nil
}
