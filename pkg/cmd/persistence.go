package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/flowgraph/flowgraph/pkg/persistence"
	"github.com/flowgraph/flowgraph/pkg/persistence/memory"
	"github.com/flowgraph/flowgraph/pkg/persistence/postgresql"
)

// NewPersistence selects the persistence backend by URL scheme. Anything
// that is not postgres resolves to the in-memory store.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch parseProvider(databaseURL) {
	case "postgres", "postgresql":
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	default:
		return memory.NewPersistence(), nil
	}
}

func parseProvider(databaseURL string) string {
	provider, _, ok := strings.Cut(databaseURL, "://")
	if !ok {
		return "memory"
	}

	return provider
}
