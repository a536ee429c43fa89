// Package postgresql provides the PostgreSQL persistence implementation.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver

	"github.com/flowgraph/flowgraph/pkg/persistence"
	"github.com/flowgraph/flowgraph/pkg/persistence/sqlbase"
)

type Persistence struct {
	db        *sql.DB
	logger    *slog.Logger
	workflows *WorkflowRepository
	versions  *VersionRepository
	runs      *RunRepository
	traces    *TraceRepository
}

// NewPersistence connects, migrates and wires the repository set.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	if err := database.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())
	if err := migrationManager.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:        database,
		logger:    logger,
		workflows: &WorkflowRepository{db: database, logger: logger},
		versions:  &VersionRepository{db: database, logger: logger},
		runs:      &RunRepository{db: database, logger: logger},
		traces:    &TraceRepository{db: database, logger: logger},
	}, nil
}

func (p *Persistence) Workflows() persistence.WorkflowRepository { return p.workflows }
func (p *Persistence) Versions() persistence.VersionRepository   { return p.versions }
func (p *Persistence) Runs() persistence.RunRepository           { return p.runs }
func (p *Persistence) TraceEvents() persistence.TraceRepository  { return p.traces }

func (p *Persistence) HealthCheck(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}
