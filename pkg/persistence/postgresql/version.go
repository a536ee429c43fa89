package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/flowgraph/flowgraph/pkg/models"
	"github.com/flowgraph/flowgraph/pkg/persistence"
)

// VersionRepository handles workflow version snapshots.
type VersionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// Create allocates the next version number for the workflow and persists the
// snapshot. A per-workflow advisory lock serializes number allocation so
// concurrent creates never share a number.
func (r *VersionRepository) Create(ctx context.Context, workflowID string, graph *models.Graph) (*models.WorkflowVersion, error) {
	graphJSON, err := json.Marshal(graph)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal graph: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", workflowID); err != nil {
		return nil, fmt.Errorf("failed to acquire version lock: %w", err)
	}

	version := &models.WorkflowVersion{
		ID:         uuid.New().String(),
		WorkflowID: workflowID,
		Graph:      graph,
		CreatedAt:  time.Now().UTC(),
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO workflow_versions (id, workflow_id, number, graph, created_at)
		SELECT $1, $2, COALESCE(MAX(number), 0) + 1, $3, $4
		FROM workflow_versions
		WHERE workflow_id = $2
		RETURNING number
	`, version.ID, workflowID, graphJSON, version.CreatedAt).Scan(&version.Number)
	if err != nil {
		return nil, fmt.Errorf("failed to insert version: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE workflows SET current_version = $2, updated_at = $3 WHERE id = $1",
		workflowID, version.Number, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to update workflow version pointer: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit version: %w", err)
	}

	return version, nil
}

func (r *VersionRepository) GetByID(ctx context.Context, id string) (*models.WorkflowVersion, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, versionSelect+" WHERE id = $1", id))
}

func (r *VersionRepository) LatestByWorkflowID(ctx context.Context, workflowID string) (*models.WorkflowVersion, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		versionSelect+" WHERE workflow_id = $1 ORDER BY number DESC LIMIT 1", workflowID))
}

func (r *VersionRepository) ByWorkflowAndVersion(ctx context.Context, workflowID string, number int) (*models.WorkflowVersion, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		versionSelect+" WHERE workflow_id = $1 AND number = $2", workflowID, number))
}

func (r *VersionRepository) SetDefinition(ctx context.Context, versionID string, definition *models.Definition) error {
	definitionJSON, err := json.Marshal(definition)
	if err != nil {
		return fmt.Errorf("failed to marshal definition: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		"UPDATE workflow_versions SET definition = $2 WHERE id = $1", versionID, definitionJSON)
	if err != nil {
		return fmt.Errorf("failed to set version definition: %w", err)
	}

	return requireRow(result, persistence.ErrVersionNotFound)
}

const versionSelect = `
	SELECT
		id
	  , workflow_id
	  , number
	  , graph
	  , definition
	  , created_at
	FROM workflow_versions
`

func (r *VersionRepository) scanOne(row rowScanner) (*models.WorkflowVersion, error) {
	var (
		version        models.WorkflowVersion
		graphJSON      []byte
		definitionJSON []byte
	)

	err := row.Scan(
		&version.ID,
		&version.WorkflowID,
		&version.Number,
		&graphJSON,
		&definitionJSON,
		&version.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan version: %w", err)
	}

	if err := json.Unmarshal(graphJSON, &version.Graph); err != nil {
		return nil, fmt.Errorf("failed to unmarshal graph: %w", err)
	}

	if len(definitionJSON) > 0 {
		if err := json.Unmarshal(definitionJSON, &version.Definition); err != nil {
			return nil, fmt.Errorf("failed to unmarshal definition: %w", err)
		}
	}

	return &version, nil
}
