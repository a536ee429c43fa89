package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/flowgraph/flowgraph/pkg/models"
	"github.com/flowgraph/flowgraph/pkg/persistence"
)

// WorkflowRepository handles workflow-related database operations.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *WorkflowRepository) List(ctx context.Context) ([]*models.Workflow, error) {
	query := `
		SELECT
			id
		  , name
		  , description
		  , graph
		  , definition
		  , current_version
		  , run_count
		  , last_run_id
		  , last_run_status
		  , created_at
		  , updated_at
		FROM workflows
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		workflows = append(workflows, workflow)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	return workflows, nil
}

func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	query := `
		SELECT
			id
		  , name
		  , description
		  , graph
		  , definition
		  , current_version
		  , run_count
		  , last_run_id
		  , last_run_status
		  , created_at
		  , updated_at
		FROM workflows
		WHERE id = $1
	`

	workflow, err := scanWorkflow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan workflow: %w", err)
	}

	return workflow, nil
}

func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	graphJSON, err := json.Marshal(workflow.Graph)
	if err != nil {
		return fmt.Errorf("failed to marshal graph: %w", err)
	}

	definitionJSON, err := marshalNullable(workflow.Definition)
	if err != nil {
		return fmt.Errorf("failed to marshal definition: %w", err)
	}

	query := `
		INSERT INTO workflows (
			id, name, description, graph, definition, current_version,
			run_count, last_run_id, last_run_status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			graph = EXCLUDED.graph,
			definition = EXCLUDED.definition,
			current_version = EXCLUDED.current_version,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		workflow.ID,
		workflow.Name,
		workflow.Description,
		graphJSON,
		definitionJSON,
		workflow.CurrentVersion,
		workflow.RunCount,
		nullString(workflow.LastRunID),
		nullString(string(workflow.LastRunStatus)),
		workflow.CreatedAt,
		workflow.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save workflow: %w", err)
	}

	return nil
}

func (r *WorkflowRepository) SetDefinition(ctx context.Context, workflowID string, definition *models.Definition) error {
	definitionJSON, err := json.Marshal(definition)
	if err != nil {
		return fmt.Errorf("failed to marshal definition: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		"UPDATE workflows SET definition = $2, updated_at = $3 WHERE id = $1",
		workflowID, definitionJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set workflow definition: %w", err)
	}

	return requireRow(result, persistence.ErrWorkflowNotFound)
}

func (r *WorkflowRepository) RecordRun(ctx context.Context, workflowID, runID string, status models.RunStatus) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE workflows
		SET run_count = run_count + 1, last_run_id = $2, last_run_status = $3, updated_at = $4
		WHERE id = $1
	`, workflowID, runID, string(status), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	return requireRow(result, persistence.ErrWorkflowNotFound)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row rowScanner) (*models.Workflow, error) {
	var (
		workflow       models.Workflow
		graphJSON      []byte
		definitionJSON []byte
		lastRunID      sql.NullString
		lastRunStatus  sql.NullString
	)

	err := row.Scan(
		&workflow.ID,
		&workflow.Name,
		&workflow.Description,
		&graphJSON,
		&definitionJSON,
		&workflow.CurrentVersion,
		&workflow.RunCount,
		&lastRunID,
		&lastRunStatus,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(graphJSON, &workflow.Graph); err != nil {
		return nil, fmt.Errorf("failed to unmarshal graph: %w", err)
	}

	if len(definitionJSON) > 0 {
		if err := json.Unmarshal(definitionJSON, &workflow.Definition); err != nil {
			return nil, fmt.Errorf("failed to unmarshal definition: %w", err)
		}
	}

	workflow.LastRunID = lastRunID.String
	workflow.LastRunStatus = models.RunStatus(lastRunStatus.String)

	return &workflow, nil
}

func marshalNullable(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}

	switch value := v.(type) {
	case *models.Definition:
		if value == nil {
			return nil, nil
		}
	}

	return json.Marshal(v)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func requireRow(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return notFound
	}

	return nil
}
