package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/flowgraph/flowgraph/pkg/models"
	"github.com/flowgraph/flowgraph/pkg/persistence"
)

// RunRepository handles run metadata.
type RunRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// Save upserts the run keyed by run id, keeping retried starts idempotent.
func (r *RunRepository) Save(ctx context.Context, run *models.Run) error {
	now := time.Now().UTC()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = now
	}

	run.UpdatedAt = now

	query := `
		INSERT INTO runs (
			id, workflow_id, version_id, version_number, engine_run_id,
			total_actions, last_status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			engine_run_id = EXCLUDED.engine_run_id,
			last_status = EXCLUDED.last_status,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		run.ID,
		run.WorkflowID,
		run.VersionID,
		run.VersionNumber,
		run.EngineRunID,
		run.TotalActions,
		nullString(string(run.LastStatus)),
		run.CreatedAt,
		run.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	return nil
}

func (r *RunRepository) GetByID(ctx context.Context, id string) (*models.Run, error) {
	run, err := scanRun(r.db.QueryRowContext(ctx, runSelect+" WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return run, nil
}

func (r *RunRepository) ListByWorkflowID(ctx context.Context, workflowID string) ([]*models.Run, error) {
	rows, err := r.db.QueryContext(ctx, runSelect+" WHERE workflow_id = $1 ORDER BY created_at", workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	runs := make([]*models.Run, 0)

	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}

		runs = append(runs, run)
	}

	return runs, rows.Err()
}

func (r *RunRepository) UpdateStatus(ctx context.Context, id string, status models.RunStatus) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE runs SET last_status = $2, updated_at = $3 WHERE id = $1",
		id, string(status), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update run status: %w", err)
	}

	return requireRow(result, persistence.ErrRunNotFound)
}

const runSelect = `
	SELECT
		id
	  , workflow_id
	  , version_id
	  , version_number
	  , engine_run_id
	  , total_actions
	  , last_status
	  , created_at
	  , updated_at
	FROM runs
`

func scanRun(row rowScanner) (*models.Run, error) {
	var (
		run        models.Run
		lastStatus sql.NullString
	)

	err := row.Scan(
		&run.ID,
		&run.WorkflowID,
		&run.VersionID,
		&run.VersionNumber,
		&run.EngineRunID,
		&run.TotalActions,
		&lastStatus,
		&run.CreatedAt,
		&run.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	run.LastStatus = models.RunStatus(lastStatus.String)

	return &run, nil
}
