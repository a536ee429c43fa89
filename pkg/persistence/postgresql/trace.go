package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/flowgraph/flowgraph/pkg/models"
)

// TraceRepository durably stores trace events keyed by (run_id, sequence).
// It doubles as the recorder's persistence sink.
type TraceRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *TraceRepository) Append(ctx context.Context, event *models.TraceEvent) error {
	var outputJSON []byte

	if event.OutputSummary != nil {
		var err error

		outputJSON, err = json.Marshal(event.OutputSummary)
		if err != nil {
			return fmt.Errorf("failed to marshal output summary: %w", err)
		}
	}

	query := `
		INSERT INTO trace_events (
			run_id, sequence, workflow_id, node_id, event_type,
			timestamp, message, output_summary, error
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (run_id, sequence) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query,
		event.RunID,
		event.Sequence,
		nullString(event.WorkflowID),
		event.NodeID,
		string(event.Type),
		event.Timestamp,
		nullString(event.Message),
		outputJSON,
		nullString(event.Error),
	)
	if err != nil {
		return fmt.Errorf("failed to append trace event: %w", err)
	}

	return nil
}

// Persist satisfies the recorder's sink contract.
func (r *TraceRepository) Persist(ctx context.Context, event *models.TraceEvent) error {
	return r.Append(ctx, event)
}

func (r *TraceRepository) ListByRunID(ctx context.Context, runID string) ([]*models.TraceEvent, error) {
	query := `
		SELECT
			run_id
		  , sequence
		  , workflow_id
		  , node_id
		  , event_type
		  , timestamp
		  , message
		  , output_summary
		  , error
		FROM trace_events
		WHERE run_id = $1
		ORDER BY sequence
	`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trace events: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	events := make([]*models.TraceEvent, 0)

	for rows.Next() {
		var (
			event       models.TraceEvent
			workflowID  sql.NullString
			message     sql.NullString
			outputJSON  []byte
			errorDetail sql.NullString
			eventType   string
		)

		err := rows.Scan(
			&event.RunID,
			&event.Sequence,
			&workflowID,
			&event.NodeID,
			&eventType,
			&event.Timestamp,
			&message,
			&outputJSON,
			&errorDetail,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trace event: %w", err)
		}

		event.WorkflowID = workflowID.String
		event.Type = models.TraceEventType(eventType)
		event.Message = message.String
		event.Error = errorDetail.String

		if len(outputJSON) > 0 {
			if err := json.Unmarshal(outputJSON, &event.OutputSummary); err != nil {
				return nil, fmt.Errorf("failed to unmarshal output summary: %w", err)
			}
		}

		events = append(events, &event)
	}

	return events, rows.Err()
}
