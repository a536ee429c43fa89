package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/flowgraph/flowgraph/pkg/eventbus"
	"github.com/flowgraph/flowgraph/pkg/events"
	"github.com/flowgraph/flowgraph/pkg/models"
	"github.com/flowgraph/flowgraph/pkg/persistence"
	"github.com/flowgraph/flowgraph/pkg/trace"
)

// NewRunRecorder builds the worker-side recorder: buffered in memory for
// live reads, persisted through the trace repository for history. A non-nil
// bus additionally announces completed nodes to live consumers.
func NewRunRecorder(p persistence.Persistence, bus eventbus.EventBus, logger *slog.Logger) *trace.SinkRecorder {
	return trace.NewSinkRecorder(
		trace.NewMemoryRecorder(true),
		&repositorySink{repo: p.TraceEvents(), bus: bus, logger: logger},
		logger,
	)
}

type repositorySink struct {
	repo   persistence.TraceRepository
	bus    eventbus.EventBus // Optional
	logger *slog.Logger
}

func (s *repositorySink) Persist(ctx context.Context, event *models.TraceEvent) error {
	if err := s.repo.Append(ctx, event); err != nil {
		return err
	}

	if s.bus != nil && event.Type == models.TraceNodeCompleted {
		notification := events.NodeCompleted{
			BaseEvent: events.BaseEvent{
				ID:         s.bus.GenerateID(),
				Type:       events.NodeCompletedEvent,
				Timestamp:  time.Now().UTC(),
				WorkflowID: event.WorkflowID,
				RunID:      event.RunID,
			},
			NodeID:        event.NodeID,
			OutputSummary: event.OutputSummary,
		}

		if err := s.bus.Publish(ctx, event.RunID, notification); err != nil {
			s.logger.Error("Failed to announce completed node", "run_id", event.RunID, "node_id", event.NodeID, "error", err)
		}
	}

	return nil
}
