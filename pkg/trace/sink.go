package trace

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/flowgraph/flowgraph/pkg/models"
	"github.com/flowgraph/flowgraph/pkg/protocol"
)

const persistTimeout = 10 * time.Second

// SinkRecorder decorates a MemoryRecorder with asynchronous persistence.
// Record never blocks on the sink: each event is persisted on its own
// goroutine with failures logged and isolated per event.
type SinkRecorder struct {
	*MemoryRecorder

	sink   protocol.TraceSink
	logger *slog.Logger
	wg     sync.WaitGroup
}

func NewSinkRecorder(inner *MemoryRecorder, sink protocol.TraceSink, logger *slog.Logger) *SinkRecorder {
	return &SinkRecorder{
		MemoryRecorder: inner,
		sink:           sink,
		logger:         logger,
	}
}

func (r *SinkRecorder) Record(ctx context.Context, event *models.TraceEvent) {
	r.MemoryRecorder.Record(ctx, event)

	persisted := *event

	r.wg.Add(1)

	go func() {
		defer r.wg.Done()

		persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
		defer cancel()

		if err := r.sink.Persist(persistCtx, &persisted); err != nil {
			r.logger.ErrorContext(persistCtx, "Failed to persist trace event",
				"run_id", persisted.RunID,
				"sequence", persisted.Sequence,
				"error", err)
		}
	}()
}

// Drain waits for all in-flight persistence tasks. Intended for shutdown and
// tests; the hot path never calls it.
func (r *SinkRecorder) Drain() {
	r.wg.Wait()
}
