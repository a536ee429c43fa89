package trace

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/flowgraph/flowgraph/pkg/mocks"
	"github.com/flowgraph/flowgraph/pkg/models"
)

func TestSinkRecorder_PersistsEveryEvent(t *testing.T) {
	sink := &mocks.MockTraceSink{}
	sink.On("Persist", mock.Anything, mock.Anything).Return(nil)

	recorder := NewSinkRecorder(NewMemoryRecorder(true), sink, slog.Default())

	recorder.Record(t.Context(), &models.TraceEvent{RunID: "run-1", Type: models.TraceNodeStarted})
	recorder.Record(t.Context(), &models.TraceEvent{RunID: "run-1", Type: models.TraceNodeCompleted})
	recorder.Drain()

	sink.AssertNumberOfCalls(t, "Persist", 2)
	assert.Len(t, recorder.GetEvents("run-1"), 2)
}

func TestSinkRecorder_SinkFailureDoesNotAffectBuffer(t *testing.T) {
	sink := &mocks.MockTraceSink{}
	sink.On("Persist", mock.Anything, mock.Anything).Return(errors.New("database down"))

	recorder := NewSinkRecorder(NewMemoryRecorder(true), sink, slog.Default())

	recorder.Record(t.Context(), &models.TraceEvent{RunID: "run-1", Type: models.TraceNodeStarted})
	recorder.Drain()

	// The failed persist never loses the buffered copy or the sequence.
	events := recorder.GetEvents("run-1")
	require.Len(t, events, 1)
	assert.Equal(t, int64(1), events[0].Sequence)
}

func TestSinkRecorder_PersistedCopyCarriesAssignedSequence(t *testing.T) {
	sink := &mocks.MockTraceSink{}

	var persisted []*models.TraceEvent

	sink.On("Persist", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			persisted = append(persisted, args.Get(1).(*models.TraceEvent))
		}).
		Return(nil)

	recorder := NewSinkRecorder(NewMemoryRecorder(true), sink, slog.Default())

	recorder.Record(t.Context(), &models.TraceEvent{RunID: "run-1", Type: models.TraceNodeStarted})
	recorder.Drain()

	require.Len(t, persisted, 1)
	assert.Equal(t, int64(1), persisted[0].Sequence)
	assert.False(t, persisted[0].Timestamp.IsZero())
}
