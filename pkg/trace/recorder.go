// Package trace implements the per-run, append-only event log with monotonic
// sequence numbers for persistence ordering and gap-free replay.
package trace

import (
	"context"
	"sync"
	"time"

	"github.com/flowgraph/flowgraph/pkg/models"
)

// Recorder is the contract the orchestrator and executing actions record
// through.
type Recorder interface {
	// Record appends the event to the run's log, assigning the next sequence
	// number. Safe for concurrent use by parallel actions of the same run.
	Record(ctx context.Context, event *models.TraceEvent)

	// GetEvents returns the buffered events of a run in insertion order. An
	// unknown run, or a recorder with buffering disabled, yields an empty
	// slice, never an error.
	GetEvents(runID string) []*models.TraceEvent

	// SetRunMetadata attaches join metadata used by the persistence path.
	SetRunMetadata(runID string, workflowID string)

	// FinalizeRun releases all in-memory state for the run. A later Record
	// for the same run id starts a fresh sequence from 1.
	FinalizeRun(runID string)

	// Clear resets all runs unconditionally.
	Clear()
}

type runState struct {
	sequence   int64
	workflowID string
	events     []*models.TraceEvent
}

// MemoryRecorder is the pure in-memory recorder: sequence assignment and
// buffered reads, nothing else. Wrap it with NewSinkRecorder for durable
// persistence.
type MemoryRecorder struct {
	mu        sync.RWMutex
	buffering bool
	runs      map[string]*runState
}

// NewMemoryRecorder creates a recorder. With buffering disabled it still
// assigns sequences and tracks metadata but GetEvents always returns empty.
func NewMemoryRecorder(buffering bool) *MemoryRecorder {
	return &MemoryRecorder{
		buffering: buffering,
		runs:      make(map[string]*runState),
	}
}

func (r *MemoryRecorder) Record(_ context.Context, event *models.TraceEvent) {
	r.record(event)
}

// record assigns the sequence and appends under one lock so that concurrent
// callers get exactly {1..N} with no duplicates or gaps.
func (r *MemoryRecorder) record(event *models.TraceEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.runs[event.RunID]
	if !ok {
		state = &runState{}
		r.runs[event.RunID] = state
	}

	state.sequence++
	event.Sequence = state.sequence

	if event.WorkflowID == "" {
		event.WorkflowID = state.workflowID
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	if r.buffering {
		state.events = append(state.events, event)
	}
}

func (r *MemoryRecorder) GetEvents(runID string) []*models.TraceEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.runs[runID]
	if !ok {
		return []*models.TraceEvent{}
	}

	events := make([]*models.TraceEvent, len(state.events))
	copy(events, state.events)

	return events
}

func (r *MemoryRecorder) SetRunMetadata(runID string, workflowID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.runs[runID]
	if !ok {
		state = &runState{}
		r.runs[runID] = state
	}

	state.workflowID = workflowID
}

func (r *MemoryRecorder) FinalizeRun(runID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.runs, runID)
}

func (r *MemoryRecorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.runs = make(map[string]*runState)
}

// CountByType counts buffered events of one type for a run. Used by status
// aggregation for progress denominators.
func (r *MemoryRecorder) CountByType(runID string, eventType models.TraceEventType) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.runs[runID]
	if !ok {
		return 0
	}

	count := 0

	for _, event := range state.events {
		if event.Type == eventType {
			count++
		}
	}

	return count
}
