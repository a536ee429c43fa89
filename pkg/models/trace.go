package models

import "time"

// TraceEventType classifies one recorded occurrence within a run.
type TraceEventType string

const (
	TraceNodeStarted   TraceEventType = "NODE_STARTED"
	TraceNodeProgress  TraceEventType = "NODE_PROGRESS"
	TraceNodeCompleted TraceEventType = "NODE_COMPLETED"
	TraceNodeFailed    TraceEventType = "NODE_FAILED"
)

// TraceEvent is one append-only record in a run's event log. Sequence is
// assigned at record time, is strictly increasing per run with no gaps, and
// orders events deterministically even when wall clocks are skewed.
type TraceEvent struct {
	RunID         string         `json:"run_id"`
	WorkflowID    string         `json:"workflow_id,omitempty"` // Join metadata, attached by the recorder
	NodeID        string         `json:"node_id"`
	Type          TraceEventType `json:"type"`
	Sequence      int64          `json:"sequence"`
	Timestamp     time.Time      `json:"timestamp"`
	Message       string         `json:"message,omitempty"`        // NODE_PROGRESS payload
	OutputSummary map[string]any `json:"output_summary,omitempty"` // NODE_COMPLETED payload
	Error         string         `json:"error,omitempty"`          // NODE_FAILED payload
}
