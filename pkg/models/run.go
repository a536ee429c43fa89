package models

import "time"

// RunStatus mirrors the status taxonomy reported by the durable engine.
type RunStatus string

const (
	RunStatusUnspecified RunStatus = "UNSPECIFIED"
	RunStatusRunning     RunStatus = "RUNNING"
	RunStatusCompleted   RunStatus = "COMPLETED"
	RunStatusFailed      RunStatus = "FAILED"
	RunStatusCancelled   RunStatus = "CANCELLED"
	RunStatusTerminated  RunStatus = "TERMINATED"
	RunStatusTimedOut    RunStatus = "TIMED_OUT"
)

// Terminal reports whether the status is a terminal one.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled, RunStatusTerminated, RunStatusTimedOut:
		return true
	default:
		return false
	}
}

// Run is one execution instance of a pinned workflow version. Immutable after
// creation except for the last-known-status cache.
type Run struct {
	ID            string    `json:"id"`
	WorkflowID    string    `json:"workflow_id"`
	VersionID     string    `json:"version_id"`
	VersionNumber int       `json:"version_number"`
	EngineRunID   string    `json:"engine_run_id"` // Handle used to query the durable engine
	TotalActions  int       `json:"total_actions"`
	LastStatus    RunStatus `json:"last_status,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Progress is the completed/total action fraction for a run.
type Progress struct {
	CompletedActions int `json:"completedActions"`
	TotalActions     int `json:"totalActions"`
}

// FailureDetails is the engine-agnostic detail bag of a failure summary.
type FailureDetails struct {
	StackTrace                string         `json:"stackTrace,omitempty"`
	ApplicationFailureDetails map[string]any `json:"applicationFailureDetails,omitempty"`
}

// FailureSummary normalizes an engine-reported failure so consumers need no
// engine-specific knowledge to show a meaningful message.
type FailureSummary struct {
	Reason       string         `json:"reason"`
	TemporalCode string         `json:"temporalCode,omitempty"`
	Details      FailureDetails `json:"details"`
}
