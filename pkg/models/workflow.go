package models

import "time"

// Workflow is the persisted, user-owned entity. The graph is mutated through
// explicit update operations; every structural save snapshots a new version.
type Workflow struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"        validate:"required,min=3"`
	Description    string      `json:"description"`
	Graph          *Graph      `json:"graph"`
	Definition     *Definition `json:"definition,omitempty"` // Denormalized copy of the latest committed definition
	CurrentVersion int         `json:"current_version"`
	RunCount       int64       `json:"run_count"`
	LastRunID      string      `json:"last_run_id,omitempty"`
	LastRunStatus  RunStatus   `json:"last_run_status,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// WorkflowVersion is an immutable snapshot of a workflow's graph. The compiled
// definition is attached once, lazily, at commit or first run.
type WorkflowVersion struct {
	ID         string      `json:"id"`
	WorkflowID string      `json:"workflow_id"`
	Number     int         `json:"number"` // Monotonic per workflow, starting at 1
	Graph      *Graph      `json:"graph"`
	Definition *Definition `json:"definition,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}
