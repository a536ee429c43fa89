// Package web provides HTTP request and response types for the workflow API.
package web

import "github.com/flowgraph/flowgraph/pkg/models"

// CreateWorkflowRequest represents the request body for creating a new workflow.
type CreateWorkflowRequest struct {
	Name        string        `json:"name"        validate:"required,min=3"`
	Description string        `json:"description"`
	Graph       *models.Graph `json:"graph"       validate:"required"`
}

// UpdateGraphRequest represents the request body for replacing a workflow's graph.
type UpdateGraphRequest struct {
	Graph *models.Graph `json:"graph" validate:"required"`
}

// StartRunRequest represents the request body for starting a run.
// RunID is optional; supplying one makes retried starts idempotent.
type StartRunRequest struct {
	RunID  string         `json:"run_id,omitempty"`
	Inputs map[string]any `json:"inputs,omitempty"`
}

// ComponentResponse represents the catalog view of one registered component.
type ComponentResponse struct {
	Type        string             `json:"type"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Ports       models.PortSet     `json:"ports"`
	Parameters  *models.JSONSchema `json:"parameters,omitempty"`
}
