// Package persistence provides the storage abstraction for workflows,
// versions, runs and trace events.
package persistence

import (
	"context"
	"errors"

	"github.com/flowgraph/flowgraph/pkg/models"
)

var (
	ErrWorkflowNotFound = errors.New("workflow not found")
	ErrVersionNotFound  = errors.New("workflow version not found")
	ErrRunNotFound      = errors.New("run not found")
)

// WorkflowRepository owns the mutable workflow entities.
type WorkflowRepository interface {
	List(ctx context.Context) ([]*models.Workflow, error)
	GetByID(ctx context.Context, id string) (*models.Workflow, error)
	Save(ctx context.Context, workflow *models.Workflow) error
	// SetDefinition mirrors the latest committed definition onto the workflow
	// for quick reads.
	SetDefinition(ctx context.Context, workflowID string, definition *models.Definition) error
	RecordRun(ctx context.Context, workflowID, runID string, status models.RunStatus) error
}

// VersionRepository owns the immutable version snapshots. Create allocates
// the next per-workflow version number, starting at 1, with allocation
// serialized per workflow.
type VersionRepository interface {
	Create(ctx context.Context, workflowID string, graph *models.Graph) (*models.WorkflowVersion, error)
	GetByID(ctx context.Context, id string) (*models.WorkflowVersion, error)
	LatestByWorkflowID(ctx context.Context, workflowID string) (*models.WorkflowVersion, error)
	ByWorkflowAndVersion(ctx context.Context, workflowID string, number int) (*models.WorkflowVersion, error)
	// SetDefinition attaches the compiled definition. Intentionally
	// idempotent: retried commits overwrite with an equal value.
	SetDefinition(ctx context.Context, versionID string, definition *models.Definition) error
}

// RunRepository owns run metadata. Save is an upsert keyed by run id so
// retried starts with a caller-supplied run id stay idempotent.
type RunRepository interface {
	Save(ctx context.Context, run *models.Run) error
	GetByID(ctx context.Context, id string) (*models.Run, error)
	ListByWorkflowID(ctx context.Context, workflowID string) ([]*models.Run, error)
	UpdateStatus(ctx context.Context, id string, status models.RunStatus) error
}

// TraceRepository durably stores trace events, ordered by sequence.
type TraceRepository interface {
	Append(ctx context.Context, event *models.TraceEvent) error
	ListByRunID(ctx context.Context, runID string) ([]*models.TraceEvent, error)
}

type Persistence interface {
	Workflows() WorkflowRepository
	Versions() VersionRepository
	Runs() RunRepository
	TraceEvents() TraceRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
