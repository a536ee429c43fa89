package protocol

import (
	"context"
	"time"

	"github.com/flowgraph/flowgraph/pkg/models"
)

// WorkflowTypeDefinition is the workflow type under which the definition
// interpreter is registered on the durable engine.
const WorkflowTypeDefinition = "flowgraph-definition"

// StartWorkflowOptions are the inputs to Engine.StartWorkflow.
type StartWorkflowOptions struct {
	WorkflowType string
	TaskQueue    string // Defaults to the engine's task queue when empty
	WorkflowID   string // Caller-assigned; the engine generates one when empty
	Args         []any
}

// WorkflowHandle identifies a started durable execution.
type WorkflowHandle struct {
	WorkflowID string
	RunID      string
	TaskQueue  string
}

// RunInput is the single argument handed to the definition-interpreter
// workflow. Everything the interpreter needs travels in the payload so the
// worker never reads orchestrator state.
type RunInput struct {
	RunID      string             `json:"run_id"`
	WorkflowID string             `json:"workflow_id"`
	Definition *models.Definition `json:"definition"`
	Inputs     map[string]any     `json:"inputs,omitempty"`
}

// WorkflowRef addresses an existing execution. RunID may be empty to target
// the latest run of the workflow id.
type WorkflowRef struct {
	WorkflowID string
	RunID      string
}

// ApplicationFailureInfo carries the engine's typed application failure.
type ApplicationFailureInfo struct {
	Type    string         `json:"type"`
	Details map[string]any `json:"details,omitempty"`
}

// EngineFailure is the raw failure shape reported by the durable engine.
type EngineFailure struct {
	Message                string                  `json:"message"`
	StackTrace             string                  `json:"stackTrace,omitempty"`
	ApplicationFailureInfo *ApplicationFailureInfo `json:"applicationFailureInfo,omitempty"`
}

// WorkflowDescription is the engine's view of one execution.
type WorkflowDescription struct {
	Status        models.RunStatus
	StartTime     time.Time
	CloseTime     *time.Time
	HistoryLength int64
	TaskQueue     string
	Failure       *EngineFailure
}

// Engine is the durable-execution collaborator contract. Implementations are
// responsible for scheduling, parallelism, per-action retries and durability;
// the core only starts, observes and cancels executions through it.
type Engine interface {
	StartWorkflow(ctx context.Context, opts StartWorkflowOptions) (*WorkflowHandle, error)
	DescribeWorkflow(ctx context.Context, ref WorkflowRef) (*WorkflowDescription, error)

	// GetWorkflowResult suspends until the execution reaches a terminal state
	// or ctx is done, then returns the engine-reported payload as-is.
	GetWorkflowResult(ctx context.Context, ref WorkflowRef) (map[string]any, error)

	// CancelWorkflow requests cooperative cancellation; in-flight actions
	// observe it between steps, not mid-step.
	CancelWorkflow(ctx context.Context, ref WorkflowRef) error

	DefaultTaskQueue() string
}

// TraceSink durably stores trace events. The recorder assigns sequences; the
// sink is responsible only for storage.
type TraceSink interface {
	Persist(ctx context.Context, event *models.TraceEvent) error
}
