package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/ksuid"

	"github.com/flowgraph/flowgraph/pkg/compiler"
	"github.com/flowgraph/flowgraph/pkg/eventbus"
	"github.com/flowgraph/flowgraph/pkg/events"
	"github.com/flowgraph/flowgraph/pkg/models"
	"github.com/flowgraph/flowgraph/pkg/persistence"
	"github.com/flowgraph/flowgraph/pkg/protocol"
	"github.com/flowgraph/flowgraph/pkg/trace"
)

// RunIDPrefix prefixes every generated run id token.
const RunIDPrefix = "run_"

// Orchestrator drives the workflow lifecycle: versioned persistence,
// compilation on commit, durable run startup and status aggregation.
type Orchestrator struct {
	persistence persistence.Persistence
	compiler    *compiler.Compiler
	engine      protocol.Engine
	recorder    trace.Recorder
	bus         eventbus.EventBus // Optional
	logger      *slog.Logger
}

func NewOrchestrator(
	p persistence.Persistence,
	c *compiler.Compiler,
	engine protocol.Engine,
	recorder trace.Recorder,
	bus eventbus.EventBus,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		persistence: p,
		compiler:    c,
		engine:      engine,
		recorder:    recorder,
		bus:         bus,
		logger:      logger,
	}
}

// CreateWorkflowRequest carries the inputs for Create.
type CreateWorkflowRequest struct {
	Name        string `validate:"required,min=3"`
	Description string
	Graph       *models.Graph
}

// CreateWorkflowResponse returns the new workflow with its first version.
type CreateWorkflowResponse struct {
	Workflow         *models.Workflow `json:"workflow"`
	CurrentVersionID string           `json:"current_version_id"`
}

// Create persists a new workflow and immediately snapshots version 1.
func (o *Orchestrator) Create(ctx context.Context, req CreateWorkflowRequest) (*CreateWorkflowResponse, error) {
	if req.Name == "" {
		return nil, ErrWorkflowNameRequired
	}

	if req.Graph == nil {
		return nil, ErrGraphRequired
	}

	now := time.Now().UTC()
	workflow := &models.Workflow{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Graph:       req.Graph,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := o.persistence.Workflows().Save(ctx, workflow); err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	version, err := o.persistence.Versions().Create(ctx, workflow.ID, req.Graph)
	if err != nil {
		return nil, fmt.Errorf("failed to create initial version: %w", err)
	}

	workflow.CurrentVersion = version.Number
	if err := o.persistence.Workflows().Save(ctx, workflow); err != nil {
		return nil, fmt.Errorf("failed to update workflow version pointer: %w", err)
	}

	return &CreateWorkflowResponse{Workflow: workflow, CurrentVersionID: version.ID}, nil
}

// UpdateGraph replaces the workflow's graph and snapshots a new version.
func (o *Orchestrator) UpdateGraph(ctx context.Context, workflowID string, graph *models.Graph) (*CreateWorkflowResponse, error) {
	if graph == nil {
		return nil, ErrGraphRequired
	}

	workflow, err := o.getWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	version, err := o.persistence.Versions().Create(ctx, workflowID, graph)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot version: %w", err)
	}

	workflow.Graph = graph
	workflow.CurrentVersion = version.Number
	workflow.UpdatedAt = time.Now().UTC()

	if err := o.persistence.Workflows().Save(ctx, workflow); err != nil {
		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	return &CreateWorkflowResponse{Workflow: workflow, CurrentVersionID: version.ID}, nil
}

// GetWorkflow fetches one workflow.
func (o *Orchestrator) GetWorkflow(ctx context.Context, workflowID string) (*models.Workflow, error) {
	return o.getWorkflow(ctx, workflowID)
}

// ListWorkflows returns all workflows.
func (o *Orchestrator) ListWorkflows(ctx context.Context) ([]*models.Workflow, error) {
	return o.persistence.Workflows().List(ctx)
}

// Commit ensures the latest version carries a compiled definition and mirrors
// it onto the workflow. Idempotent: committing an unchanged version yields a
// structurally identical definition.
func (o *Orchestrator) Commit(ctx context.Context, workflowID string) (*models.Definition, error) {
	if _, err := o.getWorkflow(ctx, workflowID); err != nil {
		return nil, err
	}

	version, err := o.latestVersion(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	return o.ensureDefinition(ctx, workflowID, version)
}

// RunOptions are the optional inputs of Run. A caller-supplied RunID makes
// retried starts idempotent; otherwise each call mints a fresh id.
type RunOptions struct {
	RunID     string
	Inputs    map[string]any
	TaskQueue string
}

// StartRunResponse is returned once run metadata is durably recorded.
type StartRunResponse struct {
	RunID        string           `json:"run_id"`
	EngineRunID  string           `json:"engine_run_id"`
	Status       models.RunStatus `json:"status"`
	TotalActions int              `json:"total_actions"`
}

// Run starts a durable execution of the workflow's latest committed
// definition, compiling on demand when absent. Run metadata is recorded
// synchronously before the handle is returned.
func (o *Orchestrator) Run(ctx context.Context, workflowID string, opts RunOptions) (*StartRunResponse, error) {
	workflow, err := o.getWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	version, err := o.latestVersion(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	definition, err := o.ensureDefinition(ctx, workflowID, version)
	if err != nil {
		return nil, err
	}

	runID := opts.RunID
	if runID == "" {
		runID = RunIDPrefix + ksuid.New().String()
	}

	handle, err := o.engine.StartWorkflow(ctx, protocol.StartWorkflowOptions{
		WorkflowType: protocol.WorkflowTypeDefinition,
		TaskQueue:    opts.TaskQueue,
		WorkflowID:   runID,
		Args: []any{protocol.RunInput{
			RunID:      runID,
			WorkflowID: workflowID,
			Definition: definition,
			Inputs:     opts.Inputs,
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start durable execution: %w", err)
	}

	run := &models.Run{
		ID:            runID,
		WorkflowID:    workflowID,
		VersionID:     version.ID,
		VersionNumber: version.Number,
		EngineRunID:   handle.RunID,
		TotalActions:  len(definition.Actions),
		LastStatus:    models.RunStatusRunning,
		CreatedAt:     time.Now().UTC(),
	}

	// Metadata must be durable before the handle is handed back; a crash
	// between engine accept and this write is the only unsafe window, and
	// the upsert keeps retried starts idempotent on run id.
	if err := o.persistence.Runs().Save(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record run metadata: %w", err)
	}

	o.recorder.SetRunMetadata(runID, workflowID)

	if err := o.persistence.Workflows().RecordRun(ctx, workflowID, runID, models.RunStatusRunning); err != nil {
		o.logger.ErrorContext(ctx, "Failed to update workflow run summary", "workflow_id", workflowID, "error", err)
	}

	o.publish(ctx, runID, events.RunStarted{
		BaseEvent:     o.baseEvent(events.RunStartedEvent, workflow.ID, runID),
		VersionNumber: version.Number,
		TotalActions:  run.TotalActions,
	})

	return &StartRunResponse{
		RunID:        runID,
		EngineRunID:  handle.RunID,
		Status:       models.RunStatusRunning,
		TotalActions: run.TotalActions,
	}, nil
}

// RunStatusResponse aggregates engine status with trace-derived progress.
type RunStatusResponse struct {
	RunID     string                 `json:"run_id"`
	Status    models.RunStatus       `json:"status"`
	Progress  models.Progress        `json:"progress"`
	StartTime time.Time              `json:"start_time"`
	CloseTime *time.Time             `json:"close_time,omitempty"`
	Failure   *models.FailureSummary `json:"failure,omitempty"`
}

// GetRunStatus queries the engine and derives progress from recorded
// NODE_COMPLETED events against the run's pinned total action count.
func (o *Orchestrator) GetRunStatus(ctx context.Context, runID, engineRunID string) (*RunStatusResponse, error) {
	run, err := o.getRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	if engineRunID == "" {
		engineRunID = run.EngineRunID
	}

	description, err := o.engine.DescribeWorkflow(ctx, protocol.WorkflowRef{WorkflowID: runID, RunID: engineRunID})
	if err != nil {
		return nil, fmt.Errorf("failed to describe durable execution: %w", err)
	}

	statusChanged := run.LastStatus != description.Status
	if statusChanged {
		if err := o.persistence.Runs().UpdateStatus(ctx, runID, description.Status); err != nil {
			o.logger.ErrorContext(ctx, "Failed to cache run status", "run_id", runID, "error", err)
		}

		o.notifyTerminal(ctx, run, description)
	}

	response := &RunStatusResponse{
		RunID:  runID,
		Status: description.Status,
		Progress: models.Progress{
			CompletedActions: o.completedActions(ctx, runID),
			TotalActions:     run.TotalActions,
		},
		StartTime: description.StartTime,
		CloseTime: description.CloseTime,
		Failure:   SummarizeFailure(description.Failure),
	}

	// Buffered trace state is released on the first terminal observation;
	// later reads fall back to the persisted history.
	if statusChanged && description.Status.Terminal() {
		o.recorder.FinalizeRun(runID)
	}

	return response, nil
}

// GetRunResult suspends until the run reaches a terminal state or ctx is
// done, then returns the engine payload as-is.
func (o *Orchestrator) GetRunResult(ctx context.Context, runID, engineRunID string) (map[string]any, error) {
	run, err := o.getRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	if engineRunID == "" {
		engineRunID = run.EngineRunID
	}

	return o.engine.GetWorkflowResult(ctx, protocol.WorkflowRef{WorkflowID: runID, RunID: engineRunID})
}

// CancelRun requests cooperative cancellation from the engine. Best effort:
// in-flight actions observe cancellation between steps.
func (o *Orchestrator) CancelRun(ctx context.Context, runID, engineRunID string) error {
	run, err := o.getRun(ctx, runID)
	if err != nil {
		return err
	}

	if engineRunID == "" {
		engineRunID = run.EngineRunID
	}

	if err := o.engine.CancelWorkflow(ctx, protocol.WorkflowRef{WorkflowID: runID, RunID: engineRunID}); err != nil {
		return fmt.Errorf("failed to cancel durable execution: %w", err)
	}

	o.publish(ctx, runID, events.RunCancelled{
		BaseEvent: o.baseEvent(events.RunCancelledEvent, run.WorkflowID, runID),
	})

	return nil
}

// GetTrace returns the run's event log: the live buffer when present,
// otherwise the persisted history.
func (o *Orchestrator) GetTrace(ctx context.Context, runID string) ([]*models.TraceEvent, error) {
	if buffered := o.recorder.GetEvents(runID); len(buffered) > 0 {
		return buffered, nil
	}

	return o.persistence.TraceEvents().ListByRunID(ctx, runID)
}

func (o *Orchestrator) getWorkflow(ctx context.Context, workflowID string) (*models.Workflow, error) {
	workflow, err := o.persistence.Workflows().GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if workflow == nil {
		return nil, ErrWorkflowNotFound
	}

	return workflow, nil
}

func (o *Orchestrator) latestVersion(ctx context.Context, workflowID string) (*models.WorkflowVersion, error) {
	version, err := o.persistence.Versions().LatestByWorkflowID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if version == nil {
		return nil, ErrVersionNotFound
	}

	return version, nil
}

func (o *Orchestrator) getRun(ctx context.Context, runID string) (*models.Run, error) {
	run, err := o.persistence.Runs().GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}

	if run == nil {
		return nil, ErrRunNotFound
	}

	return run, nil
}

// ensureDefinition compiles the version's graph when no definition is
// attached yet, persisting it on the version and mirroring it onto the
// workflow. No partial definitions are ever persisted: a compile error
// aborts the whole chain.
func (o *Orchestrator) ensureDefinition(ctx context.Context, workflowID string, version *models.WorkflowVersion) (*models.Definition, error) {
	if version.Definition != nil {
		return version.Definition, nil
	}

	definition, err := o.compiler.Compile(version.Graph)
	if err != nil {
		return nil, err
	}

	if err := o.persistence.Versions().SetDefinition(ctx, version.ID, definition); err != nil {
		return nil, fmt.Errorf("failed to attach definition: %w", err)
	}

	if err := o.persistence.Workflows().SetDefinition(ctx, workflowID, definition); err != nil {
		return nil, fmt.Errorf("failed to mirror definition: %w", err)
	}

	version.Definition = definition

	return definition, nil
}

func (o *Orchestrator) completedActions(ctx context.Context, runID string) int {
	completed := 0

	buffered := o.recorder.GetEvents(runID)
	if len(buffered) == 0 {
		persisted, err := o.persistence.TraceEvents().ListByRunID(ctx, runID)
		if err != nil {
			o.logger.ErrorContext(ctx, "Failed to load persisted trace", "run_id", runID, "error", err)

			return 0
		}

		buffered = persisted
	}

	for _, event := range buffered {
		if event.Type == models.TraceNodeCompleted {
			completed++
		}
	}

	return completed
}

// notifyTerminal publishes the terminal lifecycle event the first time a
// terminal engine status is observed for the run.
func (o *Orchestrator) notifyTerminal(ctx context.Context, run *models.Run, description *protocol.WorkflowDescription) {
	switch description.Status {
	case models.RunStatusCompleted:
		o.publish(ctx, run.ID, events.RunFinished{
			BaseEvent: o.baseEvent(events.RunFinishedEvent, run.WorkflowID, run.ID),
		})
	case models.RunStatusFailed:
		o.publish(ctx, run.ID, events.RunFailed{
			BaseEvent: o.baseEvent(events.RunFailedEvent, run.WorkflowID, run.ID),
			Failure:   SummarizeFailure(description.Failure),
		})
	}
}

func (o *Orchestrator) baseEvent(eventType events.EventType, workflowID, runID string) events.BaseEvent {
	id := uuid.New().String()
	if o.bus != nil {
		id = o.bus.GenerateID()
	}

	return events.BaseEvent{
		ID:         id,
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		RunID:      runID,
	}
}

func (o *Orchestrator) publish(ctx context.Context, key string, event events.Event) {
	if o.bus == nil {
		return
	}

	if err := o.bus.Publish(ctx, key, event); err != nil {
		o.logger.ErrorContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}
