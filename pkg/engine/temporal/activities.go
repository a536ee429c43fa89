package temporal

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.temporal.io/sdk/temporal"

	"github.com/flowgraph/flowgraph/pkg/log"
	"github.com/flowgraph/flowgraph/pkg/models"
	"github.com/flowgraph/flowgraph/pkg/otelhelper"
	"github.com/flowgraph/flowgraph/pkg/protocol"
	"github.com/flowgraph/flowgraph/pkg/registry"
	"github.com/flowgraph/flowgraph/pkg/trace"
)

// ExecuteActionLabel is the activity name the interpreter schedules.
const ExecuteActionLabel = "ExecuteAction"

// FinalizeRunLabel is the activity name of the trace finalization step.
const FinalizeRunLabel = "FinalizeRun"

// ComponentErrorType tags application failures raised by component code.
const ComponentErrorType = "ComponentError"

const outputSummaryMaxLen = 256

// ActionInput is the payload of one ExecuteAction activity invocation.
type ActionInput struct {
	RunID      string         `json:"run_id"`
	WorkflowID string         `json:"workflow_id"`
	Action     *models.Action `json:"action"`
	Inputs     map[string]any `json:"inputs,omitempty"`
}

// Activities executes compiled actions on behalf of the interpreter
// workflow, recording the node lifecycle on the trace recorder.
type Activities struct {
	registry *registry.Registry
	recorder trace.Recorder
	secrets  protocol.SecretGetter
	agents   protocol.AgentTracePublisher
	tracer   oteltrace.Tracer
}

func NewActivities(
	reg *registry.Registry,
	recorder trace.Recorder,
	secrets protocol.SecretGetter,
	agents protocol.AgentTracePublisher,
) *Activities {
	return &Activities{
		registry: reg,
		recorder: recorder,
		secrets:  secrets,
		agents:   agents,
		tracer:   noop.NewTracerProvider().Tracer(""),
	}
}

// WithTracer enables span emission around action execution.
func (a *Activities) WithTracer(tracer oteltrace.Tracer) *Activities {
	a.tracer = tracer

	return a
}

// ExecuteAction resolves the action's component and runs it. Any returned
// error is wrapped as a typed application failure so the engine's retry
// policy and the run's failure summary both see the component error type.
func (a *Activities) ExecuteAction(ctx context.Context, input ActionInput) (map[string]any, error) {
	logger := log.WithModule("activity").With(
		"run_id", input.RunID,
		"node_id", input.Action.ID,
		"component_type", input.Action.Type,
	)

	ctx, span := otelhelper.StartSpan(ctx, a.tracer, "worker.activity execute",
		attribute.String(otelhelper.RunIDKey, input.RunID),
		attribute.String(otelhelper.NodeIDKey, input.Action.ID),
		attribute.String(otelhelper.ComponentTypeKey, input.Action.Type),
	)
	defer span.End()

	a.recorder.Record(ctx, &models.TraceEvent{
		RunID:      input.RunID,
		WorkflowID: input.WorkflowID,
		NodeID:     input.Action.ID,
		Type:       models.TraceNodeStarted,
	})

	component, err := a.registry.Get(input.Action.Type)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, a.fail(ctx, input, err)
	}

	outputs, err := component.Execute(ctx, protocol.ExecutionContext{
		RunID:      input.RunID,
		ActionID:   input.Action.ID,
		Parameters: input.Action.Parameters,
		Inputs:     input.Inputs,
		Logger:     logger,
		Reporter: &traceReporter{
			recorder:   a.recorder,
			runID:      input.RunID,
			workflowID: input.WorkflowID,
			nodeID:     input.Action.ID,
		},
		AgentTrace: a.agents,
		Secrets:    a.secrets,
	})
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, a.fail(ctx, input, err)
	}

	a.recorder.Record(ctx, &models.TraceEvent{
		RunID:         input.RunID,
		WorkflowID:    input.WorkflowID,
		NodeID:        input.Action.ID,
		Type:          models.TraceNodeCompleted,
		OutputSummary: summarizeOutputs(outputs),
	})

	return outputs, nil
}

// FinalizeRun releases the recorder's in-memory state for a finished run.
// Without it a long-lived worker accumulates buffers and sequence counters
// for every run it ever executed.
func (a *Activities) FinalizeRun(_ context.Context, runID string) error {
	a.recorder.FinalizeRun(runID)

	return nil
}

func (a *Activities) fail(ctx context.Context, input ActionInput, cause error) error {
	a.recorder.Record(ctx, &models.TraceEvent{
		RunID:      input.RunID,
		WorkflowID: input.WorkflowID,
		NodeID:     input.Action.ID,
		Type:       models.TraceNodeFailed,
		Error:      cause.Error(),
	})

	return temporal.NewApplicationError(
		cause.Error(),
		ComponentErrorType,
		map[string]any{"node": input.Action.ID},
	)
}

// traceReporter surfaces component progress messages as NODE_PROGRESS events.
type traceReporter struct {
	recorder   trace.Recorder
	runID      string
	workflowID string
	nodeID     string
}

func (r *traceReporter) ReportProgress(ctx context.Context, message string) {
	r.recorder.Record(ctx, &models.TraceEvent{
		RunID:      r.runID,
		WorkflowID: r.workflowID,
		NodeID:     r.nodeID,
		Type:       models.TraceNodeProgress,
		Message:    message,
	})
}

// summarizeOutputs keeps trace events small: scalar values are truncated and
// composite values replaced with a shape note.
func summarizeOutputs(outputs map[string]any) map[string]any {
	if len(outputs) == 0 {
		return nil
	}

	summary := make(map[string]any, len(outputs))

	for port, value := range outputs {
		switch v := value.(type) {
		case string:
			if len(v) > outputSummaryMaxLen {
				v = v[:outputSummaryMaxLen] + "..."
			}

			summary[port] = v
		case bool, int, int64, float64, nil:
			summary[port] = v
		case []any:
			summary[port] = fmt.Sprintf("[%d items]", len(v))
		case map[string]any:
			summary[port] = fmt.Sprintf("{%d keys}", len(v))
		default:
			summary[port] = fmt.Sprintf("%T", v)
		}
	}

	return summary
}
