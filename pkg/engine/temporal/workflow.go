package temporal

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/flowgraph/flowgraph/pkg/models"
	"github.com/flowgraph/flowgraph/pkg/protocol"
)

const defaultActionTimeout = 10 * time.Minute

// DefinitionWorkflow interprets a compiled definition. Actions arrive in a
// valid topological order, so a single in-order walk respects every
// dependency; an action whose upstream failed or was skipped is skipped in
// turn, while independent branches keep running.
func DefinitionWorkflow(ctx workflow.Context, input protocol.RunInput) (map[string]any, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting run", "run_id", input.RunID, "workflow_id", input.WorkflowID)

	defer finalizeTrace(ctx, input.RunID)

	outputs := make(map[string]map[string]any, len(input.Definition.Actions))
	blocked := make(map[string]bool)

	var firstFailure error

	for _, action := range input.Definition.Actions {
		if upstream, ok := blockedBy(action, blocked); ok {
			logger.Info("Skipping action", "action_id", action.ID, "blocked_by", upstream)
			blocked[action.ID] = true

			continue
		}

		actionCtx := workflow.WithActivityOptions(ctx, activityOptions(action))

		var result map[string]any

		err := workflow.ExecuteActivity(actionCtx, ExecuteActionLabel, ActionInput{
			RunID:      input.RunID,
			WorkflowID: input.WorkflowID,
			Action:     action,
			Inputs:     resolveInputs(action, outputs, input.Inputs),
		}).Get(actionCtx, &result)
		if err != nil {
			logger.Error("Action failed", "action_id", action.ID, "error", err)
			blocked[action.ID] = true

			if firstFailure == nil {
				firstFailure = err
			}

			continue
		}

		outputs[action.ID] = result
	}

	if firstFailure != nil {
		return flattenOutputs(outputs), firstFailure
	}

	logger.Info("Run completed", "run_id", input.RunID, "actions", len(input.Definition.Actions))

	return flattenOutputs(outputs), nil
}

// finalizeTrace releases the worker-side trace state once the run is over.
// Runs on a disconnected context so cancellation still reaches it.
func finalizeTrace(ctx workflow.Context, runID string) {
	ctx, cancel := workflow.NewDisconnectedContext(ctx)
	defer cancel()

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 3},
	})

	if err := workflow.ExecuteActivity(ctx, FinalizeRunLabel, runID).Get(ctx, nil); err != nil {
		workflow.GetLogger(ctx).Error("Failed to release run trace state", "run_id", runID, "error", err)
	}
}

// blockedBy reports the first dependency whose producer did not complete.
func blockedBy(action *models.Action, blocked map[string]bool) (string, bool) {
	for _, dep := range action.Dependencies {
		if blocked[dep.SourceActionID] {
			return dep.SourceActionID, true
		}
	}

	return "", false
}

// resolveInputs merges static port values with upstream outputs. Wired
// values overwrite statics for the same port; the compiler already dropped
// statics on wired non-manual-wins ports, so the overwrite only matters for
// ports left intentionally manual.
func resolveInputs(action *models.Action, outputs map[string]map[string]any, runInputs map[string]any) map[string]any {
	inputs := make(map[string]any, len(action.StaticInputs)+len(action.Dependencies))

	for port, value := range action.StaticInputs {
		inputs[port] = value
	}

	for _, dep := range action.Dependencies {
		if produced, ok := outputs[dep.SourceActionID]; ok {
			if value, ok := produced[dep.SourcePort]; ok {
				inputs[dep.TargetPort] = value
			}
		}
	}

	// Run-level inputs feed root actions only: they never shadow wired ports.
	if len(action.Dependencies) == 0 {
		for port, value := range runInputs {
			if _, wired := inputs[port]; !wired {
				inputs[port] = value
			}
		}
	}

	return inputs
}

func activityOptions(action *models.Action) workflow.ActivityOptions {
	options := workflow.ActivityOptions{
		StartToCloseTimeout: defaultActionTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}

	if action.Retry != nil {
		options.RetryPolicy = &temporal.RetryPolicy{
			InitialInterval:    time.Duration(action.Retry.InitialIntervalSec) * time.Second,
			BackoffCoefficient: action.Retry.BackoffCoefficient,
			MaximumAttempts:    int32(action.Retry.MaxAttempts),
		}
	}

	return options
}

// flattenOutputs exposes every completed action's port values keyed by
// action id. Callers pick results by node id.
func flattenOutputs(outputs map[string]map[string]any) map[string]any {
	result := make(map[string]any, len(outputs))

	for actionID, ports := range outputs {
		result[actionID] = ports
	}

	return result
}
