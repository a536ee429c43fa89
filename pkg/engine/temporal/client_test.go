package temporal

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/flowgraph/flowgraph/pkg/models"
	"github.com/flowgraph/flowgraph/pkg/protocol"
)

func TestStatusFromEngine(t *testing.T) {
	tests := []struct {
		engine enumspb.WorkflowExecutionStatus
		want   models.RunStatus
	}{
		{enumspb.WORKFLOW_EXECUTION_STATUS_RUNNING, models.RunStatusRunning},
		{enumspb.WORKFLOW_EXECUTION_STATUS_CONTINUED_AS_NEW, models.RunStatusRunning},
		{enumspb.WORKFLOW_EXECUTION_STATUS_COMPLETED, models.RunStatusCompleted},
		{enumspb.WORKFLOW_EXECUTION_STATUS_FAILED, models.RunStatusFailed},
		{enumspb.WORKFLOW_EXECUTION_STATUS_CANCELED, models.RunStatusCancelled},
		{enumspb.WORKFLOW_EXECUTION_STATUS_TERMINATED, models.RunStatusTerminated},
		{enumspb.WORKFLOW_EXECUTION_STATUS_TIMED_OUT, models.RunStatusTimedOut},
		{enumspb.WORKFLOW_EXECUTION_STATUS_UNSPECIFIED, models.RunStatusUnspecified},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFromEngine(tt.engine), "engine status %v", tt.engine)
	}
}

// startFailingClient stubs ExecuteWorkflow; every other SDK method panics if
// reached.
type startFailingClient struct {
	client.Client

	err error
}

func (c startFailingClient) ExecuteWorkflow(
	context.Context, client.StartWorkflowOptions, any, ...any,
) (client.WorkflowRun, error) {
	return nil, c.err
}

func TestStartWorkflow_AlreadyStartedReturnsExistingHandle(t *testing.T) {
	c := &Client{
		Client: startFailingClient{
			err: serviceerror.NewWorkflowExecutionAlreadyStarted("already started", "request-1", "engine-run-1"),
		},
		config: &Config{TaskQueue: "flowgraph"},
	}

	handle, err := c.StartWorkflow(t.Context(), protocol.StartWorkflowOptions{
		WorkflowType: protocol.WorkflowTypeDefinition,
		WorkflowID:   "run_existing",
	})
	require.NoError(t, err)

	assert.Equal(t, "run_existing", handle.WorkflowID)
	assert.Equal(t, "engine-run-1", handle.RunID)
	assert.Equal(t, "flowgraph", handle.TaskQueue)
}

func TestStartWorkflow_OtherStartErrorsPropagate(t *testing.T) {
	c := &Client{
		Client: startFailingClient{err: errors.New("frontend unavailable")},
		config: &Config{TaskQueue: "flowgraph"},
	}

	_, err := c.StartWorkflow(t.Context(), protocol.StartWorkflowOptions{
		WorkflowType: protocol.WorkflowTypeDefinition,
		WorkflowID:   "run_broken",
	})
	assert.ErrorContains(t, err, "failed to start workflow")
}
