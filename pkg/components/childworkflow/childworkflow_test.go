package childworkflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgraph/flowgraph/pkg/protocol"
)

type fakeStarter struct {
	workflowID string
	inputs     map[string]any
	result     map[string]any
	err        error
}

func (s *fakeStarter) RunToCompletion(_ context.Context, workflowID string, inputs map[string]any) (map[string]any, error) {
	s.workflowID = workflowID
	s.inputs = inputs

	return s.result, s.err
}

func TestResolvePorts_OneInputPerDeclaredInput(t *testing.T) {
	ports, err := Component(&fakeStarter{}).EffectivePorts(map[string]any{
		"workflow_id": "wf-1",
		"inputs": []any{
			map[string]any{"name": "order_id", "type": "string"},
			map[string]any{"name": "payload"},
		},
	})
	require.NoError(t, err)

	require.Len(t, ports.Inputs, 2)
	assert.Equal(t, "order_id", ports.Inputs[0].Name)
	assert.Equal(t, "string", ports.Inputs[0].Type)
	assert.True(t, ports.Inputs[0].AllowManual)
	assert.Equal(t, "object", ports.Inputs[1].Type)

	require.Len(t, ports.Outputs, 1)
	assert.Equal(t, "result", ports.Outputs[0].Name)
}

func TestResolvePorts_NoDeclaredInputs(t *testing.T) {
	ports, err := Component(&fakeStarter{}).EffectivePorts(map[string]any{"workflow_id": "wf-1"})
	require.NoError(t, err)

	assert.Empty(t, ports.Inputs)
	assert.Len(t, ports.Outputs, 1)
}

func TestResolvePorts_InputWithoutName(t *testing.T) {
	_, err := Component(&fakeStarter{}).EffectivePorts(map[string]any{
		"inputs": []any{map[string]any{"type": "string"}},
	})
	assert.ErrorContains(t, err, "no name")
}

func TestExecute_ForwardsInputsToStarter(t *testing.T) {
	starter := &fakeStarter{result: map[string]any{"total": 10}}

	outputs, err := Component(starter).Execute(t.Context(), protocol.ExecutionContext{
		Parameters: map[string]any{"workflow_id": "wf-1"},
		Inputs:     map[string]any{"order_id": "o-7"},
	})
	require.NoError(t, err)

	assert.Equal(t, "wf-1", starter.workflowID)
	assert.Equal(t, map[string]any{"order_id": "o-7"}, starter.inputs)
	assert.Equal(t, map[string]any{"result": map[string]any{"total": 10}}, outputs)
}

func TestExecute_MissingWorkflowID(t *testing.T) {
	_, err := Component(&fakeStarter{}).Execute(t.Context(), protocol.ExecutionContext{
		Parameters: map[string]any{},
	})
	assert.ErrorContains(t, err, "workflow_id")
}

func TestExecute_WithoutStarter(t *testing.T) {
	_, err := Component(nil).Execute(t.Context(), protocol.ExecutionContext{
		Parameters: map[string]any{"workflow_id": "wf-1"},
	})
	assert.ErrorIs(t, err, ErrNoStarter)
}
