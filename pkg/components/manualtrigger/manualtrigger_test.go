package manualtrigger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgraph/flowgraph/pkg/protocol"
)

func TestExecute_ForwardsCallerPayload(t *testing.T) {
	outputs, err := Component().Execute(t.Context(), protocol.ExecutionContext{
		Inputs: map[string]any{"order_id": "o-7", "retry": true},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"payload": map[string]any{"order_id": "o-7", "retry": true},
	}, outputs)
}

func TestExecute_EmptyInputsYieldEmptyPayload(t *testing.T) {
	outputs, err := Component().Execute(t.Context(), protocol.ExecutionContext{})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"payload": map[string]any{}}, outputs)
}
