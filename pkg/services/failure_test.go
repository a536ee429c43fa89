package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgraph/flowgraph/pkg/protocol"
)

func TestSummarizeFailure(t *testing.T) {
	summary := SummarizeFailure(&protocol.EngineFailure{
		Message:    "Component crashed",
		StackTrace: "Error: boom",
		ApplicationFailureInfo: &protocol.ApplicationFailureInfo{
			Type:    "ComponentError",
			Details: map[string]any{"node": "node-1"},
		},
	})

	require.NotNil(t, summary)
	assert.Equal(t, "Component crashed", summary.Reason)
	assert.Equal(t, "ComponentError", summary.TemporalCode)
	assert.Equal(t, "Error: boom", summary.Details.StackTrace)
	assert.Equal(t, map[string]any{"node": "node-1"}, summary.Details.ApplicationFailureDetails)
}

func TestSummarizeFailure_NilFailure(t *testing.T) {
	assert.Nil(t, SummarizeFailure(nil))
}

func TestSummarizeFailure_WithoutApplicationInfo(t *testing.T) {
	summary := SummarizeFailure(&protocol.EngineFailure{Message: "timed out"})

	require.NotNil(t, summary)
	assert.Equal(t, "timed out", summary.Reason)
	assert.Empty(t, summary.TemporalCode)
	assert.Nil(t, summary.Details.ApplicationFailureDetails)
}

func TestSummarizeFailure_IsStable(t *testing.T) {
	failure := &protocol.EngineFailure{
		Message: "boom",
		ApplicationFailureInfo: &protocol.ApplicationFailureInfo{
			Type: "ComponentError",
		},
	}

	first := SummarizeFailure(failure)
	second := SummarizeFailure(failure)

	assert.Equal(t, first, second)
}
