package temporal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
)

func TestConvertFailure_Nil(t *testing.T) {
	assert.Nil(t, convertFailure(nil))
}

func TestConvertFailure_PlainError(t *testing.T) {
	failure := convertFailure(errors.New("connection refused"))

	require.NotNil(t, failure)
	assert.Equal(t, "connection refused", failure.Message)
	assert.Nil(t, failure.ApplicationFailureInfo)
}

func TestConvertFailure_ApplicationErrorCarriesTypeAndDetails(t *testing.T) {
	err := temporal.NewApplicationError("boom", ComponentErrorType, map[string]any{"node": "n1"})

	failure := convertFailure(err)

	require.NotNil(t, failure)
	assert.Equal(t, "boom", failure.Message)
	require.NotNil(t, failure.ApplicationFailureInfo)
	assert.Equal(t, ComponentErrorType, failure.ApplicationFailureInfo.Type)
	assert.Equal(t, "n1", failure.ApplicationFailureInfo.Details["node"])
}

func TestConvertFailure_ApplicationErrorWithoutDetails(t *testing.T) {
	err := temporal.NewApplicationError("boom", ComponentErrorType)

	failure := convertFailure(err)

	require.NotNil(t, failure)
	require.NotNil(t, failure.ApplicationFailureInfo)
	assert.Equal(t, ComponentErrorType, failure.ApplicationFailureInfo.Type)
	assert.Empty(t, failure.ApplicationFailureInfo.Details)
}

func TestConvertFailure_WrappedApplicationErrorWins(t *testing.T) {
	inner := temporal.NewApplicationError("component crashed", ComponentErrorType)
	wrapped := temporal.NewWorkflowExecutionError("wf-1", "run-1", ExecuteActionLabel, inner)

	failure := convertFailure(wrapped)

	require.NotNil(t, failure)
	assert.Equal(t, "component crashed", failure.Message)
	require.NotNil(t, failure.ApplicationFailureInfo)
	assert.Equal(t, ComponentErrorType, failure.ApplicationFailureInfo.Type)
}
