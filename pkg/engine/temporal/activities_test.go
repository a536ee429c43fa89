package temporal

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"

	"github.com/flowgraph/flowgraph/pkg/models"
	"github.com/flowgraph/flowgraph/pkg/protocol"
	"github.com/flowgraph/flowgraph/pkg/registry"
	"github.com/flowgraph/flowgraph/pkg/trace"
)

func testActivities(t *testing.T) (*Activities, *trace.MemoryRecorder) {
	t.Helper()

	reg := registry.NewRegistry(slog.Default())
	reg.Register(&protocol.ComponentDefinition{
		Type: "echo",
		Name: "Echo",
		Execute: func(_ context.Context, ec protocol.ExecutionContext) (map[string]any, error) {
			if ec.Reporter != nil {
				ec.Reporter.ReportProgress(context.Background(), "echoing")
			}

			return map[string]any{"out": ec.Inputs["in"]}, nil
		},
	})
	reg.Register(&protocol.ComponentDefinition{
		Type: "broken",
		Name: "Broken",
		Execute: func(_ context.Context, _ protocol.ExecutionContext) (map[string]any, error) {
			return nil, errors.New("boom")
		},
	})

	recorder := trace.NewMemoryRecorder(true)

	return NewActivities(reg, recorder, nil, nil), recorder
}

func TestExecuteAction_RecordsLifecycle(t *testing.T) {
	activities, recorder := testActivities(t)

	outputs, err := activities.ExecuteAction(t.Context(), ActionInput{
		RunID:      "run_1",
		WorkflowID: "wf-1",
		Action:     &models.Action{ID: "n1", Type: "echo"},
		Inputs:     map[string]any{"in": "hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"out": "hello"}, outputs)

	assert.Equal(t, 1, recorder.CountByType("run_1", models.TraceNodeStarted))
	assert.Equal(t, 1, recorder.CountByType("run_1", models.TraceNodeProgress))
	assert.Equal(t, 1, recorder.CountByType("run_1", models.TraceNodeCompleted))

	events := recorder.GetEvents("run_1")
	last := events[len(events)-1]
	assert.Equal(t, models.TraceNodeCompleted, last.Type)
	assert.Equal(t, map[string]any{"out": "hello"}, last.OutputSummary)
}

func TestExecuteAction_ComponentErrorBecomesApplicationError(t *testing.T) {
	activities, recorder := testActivities(t)

	_, err := activities.ExecuteAction(t.Context(), ActionInput{
		RunID:  "run_1",
		Action: &models.Action{ID: "n1", Type: "broken"},
	})
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, ComponentErrorType, appErr.Type())
	assert.Equal(t, "boom", appErr.Message())

	var details map[string]any
	require.NoError(t, appErr.Details(&details))
	assert.Equal(t, "n1", details["node"])

	assert.Equal(t, 1, recorder.CountByType("run_1", models.TraceNodeFailed))
	assert.Equal(t, 0, recorder.CountByType("run_1", models.TraceNodeCompleted))
}

func TestExecuteAction_UnknownComponentType(t *testing.T) {
	activities, recorder := testActivities(t)

	_, err := activities.ExecuteAction(t.Context(), ActionInput{
		RunID:  "run_1",
		Action: &models.Action{ID: "n1", Type: "missing"},
	})
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, ComponentErrorType, appErr.Type())

	assert.Equal(t, 1, recorder.CountByType("run_1", models.TraceNodeFailed))
}

func TestFinalizeRun_ReleasesTraceState(t *testing.T) {
	activities, recorder := testActivities(t)

	_, err := activities.ExecuteAction(t.Context(), ActionInput{
		RunID:  "run_1",
		Action: &models.Action{ID: "n1", Type: "echo"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, recorder.GetEvents("run_1"))

	require.NoError(t, activities.FinalizeRun(t.Context(), "run_1"))

	assert.Empty(t, recorder.GetEvents("run_1"))

	// A fresh run under the same id starts its own sequence.
	_, err = activities.ExecuteAction(t.Context(), ActionInput{
		RunID:  "run_1",
		Action: &models.Action{ID: "n1", Type: "echo"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), recorder.GetEvents("run_1")[0].Sequence)
}

func TestSummarizeOutputs(t *testing.T) {
	long := strings.Repeat("x", outputSummaryMaxLen+10)

	summary := summarizeOutputs(map[string]any{
		"text":   long,
		"short":  "ok",
		"count":  3,
		"ratio":  0.5,
		"flag":   true,
		"absent": nil,
		"items":  []any{1, 2, 3},
		"record": map[string]any{"a": 1, "b": 2},
	})

	assert.Equal(t, long[:outputSummaryMaxLen]+"...", summary["text"])
	assert.Equal(t, "ok", summary["short"])
	assert.Equal(t, 3, summary["count"])
	assert.Equal(t, 0.5, summary["ratio"])
	assert.Equal(t, true, summary["flag"])
	assert.Nil(t, summary["absent"])
	assert.Equal(t, "[3 items]", summary["items"])
	assert.Equal(t, "{2 keys}", summary["record"])
}

func TestSummarizeOutputs_Empty(t *testing.T) {
	assert.Nil(t, summarizeOutputs(nil))
	assert.Nil(t, summarizeOutputs(map[string]any{}))
}
