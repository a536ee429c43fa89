package temporal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgraph/flowgraph/pkg/models"
)

func TestResolveInputs_WiredValueWinsOverStatic(t *testing.T) {
	action := &models.Action{
		ID:           "b",
		StaticInputs: map[string]any{"in": "static", "mode": "fast"},
		Dependencies: []models.Dependency{
			{SourceActionID: "a", SourcePort: "out", TargetPort: "in"},
		},
	}

	outputs := map[string]map[string]any{
		"a": {"out": "wired"},
	}

	inputs := resolveInputs(action, outputs, nil)

	assert.Equal(t, "wired", inputs["in"])
	assert.Equal(t, "fast", inputs["mode"])
}

func TestResolveInputs_MissingUpstreamPortLeavesStatic(t *testing.T) {
	action := &models.Action{
		ID:           "b",
		StaticInputs: map[string]any{"in": "static"},
		Dependencies: []models.Dependency{
			{SourceActionID: "a", SourcePort: "absent", TargetPort: "in"},
		},
	}

	inputs := resolveInputs(action, map[string]map[string]any{"a": {"out": 1}}, nil)

	assert.Equal(t, "static", inputs["in"])
}

func TestResolveInputs_RunInputsReachRootActionsOnly(t *testing.T) {
	root := &models.Action{ID: "trigger"}
	downstream := &models.Action{
		ID: "task",
		Dependencies: []models.Dependency{
			{SourceActionID: "trigger", SourcePort: "payload", TargetPort: "in"},
		},
	}

	runInputs := map[string]any{"order_id": "o-7"}
	outputs := map[string]map[string]any{"trigger": {"payload": "x"}}

	assert.Equal(t, "o-7", resolveInputs(root, nil, runInputs)["order_id"])
	assert.NotContains(t, resolveInputs(downstream, outputs, runInputs), "order_id")
}

func TestResolveInputs_RunInputsNeverShadowStatics(t *testing.T) {
	root := &models.Action{
		ID:           "trigger",
		StaticInputs: map[string]any{"mode": "manual"},
	}

	inputs := resolveInputs(root, nil, map[string]any{"mode": "caller"})

	assert.Equal(t, "manual", inputs["mode"])
}

func TestBlockedBy(t *testing.T) {
	action := &models.Action{
		ID: "c",
		Dependencies: []models.Dependency{
			{SourceActionID: "a", SourcePort: "out", TargetPort: "left"},
			{SourceActionID: "b", SourcePort: "out", TargetPort: "right"},
		},
	}

	upstream, blocked := blockedBy(action, map[string]bool{"b": true})
	assert.True(t, blocked)
	assert.Equal(t, "b", upstream)

	_, blocked = blockedBy(action, map[string]bool{})
	assert.False(t, blocked)

	_, blocked = blockedBy(&models.Action{ID: "root"}, map[string]bool{"a": true})
	assert.False(t, blocked)
}

func TestActivityOptions_DefaultsToSingleAttempt(t *testing.T) {
	options := activityOptions(&models.Action{ID: "a"})

	assert.Equal(t, defaultActionTimeout, options.StartToCloseTimeout)
	require.NotNil(t, options.RetryPolicy)
	assert.Equal(t, int32(1), options.RetryPolicy.MaximumAttempts)
}

func TestActivityOptions_AppliesDeclaredRetryPolicy(t *testing.T) {
	options := activityOptions(&models.Action{
		ID: "a",
		Retry: &models.RetryPolicy{
			MaxAttempts:        3,
			InitialIntervalSec: 2,
			BackoffCoefficient: 2.5,
		},
	})

	require.NotNil(t, options.RetryPolicy)
	assert.Equal(t, int32(3), options.RetryPolicy.MaximumAttempts)
	assert.Equal(t, 2*time.Second, options.RetryPolicy.InitialInterval)
	assert.Equal(t, 2.5, options.RetryPolicy.BackoffCoefficient)
}

func TestFlattenOutputs(t *testing.T) {
	flat := flattenOutputs(map[string]map[string]any{
		"a": {"out": 1},
		"b": {"result": "two"},
	})

	assert.Equal(t, map[string]any{
		"a": map[string]any{"out": 1},
		"b": map[string]any{"result": "two"},
	}, flat)
}
