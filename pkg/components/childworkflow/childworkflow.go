// Package childworkflow provides the component that runs another workflow
// and exposes its result. Input ports are derived from the declared
// runtime inputs.
package childworkflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/flowgraph/flowgraph/pkg/models"
	"github.com/flowgraph/flowgraph/pkg/protocol"
)

const Type = "child-workflow"

// ErrNoStarter is returned when the component was registered without a
// starter, which happens only in tooling contexts that never execute.
var ErrNoStarter = errors.New("child workflow starter not configured")

// Starter runs a workflow to completion on behalf of the component.
type Starter interface {
	RunToCompletion(ctx context.Context, workflowID string, inputs map[string]any) (map[string]any, error)
}

func Component(starter Starter) *protocol.ComponentDefinition {
	return &protocol.ComponentDefinition{
		Type:        Type,
		Name:        "Child Workflow",
		Description: "Runs another workflow and exposes its result.",
		Ports: models.PortSet{
			Outputs: []models.PortSpec{
				{Name: "result", Label: "Result", Type: "object"},
			},
		},
		Parameters: &models.JSONSchema{
			Type: "object",
			Properties: map[string]*models.Property{
				"workflow_id": {
					Type:        "string",
					Description: "Target workflow id",
				},
				"inputs": {
					Type:        "array",
					Description: "Runtime inputs forwarded to the child run",
					Items: &models.Property{
						Type: "object",
						Properties: map[string]*models.Property{
							"name": {Type: "string"},
							"type": {Type: "string", Default: "object"},
						},
						Required: []string{"name"},
					},
				},
			},
			Required: []string{"workflow_id"},
		},
		Runner: protocol.RunnerDescriptor{Kind: protocol.RunnerInline},
		Execute: func(ctx context.Context, ec protocol.ExecutionContext) (map[string]any, error) {
			return execute(ctx, ec, starter)
		},
		ResolvePorts: resolvePorts,
	}
}

// resolvePorts exposes one input port per declared runtime input.
func resolvePorts(parameters map[string]any) (models.PortSet, error) {
	ports := models.PortSet{
		Outputs: []models.PortSpec{
			{Name: "result", Label: "Result", Type: "object"},
		},
	}

	raw, ok := parameters["inputs"].([]any)
	if !ok {
		return ports, nil
	}

	for i, entry := range raw {
		spec, ok := entry.(map[string]any)
		if !ok {
			return models.PortSet{}, fmt.Errorf("input %d is not an object", i)
		}

		name, _ := spec["name"].(string)
		if name == "" {
			return models.PortSet{}, fmt.Errorf("input %d has no name", i)
		}

		portType, _ := spec["type"].(string)
		if portType == "" {
			portType = "object"
		}

		ports.Inputs = append(ports.Inputs, models.PortSpec{
			Name:        name,
			Type:        portType,
			AllowManual: true,
		})
	}

	return ports, nil
}

func execute(ctx context.Context, ec protocol.ExecutionContext, starter Starter) (map[string]any, error) {
	if starter == nil {
		return nil, ErrNoStarter
	}

	workflowID, _ := ec.Parameters["workflow_id"].(string)
	if workflowID == "" {
		return nil, fmt.Errorf("child workflow requires a workflow_id")
	}

	result, err := starter.RunToCompletion(ctx, workflowID, ec.Inputs)
	if err != nil {
		return nil, fmt.Errorf("child workflow failed: %w", err)
	}

	return map[string]any{"result": result}, nil
}
