// Package transform provides the expression-based data transform component.
package transform

import (
	"context"
	"errors"
	"fmt"

	"github.com/flowgraph/flowgraph/pkg/models"
	"github.com/flowgraph/flowgraph/pkg/protocol"
	"github.com/flowgraph/flowgraph/pkg/template"
)

const Type = "transform"

// ErrExpressionRequired is returned when the expression parameter is empty.
var ErrExpressionRequired = errors.New("transform requires an expression")

func Component() *protocol.ComponentDefinition {
	return &protocol.ComponentDefinition{
		Type:        Type,
		Name:        "Transform",
		Description: "Renders an expression against the node's inputs.",
		Ports: models.PortSet{
			Inputs: []models.PortSpec{
				{Name: "value", Label: "Value", Type: "object", AllowManual: true},
			},
			Outputs: []models.PortSpec{
				{Name: "result", Label: "Result", Type: "object"},
			},
		},
		Parameters: &models.JSONSchema{
			Type: "object",
			Properties: map[string]*models.Property{
				"expression": {
					Type:        "string",
					Description: "Template expression rendered against the inputs",
				},
			},
			Required: []string{"expression"},
		},
		Runner:  protocol.RunnerDescriptor{Kind: protocol.RunnerInline},
		Execute: execute,
	}
}

func execute(_ context.Context, ec protocol.ExecutionContext) (map[string]any, error) {
	expression, _ := ec.Parameters["expression"].(string)
	if expression == "" {
		return nil, ErrExpressionRequired
	}

	result, err := template.RenderWithInputs(expression, ec.Inputs)
	if err != nil {
		return nil, fmt.Errorf("transform failed: %w", err)
	}

	return map[string]any{"result": result}, nil
}
