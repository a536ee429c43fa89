// Package manualtrigger provides the entry-point component for manually
// started runs.
package manualtrigger

import (
	"context"

	"github.com/flowgraph/flowgraph/pkg/models"
	"github.com/flowgraph/flowgraph/pkg/protocol"
)

const Type = "manual-trigger"

func Component() *protocol.ComponentDefinition {
	return &protocol.ComponentDefinition{
		Type:        Type,
		Name:        "Manual Trigger",
		Description: "Starts the run and forwards the caller-supplied payload.",
		Ports: models.PortSet{
			Outputs: []models.PortSpec{
				{Name: "payload", Label: "Payload", Type: "object"},
			},
		},
		Runner:  protocol.RunnerDescriptor{Kind: protocol.RunnerInline},
		Execute: execute,
	}
}

func execute(_ context.Context, ec protocol.ExecutionContext) (map[string]any, error) {
	payload := map[string]any{}

	// Run-level inputs arrive on the trigger's input map keyed as provided
	// by the caller.
	for key, value := range ec.Inputs {
		payload[key] = value
	}

	return map[string]any{"payload": payload}, nil
}
