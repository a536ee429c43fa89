// Package logmsg provides the log message component.
package logmsg

import (
	"context"
	"fmt"

	"github.com/flowgraph/flowgraph/pkg/models"
	"github.com/flowgraph/flowgraph/pkg/protocol"
)

const Type = "log"

func Component() *protocol.ComponentDefinition {
	return &protocol.ComponentDefinition{
		Type:        Type,
		Name:        "Log",
		Description: "Writes its input to the run trace and passes it through.",
		Ports: models.PortSet{
			Inputs: []models.PortSpec{
				{Name: "message", Label: "Message", Type: "object", AllowManual: true},
			},
			Outputs: []models.PortSpec{
				{Name: "message", Label: "Message", Type: "object"},
			},
		},
		Parameters: &models.JSONSchema{
			Type: "object",
			Properties: map[string]*models.Property{
				"level": {
					Type:    "string",
					Enum:    []any{"debug", "info", "warn", "error"},
					Default: "info",
				},
			},
		},
		Runner:  protocol.RunnerDescriptor{Kind: protocol.RunnerInline},
		Execute: execute,
	}
}

func execute(ctx context.Context, ec protocol.ExecutionContext) (map[string]any, error) {
	message := ec.Inputs["message"]

	if ec.Logger != nil {
		level, _ := ec.Parameters["level"].(string)
		switch level {
		case "debug":
			ec.Logger.DebugContext(ctx, "Log node", "message", message)
		case "warn":
			ec.Logger.WarnContext(ctx, "Log node", "message", message)
		case "error":
			ec.Logger.ErrorContext(ctx, "Log node", "message", message)
		default:
			ec.Logger.InfoContext(ctx, "Log node", "message", message)
		}
	}

	if ec.Reporter != nil {
		ec.Reporter.ReportProgress(ctx, fmt.Sprintf("%v", message))
	}

	return map[string]any{"message": message}, nil
}
