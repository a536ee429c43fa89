package main

import (
	"context"
	"fmt"
	"os"

	"github.com/flowgraph/flowgraph/pkg/log"
	"github.com/flowgraph/flowgraph/pkg/lokilog"
	"github.com/flowgraph/flowgraph/pkg/models"
)

// agentTracePublisher mirrors agent stream parts into the structured log
// and, when a Loki endpoint is configured, ships them as log lines on the
// "agent" stream.
type agentTracePublisher struct {
	shipper *lokilog.Shipper
}

func newAgentTraceLogger() *agentTracePublisher {
	publisher := &agentTracePublisher{}

	if url := os.Getenv("LOKI_URL"); url != "" {
		publisher.shipper = lokilog.NewShipper(url, log.WithModule("lokilog"))
	}

	return publisher
}

func (p *agentTracePublisher) PublishAgentEvent(ctx context.Context, event *models.AgentTraceEvent) {
	log.WithModule("agent").DebugContext(ctx, "Agent stream part",
		"agent_run_id", event.AgentRunID,
		"run_id", event.RunID,
		"node_id", event.NodeID,
		"sequence", event.Sequence,
		"part_type", event.Part.Type,
	)

	if p.shipper == nil {
		return
	}

	p.shipper.Ship(ctx, lokilog.Line{
		RunID:     event.RunID,
		NodeID:    event.NodeID,
		Stream:    "agent",
		Timestamp: event.Timestamp,
		Message:   describe(event.Part),
	})
}

func describe(part models.AgentStreamPart) string {
	switch part.Type {
	case models.AgentPartTextDelta:
		return part.Delta
	case models.AgentPartToolInput:
		return fmt.Sprintf("tool %s invoked", part.ToolName)
	case models.AgentPartToolError:
		return fmt.Sprintf("tool error: %s", part.ErrorText)
	default:
		return string(part.Type)
	}
}
