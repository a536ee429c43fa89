// Package agentstream frames AI-agent sub-turns as ordered, typed stream
// parts layered on the trace publish mechanism.
package agentstream

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/flowgraph/flowgraph/pkg/models"
	"github.com/flowgraph/flowgraph/pkg/protocol"
)

// Recorder emits the parts of one agent invocation. Sequence numbers are
// monotonic per agent-run id and independent of the owning node's trace
// sequence. When no agent-trace publisher is available the recorder degrades
// to the generic progress channel, a best-effort path with no guaranteed
// consumer.
type Recorder struct {
	mu         sync.Mutex
	agentRunID string
	runID      string
	nodeID     string
	publisher  protocol.AgentTracePublisher
	progress   protocol.ProgressReporter
	sequence   int64
	textSpanID string // Non-empty while a text span is open
}

func NewRecorder(ec protocol.ExecutionContext, agentRunID string) *Recorder {
	return &Recorder{
		agentRunID: agentRunID,
		runID:      ec.RunID,
		nodeID:     ec.ActionID,
		publisher:  ec.AgentTrace,
		progress:   ec.Reporter,
	}
}

func (r *Recorder) EmitMessageStart(ctx context.Context, messageID string) {
	r.emit(ctx, models.AgentStreamPart{Type: models.AgentPartMessageStart, RefID: messageID})
}

// EmitTextDelta lazily opens a text span on the first delta. At most one
// span is open at a time.
func (r *Recorder) EmitTextDelta(ctx context.Context, delta string) {
	r.mu.Lock()
	if r.textSpanID == "" {
		r.textSpanID = fmt.Sprintf("txt-%d", time.Now().UnixNano())
		spanID := r.textSpanID
		r.mu.Unlock()
		r.emit(ctx, models.AgentStreamPart{Type: models.AgentPartTextStart, RefID: spanID})
	} else {
		r.mu.Unlock()
	}

	r.mu.Lock()
	spanID := r.textSpanID
	r.mu.Unlock()

	r.emit(ctx, models.AgentStreamPart{Type: models.AgentPartTextDelta, RefID: spanID, Delta: delta})
}

func (r *Recorder) EmitToolInput(ctx context.Context, callID, toolName string, input any) {
	r.emit(ctx, models.AgentStreamPart{
		Type:     models.AgentPartToolInput,
		RefID:    callID,
		ToolName: toolName,
		Input:    input,
	})
}

func (r *Recorder) EmitToolOutput(ctx context.Context, callID string, output any) {
	r.emit(ctx, models.AgentStreamPart{Type: models.AgentPartToolOutput, RefID: callID, Output: output})
}

func (r *Recorder) EmitToolError(ctx context.Context, callID, message string) {
	r.emit(ctx, models.AgentStreamPart{Type: models.AgentPartToolError, RefID: callID, ErrorText: message})
}

// EmitData emits an open-ended "data-*" extension part.
func (r *Recorder) EmitData(ctx context.Context, kind string, payload map[string]any) {
	r.emit(ctx, models.AgentStreamPart{
		Type: models.AgentStreamPartType(models.AgentPartDataPrefix + kind),
		Data: payload,
	})
}

// EmitFinish closes any open text span and emits the terminal part. Calling
// it without an open span still emits the terminal part; a repeated call
// keeps sequence numbers increasing.
func (r *Recorder) EmitFinish(ctx context.Context) {
	r.mu.Lock()
	spanID := r.textSpanID
	r.textSpanID = ""
	r.mu.Unlock()

	if spanID != "" {
		r.emit(ctx, models.AgentStreamPart{Type: models.AgentPartTextEnd, RefID: spanID})
	}

	r.emit(ctx, models.AgentStreamPart{Type: models.AgentPartFinish})
}

func (r *Recorder) emit(ctx context.Context, part models.AgentStreamPart) {
	r.mu.Lock()
	r.sequence++
	event := &models.AgentTraceEvent{
		AgentRunID: r.agentRunID,
		RunID:      r.runID,
		NodeID:     r.nodeID,
		Sequence:   r.sequence,
		Timestamp:  time.Now().UTC(),
		Part:       part,
	}
	r.mu.Unlock()

	if r.publisher != nil {
		r.publisher.PublishAgentEvent(ctx, event)

		return
	}

	if r.progress != nil {
		r.progress.ReportProgress(ctx, describePart(event))
	}
}

// describePart renders a part as a one-line progress message for the
// degraded fallback path.
func describePart(event *models.AgentTraceEvent) string {
	var b strings.Builder

	fmt.Fprintf(&b, "agent %s #%d %s", event.AgentRunID, event.Sequence, event.Part.Type)

	switch event.Part.Type {
	case models.AgentPartTextDelta:
		fmt.Fprintf(&b, " %q", event.Part.Delta)
	case models.AgentPartToolInput:
		fmt.Fprintf(&b, " tool=%s", event.Part.ToolName)
	case models.AgentPartToolError:
		fmt.Fprintf(&b, " error=%s", event.Part.ErrorText)
	}

	return b.String()
}
