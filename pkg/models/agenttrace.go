package models

import "time"

// AgentStreamPartType tags one framed part of an agent sub-turn. The "data-"
// prefix is an open extension namespace for provider-specific parts.
type AgentStreamPartType string

const (
	AgentPartMessageStart AgentStreamPartType = "message-start"
	AgentPartTextStart    AgentStreamPartType = "text-start"
	AgentPartTextDelta    AgentStreamPartType = "text-delta"
	AgentPartTextEnd      AgentStreamPartType = "text-end"
	AgentPartToolInput    AgentStreamPartType = "tool-input-available"
	AgentPartToolOutput   AgentStreamPartType = "tool-output-available"
	AgentPartToolError    AgentStreamPartType = "tool-error"
	AgentPartFinish       AgentStreamPartType = "finish"
	AgentPartDataPrefix   string              = "data-"
)

// AgentStreamPart is the tagged payload of one agent trace event. Which
// fields are set depends on Type.
type AgentStreamPart struct {
	Type      AgentStreamPartType `json:"type"`
	RefID     string              `json:"ref_id,omitempty"` // Message, text-span or tool-call id
	Delta     string              `json:"delta,omitempty"`
	ToolName  string              `json:"tool_name,omitempty"`
	Input     any                 `json:"input,omitempty"`
	Output    any                 `json:"output,omitempty"`
	ErrorText string              `json:"error_text,omitempty"`
	Data      map[string]any      `json:"data,omitempty"` // Payload of data-* extension parts
}

// AgentTraceEvent is one framed part of an agent invocation nested inside a
// single node's STARTED to COMPLETED/FAILED span. Sequence is monotonic per
// agent-run id and independent of the owning run's trace sequence.
type AgentTraceEvent struct {
	AgentRunID string          `json:"agent_run_id"`
	RunID      string          `json:"run_id"`
	NodeID     string          `json:"node_id"`
	Sequence   int64           `json:"sequence"`
	Timestamp  time.Time       `json:"timestamp"`
	Part       AgentStreamPart `json:"part"`
}
