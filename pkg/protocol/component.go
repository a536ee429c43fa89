// Package protocol defines the interfaces and contracts shared by the
// registry, compiler, orchestrator and the engine adapters.
package protocol

import (
	"context"
	"log/slog"

	"github.com/flowgraph/flowgraph/pkg/models"
)

// RunnerKind selects where a component's Execute capability runs.
type RunnerKind string

const (
	RunnerInline RunnerKind = "inline" // In-process
	RunnerDocker RunnerKind = "docker" // Isolated container
)

// RunnerDescriptor declares the execution environment for a component.
// Image, Command, Network and Volumes only apply to the docker kind.
type RunnerDescriptor struct {
	Kind    RunnerKind `json:"kind"`
	Image   string     `json:"image,omitempty"`
	Command []string   `json:"command,omitempty"`
	Network string     `json:"network,omitempty"`
	Volumes []string   `json:"volumes,omitempty"`
}

// ProgressReporter lets an executing action report NODE_PROGRESS messages.
type ProgressReporter interface {
	ReportProgress(ctx context.Context, message string)
}

// AgentTracePublisher receives framed agent sub-turn events.
type AgentTracePublisher interface {
	PublishAgentEvent(ctx context.Context, event *models.AgentTraceEvent)
}

// SecretGetter is the narrow slice of the secrets collaborator that
// executing components need.
type SecretGetter interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// ExecutionContext carries everything one action execution may need.
// Reporter, AgentTrace and Secrets are optional; components must tolerate nil.
type ExecutionContext struct {
	RunID      string
	ActionID   string
	Parameters map[string]any
	Inputs     map[string]any // Resolved input port values, keyed by port name
	Logger     *slog.Logger
	Reporter   ProgressReporter
	AgentTrace AgentTracePublisher
	Secrets    SecretGetter
}

// ExecuteFunc runs a component's business logic and returns its output port
// values keyed by port name.
type ExecuteFunc func(ctx context.Context, ec ExecutionContext) (map[string]any, error)

// ResolvePortsFunc recomputes a component's effective port set from its
// current parameter values.
type ResolvePortsFunc func(parameters map[string]any) (models.PortSet, error)

// ComponentDefinition is one self-contained registry entry: schema
// descriptors bundled with the component's capabilities. No inheritance; a
// component is a value registered once and looked up by Type.
type ComponentDefinition struct {
	Type        string              `json:"type"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Ports       models.PortSet      `json:"ports"`
	Parameters  *models.JSONSchema  `json:"parameters,omitempty"`
	Runner      RunnerDescriptor    `json:"runner"`
	Retry       *models.RetryPolicy `json:"retry,omitempty"`

	Execute      ExecuteFunc      `json:"-"`
	ResolvePorts ResolvePortsFunc `json:"-"` // Optional, for parameter-dependent port sets
}

// EffectivePorts returns the component's port set for the given parameters,
// invoking ResolvePorts when declared.
func (d *ComponentDefinition) EffectivePorts(parameters map[string]any) (models.PortSet, error) {
	if d.ResolvePorts == nil {
		return d.Ports, nil
	}

	return d.ResolvePorts(parameters)
}
