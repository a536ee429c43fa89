package models

// Dependency is one resolved data edge of an action: the named output of an
// upstream action feeding one of this action's input ports.
type Dependency struct {
	SourceActionID string `json:"source_action_id"`
	SourcePort     string `json:"source_port"`
	TargetPort     string `json:"target_port"`
}

// RetryPolicy declares how the durable engine should retry a failing action.
type RetryPolicy struct {
	MaxAttempts        int     `json:"max_attempts"`
	InitialIntervalSec int     `json:"initial_interval_sec"`
	BackoffCoefficient float64 `json:"backoff_coefficient,omitempty"`
}

// Action is one compiled, executable unit corresponding to one graph node.
// Its ID is derived deterministically from the originating node id.
type Action struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Name         string         `json:"name,omitempty"`
	Parameters   map[string]any `json:"parameters,omitempty"`
	StaticInputs map[string]any `json:"static_inputs,omitempty"` // Manual port values, keyed by input port name
	Dependencies []Dependency   `json:"dependencies,omitempty"`
	Retry        *RetryPolicy   `json:"retry,omitempty"`
}

// Definition is the compiled form of a graph: actions listed in a valid
// topological order of their dependency graph. Immutable once produced.
type Definition struct {
	Actions []*Action `json:"actions"`
}

// ActionByID returns the action with the given id, or nil.
func (d *Definition) ActionByID(id string) *Action {
	for _, a := range d.Actions {
		if a.ID == id {
			return a
		}
	}

	return nil
}
