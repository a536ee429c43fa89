// Package models defines the core domain models for graph-based workflow automation.
package models

// GraphNode is a component instance placed on the canvas.
type GraphNode struct {
	ID         string         `json:"id"         validate:"required"`
	Type       string         `json:"type"       validate:"required"` // Component type, resolved through the registry
	Name       string         `json:"name"`
	Parameters map[string]any `json:"parameters"`       // User-configured, non-port values
	Inputs     map[string]any `json:"inputs,omitempty"` // Manually typed values keyed by input port name
	PositionX  int            `json:"position_x"`
	PositionY  int            `json:"position_y"`
}

// Edge connects an output port to an input port (fully normalized).
// Port references use Port.ID format: "{node_id}:{port_name}".
type Edge struct {
	ID         string `json:"id"`
	SourcePort string `json:"source_port" validate:"required"`
	TargetPort string `json:"target_port" validate:"required"`
}

// Graph is the design-time, user-edited representation of a workflow.
type Graph struct {
	Nodes []*GraphNode `json:"nodes"`
	Edges []*Edge      `json:"edges"`
}

// NodeByID returns the node with the given id, or nil.
func (g *Graph) NodeByID(id string) *GraphNode {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n
		}
	}

	return nil
}

// ParsePortID parses a port ID in format "{node_id}:{port_name}" into components.
func ParsePortID(portID string) (string, string, bool) {
	for i := range len(portID) {
		if portID[i] == ':' {
			return portID[:i], portID[i+1:], true
		}
	}

	return "", "", false
}

// MakePortID creates a port ID from node ID and port name.
func MakePortID(nodeID, portName string) string {
	return nodeID + ":" + portName
}
