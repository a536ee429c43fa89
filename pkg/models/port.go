package models

// PortDirection represents the direction of data flow for a port.
type PortDirection string

const (
	PortDirectionInput  PortDirection = "input"
	PortDirectionOutput PortDirection = "output"
)

// PortSpec describes one named, typed slot on a component.
//
// AllowManual marks ports that accept a manually typed value in place of a
// connection. ManualWins inverts the usual precedence: when both a manual
// value and a connection are present, the manual value is used and the
// connection imposes no data dependency.
type PortSpec struct {
	Name        string `json:"name"`
	Label       string `json:"label,omitempty"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type"` // JSON schema primitive: string, number, boolean, object, array
	Required    bool   `json:"required"`
	AllowManual bool   `json:"allow_manual"`
	ManualWins  bool   `json:"manual_wins,omitempty"`
	Secret      bool   `json:"secret,omitempty"` // Port carries a credential resolved through the secrets store
}

// PortSet is the effective input/output port set of a node after dynamic
// port resolution.
type PortSet struct {
	Inputs  []PortSpec `json:"inputs"`
	Outputs []PortSpec `json:"outputs"`
}

// Input returns the input port spec with the given name.
func (s PortSet) Input(name string) (PortSpec, bool) {
	for _, p := range s.Inputs {
		if p.Name == name {
			return p, true
		}
	}

	return PortSpec{}, false
}

// Output returns the output port spec with the given name.
func (s PortSet) Output(name string) (PortSpec, bool) {
	for _, p := range s.Outputs {
		if p.Name == name {
			return p, true
		}
	}

	return PortSpec{}, false
}
