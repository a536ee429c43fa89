// Package compiler turns a design-time graph into an ordered, validated
// workflow definition.
package compiler

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/flowgraph/flowgraph/pkg/models"
	"github.com/flowgraph/flowgraph/pkg/registry"
)

// Compiler compiles graphs against the component registry's state at call
// time. Compilation is a pure function of (graph, registry): the same graph
// always yields a structurally identical definition.
type Compiler struct {
	registry *registry.Registry
	logger   *slog.Logger
}

func NewCompiler(reg *registry.Registry, logger *slog.Logger) *Compiler {
	return &Compiler{registry: reg, logger: logger}
}

// resolvedNode is one graph node with its effective port set attached.
type resolvedNode struct {
	node  *models.GraphNode
	ports models.PortSet
	index int // Declaration order, used as the topological tie-break
}

// Compile validates the graph and produces its definition: one action per
// node, listed in a topological order of the wired data dependencies.
func (c *Compiler) Compile(graph *models.Graph) (*models.Definition, error) {
	if graph == nil {
		return nil, newValidationError("EMPTY_GRAPH", "graph is nil")
	}

	resolved, err := c.resolveNodes(graph)
	if err != nil {
		return nil, err
	}

	deps, statics, err := c.buildDependencies(graph, resolved)
	if err != nil {
		return nil, err
	}

	order, err := sortNodes(graph.Nodes, deps)
	if err != nil {
		return nil, err
	}

	actions := make([]*models.Action, 0, len(order))

	for _, node := range order {
		def, getErr := c.registry.Get(node.Type)
		if getErr != nil {
			// resolveNodes already checked registration; keep the invariant visible.
			return nil, &ConfigurationError{Message: "unknown component type", Err: getErr}
		}

		actions = append(actions, &models.Action{
			ID:           node.ID,
			Type:         node.Type,
			Name:         node.Name,
			Parameters:   node.Parameters,
			StaticInputs: statics[node.ID],
			Dependencies: deps[node.ID],
			Retry:        def.Retry,
		})
	}

	return &models.Definition{Actions: actions}, nil
}

// resolveNodes looks every node up in the registry, runs dynamic port
// resolution and validates parameter values against the component's schema.
// Must happen before edge validation: dynamic components' valid ports are not
// statically known.
func (c *Compiler) resolveNodes(graph *models.Graph) (map[string]*resolvedNode, error) {
	resolved := make(map[string]*resolvedNode, len(graph.Nodes))

	for i, node := range graph.Nodes {
		if node.ID == "" {
			return nil, newValidationError("MISSING_NODE_ID", fmt.Sprintf("node at position %d has no id", i))
		}

		if _, dup := resolved[node.ID]; dup {
			return nil, newValidationError("DUPLICATE_NODE_ID", "node id used more than once", node.ID)
		}

		def, err := c.registry.Get(node.Type)
		if err != nil {
			return nil, &ConfigurationError{
				Message: fmt.Sprintf("node '%s' references an unregistered component", node.ID),
				Err:     err,
			}
		}

		if err := c.validateParameters(node, def.Parameters); err != nil {
			return nil, err
		}

		ports, err := def.EffectivePorts(node.Parameters)
		if err != nil {
			return nil, newValidationError(
				"PORT_RESOLUTION_FAILED",
				fmt.Sprintf("resolving ports failed: %v", err),
				node.ID,
			)
		}

		resolved[node.ID] = &resolvedNode{node: node, ports: ports, index: i}
	}

	return resolved, nil
}

func (c *Compiler) validateParameters(node *models.GraphNode, schema *models.JSONSchema) error {
	if schema == nil {
		return nil
	}

	parameters := node.Parameters
	if parameters == nil {
		parameters = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(parameters),
	)
	if err != nil {
		return &ConfigurationError{
			Message: fmt.Sprintf("parameter schema of component '%s' is not loadable", node.Type),
			Err:     err,
		}
	}

	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, resultError := range result.Errors() {
			messages = append(messages, resultError.String())
		}

		return newValidationError(
			"INVALID_PARAMETERS",
			strings.Join(messages, "; "),
			node.ID,
		)
	}

	return nil
}

// buildDependencies validates every edge against the resolved port sets and
// produces, per node, the dependency triples and the surviving static input
// values. A wired port's manual value is dropped unless the port declares
// manual-value precedence, in which case the edge imposes no dependency.
func (c *Compiler) buildDependencies(
	graph *models.Graph,
	resolved map[string]*resolvedNode,
) (map[string][]models.Dependency, map[string]map[string]any, error) {
	deps := make(map[string][]models.Dependency)
	statics := make(map[string]map[string]any, len(graph.Nodes))

	for _, node := range graph.Nodes {
		if len(node.Inputs) > 0 {
			values := make(map[string]any, len(node.Inputs))
			for k, v := range node.Inputs {
				values[k] = v
			}

			statics[node.ID] = values
		}
	}

	for _, edge := range graph.Edges {
		sourceNodeID, sourcePortName, ok := models.ParsePortID(edge.SourcePort)
		if !ok {
			return nil, nil, newValidationError("INVALID_PORT_REF", fmt.Sprintf("edge '%s' has a malformed source port", edge.ID))
		}

		targetNodeID, targetPortName, ok := models.ParsePortID(edge.TargetPort)
		if !ok {
			return nil, nil, newValidationError("INVALID_PORT_REF", fmt.Sprintf("edge '%s' has a malformed target port", edge.ID))
		}

		source, ok := resolved[sourceNodeID]
		if !ok {
			return nil, nil, newValidationError("DANGLING_EDGE", fmt.Sprintf("edge '%s' references unknown source node", edge.ID), sourceNodeID)
		}

		target, ok := resolved[targetNodeID]
		if !ok {
			return nil, nil, newValidationError("DANGLING_EDGE", fmt.Sprintf("edge '%s' references unknown target node", edge.ID), targetNodeID)
		}

		if _, ok := source.ports.Output(sourcePortName); !ok {
			return nil, nil, newValidationError(
				"UNKNOWN_OUTPUT_PORT",
				fmt.Sprintf("node '%s' exposes no output port '%s'", sourceNodeID, sourcePortName),
				sourceNodeID,
			)
		}

		targetPort, ok := target.ports.Input(targetPortName)
		if !ok {
			return nil, nil, newValidationError(
				"UNKNOWN_INPUT_PORT",
				fmt.Sprintf("node '%s' exposes no input port '%s'", targetNodeID, targetPortName),
				targetNodeID,
			)
		}

		_, hasManual := statics[targetNodeID][targetPortName]
		if targetPort.ManualWins && hasManual {
			// Explicit override precedence: the manual value wins, the
			// connection carries no data dependency.
			continue
		}

		if hasManual {
			delete(statics[targetNodeID], targetPortName)
		}

		deps[targetNodeID] = append(deps[targetNodeID], models.Dependency{
			SourceActionID: sourceNodeID,
			SourcePort:     sourcePortName,
			TargetPort:     targetPortName,
		})
	}

	return deps, statics, nil
}

// sortNodes runs a Kahn-style topological sort. Nodes with no ordering
// constraint relative to each other keep their original declaration order,
// so compilation is deterministic and reproducible.
func sortNodes(nodes []*models.GraphNode, deps map[string][]models.Dependency) ([]*models.GraphNode, error) {
	indegree := make(map[string]int, len(nodes))

	for _, node := range nodes {
		sources := make(map[string]struct{})
		for _, dep := range deps[node.ID] {
			sources[dep.SourceActionID] = struct{}{}
		}

		indegree[node.ID] = len(sources)
	}

	emitted := make(map[string]bool, len(nodes))
	order := make([]*models.GraphNode, 0, len(nodes))

	for len(order) < len(nodes) {
		progressed := false

		for _, node := range nodes {
			if emitted[node.ID] || indegree[node.ID] > 0 {
				continue
			}

			emitted[node.ID] = true
			order = append(order, node)
			progressed = true

			for _, other := range nodes {
				if emitted[other.ID] {
					continue
				}

				for _, dep := range deps[other.ID] {
					if dep.SourceActionID == node.ID {
						indegree[other.ID]--

						break
					}
				}
			}
		}

		if !progressed {
			remaining := make([]string, 0)
			for _, node := range nodes {
				if !emitted[node.ID] {
					remaining = append(remaining, node.ID)
				}
			}

			return nil, newValidationError("DEPENDENCY_CYCLE", "dependency cycle between nodes", remaining...)
		}
	}

	return order, nil
}
