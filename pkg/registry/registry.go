// Package registry provides the process-wide component catalog.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/flowgraph/flowgraph/pkg/models"
	"github.com/flowgraph/flowgraph/pkg/protocol"
)

// ErrComponentNotFound is returned by Get for unknown component types. The
// compiler surfaces it as a configuration error, never a retryable one.
var ErrComponentNotFound = errors.New("component not found")

// Registry maps a component type to its definition. Registration is
// last-write-wins and idempotent per type; there is no removal. Populated at
// process start, effectively read-only afterwards.
type Registry struct {
	mu         sync.RWMutex
	logger     *slog.Logger
	components map[string]*protocol.ComponentDefinition
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:     logger,
		components: make(map[string]*protocol.ComponentDefinition),
	}
}

// Register adds or replaces a component definition by type.
func (r *Registry) Register(def *protocol.ComponentDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.components[def.Type]; exists {
		r.logger.Warn("Replacing registered component", "type", def.Type)
	}

	r.components[def.Type] = def
}

// Get returns the definition for the given component type.
func (r *Registry) Get(componentType string) (*protocol.ComponentDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.components[componentType]
	if !ok {
		return nil, fmt.Errorf("component type '%s': %w", componentType, ErrComponentNotFound)
	}

	return def, nil
}

// List returns all registered definitions ordered by type.
func (r *Registry) List() []*protocol.ComponentDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]*protocol.ComponentDefinition, 0, len(r.components))
	for _, def := range r.components {
		defs = append(defs, def)
	}

	sort.Slice(defs, func(i, j int) bool { return defs[i].Type < defs[j].Type })

	return defs
}

// ResolvePorts returns the effective port set of the given component type
// for the given parameter values.
func (r *Registry) ResolvePorts(componentType string, parameters map[string]any) (models.PortSet, error) {
	def, err := r.Get(componentType)
	if err != nil {
		return models.PortSet{}, err
	}

	return def.EffectivePorts(parameters)
}
