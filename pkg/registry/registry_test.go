package registry

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgraph/flowgraph/pkg/models"
	"github.com/flowgraph/flowgraph/pkg/protocol"
)

func testComponent(componentType string) *protocol.ComponentDefinition {
	return &protocol.ComponentDefinition{
		Type: componentType,
		Name: componentType,
		Ports: models.PortSet{
			Outputs: []models.PortSpec{{Name: "out", Type: "object"}},
		},
		Execute: func(_ context.Context, _ protocol.ExecutionContext) (map[string]any, error) {
			return map[string]any{"out": "ok"}, nil
		},
	}
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry(slog.Default())
	reg.Register(testComponent("alpha"))

	def, err := reg.Get("alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", def.Type)
}

func TestRegistry_GetUnknownType(t *testing.T) {
	reg := NewRegistry(slog.Default())

	_, err := reg.Get("missing")
	assert.ErrorIs(t, err, ErrComponentNotFound)
}

func TestRegistry_ReRegisterReplacesEntry(t *testing.T) {
	reg := NewRegistry(slog.Default())

	first := testComponent("alpha")
	first.Description = "first"
	reg.Register(first)

	second := testComponent("alpha")
	second.Description = "second"
	reg.Register(second)

	def, err := reg.Get("alpha")
	require.NoError(t, err)
	assert.Equal(t, "second", def.Description)
	assert.Len(t, reg.List(), 1)
}

func TestRegistry_ListIsSortedByType(t *testing.T) {
	reg := NewRegistry(slog.Default())
	reg.Register(testComponent("zeta"))
	reg.Register(testComponent("alpha"))
	reg.Register(testComponent("mid"))

	list := reg.List()
	require.Len(t, list, 3)
	assert.Equal(t, "alpha", list[0].Type)
	assert.Equal(t, "mid", list[1].Type)
	assert.Equal(t, "zeta", list[2].Type)
}

func TestRegistry_ResolvePortsUsesDynamicResolution(t *testing.T) {
	reg := NewRegistry(slog.Default())

	dynamic := testComponent("dynamic")
	dynamic.ResolvePorts = func(parameters map[string]any) (models.PortSet, error) {
		name, _ := parameters["port"].(string)

		return models.PortSet{
			Inputs: []models.PortSpec{{Name: name, Type: "object"}},
		}, nil
	}
	reg.Register(dynamic)

	ports, err := reg.ResolvePorts("dynamic", map[string]any{"port": "custom"})
	require.NoError(t, err)
	require.Len(t, ports.Inputs, 1)
	assert.Equal(t, "custom", ports.Inputs[0].Name)
}

func TestRegistry_ResolvePortsStaticFallback(t *testing.T) {
	reg := NewRegistry(slog.Default())
	reg.Register(testComponent("static"))

	ports, err := reg.ResolvePorts("static", nil)
	require.NoError(t, err)
	require.Len(t, ports.Outputs, 1)
	assert.Equal(t, "out", ports.Outputs[0].Name)
}
