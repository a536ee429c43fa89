package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_PlainString(t *testing.T) {
	result, err := Render("hello {{ .name }}", map[string]any{"name": "world"})
	require.NoError(t, err)
	assert.Equal(t, "hello world", result)
}

func TestRender_JSONObjectIsParsed(t *testing.T) {
	result, err := Render(`{"count": {{ .count }}}`, map[string]any{"count": 2})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"count": float64(2)}, result)
}

func TestRender_JSONArrayIsParsed(t *testing.T) {
	result, err := Render(`[1, 2, 3]`, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{float64(1), float64(2), float64(3)}, result)
}

func TestRender_NumberCoercion(t *testing.T) {
	result, err := Render("3.5", nil)
	require.NoError(t, err)
	assert.Equal(t, 3.5, result)
}

func TestRender_BooleanCoercion(t *testing.T) {
	result, err := Render("{{ .ok }}", map[string]any{"ok": true})
	require.NoError(t, err)
	assert.Equal(t, true, result)
}

func TestRender_CaseFunctions(t *testing.T) {
	result, err := Render(`{{ upper "go" }}-{{ lower "UP" }}`, nil)
	require.NoError(t, err)
	assert.Equal(t, "GO-up", result)
}

func TestRender_JSONFunction(t *testing.T) {
	result, err := Render(`{{ json .payload }}`, map[string]any{
		"payload": map[string]any{"a": 1},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(1)}, result)
}

func TestRender_ParseError(t *testing.T) {
	_, err := Render("{{ .open", nil)
	assert.ErrorContains(t, err, "failed to parse template")
}

func TestRenderWithInputs_BothAccessPaths(t *testing.T) {
	result, err := RenderWithInputs("{{ .value }}/{{ .inputs.value }}", map[string]any{"value": "x"})
	require.NoError(t, err)
	assert.Equal(t, "x/x", result)
}
