package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type schemaFixture struct {
	Name string `json:"name" jsonschema:"required"`
	Age  int    `json:"age,omitempty"`
	Kind string `json:"kind" jsonschema:"required,enum=a,enum=b"`
}

func TestSchemaFor_ReflectsStructTags(t *testing.T) {
	s, err := SchemaFor[schemaFixture]()
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &raw))

	assert.Equal(t, "object", raw["type"])
	assert.NotContains(t, raw, "$schema")
	assert.NotContains(t, raw, "$id")

	required, ok := raw["required"].([]any)
	require.True(t, ok)
	assert.ElementsMatch(t, []any{"name", "kind"}, required)

	props, ok := raw["properties"].(map[string]any)
	require.True(t, ok)
	kind, ok := props["kind"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"a", "b"}, kind["enum"])
}

func TestMustSchemaFor_DoesNotPanicOnValidType(t *testing.T) {
	assert.NotPanics(t, func() {
		_ = MustSchemaFor[schemaFixture]()
	})
}
