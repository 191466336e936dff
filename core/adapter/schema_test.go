package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeSchema(t *testing.T) {
	in := map[string]any{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"title":   "Roadmap",
		"type":    "object",
		"properties": map[string]any{
			"steps": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":      []any{"null", "string"},
					"minLength": 1,
				},
			},
			"name": map[string]any{"type": "string", "default": "x"},
		},
		"additionalProperties": false,
		"required":             []any{"steps"},
	}

	out := SanitizeSchema(in)

	assert.Equal(t, map[string]any{
		"type": "object",
		"properties": map[string]any{
			"steps": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"name": map[string]any{"type": "string"},
		},
		"required": []any{"steps"},
	}, out)

	// 入参保持不变
	assert.Equal(t, "Roadmap", in["title"])
	props := in["properties"].(map[string]any)
	assert.Equal(t, "x", props["name"].(map[string]any)["default"])
}

func TestBuildRequest_ResponseSchema(t *testing.T) {
	req := BuildRequest(GenerateParams{
		Prompt:         "p",
		ResponseSchema: map[string]any{"type": "object", "title": "T"},
	})

	require.NotNil(t, req.GenerationConfig)
	assert.Equal(t, "application/json", req.GenerationConfig.ResponseMimeType)
	assert.Equal(t, map[string]any{"type": "object"}, req.GenerationConfig.ResponseSchema)
	assert.Nil(t, SanitizeSchema(nil))
}
