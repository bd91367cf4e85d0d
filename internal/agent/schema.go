package agent

import (
	"encoding/json"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var stepSchemaDoc = map[string]any{
	"type":     "object",
	"required": []string{"title", "description"},
	"properties": map[string]any{
		"id":          map[string]any{"type": []string{"string", "number", "null"}},
		"title":       map[string]any{"type": "string", "minLength": 1},
		"description": map[string]any{"type": "string", "minLength": 1},
		"tips":        map[string]any{"type": "string"},
		"duration":    map[string]any{"type": "string"},
		"priority":    map[string]any{"type": "string"},
	},
}

var planSchemaDoc = map[string]any{
	"type":     "object",
	"required": []string{"title", "steps"},
	"properties": map[string]any{
		"title":    map[string]any{"type": "string", "minLength": 1},
		"overview": map[string]any{"type": "string"},
		"steps": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items":    stepSchemaDoc,
		},
	},
}

var (
	planSchema = mustCompileSchema("plan.json", planSchemaDoc)
	stepSchema = mustCompileSchema("step.json", stepSchemaDoc)
)

func compileSchema(name string, doc map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, strings.NewReader(string(b))); err != nil {
		return nil, err
	}
	return c.Compile(name)
}

func mustCompileSchema(name string, doc map[string]any) *jsonschema.Schema {
	s, err := compileSchema(name, doc)
	if err != nil {
		panic("agent: invalid built-in schema " + name + ": " + err.Error())
	}
	return s
}
