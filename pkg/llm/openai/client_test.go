package openai

import (
	"testing"

	"director/pkg/tools"
)

func TestPropertySchema(t *testing.T) {
	schema := propertySchema(&tools.Property{
		Type:        "array",
		Description: "slides to enrich",
		Items:       &tools.Property{Type: "string"},
	})
	if schema["type"] != "array" {
		t.Errorf("type not carried over: %v", schema["type"])
	}
	items, ok := schema["items"].(map[string]any)
	if !ok || items["type"] != "string" {
		t.Errorf("array items not converted: %v", schema["items"])
	}

	nested := propertySchema(&tools.Property{
		Type: "object",
		Properties: map[string]*tools.Property{
			"tone": {Type: "string", Enum: []string{"formal"}},
		},
	})
	props, ok := nested["properties"].(map[string]any)
	if !ok {
		t.Fatalf("object properties not converted: %v", nested)
	}
	tone, ok := props["tone"].(map[string]any)
	if !ok || len(tone["enum"].([]string)) != 1 {
		t.Errorf("nested enum not converted: %v", props)
	}
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient("test-key", "")
	if c.GetModelName() != DefaultModel {
		t.Errorf("expected default model, got %s", c.GetModelName())
	}
	c = NewClient("test-key", "o3")
	if c.GetModelName() != "o3" {
		t.Errorf("expected explicit model, got %s", c.GetModelName())
	}
}
