package google

import (
	"testing"

	"google.golang.org/genai"

	"director/pkg/llm"
	"director/pkg/tools"
)

func TestConvertMessages(t *testing.T) {
	contents, system, err := convertMessages([]llm.CompletionMessage{
		llm.NewSystemMessage("part one"),
		llm.NewSystemMessage("part two"),
		llm.NewUserMessage("hello"),
		{Role: llm.RoleAssistant, Content: "hi there"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if system != "part one\n\npart two" {
		t.Errorf("system instructions not merged: %q", system)
	}
	if len(contents) != 2 {
		t.Fatalf("expected 2 contents, got %d", len(contents))
	}
	if contents[0].Role != "user" {
		t.Errorf("expected user role, got %s", contents[0].Role)
	}
	if contents[1].Role != "model" {
		t.Errorf("assistant must map to model role, got %s", contents[1].Role)
	}

	if _, _, err := convertMessages(nil); err == nil {
		t.Error("empty message list must fail")
	}
	if _, _, err := convertMessages([]llm.CompletionMessage{{Role: "tool", Content: "x"}}); err == nil {
		t.Error("unsupported role must fail")
	}
}

func TestConvertProperty(t *testing.T) {
	schema := convertProperty(&tools.Property{
		Type:        "array",
		Description: "slides",
		Items:       &tools.Property{Type: "string"},
	})
	if schema.Type != genai.TypeArray {
		t.Errorf("expected array type, got %v", schema.Type)
	}
	if schema.Items == nil || schema.Items.Type != genai.TypeString {
		t.Error("array items not converted")
	}

	enum := convertProperty(&tools.Property{Type: "string", Enum: []string{"formal", "casual"}})
	if len(enum.Enum) != 2 {
		t.Errorf("enum values not carried over: %v", enum.Enum)
	}

	unknown := convertProperty(&tools.Property{Type: "mystery"})
	if unknown.Type != genai.TypeString {
		t.Error("unknown types fall back to string")
	}
}

func TestConvertTools(t *testing.T) {
	decls := convertTools([]tools.ToolDefinition{{
		Name:        "deck.render",
		Description: "render the deck",
		Tier:        tools.TierMedium,
		InputSchema: tools.InputSchema{
			Type: "object",
			Properties: map[string]tools.Property{
				"theme": {Type: "string"},
			},
			Required: []string{"theme"},
		},
	}})
	if len(decls) != 1 {
		t.Fatalf("expected 1 declaration, got %d", len(decls))
	}
	if decls[0].Name != "deck.render" {
		t.Errorf("name not carried over: %s", decls[0].Name)
	}
	if decls[0].Parameters.Properties["theme"] == nil {
		t.Error("properties not converted")
	}
	if len(decls[0].Parameters.Required) != 1 {
		t.Error("required fields not carried over")
	}
}
