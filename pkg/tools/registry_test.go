package tools

import (
	"strings"
	"testing"

	"director/pkg/session"
)

func testDef(name string, tier CostTier) ToolDefinition {
	return ToolDefinition{
		Name:        name,
		Description: "test tool " + name,
		Tier:        tier,
		InputSchema: InputSchema{Type: "object"},
	}
}

func TestRegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(testDef("deck.render", TierMedium)); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	def, err := r.Lookup("deck.render")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if def.Tier != TierMedium {
		t.Errorf("expected MEDIUM tier, got %s", def.Tier)
	}
}

func TestDuplicateRegistration(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(testDef("deck.render", TierMedium)); err != nil {
		t.Fatalf("first register failed: %v", err)
	}

	err := r.Register(testDef("deck.render", TierHigh))
	if err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
	if !IsDuplicateTool(err) {
		t.Errorf("expected DuplicateToolError, got %T: %v", err, err)
	}
}

func TestLookupUnknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Lookup("nonexistent.tool")
	if err == nil {
		t.Fatal("expected lookup of unknown tool to fail")
	}
	if !IsUnknownTool(err) {
		t.Errorf("expected UnknownToolError, got %T: %v", err, err)
	}
}

func TestSealRejectsRegistration(t *testing.T) {
	r := NewRegistry()
	r.Seal()

	err := r.Register(testDef("deck.render", TierLow))
	if err == nil {
		t.Fatal("expected registration after seal to fail")
	}
	if !strings.Contains(err.Error(), "sealed") {
		t.Errorf("expected sealed error, got: %v", err)
	}
}

func TestListPreservesRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	names := []string{"zeta.one", "alpha.two", "mid.three"}
	for _, name := range names {
		if err := r.Register(testDef(name, TierLow)); err != nil {
			t.Fatalf("register %s failed: %v", name, err)
		}
	}

	defs := r.List()
	if len(defs) != len(names) {
		t.Fatalf("expected %d tools, got %d", len(names), len(defs))
	}
	for i, def := range defs {
		if def.Name != names[i] {
			t.Errorf("position %d: expected %s, got %s", i, names[i], def.Name)
		}
	}
}

func TestListByTier(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(testDef("a.low", TierLow)); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(testDef("b.high", TierHigh)); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(testDef("c.low", TierLow)); err != nil {
		t.Fatal(err)
	}

	lows := r.ListByTier(TierLow)
	if len(lows) != 2 || lows[0].Name != "a.low" || lows[1].Name != "c.low" {
		t.Errorf("unexpected LOW tier listing: %v", lows)
	}
	if len(r.ListByTier(TierHigh)) != 1 {
		t.Errorf("expected 1 HIGH tier tool")
	}
}

func TestValidateRejectsBadDefinitions(t *testing.T) {
	r := NewRegistry()

	cases := []struct {
		name string
		def  ToolDefinition
	}{
		{"empty name", ToolDefinition{Tier: TierLow, InputSchema: InputSchema{Type: "object"}}},
		{"no namespace", testDef("flatname", TierLow)},
		{"bad tier", ToolDefinition{Name: "a.b", Tier: CostTier("EXTREME"), InputSchema: InputSchema{Type: "object"}}},
		{"missing schema type", ToolDefinition{Name: "a.b", Tier: TierLow}},
		{
			"required not in properties",
			ToolDefinition{
				Name: "a.b", Tier: TierLow,
				InputSchema: InputSchema{Type: "object", Required: []string{"ghost"}},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := r.Register(tc.def); err == nil {
				t.Errorf("expected validation failure for %s", tc.name)
			}
		})
	}
}

func TestParseCostTier(t *testing.T) {
	for _, s := range []string{"LOW", "low", " Medium ", "HIGH"} {
		if _, err := ParseCostTier(s); err != nil {
			t.Errorf("ParseCostTier(%q) failed: %v", s, err)
		}
	}
	if _, err := ParseCostTier("FREE"); err == nil {
		t.Error("expected unknown tier to fail")
	}
}

func TestRegisterBuiltins(t *testing.T) {
	r := NewRegistry()
	if err := RegisterBuiltins(r); err != nil {
		t.Fatalf("RegisterBuiltins failed: %v", err)
	}
	r.Seal()

	expect := map[string]CostTier{
		ToolContentGenerate:     TierHigh,
		ToolIllustratorGenerate: TierHigh,
		ToolAnalyticsEnrich:     TierMedium,
		ToolDeckRender:          TierMedium,
		ToolStrawmanRefine:      TierLow,
	}
	if r.Len() != len(expect) {
		t.Fatalf("expected %d builtins, got %d", len(expect), r.Len())
	}
	for name, tier := range expect {
		def, err := r.Lookup(name)
		if err != nil {
			t.Errorf("builtin %s not registered: %v", name, err)
			continue
		}
		if def.Tier != tier {
			t.Errorf("builtin %s: expected tier %s, got %s", name, tier, def.Tier)
		}
	}
}

func TestBuiltinPrerequisites(t *testing.T) {
	r := NewRegistry()
	if err := RegisterBuiltins(r); err != nil {
		t.Fatal(err)
	}

	content, _ := r.Lookup(ToolContentGenerate)
	render, _ := r.Lookup(ToolDeckRender)

	empty := session.NewProgress()
	if content.PrerequisiteMet(empty) {
		t.Error("content.generate should require a strawman")
	}
	if render.PrerequisiteMet(empty) {
		t.Error("deck.render should require content")
	}

	ready := session.NewProgress()
	ready.HasStrawman = true
	ready.HasContent = true
	if !content.PrerequisiteMet(ready) {
		t.Error("content.generate prerequisite should hold with strawman")
	}
	if !render.PrerequisiteMet(ready) {
		t.Error("deck.render prerequisite should hold with content")
	}
}

func TestPromptDocumentation(t *testing.T) {
	r := NewRegistry()
	if err := RegisterBuiltins(r); err != nil {
		t.Fatal(err)
	}

	doc := r.PromptDocumentation()
	for _, want := range []string{ToolContentGenerate, "HIGH tier", "Requires:", "strawman_ref"} {
		if !strings.Contains(doc, want) {
			t.Errorf("prompt documentation missing %q", want)
		}
	}

	if NewRegistry().PromptDocumentation() != "No tools available" {
		t.Error("empty registry should produce placeholder documentation")
	}
}
