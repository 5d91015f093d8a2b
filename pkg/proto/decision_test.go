package proto

import (
	"strings"
	"testing"
)

func TestParseActionType(t *testing.T) {
	valid := []string{"RESPOND", "ASK_QUESTIONS", "PROPOSE_PLAN", "GENERATE_STRAWMAN", "REFINE_STRAWMAN", "INVOKE_TOOLS", "COMPLETE"}
	for _, s := range valid {
		at, err := ParseActionType(s)
		if err != nil {
			t.Errorf("ParseActionType(%q) failed: %v", s, err)
		}
		if string(at) != s {
			t.Errorf("ParseActionType(%q) = %q", s, at)
		}
	}

	// Case and whitespace normalization
	at, err := ParseActionType("  respond ")
	if err != nil || at != ActionRespond {
		t.Errorf("expected normalized RESPOND, got %q, %v", at, err)
	}

	if _, err := ParseActionType("EXECUTE"); err == nil {
		t.Error("expected error for unknown action type")
	}
}

func TestDecisionValidate(t *testing.T) {
	d := Decision{
		ID:         GenerateDecisionID(),
		Action:     ActionInvokeTools,
		ToolCalls:  []ToolCall{{Name: "deck.render"}},
		Confidence: 0.9,
	}
	if err := d.Validate(); err != nil {
		t.Errorf("expected valid decision, got %v", err)
	}

	// tool_calls on a non-INVOKE_TOOLS decision
	d.Action = ActionRespond
	if err := d.Validate(); err == nil {
		t.Error("expected error for tool_calls on RESPOND decision")
	}

	// confidence out of range
	d = Decision{Action: ActionRespond, Confidence: 1.5}
	if err := d.Validate(); err == nil {
		t.Error("expected error for confidence out of range")
	}

	// empty tool name
	d = Decision{Action: ActionInvokeTools, ToolCalls: []ToolCall{{Name: ""}}, Confidence: 1}
	if err := d.Validate(); err == nil {
		t.Error("expected error for empty tool name")
	}
}

func TestGenerateDecisionID(t *testing.T) {
	a := GenerateDecisionID()
	b := GenerateDecisionID()
	if a == b {
		t.Error("expected unique decision IDs")
	}
	if !strings.HasPrefix(a, "d_") {
		t.Errorf("expected d_ prefix, got %s", a)
	}
}

func TestSaferOf(t *testing.T) {
	if got := SaferOf(ApprovalExplicit, ApprovalSoft); got != ApprovalSoft {
		t.Errorf("expected SOFT, got %s", got)
	}
	if got := SaferOf(ApprovalNone, ApprovalExplicit); got != ApprovalNone {
		t.Errorf("expected NONE, got %s", got)
	}
	if got := SaferOf(ApprovalSoft, ApprovalSoft); got != ApprovalSoft {
		t.Errorf("expected SOFT, got %s", got)
	}
}

func TestParseApprovalClass(t *testing.T) {
	c, err := ParseApprovalClass("explicit")
	if err != nil || c != ApprovalExplicit {
		t.Errorf("expected EXPLICIT, got %q, %v", c, err)
	}
	if _, err := ParseApprovalClass("MAYBE"); err == nil {
		t.Error("expected error for unknown class")
	}
}
