// Package proto defines the decision protocol shared by the director's
// approval detector, guardrail validator, and decision engine.
package proto

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ActionType represents the action a decision instructs the caller to take.
type ActionType string

const (
	// ActionRespond sends a conversational message back to the user.
	ActionRespond ActionType = "RESPOND"

	// ActionAskQuestions asks the user for missing session facts (topic,
	// audience, duration, purpose).
	ActionAskQuestions ActionType = "ASK_QUESTIONS"

	// ActionProposePlan proposes a presentation plan for user review.
	ActionProposePlan ActionType = "PROPOSE_PLAN"

	// ActionGenerateStrawman produces a slide-by-slide outline.
	ActionGenerateStrawman ActionType = "GENERATE_STRAWMAN"

	// ActionRefineStrawman revises an existing strawman from user feedback.
	ActionRefineStrawman ActionType = "REFINE_STRAWMAN"

	// ActionInvokeTools dispatches one or more registered tools.
	ActionInvokeTools ActionType = "INVOKE_TOOLS"

	// ActionComplete marks the session as finished.
	ActionComplete ActionType = "COMPLETE"
)

// ParseActionType parses a string into an ActionType with validation.
func ParseActionType(s string) (ActionType, error) {
	switch ActionType(strings.ToUpper(strings.TrimSpace(s))) {
	case ActionRespond:
		return ActionRespond, nil
	case ActionAskQuestions:
		return ActionAskQuestions, nil
	case ActionProposePlan:
		return ActionProposePlan, nil
	case ActionGenerateStrawman:
		return ActionGenerateStrawman, nil
	case ActionRefineStrawman:
		return ActionRefineStrawman, nil
	case ActionInvokeTools:
		return ActionInvokeTools, nil
	case ActionComplete:
		return ActionComplete, nil
	default:
		return "", fmt.Errorf("unknown action type: %s", s)
	}
}

// ToolCall references a registered tool plus the parameters to invoke it with.
// The engine never executes tools; the caller dispatches them.
type ToolCall struct {
	Parameters map[string]any `json:"parameters,omitempty"`
	ID         string         `json:"id,omitempty"`
	Name       string         `json:"name"`
}

// Decision is the per-turn output of the decision engine. It is not
// persisted by the engine itself; the caller may audit-log it.
type Decision struct {
	ID           string     `json:"id"`
	Action       ActionType `json:"action_type"`
	ResponseText string     `json:"response_text,omitempty"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	Reasoning    string     `json:"reasoning,omitempty"`
	Confidence   float64    `json:"confidence"`
}

// Validate checks the decision's structural invariants.
func (d *Decision) Validate() error {
	if _, err := ParseActionType(string(d.Action)); err != nil {
		return err
	}
	if d.Confidence < 0 || d.Confidence > 1 {
		return fmt.Errorf("confidence %.3f out of range [0,1]", d.Confidence)
	}
	if d.Action != ActionInvokeTools && len(d.ToolCalls) > 0 {
		return fmt.Errorf("tool_calls present on %s decision", d.Action)
	}
	for i := range d.ToolCalls {
		if d.ToolCalls[i].Name == "" {
			return fmt.Errorf("tool_call %d has empty name", i)
		}
	}
	return nil
}

// GenerateDecisionID creates a unique ID for a decision.
func GenerateDecisionID() string {
	return "d_" + uuid.NewString()
}

// GenerateSessionID creates a unique ID for a session.
func GenerateSessionID() string {
	return "s_" + uuid.NewString()
}
