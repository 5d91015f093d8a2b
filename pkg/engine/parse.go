package engine

import (
	"encoding/json"
	"fmt"

	"director/pkg/proto"
	"director/pkg/utils"
)

// wireDecision is the JSON shape the reasoning capability is asked to emit.
type wireDecision struct {
	Action       string         `json:"action"`
	ResponseText string         `json:"response_text"`
	ToolCalls    []wireToolCall `json:"tool_calls"`
	Reasoning    string         `json:"reasoning"`
	Confidence   float64        `json:"confidence"`
}

type wireToolCall struct {
	Parameters map[string]any `json:"parameters"`
	Tool       string         `json:"tool"`
}

// parseDecision extracts and validates a proposed decision from raw
// reasoning output. The output may carry prose or code fences around the
// JSON object; only the object is read.
func parseDecision(content string) (proto.Decision, error) {
	raw, err := utils.ExtractJSONObject(content)
	if err != nil {
		return proto.Decision{}, fmt.Errorf("no decision object in output: %w", err)
	}

	var wire wireDecision
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return proto.Decision{}, fmt.Errorf("malformed decision object: %w", err)
	}

	action, err := proto.ParseActionType(wire.Action)
	if err != nil {
		return proto.Decision{}, fmt.Errorf("invalid decision: %w", err)
	}

	decision := proto.Decision{
		ID:           proto.GenerateDecisionID(),
		Action:       action,
		ResponseText: wire.ResponseText,
		Reasoning:    wire.Reasoning,
		Confidence:   clampConfidence(wire.Confidence),
	}

	// Models occasionally attach an empty tool_calls array to conversational
	// actions; only INVOKE_TOOLS keeps them.
	if action == proto.ActionInvokeTools {
		if len(wire.ToolCalls) == 0 {
			return proto.Decision{}, fmt.Errorf("invalid decision: INVOKE_TOOLS with no tool_calls")
		}
		decision.ToolCalls = make([]proto.ToolCall, 0, len(wire.ToolCalls))
		for i, call := range wire.ToolCalls {
			if call.Tool == "" {
				return proto.Decision{}, fmt.Errorf("invalid decision: tool_call %d has no tool name", i)
			}
			decision.ToolCalls = append(decision.ToolCalls, proto.ToolCall{
				ID:         fmt.Sprintf("call_%d", i),
				Name:       call.Tool,
				Parameters: call.Parameters,
			})
		}
	}

	if err := decision.Validate(); err != nil {
		return proto.Decision{}, fmt.Errorf("invalid decision: %w", err)
	}
	return decision, nil
}

// clampConfidence keeps out-of-range model output from failing validation;
// the guardrails treat anything outside [0,1] as the nearest bound.
func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
