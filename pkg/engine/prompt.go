package engine

import (
	"fmt"
	"strings"

	"director/pkg/llm"
	"director/pkg/proto"
	"director/pkg/session"
)

const systemPromptHeader = `You are the director of a presentation-building assistant. Each turn you
decide the single next action for the conversation.

Reply with ONLY a JSON object in this shape:
{
  "action": "RESPOND | ASK_QUESTIONS | PROPOSE_PLAN | GENERATE_STRAWMAN | REFINE_STRAWMAN | INVOKE_TOOLS | COMPLETE",
  "response_text": "message to send to the user, if any",
  "tool_calls": [{"tool": "name", "parameters": {}}],
  "reasoning": "one sentence on why",
  "confidence": 0.0
}

Rules:
- tool_calls only with action INVOKE_TOOLS, and only tools from the menu below.
- Ask for missing basics (topic, audience, duration, purpose) before planning.
- Expensive tools need the user's explicit go-ahead; when in doubt, ask.
- confidence is your own calibration in [0,1].`

// buildRequest assembles the reasoning input: system guidance with session
// flags, the tool menu, and the approval signal, followed by the bounded
// history window and the current utterance.
func (e *Engine) buildRequest(in Input, signal proto.ApprovalSignal) llm.CompletionRequest {
	var sys strings.Builder
	sys.WriteString(systemPromptHeader)
	sys.WriteString("\n\n## Session state\n\n")
	sys.WriteString(renderProgress(in.Progress))
	sys.WriteString(fmt.Sprintf("\nApproval signal this turn: %s\n", signal.Class))
	if len(signal.Matched) > 0 {
		sys.WriteString(fmt.Sprintf("Matched phrases: %s\n", strings.Join(signal.Matched, ", ")))
	}
	sys.WriteString("\n")
	sys.WriteString(e.registry.PromptDocumentation())
	if in.Strawman != "" {
		sys.WriteString("\n## Current strawman\n\n")
		sys.WriteString(in.Strawman)
		sys.WriteString("\n")
	}

	messages := make([]llm.CompletionMessage, 0, len(in.History)+2)
	messages = append(messages, llm.NewSystemMessage(sys.String()))
	for _, msg := range in.History {
		messages = append(messages, llm.CompletionMessage{
			Role:    llm.CompletionRole(msg.Role),
			Content: msg.Content,
		})
	}
	messages = append(messages, llm.NewUserMessage(in.Utterance))

	req := llm.NewCompletionRequest(messages)
	req.Temperature = llm.TemperatureDecision
	req.MaxTokens = llm.DecisionMaxTokens
	return req
}

// renderProgress lists the session flags plus any accumulated facts.
func renderProgress(p session.Progress) string {
	var b strings.Builder
	flags := []struct {
		name string
		set  bool
	}{
		{"has_topic", p.HasTopic},
		{"has_audience", p.HasAudience},
		{"has_duration", p.HasDuration},
		{"has_purpose", p.HasPurpose},
		{"has_plan", p.HasPlan},
		{"has_strawman", p.HasStrawman},
		{"has_explicit_approval", p.HasExplicitApproval},
		{"has_content", p.HasContent},
		{"is_complete", p.IsComplete},
	}
	for _, f := range flags {
		b.WriteString(fmt.Sprintf("- %s: %t\n", f.name, f.set))
	}
	if len(p.Context) > 0 {
		b.WriteString("\nKnown facts:\n")
		for k, v := range p.Context {
			b.WriteString(fmt.Sprintf("- %s: %v\n", k, v))
		}
	}
	return b.String()
}
