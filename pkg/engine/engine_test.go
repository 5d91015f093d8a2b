package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"director/pkg/approval"
	"director/pkg/contextmgr"
	"director/pkg/guardrail"
	"director/pkg/llm"
	"director/pkg/llm/llmerrors"
	"director/pkg/proto"
	"director/pkg/session"
	"director/pkg/tools"
)

func newTestEngine(t *testing.T, client llm.LLMClient) *Engine {
	t.Helper()
	registry := tools.NewRegistry()
	require.NoError(t, tools.RegisterBuiltins(registry))
	registry.Seal()
	validator := guardrail.NewValidator(registry, guardrail.DefaultConfig())
	return New(client, registry, approval.DefaultDetector(), validator)
}

func respondJSON(text string) string {
	return `{"action": "RESPOND", "response_text": "` + text + `", "reasoning": "conversational turn", "confidence": 0.8}`
}

const invokeContentJSON = `{
  "action": "INVOKE_TOOLS",
  "tool_calls": [{"tool": "content.generate", "parameters": {"strawman_ref": "sm-1", "tone": "formal"}}],
  "reasoning": "user asked for slides",
  "confidence": 0.97
}`

func TestDecideConversationalTurn(t *testing.T) {
	client := llm.NewMockClient([]llm.CompletionResponse{
		{Content: respondJSON("Tell me about your audience.")},
	}, nil)
	e := newTestEngine(t, client)

	res, err := e.Decide(context.Background(), Input{
		SessionID: "sess-1",
		Utterance: "I need a presentation about our Q3 results",
		Progress:  session.NewProgress(),
	})
	require.NoError(t, err)

	assert.Equal(t, proto.ActionRespond, res.Decision.Action)
	assert.Equal(t, "Tell me about your audience.", res.Decision.ResponseText)
	assert.False(t, res.Downgraded)
	assert.Equal(t, proto.ApprovalNone, res.Approval.Class)
	assert.NotEmpty(t, res.Decision.ID)
}

func TestDecideHighTierWithFullApproval(t *testing.T) {
	client := llm.NewMockClient([]llm.CompletionResponse{
		{Content: invokeContentJSON},
	}, nil)
	e := newTestEngine(t, client)

	progress := session.NewProgress()
	progress.HasStrawman = true

	res, err := e.Decide(context.Background(), Input{
		SessionID: "sess-1",
		Utterance: "yes, generate the slides",
		Progress:  progress,
	})
	require.NoError(t, err)

	assert.Equal(t, proto.ActionInvokeTools, res.Decision.Action)
	require.Len(t, res.Decision.ToolCalls, 1)
	assert.Equal(t, "content.generate", res.Decision.ToolCalls[0].Name)
	assert.False(t, res.Downgraded)
	assert.Equal(t, proto.ApprovalExplicit, res.Approval.Class)
}

func TestDecideSoftApprovalDowngradesHighTier(t *testing.T) {
	client := llm.NewMockClient([]llm.CompletionResponse{
		{Content: invokeContentJSON},
	}, nil)
	e := newTestEngine(t, client)

	progress := session.NewProgress()
	progress.HasStrawman = true

	res, err := e.Decide(context.Background(), Input{
		SessionID: "sess-1",
		Utterance: "looks good",
		Progress:  progress,
	})
	require.NoError(t, err)

	assert.Equal(t, proto.ActionRespond, res.Decision.Action)
	assert.Empty(t, res.Decision.ToolCalls)
	assert.NotEmpty(t, res.Decision.ResponseText)
	assert.True(t, res.Downgraded)
	assert.NotEmpty(t, res.DowngradeReason)
	assert.Equal(t, proto.ActionInvokeTools, res.Proposed.Action)
}

func TestDecideRetriesMalformedOutputOnce(t *testing.T) {
	client := llm.NewMockClient([]llm.CompletionResponse{
		{Content: "Sure! I think we should respond to the user."},
		{Content: respondJSON("Happy to help.")},
	}, nil)
	e := newTestEngine(t, client)

	res, err := e.Decide(context.Background(), Input{
		SessionID: "sess-1",
		Utterance: "hello",
		Progress:  session.NewProgress(),
	})
	require.NoError(t, err)

	assert.Equal(t, proto.ActionRespond, res.Decision.Action)
	assert.Equal(t, 2, client.Calls())
}

func TestDecideMalformedOutputExhaustsRetry(t *testing.T) {
	client := llm.NewMockClient([]llm.CompletionResponse{
		{Content: "not a decision"},
		{Content: "still not a decision"},
	}, nil)
	e := newTestEngine(t, client)

	_, err := e.Decide(context.Background(), Input{
		SessionID: "sess-1",
		Utterance: "hello",
		Progress:  session.NewProgress(),
	})
	require.Error(t, err)
	assert.True(t, llm.IsReasoningUnavailable(err))
	assert.True(t, llmerrors.Is(err, llmerrors.ErrorTypeMalformed))
	assert.Equal(t, 2, client.Calls())
}

func TestDecideTransportFailureIsUnavailable(t *testing.T) {
	client := llm.NewMockClient(nil, []error{
		llmerrors.NewError(llmerrors.ErrorTypeAuth, "bad api key"),
	})
	e := newTestEngine(t, client)

	_, err := e.Decide(context.Background(), Input{
		SessionID: "sess-1",
		Utterance: "hello",
		Progress:  session.NewProgress(),
	})
	require.Error(t, err)
	assert.True(t, llm.IsReasoningUnavailable(err))
}

func TestBuildRequestIncludesSessionContext(t *testing.T) {
	e := newTestEngine(t, llm.NewMockClient(nil, nil))

	progress := session.NewProgress()
	progress.HasTopic = true
	progress.HasStrawman = true
	progress.Context["topic"] = "Q3 results"

	req := e.buildRequest(Input{
		SessionID: "sess-1",
		Utterance: "refine slide two",
		Progress:  progress,
		History: []contextmgr.Message{
			{Role: string(llm.RoleUser), Content: "I want a deck about Q3"},
			{Role: string(llm.RoleAssistant), Content: "Who is the audience?"},
		},
		Strawman: "1. Intro\n2. Numbers\n3. Outlook",
	}, proto.ApprovalSignal{Class: proto.ApprovalNone})

	require.GreaterOrEqual(t, len(req.Messages), 4)
	sys := req.Messages[0]
	assert.Equal(t, llm.RoleSystem, sys.Role)
	assert.Contains(t, sys.Content, "has_strawman: true")
	assert.Contains(t, sys.Content, "has_audience: false")
	assert.Contains(t, sys.Content, "Q3 results")
	assert.Contains(t, sys.Content, "content.generate")
	assert.Contains(t, sys.Content, "Approval signal this turn: NONE")
	assert.Contains(t, sys.Content, "2. Numbers")

	last := req.Messages[len(req.Messages)-1]
	assert.Equal(t, llm.RoleUser, last.Role)
	assert.Equal(t, "refine slide two", last.Content)
}

func TestParseDecision(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    proto.ActionType
		wantErr bool
	}{
		{
			name:    "plain object",
			content: respondJSON("hi"),
			want:    proto.ActionRespond,
		},
		{
			name:    "fenced with prose",
			content: "Here is my decision:\n```json\n" + respondJSON("hi") + "\n```",
			want:    proto.ActionRespond,
		},
		{
			name:    "invoke tools",
			content: invokeContentJSON,
			want:    proto.ActionInvokeTools,
		},
		{
			name:    "unknown action",
			content: `{"action": "DANCE", "confidence": 0.5}`,
			wantErr: true,
		},
		{
			name:    "invoke without calls",
			content: `{"action": "INVOKE_TOOLS", "tool_calls": [], "confidence": 0.9}`,
			wantErr: true,
		},
		{
			name:    "no object at all",
			content: "I'd rather chat.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, err := parseDecision(tt.content)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, decision.Action)
			assert.NotEmpty(t, decision.ID)
		})
	}
}

func TestParseDecisionClampsConfidence(t *testing.T) {
	decision, err := parseDecision(`{"action": "RESPOND", "response_text": "hi", "confidence": 1.4}`)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, decision.Confidence, 1e-9)

	decision, err = parseDecision(`{"action": "RESPOND", "response_text": "hi", "confidence": -0.2}`)
	require.NoError(t, err)
	assert.Zero(t, decision.Confidence)
}
