package anthropic

import (
	"testing"

	"director/pkg/llm"
)

func TestPrepareMessagesExtractsSystem(t *testing.T) {
	system, msgs, err := prepareMessages([]llm.CompletionMessage{
		llm.NewSystemMessage("you are a director"),
		llm.NewUserMessage("hello"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if system != "you are a director" {
		t.Errorf("system prompt not extracted: %q", system)
	}
	if len(msgs) != 1 || msgs[0].Role != llm.RoleUser {
		t.Errorf("unexpected messages: %v", msgs)
	}
}

func TestPrepareMessagesMergesConsecutiveUsers(t *testing.T) {
	_, msgs, err := prepareMessages([]llm.CompletionMessage{
		llm.NewUserMessage("part one"),
		llm.NewUserMessage("part two"),
		{Role: llm.RoleAssistant, Content: "reply"},
		llm.NewUserMessage("part three"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 merged messages, got %d", len(msgs))
	}
	if msgs[0].Content != "part one\n\npart two" {
		t.Errorf("consecutive user messages not merged: %q", msgs[0].Content)
	}
	if msgs[2].Role != llm.RoleUser {
		t.Errorf("sequence must end with user, got %s", msgs[2].Role)
	}
}

func TestPrepareMessagesRejectsBadSequences(t *testing.T) {
	if _, _, err := prepareMessages(nil); err == nil {
		t.Error("empty message list must fail")
	}
	if _, _, err := prepareMessages([]llm.CompletionMessage{llm.NewSystemMessage("only system")}); err == nil {
		t.Error("system-only message list must fail")
	}
	if _, _, err := prepareMessages([]llm.CompletionMessage{
		{Role: llm.RoleAssistant, Content: "assistant first"},
	}); err == nil {
		t.Error("assistant-first sequence must fail")
	}
	if _, _, err := prepareMessages([]llm.CompletionMessage{
		llm.NewUserMessage("q"),
		{Role: llm.RoleAssistant, Content: "a"},
	}); err == nil {
		t.Error("assistant-last sequence must fail")
	}
}

func TestGetModelName(t *testing.T) {
	c := NewClient("test-key", "")
	if c.GetModelName() != DefaultModel {
		t.Errorf("expected default model, got %s", c.GetModelName())
	}
	c = NewClient("test-key", "claude-opus-4-5")
	if c.GetModelName() != "claude-opus-4-5" {
		t.Errorf("expected explicit model, got %s", c.GetModelName())
	}
}
