// Package llm provides the reasoning-client interface and middleware
// chaining used by the decision engine. Any client satisfying LLMClient is
// substitutable; the engine treats it as a pure function from a structured
// context to a proposed decision.
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"

	"director/pkg/tools"
)

// CompletionRole represents the role of a message in a conversation.
type CompletionRole string

const (
	// RoleSystem indicates a system message that provides instructions or context.
	RoleSystem CompletionRole = "system"
	// RoleUser indicates a message from the human user.
	RoleUser CompletionRole = "user"
	// RoleAssistant indicates a message from the AI assistant.
	RoleAssistant CompletionRole = "assistant"
)

const (
	// DecisionMaxTokens bounds the reasoning response. Decisions are a
	// small JSON object, never long-form content.
	DecisionMaxTokens = 1024

	// TemperatureDecision keeps decision output near-deterministic while
	// leaving enough randomness that a bounded retry can land differently.
	TemperatureDecision = 0.2
)

// CacheControl represents prompt caching configuration for a message.
// Used with Anthropic's prompt caching feature to reduce costs and latency.
type CacheControl struct {
	Type string `json:"type"`          // "ephemeral"
	TTL  string `json:"ttl,omitempty"` // "5m" or "1h" (optional, defaults to 5m)
}

// CompletionMessage represents a message in a completion request.
type CompletionMessage struct {
	Content      string
	CacheControl *CacheControl `json:"cache_control,omitempty"` // Prompt caching marker
	Role         CompletionRole
}

// ToolCall represents a tool call made by the reasoning model.
type ToolCall struct {
	Parameters map[string]any `json:"parameters"`
	ID         string         `json:"id"`
	Name       string         `json:"name"`
}

// CompletionRequest represents a request to generate a completion.
//
//nolint:govet // fieldalignment: value semantics preferred over pointer indirection
type CompletionRequest struct {
	Messages    []CompletionMessage
	Tools       []tools.ToolDefinition
	ToolChoice  string
	MaxTokens   int
	Temperature float32
}

// CompletionResponse represents a response from a completion request.
//
//nolint:govet // fieldalignment: value semantics preferred over pointer indirection
type CompletionResponse struct {
	ToolCalls  []ToolCall
	Content    string // Main response text
	StopReason string // Why the response stopped: "end_turn", "max_tokens", "refusal", etc.
}

// StreamChunk represents a chunk of streamed completion response.
type StreamChunk struct {
	Error   error
	Content string
	Done    bool
}

// LLMClient defines the interface for reasoning model interactions.
type LLMClient interface { //nolint:revive // Established name across the codebase
	// Complete generates a completion synchronously.
	Complete(ctx context.Context, in CompletionRequest) (CompletionResponse, error)

	// Stream generates a completion as a stream of chunks.
	Stream(ctx context.Context, in CompletionRequest) (<-chan StreamChunk, error)

	// GetModelName returns the model name for this client.
	GetModelName() string
}

// NewCompletionRequest creates a new completion request with decision defaults.
func NewCompletionRequest(messages []CompletionMessage) CompletionRequest {
	return CompletionRequest{
		Messages:    messages,
		MaxTokens:   DecisionMaxTokens,
		Temperature: TemperatureDecision,
	}
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) CompletionMessage {
	return CompletionMessage{
		Role:    RoleSystem,
		Content: content,
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) CompletionMessage {
	return CompletionMessage{
		Role:    RoleUser,
		Content: content,
	}
}

// ReasoningUnavailableError is the only error that crosses the engine
/// boundary: the reasoning capability timed out, failed transport, or kept
// returning unparseable output after the bounded retry. Callers surface a
// generic apology and keep the session alive.
type ReasoningUnavailableError struct {
	Cause error
}

func (e *ReasoningUnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("reasoning capability unavailable: %v", e.Cause)
	}
	return "reasoning capability unavailable"
}

// Unwrap returns the underlying cause.
func (e *ReasoningUnavailableError) Unwrap() error {
	return e.Cause
}

// IsReasoningUnavailable reports whether err is a ReasoningUnavailableError.
func IsReasoningUnavailable(err error) bool {
	var ru *ReasoningUnavailableError
	return errors.As(err, &ru)
}

// StreamToReader converts a stream channel to an io.Reader.
func StreamToReader(stream <-chan StreamChunk) io.Reader {
	pr, pw := io.Pipe()

	go func() {
		defer func() {
			_ = pw.Close()
		}()
		for chunk := range stream {
			if chunk.Error != nil {
				pw.CloseWithError(chunk.Error)
				return
			}
			if _, err := pw.Write([]byte(chunk.Content)); err != nil {
				pw.CloseWithError(err)
				return
			}
			if chunk.Done {
				return
			}
		}
	}()

	return pr
}
