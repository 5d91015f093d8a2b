// Package contextmgr manages per-session conversation history and produces
// the token-bounded window handed to the reasoning capability. History is
// append-only and ordered; the window is a suffix of it.
package contextmgr

import (
	"fmt"
	"strings"

	"director/pkg/utils"
)

// DefaultWindowTokens bounds the history portion of a reasoning prompt.
const DefaultWindowTokens = 4000

// Message represents a single turn in the conversation.
type Message struct {
	Role    string
	Content string
}

// Manager manages one session's conversation history. It is not safe for
// concurrent use: per-session serialization is the caller's job.
type Manager struct {
	messages     []Message
	counter      *utils.TokenCounter
	windowTokens int
}

// NewManager creates a context manager with the default window size.
func NewManager() *Manager {
	return NewManagerWithWindow(DefaultWindowTokens)
}

// NewManagerWithWindow creates a context manager bounding the reasoning
// window to the given token count.
func NewManagerWithWindow(windowTokens int) *Manager {
	if windowTokens <= 0 {
		windowTokens = DefaultWindowTokens
	}
	counter, err := utils.NewTokenCounter("gpt-4")
	if err != nil {
		counter = nil // CountTokens falls back to length/4
	}
	return &Manager{
		messages:     make([]Message, 0),
		counter:      counter,
		windowTokens: windowTokens,
	}
}

// AddMessage appends a role/content pair to the history.
func (cm *Manager) AddMessage(role, content string) {
	cm.messages = append(cm.messages, Message{Role: role, Content: content})
}

// AddUserMessage appends a user turn.
func (cm *Manager) AddUserMessage(content string) {
	cm.AddMessage("user", content)
}

// AddAssistantMessage appends an assistant turn.
func (cm *Manager) AddAssistantMessage(content string) {
	cm.AddMessage("assistant", content)
}

// countTokens measures one message including its role tag.
func (cm *Manager) countTokens(m *Message) int {
	text := m.Role + ": " + m.Content
	if cm.counter != nil {
		return cm.counter.CountTokens(text)
	}
	return len(text) / 4
}

// CountTokens returns the token count of the full history.
func (cm *Manager) CountTokens() int {
	total := 0
	for i := range cm.messages {
		total += cm.countTokens(&cm.messages[i])
	}
	return total
}

// Window returns the most recent messages that fit within the token budget,
// in conversation order. Messages are never split. The latest message is
// always included, even when it alone exceeds the budget, so the current
// utterance reaches the reasoning capability.
func (cm *Manager) Window() []Message {
	if len(cm.messages) == 0 {
		return nil
	}

	budget := cm.windowTokens
	start := len(cm.messages)
	for start > 0 {
		cost := cm.countTokens(&cm.messages[start-1])
		if cost > budget && start < len(cm.messages) {
			break
		}
		budget -= cost
		start--
		if budget <= 0 {
			break
		}
	}

	window := make([]Message, len(cm.messages)-start)
	copy(window, cm.messages[start:])
	return window
}

// Messages returns a copy of the full history.
func (cm *Manager) Messages() []Message {
	result := make([]Message, len(cm.messages))
	copy(result, cm.messages)
	return result
}

// Len returns the number of messages in the history.
func (cm *Manager) Len() int {
	return len(cm.messages)
}

// Clear removes all messages.
func (cm *Manager) Clear() {
	cm.messages = cm.messages[:0]
}

// Summary returns a brief description of the context state for logging.
func (cm *Manager) Summary() string {
	if len(cm.messages) == 0 {
		return "empty context"
	}

	roleCounts := make(map[string]int)
	for i := range cm.messages {
		roleCounts[cm.messages[i].Role]++
	}
	var parts []string
	for _, role := range []string{"user", "assistant", "system"} {
		if n := roleCounts[role]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s: %d", role, n))
		}
	}
	return fmt.Sprintf("%d messages (%s), ~%d tokens", len(cm.messages), strings.Join(parts, ", "), cm.CountTokens())
}
