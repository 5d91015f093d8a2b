package proto

import (
	"fmt"
	"strings"
)

// ApprovalClass classifies how strongly a user utterance authorizes an
// expensive action.
type ApprovalClass string

const (
	// ApprovalExplicit indicates an unambiguous authorization phrase
	// ("generate", "go ahead", "build it").
	ApprovalExplicit ApprovalClass = "EXPLICIT"

	// ApprovalSoft indicates a soft acknowledgment that must not be
	// treated as authorization ("looks good", "ok", "sounds good").
	ApprovalSoft ApprovalClass = "SOFT"

	// ApprovalNone indicates no approval signal in the utterance.
	ApprovalNone ApprovalClass = "NONE"
)

// ParseApprovalClass parses a string into an ApprovalClass with validation.
func ParseApprovalClass(s string) (ApprovalClass, error) {
	switch ApprovalClass(strings.ToUpper(strings.TrimSpace(s))) {
	case ApprovalExplicit:
		return ApprovalExplicit, nil
	case ApprovalSoft:
		return ApprovalSoft, nil
	case ApprovalNone:
		return ApprovalNone, nil
	default:
		return "", fmt.Errorf("unknown approval class: %s", s)
	}
}

// rank orders classes from safest (lowest) to most permissive.
func (c ApprovalClass) rank() int {
	switch c {
	case ApprovalNone:
		return 0
	case ApprovalSoft:
		return 1
	case ApprovalExplicit:
		return 2
	default:
		return -1
	}
}

// SaferOf returns the safer (less permissive) of two classes. Under-approval
// is the safe failure mode: it blocks an expensive action instead of
// allowing an unwanted one.
func SaferOf(a, b ApprovalClass) ApprovalClass {
	if a.rank() <= b.rank() {
		return a
	}
	return b
}

// ApprovalSignal is the per-message output of the approval detector.
// Matched holds the phrases that produced the classification (diagnostic).
type ApprovalSignal struct {
	Class   ApprovalClass `json:"class"`
	Matched []string      `json:"matched,omitempty"`
}

// IsExplicit reports whether the signal authorizes HIGH-tier actions.
func (s ApprovalSignal) IsExplicit() bool {
	return s.Class == ApprovalExplicit
}
