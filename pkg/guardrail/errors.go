package guardrail

import "fmt"

// These types are internal downgrade signals, not boundary errors: the
// validator recovers each one into a safe replacement decision and records
// it as the downgrade reason. They never propagate to the caller.

// PrerequisiteNotMetError signals that a tool's prerequisite predicate does
// not hold against current session progress.
type PrerequisiteNotMetError struct {
	Tool string
	Hint string
}

func (e *PrerequisiteNotMetError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("tool %s prerequisite not met: %s", e.Tool, e.Hint)
	}
	return fmt.Sprintf("tool %s prerequisite not met", e.Tool)
}

// ApprovalRequiredError signals that a HIGH-tier invocation lacks explicit
// approval or sufficient confidence.
type ApprovalRequiredError struct {
	Tool   string
	Reason string
}

func (e *ApprovalRequiredError) Error() string {
	return fmt.Sprintf("tool %s requires explicit approval: %s", e.Tool, e.Reason)
}

// BudgetExceededError signals that a decision's cumulative tier weights
// exceed the per-message budget.
type BudgetExceededError struct {
	Cost   int
	Budget int
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("decision cost %d exceeds per-message budget %d", e.Cost, e.Budget)
}
