// Package guardrail validates proposed decisions against cost-control
// rules: unknown tools are stripped, MEDIUM-tier tools require their
// prerequisite, HIGH-tier tools additionally require explicit approval and
// high confidence, and cumulative per-message cost is bounded. The output is
// always a safe decision, never an error the user could see raw.
package guardrail

import "director/pkg/tools"

// Default validation thresholds.
const (
	// DefaultHighTierConfidence is the minimum reasoning confidence for a
	// HIGH-tier invocation to survive validation.
	DefaultHighTierConfidence = 0.95

	// DefaultMessageBudget is the cumulative tier-weight budget one
	// inbound message may spend.
	DefaultMessageBudget = 10
)

// Default tier weights used for the per-message budget.
const (
	weightLow    = 1
	weightMedium = 3
	weightHigh   = 10
)

// Config holds the validator's tunable thresholds. Zero values fall back to
// defaults, so Config{} is usable as-is.
//
//nolint:govet // fieldalignment: logical grouping preferred over memory optimization
type Config struct {
	// HighTierConfidence gates HIGH-tier invocations.
	HighTierConfidence float64

	// MessageBudget caps the summed tier weights of one decision's
	// tool_calls.
	MessageBudget int

	// TierWeights maps cost tiers to budget weights.
	TierWeights map[tools.CostTier]int
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		HighTierConfidence: DefaultHighTierConfidence,
		MessageBudget:      DefaultMessageBudget,
		TierWeights: map[tools.CostTier]int{
			tools.TierLow:    weightLow,
			tools.TierMedium: weightMedium,
			tools.TierHigh:   weightHigh,
		},
	}
}

// withDefaults fills in any zero-valued fields.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.HighTierConfidence <= 0 {
		c.HighTierConfidence = def.HighTierConfidence
	}
	if c.MessageBudget <= 0 {
		c.MessageBudget = def.MessageBudget
	}
	if len(c.TierWeights) == 0 {
		c.TierWeights = def.TierWeights
	}
	return c
}

// weightOf returns the budget weight for a tier, defaulting to the HIGH
// weight for anything unrecognized so misconfiguration fails safe.
func (c Config) weightOf(tier tools.CostTier) int {
	if w, ok := c.TierWeights[tier]; ok {
		return w
	}
	return weightHigh
}
