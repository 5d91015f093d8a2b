package guardrail

import (
	"fmt"
	"strings"

	"director/pkg/logx"
	"director/pkg/proto"
	"director/pkg/session"
	"director/pkg/tools"
)

// Validator applies the cost-control rules to each proposed decision. It is
// stateless between calls and safe for concurrent use: all mutable state
// (session progress) is passed in per call, and the registry is sealed
// before any session runs.
type Validator struct {
	registry *tools.Registry
	config   Config
	logger   *logx.Logger
}

// NewValidator creates a validator over the given sealed tool registry.
func NewValidator(registry *tools.Registry, config Config) *Validator {
	return &Validator{
		registry: registry,
		config:   config.withDefaults(),
		logger:   logx.NewLogger("guardrail"),
	}
}

// Result is the validation outcome: the final safe decision plus, when the
// proposal was altered, the downgrade reason for diagnostics and metrics.
type Result struct {
	Decision proto.Decision
	// Downgraded is true when the proposal was altered in any way,
	// including stripping an unknown tool from an otherwise valid
	// decision.
	Downgraded bool
	// Reason is the first violation encountered, nil when compliant.
	Reason error
	// Stripped lists unknown tool identifiers removed from the proposal.
	Stripped []string
}

// Validate applies the rules in order, first violation wins:
//
//  1. Non-INVOKE_TOOLS actions pass through unchanged, except that a
//     completed session only admits RESPOND/COMPLETE until the user
//     explicitly asks to resume.
//  2. Tool calls referencing unknown identifiers are stripped; if none
//     survive, the decision becomes a RESPOND.
//  3. MEDIUM-tier calls require their prerequisite.
//  4. HIGH-tier calls require prerequisite, EXPLICIT approval, and
//     confidence at or above the configured threshold.
//  5. The summed tier weights must fit the per-message budget.
//
// The returned decision always satisfies every rule.
func (v *Validator) Validate(proposed proto.Decision, progress session.Progress, approval proto.ApprovalSignal) Result {
	// Terminal gate: a finished session stays finished unless the user
	// explicitly asks for more. Checked before rule 1 because it binds
	// structural actions too, not just tool invocations.
	if progress.IsComplete && !approval.IsExplicit() {
		if proposed.Action != proto.ActionRespond && proposed.Action != proto.ActionComplete {
			v.logger.Info("blocking %s on completed session", proposed.Action)
			return v.downgrade(proposed, proto.ActionRespond,
				"This session is already complete. Let me know if you'd like to start something new or make more changes.",
				fmt.Errorf("session complete, %s not permitted without explicit resume", proposed.Action), nil)
		}
	}

	// Rule 1: conversational and structural actions are always allowed.
	if proposed.Action != proto.ActionInvokeTools {
		return Result{Decision: proposed}
	}

	// Rule 2: strip unknown tools individually so one hallucinated
	// identifier does not discard otherwise valid calls.
	kept := make([]proto.ToolCall, 0, len(proposed.ToolCalls))
	defs := make([]tools.ToolDefinition, 0, len(proposed.ToolCalls))
	var stripped []string
	for _, call := range proposed.ToolCalls {
		def, err := v.registry.Lookup(call.Name)
		if err != nil {
			v.logger.Warn("stripping unknown tool %q from decision %s", call.Name, proposed.ID)
			stripped = append(stripped, call.Name)
			continue
		}
		kept = append(kept, call)
		defs = append(defs, def)
	}
	if len(kept) == 0 {
		return v.downgrade(proposed, proto.ActionRespond,
			"I wasn't able to run that operation. Could you rephrase what you'd like me to do?",
			&tools.UnknownToolError{Name: strings.Join(stripped, ", ")}, stripped)
	}

	// Rules 3 and 4 per surviving call.
	for i := range kept {
		def := &defs[i]
		switch def.Tier {
		case tools.TierLow:
			// Always eligible.
		case tools.TierMedium:
			if !def.PrerequisiteMet(progress) {
				sig := &PrerequisiteNotMetError{Tool: def.Name, Hint: def.RequiresHint}
				v.logger.Info("downgrading decision %s: %v", proposed.ID, sig)
				return v.downgrade(proposed, proto.ActionAskQuestions,
					prerequisiteText(def), sig, stripped)
			}
		case tools.TierHigh:
			if !def.PrerequisiteMet(progress) {
				sig := &PrerequisiteNotMetError{Tool: def.Name, Hint: def.RequiresHint}
				v.logger.Info("downgrading decision %s: %v", proposed.ID, sig)
				return v.downgrade(proposed, proto.ActionAskQuestions,
					prerequisiteText(def), sig, stripped)
			}
			if !approval.IsExplicit() {
				sig := &ApprovalRequiredError{Tool: def.Name, Reason: fmt.Sprintf("approval is %s", approval.Class)}
				v.logger.Info("downgrading decision %s: %v", proposed.ID, sig)
				return v.downgrade(proposed, proto.ActionRespond,
					approvalText(def), sig, stripped)
			}
			if proposed.Confidence < v.config.HighTierConfidence {
				sig := &ApprovalRequiredError{
					Tool:   def.Name,
					Reason: fmt.Sprintf("confidence %.2f below %.2f", proposed.Confidence, v.config.HighTierConfidence),
				}
				v.logger.Info("downgrading decision %s: %v", proposed.ID, sig)
				return v.downgrade(proposed, proto.ActionRespond,
					approvalText(def), sig, stripped)
			}
		}
	}

	// Rule 5: per-message cost budget over the surviving calls.
	cost := 0
	for i := range defs {
		cost += v.config.weightOf(defs[i].Tier)
	}
	if cost > v.config.MessageBudget {
		sig := &BudgetExceededError{Cost: cost, Budget: v.config.MessageBudget}
		v.logger.Warn("downgrading decision %s: %v", proposed.ID, sig)
		return v.downgrade(proposed, proto.ActionRespond,
			"That would kick off more work than I can run at once. Which part should I do first?",
			sig, stripped)
	}

	validated := proposed
	validated.ToolCalls = kept
	return Result{
		Decision:   validated,
		Downgraded: len(stripped) > 0,
		Stripped:   stripped,
	}
}

// downgrade replaces the proposal with a safe conversational action,
// clearing tool_calls and carrying a human-readable explanation.
func (v *Validator) downgrade(proposed proto.Decision, action proto.ActionType, text string, reason error, stripped []string) Result {
	safe := proposed
	safe.Action = action
	safe.ToolCalls = nil
	safe.ResponseText = text
	safe.Reasoning = fmt.Sprintf("guardrail downgrade: %v", reason)
	return Result{Decision: safe, Downgraded: true, Reason: reason, Stripped: stripped}
}

func prerequisiteText(def *tools.ToolDefinition) string {
	if def.RequiresHint != "" {
		return fmt.Sprintf("Before I can run %s, %s. Let's get that in place first - what would you like to do?", def.Name, def.RequiresHint)
	}
	return fmt.Sprintf("I can't run %s yet - a few things need to happen first. What would you like to do?", def.Name)
}

func approvalText(def *tools.ToolDefinition) string {
	switch def.Name {
	case tools.ToolContentGenerate:
		return "Ready to generate the actual slide content? Just say \"generate\" and I'll get started."
	case tools.ToolIllustratorGenerate:
		return "Ready to generate the illustrations? Say \"generate\" to confirm."
	default:
		return fmt.Sprintf("Running %s is an expensive step, so I need an explicit go-ahead. Say \"generate\" or \"go ahead\" to confirm.", def.Name)
	}
}
