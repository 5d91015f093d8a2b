// Package tools provides the tool registry and cost-tier model used by the
// guardrail validator: a static catalog of invocable operations, each tagged
// with a cost tier, prerequisite predicate, and input schema.
package tools

import (
	"fmt"
	"strings"

	"director/pkg/session"
)

// CostTier classifies how expensive/risky a tool invocation is, governing
// what approval the guardrail validator requires.
type CostTier string

const (
	// TierLow tools are cheap, conversational-scale operations.
	TierLow CostTier = "LOW"

	// TierMedium tools consume real resources and require their
	// prerequisite to hold.
	TierMedium CostTier = "MEDIUM"

	// TierHigh tools are expensive generation calls and additionally
	// require explicit user approval.
	TierHigh CostTier = "HIGH"
)

// ParseCostTier parses a string into a CostTier with validation.
func ParseCostTier(s string) (CostTier, error) {
	switch CostTier(strings.ToUpper(strings.TrimSpace(s))) {
	case TierLow:
		return TierLow, nil
	case TierMedium:
		return TierMedium, nil
	case TierHigh:
		return TierHigh, nil
	default:
		return "", fmt.Errorf("unknown cost tier: %s", s)
	}
}

// Property describes one input schema field.
type Property struct {
	Type        string               `json:"type"`
	Description string               `json:"description,omitempty"`
	Enum        []string             `json:"enum,omitempty"`
	Items       *Property            `json:"items,omitempty"`
	Properties  map[string]*Property `json:"properties,omitempty"`
}

// InputSchema is the structural description of a tool's parameters.
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// Prerequisite is a predicate over session progress that must hold before a
// tool may be invoked.
type Prerequisite func(session.Progress) bool

// ToolDefinition is the immutable catalog entry for one invocable operation.
// Identifiers are dotted namespaces, e.g. "content.generate".
//
//nolint:govet // fieldalignment: logical grouping preferred over memory optimization
type ToolDefinition struct {
	Name        string
	Description string
	Tier        CostTier
	Requires    Prerequisite
	// RequiresHint names the prerequisite in prompts and downgrade
	// explanations ("a strawman outline must exist").
	RequiresHint string
	InputSchema  InputSchema
}

// PrerequisiteMet evaluates the prerequisite against the given progress.
// Tools without a prerequisite are always eligible.
func (d *ToolDefinition) PrerequisiteMet(p session.Progress) bool {
	if d.Requires == nil {
		return true
	}
	return d.Requires(p)
}

// Validate checks the definition's structural invariants at registration time.
func (d *ToolDefinition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if !strings.Contains(d.Name, ".") {
		return fmt.Errorf("tool name %q must use dotted namespace (domain.action)", d.Name)
	}
	if _, err := ParseCostTier(string(d.Tier)); err != nil {
		return fmt.Errorf("tool %s: %w", d.Name, err)
	}
	if d.InputSchema.Type == "" {
		return fmt.Errorf("tool %s: input schema type cannot be empty", d.Name)
	}
	for _, req := range d.InputSchema.Required {
		if _, ok := d.InputSchema.Properties[req]; !ok {
			return fmt.Errorf("tool %s: required field %q missing from properties", d.Name, req)
		}
	}
	return nil
}
