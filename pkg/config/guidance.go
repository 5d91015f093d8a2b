package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Guidance is the YAML-backed catalog of tools and approval phrases. It is
// loaded once at startup into immutable in-memory structures; decision-time
// code never re-reads it.
type Guidance struct {
	Approval ApprovalGuidance `yaml:"approval"`
	Tools    []GuidanceTool   `yaml:"tools"`
}

// ApprovalGuidance holds the phrase sets the approval detector matches
// against. Empty lists mean "use the built-in defaults".
type ApprovalGuidance struct {
	ExplicitPhrases []string `yaml:"explicit_phrases"`
	SoftPhrases     []string `yaml:"soft_phrases"`
}

// GuidanceTool describes one tool to register beyond (or instead of) the
// builtins. Requires names a session flag checked as the prerequisite.
type GuidanceTool struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Tier        string          `yaml:"tier"`
	Requires    string          `yaml:"requires,omitempty"` // session flag, e.g. "has_strawman"
	Params      []GuidanceParam `yaml:"params,omitempty"`
}

// GuidanceParam describes one input parameter of a guidance tool.
type GuidanceParam struct {
	Name        string   `yaml:"name"`
	Type        string   `yaml:"type"`
	Description string   `yaml:"description,omitempty"`
	Enum        []string `yaml:"enum,omitempty"`
	Required    bool     `yaml:"required,omitempty"`
}

// knownSessionFlags are the flag names a guidance tool may require.
//
//nolint:gochecknoglobals // static validation set
var knownSessionFlags = map[string]bool{
	"has_topic":             true,
	"has_audience":          true,
	"has_duration":          true,
	"has_purpose":           true,
	"has_plan":              true,
	"has_strawman":          true,
	"has_explicit_approval": true,
	"has_content":           true,
}

// LoadGuidance reads and validates a YAML guidance file. A missing file is
// not an error: the caller falls back to builtin tools and default phrases.
func LoadGuidance(path string) (*Guidance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read guidance file: %w", err)
	}

	var g Guidance
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("failed to parse guidance file: %w", err)
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid guidance file: %w", err)
	}
	return &g, nil
}

// Validate checks the guidance for startup-fatal problems. Tool identifier
// collisions are left to the registry, which rejects duplicates on register.
func (g *Guidance) Validate() error {
	for i := range g.Tools {
		t := &g.Tools[i]
		if t.Name == "" {
			return fmt.Errorf("tool %d has no name", i)
		}
		switch t.Tier {
		case "LOW", "MEDIUM", "HIGH":
		default:
			return fmt.Errorf("tool %q has invalid tier %q (want LOW, MEDIUM, or HIGH)", t.Name, t.Tier)
		}
		if t.Requires != "" && !knownSessionFlags[t.Requires] {
			return fmt.Errorf("tool %q requires unknown session flag %q", t.Name, t.Requires)
		}
		for j := range t.Params {
			if t.Params[j].Name == "" {
				return fmt.Errorf("tool %q param %d has no name", t.Name, j)
			}
		}
	}
	return nil
}
