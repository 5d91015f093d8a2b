package tools

import (
	"fmt"

	"director/pkg/config"
	"director/pkg/session"
)

// flagPrerequisites maps guidance flag names to prerequisite predicates and
// the hint text used in prompts and downgrade explanations.
//
//nolint:gochecknoglobals // static mapping from guidance flags to predicates
var flagPrerequisites = map[string]struct {
	predicate Prerequisite
	hint      string
}{
	"has_topic":             {func(p session.Progress) bool { return p.HasTopic }, "a presentation topic must be set"},
	"has_audience":          {func(p session.Progress) bool { return p.HasAudience }, "the audience must be known"},
	"has_duration":          {func(p session.Progress) bool { return p.HasDuration }, "the presentation duration must be known"},
	"has_purpose":           {func(p session.Progress) bool { return p.HasPurpose }, "the presentation purpose must be known"},
	"has_plan":              {func(p session.Progress) bool { return p.HasPlan }, "a presentation plan must exist"},
	"has_strawman":          {func(p session.Progress) bool { return p.HasStrawman }, "a strawman outline must exist"},
	"has_explicit_approval": {func(p session.Progress) bool { return p.HasExplicitApproval }, "the user must have given explicit approval"},
	"has_content":           {func(p session.Progress) bool { return p.HasContent }, "slide content must exist"},
}

// RegisterFromGuidance registers the tools described in a guidance file.
// Guidance tools extend the builtins; a duplicate identifier is a startup
// error surfaced by the registry.
func RegisterFromGuidance(r *Registry, g *config.Guidance) error {
	for i := range g.Tools {
		def, err := definitionFromGuidance(&g.Tools[i])
		if err != nil {
			return err
		}
		if err := r.Register(def); err != nil {
			return fmt.Errorf("guidance tool %s: %w", g.Tools[i].Name, err)
		}
	}
	return nil
}

func definitionFromGuidance(t *config.GuidanceTool) (ToolDefinition, error) {
	tier, err := ParseCostTier(t.Tier)
	if err != nil {
		return ToolDefinition{}, fmt.Errorf("guidance tool %s: %w", t.Name, err)
	}

	def := ToolDefinition{
		Name:        t.Name,
		Description: t.Description,
		Tier:        tier,
		InputSchema: InputSchema{Type: "object"},
	}

	if t.Requires != "" {
		prereq, ok := flagPrerequisites[t.Requires]
		if !ok {
			return ToolDefinition{}, fmt.Errorf("guidance tool %s: unknown session flag %q", t.Name, t.Requires)
		}
		def.Requires = prereq.predicate
		def.RequiresHint = prereq.hint
	}

	if len(t.Params) > 0 {
		def.InputSchema.Properties = make(map[string]Property, len(t.Params))
		for j := range t.Params {
			p := &t.Params[j]
			paramType := p.Type
			if paramType == "" {
				paramType = "string"
			}
			def.InputSchema.Properties[p.Name] = Property{
				Type:        paramType,
				Description: p.Description,
				Enum:        p.Enum,
			}
			if p.Required {
				def.InputSchema.Required = append(def.InputSchema.Required, p.Name)
			}
		}
	}

	return def, nil
}
