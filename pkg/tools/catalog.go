package tools

import "director/pkg/session"

// Tool name constants - use these instead of magic strings to prevent typos.
const (
	// Content generation services.
	ToolContentGenerate     = "content.generate"
	ToolIllustratorGenerate = "illustrator.generate"

	// Enrichment and rendering services.
	ToolAnalyticsEnrich = "analytics.enrich"
	ToolDeckRender      = "deck.render"

	// Structural operations.
	ToolStrawmanRefine = "strawman.refine"
)

// RegisterBuiltins registers the director's default tool catalog: the four
// external content services plus the strawman refiner. Guidance
// configuration may add further tools before the registry is sealed.
func RegisterBuiltins(r *Registry) error {
	builtins := []ToolDefinition{
		{
			Name:         ToolContentGenerate,
			Description:  "Generate the full text content for every slide in the deck",
			Tier:         TierHigh,
			Requires:     func(p session.Progress) bool { return p.HasStrawman },
			RequiresHint: "a strawman outline must exist",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"strawman_ref": {
						Type:        "string",
						Description: "Reference to the strawman the content is generated from",
					},
					"tone": {
						Type:        "string",
						Description: "Writing tone for the generated content",
						Enum:        []string{"formal", "conversational", "persuasive"},
					},
				},
				Required: []string{"strawman_ref"},
			},
		},
		{
			Name:         ToolIllustratorGenerate,
			Description:  "Generate illustrations and imagery for slides that call for visuals",
			Tier:         TierHigh,
			Requires:     func(p session.Progress) bool { return p.HasStrawman },
			RequiresHint: "a strawman outline must exist",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"slide_refs": {
						Type:        "array",
						Description: "Slides that need illustrations",
						Items:       &Property{Type: "string"},
					},
					"style": {
						Type:        "string",
						Description: "Visual style for generated imagery",
					},
				},
				Required: []string{"slide_refs"},
			},
		},
		{
			Name:         ToolAnalyticsEnrich,
			Description:  "Enrich slides with charts and data visualizations from session facts",
			Tier:         TierMedium,
			Requires:     func(p session.Progress) bool { return p.HasStrawman },
			RequiresHint: "a strawman outline must exist",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"slide_refs": {
						Type:        "array",
						Description: "Slides to enrich with data visuals",
						Items:       &Property{Type: "string"},
					},
				},
				Required: []string{"slide_refs"},
			},
		},
		{
			Name:         ToolDeckRender,
			Description:  "Render the assembled deck into its presentable form",
			Tier:         TierMedium,
			Requires:     func(p session.Progress) bool { return p.HasContent },
			RequiresHint: "slide content must exist",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"theme": {
						Type:        "string",
						Description: "Deck theme to render with",
					},
				},
				Required: []string{},
			},
		},
		{
			Name:         ToolStrawmanRefine,
			Description:  "Apply targeted edits to the existing strawman outline",
			Tier:         TierLow,
			Requires:     func(p session.Progress) bool { return p.HasStrawman },
			RequiresHint: "a strawman outline must exist",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"edits": {
						Type:        "array",
						Description: "Edit instructions to apply to the strawman",
						Items:       &Property{Type: "string"},
					},
				},
				Required: []string{"edits"},
			},
		},
	}

	for i := range builtins {
		if err := r.Register(builtins[i]); err != nil {
			return err
		}
	}
	return nil
}
