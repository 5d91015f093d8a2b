package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"director/pkg/config"
	"director/pkg/session"
)

func TestRegisterFromGuidance(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterBuiltins(r))

	g := &config.Guidance{
		Tools: []config.GuidanceTool{
			{
				Name:        "chart.generate",
				Description: "Render a data chart for a slide",
				Tier:        "MEDIUM",
				Requires:    "has_content",
				Params: []config.GuidanceParam{
					{Name: "slide_ref", Type: "string", Required: true},
					{Name: "style", Type: "string", Enum: []string{"bar", "line", "pie"}},
				},
			},
		},
	}

	require.NoError(t, RegisterFromGuidance(r, g))
	r.Seal()

	def, err := r.Lookup("chart.generate")
	require.NoError(t, err)
	assert.Equal(t, TierMedium, def.Tier)
	assert.Equal(t, []string{"slide_ref"}, def.InputSchema.Required)
	assert.Equal(t, []string{"bar", "line", "pie"}, def.InputSchema.Properties["style"].Enum)

	progress := session.NewProgress()
	assert.False(t, def.PrerequisiteMet(progress))
	progress.HasContent = true
	assert.True(t, def.PrerequisiteMet(progress))
}

func TestRegisterFromGuidanceRejectsDuplicateBuiltin(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterBuiltins(r))

	g := &config.Guidance{
		Tools: []config.GuidanceTool{
			{Name: ToolContentGenerate, Description: "shadowing a builtin", Tier: "HIGH"},
		},
	}

	err := RegisterFromGuidance(r, g)
	require.Error(t, err)
	assert.True(t, IsDuplicateTool(err))
}

func TestRegisterFromGuidanceRejectsUnknownFlag(t *testing.T) {
	r := NewRegistry()
	g := &config.Guidance{
		Tools: []config.GuidanceTool{
			{Name: "x.y", Tier: "LOW", Requires: "has_vibes"},
		},
	}

	err := RegisterFromGuidance(r, g)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown session flag")
}
