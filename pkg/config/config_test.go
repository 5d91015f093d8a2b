package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetModelProvider(t *testing.T) {
	tests := []struct {
		model    string
		provider string
		wantErr  bool
	}{
		{"claude-sonnet-4-5", ProviderAnthropic, false},
		{"gpt-5", ProviderOpenAI, false},
		{"gemini-3-pro-preview", ProviderGoogle, false},
		{"mistral-nemo:latest", ProviderOllama, false},
		{"claude-9-experimental", ProviderAnthropic, false}, // pattern match
		{"ollama:phi4", ProviderOllama, false},
		{"totally-unknown", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			provider, err := GetModelProvider(tt.model)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.provider, provider)
		})
	}
}

func TestGetModelInfoUnknownModel(t *testing.T) {
	info, known := GetModelInfo("gpt-99-turbo")
	assert.False(t, known)
	assert.Equal(t, ProviderOpenAI, info.Provider)
	assert.Zero(t, info.InputCPM)
	assert.Positive(t, info.MaxContextTokens)
}

func TestRateLimitDefaults(t *testing.T) {
	var limits RateLimitConfig
	anthropic := limits.LimitsFor(ProviderAnthropic)
	assert.Equal(t, ProviderDefaults[ProviderAnthropic], anthropic)

	limits.OpenAI = ProviderLimits{TokensPerMinute: 50000}
	openai := limits.LimitsFor(ProviderOpenAI)
	assert.Equal(t, 50000, openai.TokensPerMinute)
	assert.Equal(t, ProviderDefaults[ProviderOpenAI].MaxConcurrency, openai.MaxConcurrency)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	ResetForTesting()
	dir := t.TempDir()

	require.NoError(t, LoadConfig(dir))

	cfg, err := GetConfig()
	require.NoError(t, err)
	assert.Equal(t, ModelClaudeSonnet, cfg.Agent.Model)
	assert.Equal(t, DefaultWindowTokens, cfg.Agent.WindowTokens)
	assert.Equal(t, dir, GetProjectDir())
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	ResetForTesting()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, DirectorDirName), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, DirectorDirName, "config.json"),
		[]byte(`{"agent": {"model": "totally-unknown"}}`), 0o644))

	err := LoadConfig(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "agent.model")
}

func TestSaveAndReloadConfig(t *testing.T) {
	ResetForTesting()
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Agent.Model = ModelGPT5
	cfg.Agent.DailyBudgetUSD = 2.5
	require.NoError(t, SaveConfig(dir, cfg))

	ResetForTesting()
	require.NoError(t, LoadConfig(dir))
	loaded, err := GetConfig()
	require.NoError(t, err)
	assert.Equal(t, ModelGPT5, loaded.Agent.Model)
	assert.InDelta(t, 2.5, loaded.Agent.DailyBudgetUSD, 1e-9)
}

func TestGetConfigBeforeLoad(t *testing.T) {
	ResetForTesting()
	_, err := GetConfig()
	require.Error(t, err)
}

func TestLoadGuidance(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "guidance.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
approval:
  explicit_phrases: ["generate", "go ahead"]
  soft_phrases: ["looks good", "ok"]
tools:
  - name: chart.generate
    description: Render a data chart for a slide
    tier: MEDIUM
    requires: has_content
    params:
      - name: slide_ref
        type: string
        required: true
      - name: style
        type: string
        enum: [bar, line, pie]
`), 0o644))

	g, err := LoadGuidance(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"generate", "go ahead"}, g.Approval.ExplicitPhrases)
	require.Len(t, g.Tools, 1)
	assert.Equal(t, "chart.generate", g.Tools[0].Name)
	assert.Equal(t, "MEDIUM", g.Tools[0].Tier)
	assert.Equal(t, "has_content", g.Tools[0].Requires)
	require.Len(t, g.Tools[0].Params, 2)
	assert.True(t, g.Tools[0].Params[0].Required)
	assert.Equal(t, []string{"bar", "line", "pie"}, g.Tools[0].Params[1].Enum)
}

func TestGuidanceValidation(t *testing.T) {
	tests := []struct {
		name     string
		guidance Guidance
		wantErr  string
	}{
		{
			name:     "bad tier",
			guidance: Guidance{Tools: []GuidanceTool{{Name: "x.y", Tier: "EXTREME"}}},
			wantErr:  "invalid tier",
		},
		{
			name:     "unknown flag",
			guidance: Guidance{Tools: []GuidanceTool{{Name: "x.y", Tier: "LOW", Requires: "has_vibes"}}},
			wantErr:  "unknown session flag",
		},
		{
			name:     "missing name",
			guidance: Guidance{Tools: []GuidanceTool{{Tier: "LOW"}}},
			wantErr:  "no name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.guidance.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSecretsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	secrets := map[string]string{
		SecretAnthropicKey: "sk-ant-test",
		SecretOpenAIKey:    "sk-test",
	}

	require.NoError(t, EncryptSecretsFile(dir, "hunter2", secrets))
	assert.True(t, SecretsFileExists(dir))

	decrypted, err := DecryptSecretsFile(dir, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, secrets, decrypted)
}

func TestSecretsWrongPassword(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, EncryptSecretsFile(dir, "hunter2", map[string]string{"K": "v"}))

	_, err := DecryptSecretsFile(dir, "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decryption failed")
}

func TestGetSecretPrecedence(t *testing.T) {
	SetDecryptedSecrets(map[string]string{"DIRECTOR_TEST_SECRET": "from-file"})
	t.Cleanup(func() { SetDecryptedSecrets(nil) })
	t.Setenv("DIRECTOR_TEST_SECRET", "from-env")

	value, err := GetSecret("DIRECTOR_TEST_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "from-file", value)

	SetDecryptedSecrets(nil)
	value, err = GetSecret("DIRECTOR_TEST_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "from-env", value)

	_, err = GetSecret("DIRECTOR_MISSING_SECRET")
	require.Error(t, err)
}
