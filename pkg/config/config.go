// Package config provides configuration loading, validation, and management
// for the director.
//
// A single global Config instance is maintained in memory, protected by a
// mutex. GetConfig() returns the config BY VALUE so callers cannot mutate
// shared state; all updates go through LoadConfig. State (session progress,
// audit log) belongs in the database, never in config.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"director/pkg/logx"
)

// Global config instance with mutex protection.
// projectDir is set once during LoadConfig and never changes - it defines
// where all director files are stored relative to the project root.
//
//nolint:gochecknoglobals // Intentional singleton pattern for config management
var (
	config     *Config
	projectDir string
	logger     *logx.Logger
	mu         sync.RWMutex
)

// DirectorDirName is the per-project directory holding config, secrets, and
// the database.
const DirectorDirName = ".director"

const configFileName = "config.json"

// getLogger returns the config logger, initializing it if needed.
func getLogger() *logx.Logger {
	if logger == nil {
		logger = logx.NewLogger("config")
	}
	return logger
}

// LogInfo logs an info message using the config logger.
func LogInfo(format string, args ...interface{}) {
	getLogger().Info(format, args...)
}

// Provider constants.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGoogle    = "google"
	ProviderOllama    = "ollama"
)

// Well-known model names.
const (
	ModelClaudeSonnet = "claude-sonnet-4-5"
	ModelGPT5         = "gpt-5"
	ModelGemini3Pro   = "gemini-3-pro-preview"
	ModelMistralNemo  = "mistral-nemo:latest"
)

// ModelInfo contains static information about a known reasoning model.
// This data is hardcoded in the application, not user-configurable.
type ModelInfo struct {
	Provider         string  // API provider (anthropic, openai, google, ollama)
	InputCPM         float64 // Cost per million input tokens (USD)
	OutputCPM        float64 // Cost per million output tokens (USD)
	MaxContextTokens int     // Maximum context window size in tokens
	MaxOutputTokens  int     // Maximum output tokens per request
}

// KnownModels maps model names to their static info.
//
//nolint:gochecknoglobals // Intentional global registry of known models
var KnownModels = map[string]ModelInfo{
	"claude-sonnet-4-5": {
		Provider:         ProviderAnthropic,
		InputCPM:         3.0,
		OutputCPM:        15.0,
		MaxContextTokens: 200000,
		MaxOutputTokens:  8192,
	},
	"claude-opus-4-5": {
		Provider:         ProviderAnthropic,
		InputCPM:         15.0,
		OutputCPM:        75.0,
		MaxContextTokens: 200000,
		MaxOutputTokens:  16384,
	},
	"gpt-5": {
		Provider:         ProviderOpenAI,
		InputCPM:         20.0,
		OutputCPM:        60.0,
		MaxContextTokens: 128000,
		MaxOutputTokens:  4096,
	},
	"gemini-2.5-flash": {
		Provider:         ProviderGoogle,
		InputCPM:         0.30,
		OutputCPM:        2.50,
		MaxContextTokens: 1048576,
		MaxOutputTokens:  65536,
	},
	"gemini-3-pro-preview": {
		Provider:         ProviderGoogle,
		InputCPM:         2.0,
		OutputCPM:        12.0,
		MaxContextTokens: 1048576,
		MaxOutputTokens:  65536,
	},
	"mistral-nemo:latest": {
		Provider:         ProviderOllama,
		InputCPM:         0.0, // local inference, no metered cost
		OutputCPM:        0.0,
		MaxContextTokens: 128000,
		MaxOutputTokens:  4096,
	},
}

// ProviderPattern represents a pattern for inferring provider from model name.
type ProviderPattern struct {
	Prefix   string
	Provider string
}

// ProviderPatterns defines rules for inferring providers from unknown model
// names. Allows using new models without code changes.
//
//nolint:gochecknoglobals // Intentional global for inference rules
var ProviderPatterns = []ProviderPattern{
	{"claude", ProviderAnthropic},
	{"gpt", ProviderOpenAI},
	{"o1", ProviderOpenAI},
	{"o3", ProviderOpenAI},
	{"gemini", ProviderGoogle},
	{"phi", ProviderOllama},
	{"llama", ProviderOllama},
	{"qwen", ProviderOllama},
	{"mistral", ProviderOllama},
	{"deepseek", ProviderOllama},
	{"ollama:", ProviderOllama}, // Explicit prefix like "ollama:phi4"
}

// GetModelProvider returns the API provider for a given model.
// First checks KnownModels, then tries pattern matching.
// Returns error if model cannot be mapped to a provider (FATAL).
func GetModelProvider(modelName string) (string, error) {
	if info, exists := KnownModels[modelName]; exists {
		return info.Provider, nil
	}

	for i := range ProviderPatterns {
		if strings.HasPrefix(modelName, ProviderPatterns[i].Prefix) {
			return ProviderPatterns[i].Provider, nil
		}
	}

	return "", fmt.Errorf("unknown model '%s': no known provider mapping or pattern match - cannot determine API provider", modelName)
}

// GetModelInfo returns the ModelInfo for a given model name. Returns the
// info and true if found in KnownModels, or conservative defaults with an
// inferred provider and false if not found.
func GetModelInfo(modelName string) (ModelInfo, bool) {
	if info, exists := KnownModels[modelName]; exists {
		return info, true
	}

	provider := ""
	for i := range ProviderPatterns {
		if strings.HasPrefix(modelName, ProviderPatterns[i].Prefix) {
			provider = ProviderPatterns[i].Provider
			break
		}
	}

	return ModelInfo{
		Provider:         provider,
		InputCPM:         0.0, // No cost tracking for unknown models
		OutputCPM:        0.0,
		MaxContextTokens: 32000,
		MaxOutputTokens:  4096,
	}, false
}

// ProviderLimits defines rate limiting configuration for a specific API provider.
type ProviderLimits struct {
	TokensPerMinute int `json:"tokens_per_minute"`
	MaxConcurrency  int `json:"max_concurrency"`
}

// RateLimitConfig defines rate limiting configuration grouped by API provider.
type RateLimitConfig struct {
	Anthropic ProviderLimits `json:"anthropic"`
	OpenAI    ProviderLimits `json:"openai"`
	Google    ProviderLimits `json:"google"`
	Ollama    ProviderLimits `json:"ollama"`
}

// ProviderDefaults defines default rate limits for each provider.
//
//nolint:gochecknoglobals // Intentional global for provider defaults
var ProviderDefaults = map[string]ProviderLimits{
	ProviderAnthropic: {TokensPerMinute: 300000, MaxConcurrency: 5},
	ProviderOpenAI:    {TokensPerMinute: 200000, MaxConcurrency: 5},
	ProviderGoogle:    {TokensPerMinute: 300000, MaxConcurrency: 5},
	ProviderOllama:    {TokensPerMinute: 1000000, MaxConcurrency: 2},
}

// LimitsFor returns the configured limits for a provider, falling back to
// the provider defaults for zero values.
func (r RateLimitConfig) LimitsFor(provider string) ProviderLimits {
	var limits ProviderLimits
	switch provider {
	case ProviderAnthropic:
		limits = r.Anthropic
	case ProviderOpenAI:
		limits = r.OpenAI
	case ProviderGoogle:
		limits = r.Google
	case ProviderOllama:
		limits = r.Ollama
	}

	defaults := ProviderDefaults[provider]
	if limits.TokensPerMinute == 0 {
		limits.TokensPerMinute = defaults.TokensPerMinute
	}
	if limits.MaxConcurrency == 0 {
		limits.MaxConcurrency = defaults.MaxConcurrency
	}
	return limits
}

// AgentConfig holds the reasoning settings for the director.
type AgentConfig struct {
	Model            string  `json:"model"`              // reasoning model name
	WindowTokens     int     `json:"window_tokens"`      // history window budget
	DecideTimeoutSec int     `json:"decide_timeout_sec"` // per-decision reasoning timeout
	DailyBudgetUSD   float64 `json:"daily_budget_usd"`   // reasoning spend cap per UTC day
	OllamaHost       string  `json:"ollama_host,omitempty"`
}

// MetricsConfig holds the optional observability endpoints.
type MetricsConfig struct {
	PrometheusURL string `json:"prometheus_url,omitempty"` // query endpoint, empty = internal recorder only
	ListenAddr    string `json:"listen_addr,omitempty"`    // /metrics exposition address
}

// Config is the per-project configuration saved to .director/config.json.
type Config struct {
	SchemaVersion int             `json:"schema_version"`
	Agent         AgentConfig     `json:"agent"`
	RateLimits    RateLimitConfig `json:"rate_limits"`
	Metrics       MetricsConfig   `json:"metrics"`
	GuidancePath  string          `json:"guidance_path,omitempty"` // YAML tool catalog + phrase lists
}

// ConfigSchemaVersion increments with every breaking config change.
const ConfigSchemaVersion = 1

// Default agent settings.
const (
	DefaultWindowTokens     = 4000
	DefaultDecideTimeoutSec = 15
	DefaultDailyBudgetUSD   = 5.0
)

// DefaultConfig returns a config with working defaults.
func DefaultConfig() Config {
	return Config{
		SchemaVersion: ConfigSchemaVersion,
		Agent: AgentConfig{
			Model:            ModelClaudeSonnet,
			WindowTokens:     DefaultWindowTokens,
			DecideTimeoutSec: DefaultDecideTimeoutSec,
			DailyBudgetUSD:   DefaultDailyBudgetUSD,
		},
	}
}

// Validate checks the config for fatal problems. Called before the config is
// accepted; an invalid config is rejected rather than patched.
func (c *Config) Validate() error {
	if c.Agent.Model == "" {
		return fmt.Errorf("agent.model is required")
	}
	if _, err := GetModelProvider(c.Agent.Model); err != nil {
		return fmt.Errorf("agent.model invalid: %w", err)
	}
	if c.Agent.WindowTokens < 0 {
		return fmt.Errorf("agent.window_tokens must be non-negative")
	}
	if c.Agent.DecideTimeoutSec < 0 {
		return fmt.Errorf("agent.decide_timeout_sec must be non-negative")
	}
	if c.Agent.DailyBudgetUSD < 0 {
		return fmt.Errorf("agent.daily_budget_usd must be non-negative")
	}
	return nil
}

// applyDefaults fills zero values with defaults after load.
func (c *Config) applyDefaults() {
	if c.SchemaVersion == 0 {
		c.SchemaVersion = ConfigSchemaVersion
	}
	if c.Agent.WindowTokens == 0 {
		c.Agent.WindowTokens = DefaultWindowTokens
	}
	if c.Agent.DecideTimeoutSec == 0 {
		c.Agent.DecideTimeoutSec = DefaultDecideTimeoutSec
	}
	if c.Agent.DailyBudgetUSD == 0 {
		c.Agent.DailyBudgetUSD = DefaultDailyBudgetUSD
	}
}

// LoadConfig reads .director/config.json under dir, validates it, and
// installs it as the global config. A missing file installs the defaults.
func LoadConfig(dir string) error {
	mu.Lock()
	defer mu.Unlock()

	path := filepath.Join(dir, DirectorDirName, configFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := DefaultConfig()
		config = &cfg
		projectDir = dir
		getLogger().Info("No config file at %s, using defaults (model: %s)", path, cfg.Agent.Model)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	config = &cfg
	projectDir = dir
	getLogger().Info("Config loaded from %s (model: %s)", path, cfg.Agent.Model)
	return nil
}

// GetConfig returns a copy of the current config.
func GetConfig() (Config, error) {
	mu.RLock()
	defer mu.RUnlock()

	if config == nil {
		return Config{}, fmt.Errorf("config not loaded: call LoadConfig first")
	}
	return *config, nil
}

// GetProjectDir returns the project directory set by LoadConfig.
func GetProjectDir() string {
	mu.RLock()
	defer mu.RUnlock()
	return projectDir
}

// SaveConfig writes the config to .director/config.json and installs it as
// the global config.
func SaveConfig(dir string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	directorDir := filepath.Join(dir, DirectorDirName)
	if err := os.MkdirAll(directorDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", DirectorDirName, err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(directorDir, configFileName), data, 0o644); err != nil { //nolint:gosec // config holds no secrets
		return fmt.Errorf("failed to write config: %w", err)
	}

	mu.Lock()
	config = &cfg
	projectDir = dir
	mu.Unlock()
	return nil
}

// ResetForTesting clears the global config so tests can re-load.
func ResetForTesting() {
	mu.Lock()
	defer mu.Unlock()
	config = nil
	projectDir = ""
}
