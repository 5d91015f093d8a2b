package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"director/pkg/approval"
	"director/pkg/config"
	"director/pkg/guardrail"
	"director/pkg/limiter"
	"director/pkg/llm"
	"director/pkg/llm/anthropic"
	"director/pkg/llm/google"
	"director/pkg/llm/ollama"
	"director/pkg/llm/openai"
	"director/pkg/logx"
	"director/pkg/middleware/metrics"
	"director/pkg/tools"
)

// app holds everything a running director needs: the sealed tool registry,
// the approval detector, the guardrail validator, and the raw reasoning
// backend. The per-session middleware chain is assembled later, once the
// session ID is known.
type app struct {
	cfg       config.Config
	registry  *tools.Registry
	detector  *approval.Detector
	validator *guardrail.Validator
	backend   llm.LLMClient
	limiter   *limiter.TokenBucketLimiter
	pricing   limiter.Pricing
	recorder  metrics.Recorder
	internal  *metrics.InternalRecorder
	logger    *logx.Logger

	limiterCancel context.CancelFunc
	metricsServer *http.Server
}

func bootstrap(projectDir string, cfg config.Config) (*app, error) {
	logger := logx.NewLogger("director")

	registry, detector, err := buildCatalog(cfg, logger)
	if err != nil {
		return nil, err
	}

	backend, err := buildBackend(cfg)
	if err != nil {
		return nil, err
	}

	provider, err := config.GetModelProvider(cfg.Agent.Model)
	if err != nil {
		return nil, fmt.Errorf("cannot determine provider: %w", err)
	}
	limits := cfg.RateLimits.LimitsFor(provider)
	decideTimeout := time.Duration(cfg.Agent.DecideTimeoutSec) * time.Second

	lim := limiter.NewTokenBucketLimiter(provider, limiter.Config{
		TokensPerMinute: limits.TokensPerMinute,
		MaxConcurrency:  limits.MaxConcurrency,
		DailyBudgetUSD:  cfg.Agent.DailyBudgetUSD,
	}, decideTimeout)
	limiterCtx, limiterCancel := context.WithCancel(context.Background())
	lim.Start(limiterCtx)

	info, known := config.GetModelInfo(cfg.Agent.Model)
	if !known {
		logger.Warn("⚠️ Unknown model %q, using conservative pricing", cfg.Agent.Model)
	}
	pricing := limiter.Pricing{
		InputPerMTok:  info.InputCPM,
		OutputPerMTok: info.OutputCPM,
	}

	a := &app{
		cfg:           cfg,
		registry:      registry,
		detector:      detector,
		validator:     guardrail.NewValidator(registry, guardrail.DefaultConfig()),
		backend:       backend,
		limiter:       lim,
		pricing:       pricing,
		internal:      metrics.NewInternalRecorder(),
		logger:        logger,
		limiterCancel: limiterCancel,
	}

	// Prometheus exposition is opt-in; the internal recorder always runs so
	// /status works without any metrics infrastructure.
	if cfg.Metrics.ListenAddr != "" {
		a.recorder = metrics.NewPrometheusRecorder()
		a.metricsServer = &http.Server{
			Addr:              cfg.Metrics.ListenAddr,
			Handler:           promhttp.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := a.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics server failed: %v", err)
			}
		}()
		logger.Info("📊 Metrics exposition on %s", cfg.Metrics.ListenAddr)
	} else {
		a.recorder = metrics.Nop()
	}

	logger.Info("🎯 Director ready: model=%s provider=%s tools=%d",
		cfg.Agent.Model, provider, registry.Len())
	return a, nil
}

// buildCatalog constructs the sealed tool registry and the approval detector.
// Built-in tools register first; a guidance file may add tools and override
// the default approval phrase lists.
func buildCatalog(cfg config.Config, logger *logx.Logger) (*tools.Registry, *approval.Detector, error) {
	registry := tools.NewRegistry()
	if err := tools.RegisterBuiltins(registry); err != nil {
		return nil, nil, fmt.Errorf("failed to register built-in tools: %w", err)
	}

	detector := approval.DefaultDetector()
	if cfg.GuidancePath != "" {
		guidance, err := config.LoadGuidance(cfg.GuidancePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load guidance %s: %w", cfg.GuidancePath, err)
		}
		if err := tools.RegisterFromGuidance(registry, guidance); err != nil {
			return nil, nil, fmt.Errorf("failed to register guidance tools: %w", err)
		}
		if len(guidance.Approval.ExplicitPhrases) > 0 || len(guidance.Approval.SoftPhrases) > 0 {
			detector = approval.NewDetector(guidance.Approval.ExplicitPhrases, guidance.Approval.SoftPhrases)
		}
		logger.Info("📦 Guidance loaded from %s", cfg.GuidancePath)
	}

	registry.Seal()
	return registry, detector, nil
}

// buildBackend selects the reasoning client by the configured model name.
func buildBackend(cfg config.Config) (llm.LLMClient, error) {
	provider, err := config.GetModelProvider(cfg.Agent.Model)
	if err != nil {
		return nil, err
	}

	switch provider {
	case config.ProviderAnthropic:
		key, err := config.GetSecret(config.SecretAnthropicKey)
		if err != nil {
			return nil, fmt.Errorf("anthropic backend: %w", err)
		}
		return anthropic.NewClient(key, cfg.Agent.Model), nil
	case config.ProviderOpenAI:
		key, err := config.GetSecret(config.SecretOpenAIKey)
		if err != nil {
			return nil, fmt.Errorf("openai backend: %w", err)
		}
		return openai.NewClient(key, cfg.Agent.Model), nil
	case config.ProviderGoogle:
		key, err := config.GetSecret(config.SecretGeminiKey)
		if err != nil {
			return nil, fmt.Errorf("google backend: %w", err)
		}
		return google.NewClient(key, cfg.Agent.Model), nil
	case config.ProviderOllama:
		host := cfg.Agent.OllamaHost
		if host == "" {
			host = ollama.DefaultHost
		}
		return ollama.NewClient(host, cfg.Agent.Model), nil
	default:
		return nil, fmt.Errorf("no backend for provider %q", provider)
	}
}

// sessionClient wraps the raw backend with the middleware chain for one
// session: retry closest to the wire, then rate limiting, then usage metrics
// observing the final outcome.
func (a *app) sessionClient(sessionID string) llm.LLMClient {
	costFunc := func(promptTokens, completionTokens int) float64 {
		return a.pricing.Cost(promptTokens, completionTokens)
	}
	return llm.Chain(a.backend,
		metrics.Middleware(a.recorder, nil, costFunc, sessionID, a.logger),
		metrics.Middleware(a.internal, nil, costFunc, sessionID, nil),
		limiter.Middleware(a.limiter, a.pricing, sessionID),
		llm.RetryMiddleware(3, a.logger),
	)
}

func (a *app) shutdown() {
	if a.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = a.metricsServer.Shutdown(ctx)
	}
	if a.limiterCancel != nil {
		a.limiterCancel()
	}
}
