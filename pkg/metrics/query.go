// Package metrics provides services for querying and aggregating metrics data.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
)

// UsageMetrics represents aggregated reasoning usage for one model.
type UsageMetrics struct {
	Model            string  `json:"model"`
	PromptTokens     int64   `json:"prompt_tokens"`
	CompletionTokens int64   `json:"completion_tokens"`
	TotalTokens      int64   `json:"total_tokens"`
	TotalCost        float64 `json:"total_cost_usd"`
}

// QueryService provides methods to query metrics from Prometheus.
type QueryService struct {
	client   api.Client
	queryAPI v1.API
}

// NewQueryService creates a new metrics query service.
func NewQueryService(prometheusURL string) (*QueryService, error) {
	client, err := api.NewClient(api.Config{
		Address: prometheusURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}

	return &QueryService{
		client:   client,
		queryAPI: v1.NewAPI(client),
	}, nil
}

// scalarQuery runs a PromQL query expected to return a single sample and
// returns its value, or zero when the series does not exist yet.
func (q *QueryService) scalarQuery(ctx context.Context, query string) (float64, error) {
	result, _, err := q.queryAPI.Query(ctx, query, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to query %q: %w", query, err)
	}

	if vector, ok := result.(model.Vector); ok && len(vector) > 0 {
		return float64(vector[0].Value), nil
	}
	return 0, nil
}

// GetModelUsage retrieves aggregated token and cost metrics for a specific
// model across all sessions.
func (q *QueryService) GetModelUsage(ctx context.Context, modelName string) (*UsageMetrics, error) {
	usage := &UsageMetrics{
		Model: modelName,
	}

	promptTokens, err := q.scalarQuery(ctx,
		fmt.Sprintf(`sum(director_llm_tokens_total{model=%q, type="prompt"})`, modelName))
	if err != nil {
		return nil, err
	}
	usage.PromptTokens = int64(promptTokens)

	completionTokens, err := q.scalarQuery(ctx,
		fmt.Sprintf(`sum(director_llm_tokens_total{model=%q, type="completion"})`, modelName))
	if err != nil {
		return nil, err
	}
	usage.CompletionTokens = int64(completionTokens)

	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens

	cost, err := q.scalarQuery(ctx,
		fmt.Sprintf(`sum(director_llm_costs_total{model=%q})`, modelName))
	if err != nil {
		return nil, err
	}
	usage.TotalCost = cost

	return usage, nil
}

// GetUsageByModel retrieves usage metrics broken down by model. This shows
// which backends handled decisions and what each one cost.
func (q *QueryService) GetUsageByModel(ctx context.Context) (map[string]*UsageMetrics, error) {
	result := make(map[string]*UsageMetrics)

	modelsResult, _, err := q.queryAPI.Query(ctx,
		`group by (model) (director_llm_tokens_total)`, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query models: %w", err)
	}

	var models []string
	if vector, ok := modelsResult.(model.Vector); ok {
		for _, sample := range vector {
			if modelName, ok := sample.Metric["model"]; ok {
				models = append(models, string(modelName))
			}
		}
	}

	for _, modelName := range models {
		usage, err := q.GetModelUsage(ctx, modelName)
		if err != nil {
			return nil, err
		}
		result[modelName] = usage
	}

	return result, nil
}

// GetDecisionCounts retrieves validated decision counts broken down by final
// action type.
func (q *QueryService) GetDecisionCounts(ctx context.Context) (map[string]int64, error) {
	result := make(map[string]int64)

	decisionsResult, _, err := q.queryAPI.Query(ctx,
		`sum by (action) (director_decisions_total)`, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query decision counts: %w", err)
	}

	if vector, ok := decisionsResult.(model.Vector); ok {
		for _, sample := range vector {
			if action, ok := sample.Metric["action"]; ok {
				result[string(action)] = int64(sample.Value)
			}
		}
	}

	return result, nil
}

// GetDowngradeCounts retrieves guardrail downgrade counts broken down by
// reason. A rising count for one reason usually means the reasoning prompt
// needs adjustment, not that users changed behavior.
func (q *QueryService) GetDowngradeCounts(ctx context.Context) (map[string]int64, error) {
	result := make(map[string]int64)

	downgradesResult, _, err := q.queryAPI.Query(ctx,
		`sum by (reason) (director_downgrades_total)`, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query downgrade counts: %w", err)
	}

	if vector, ok := downgradesResult.(model.Vector); ok {
		for _, sample := range vector {
			if reason, ok := sample.Metric["reason"]; ok {
				result[string(reason)] = int64(sample.Value)
			}
		}
	}

	return result, nil
}
