package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusRecorder implements the Recorder interface using Prometheus metrics.
type PrometheusRecorder struct {
	requestsTotal   *prometheus.CounterVec
	tokensTotal     *prometheus.CounterVec
	costsTotal      *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	decisionsTotal  *prometheus.CounterVec
	downgradesTotal *prometheus.CounterVec
	throttleTotal   *prometheus.CounterVec
}

// NewPrometheusRecorder creates a new Prometheus-based metrics recorder.
func NewPrometheusRecorder() *PrometheusRecorder {
	return &PrometheusRecorder{
		requestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "director_llm_requests_total",
				Help: "Total number of reasoning requests by model and status",
			},
			[]string{"model", "status", "error_type"},
		),
		tokensTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "director_llm_tokens_total",
				Help: "Total number of tokens used in reasoning requests",
			},
			[]string{"model", "type"},
		),
		costsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "director_llm_costs_total",
				Help: "Total cost in USD for reasoning requests",
			},
			[]string{"model"},
		),
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "director_llm_request_duration_seconds",
				Help:    "Duration of reasoning requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"model"},
		),
		decisionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "director_decisions_total",
				Help: "Total number of validated decisions by final action",
			},
			[]string{"action"},
		),
		downgradesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "director_downgrades_total",
				Help: "Total number of guardrail downgrades by reason",
			},
			[]string{"reason"},
		),
		throttleTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "director_throttle_total",
				Help: "Total number of throttling events",
			},
			[]string{"model", "reason"},
		),
	}
}

// ObserveRequest records metrics for a completed reasoning request.
func (p *PrometheusRecorder) ObserveRequest(
	model, _ string,
	promptTokens, completionTokens int,
	cost float64,
	success bool,
	errorType string,
	duration time.Duration,
) {
	status := "success"
	if !success {
		status = "error"
	}
	p.requestsTotal.WithLabelValues(model, status, errorType).Inc()

	if success {
		p.tokensTotal.WithLabelValues(model, "prompt").Add(float64(promptTokens))
		p.tokensTotal.WithLabelValues(model, "completion").Add(float64(completionTokens))
		p.costsTotal.WithLabelValues(model).Add(cost)
	}

	p.requestDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// ObserveDecision records a validated decision.
func (p *PrometheusRecorder) ObserveDecision(_, action string, downgraded bool, reason string) {
	p.decisionsTotal.WithLabelValues(action).Inc()
	if downgraded {
		if reason == "" {
			reason = "unknown"
		}
		p.downgradesTotal.WithLabelValues(reason).Inc()
	}
}

// IncThrottle increments the throttle counter for rate limiting events.
func (p *PrometheusRecorder) IncThrottle(model, reason string) {
	p.throttleTotal.WithLabelValues(model, reason).Inc()
}
