// Package metrics provides metrics recording for reasoning calls and
// validated decisions.
package metrics

import "time"

// Recorder defines the interface for recording engine metrics.
type Recorder interface {
	// ObserveRequest records metrics for a completed reasoning request.
	ObserveRequest(
		model, sessionID string,
		promptTokens, completionTokens int,
		cost float64,
		success bool,
		errorType string,
		duration time.Duration,
	)

	// ObserveDecision records a validated decision: the final action and,
	// when the guardrail altered the proposal, the downgrade reason.
	ObserveDecision(sessionID, action string, downgraded bool, reason string)

	// IncThrottle increments the throttle counter for rate limiting events.
	IncThrottle(model, reason string)
}

// NoopRecorder implements Recorder with no-op behavior for when metrics are disabled.
type NoopRecorder struct{}

// Nop returns a no-op metrics recorder that discards all metrics.
func Nop() Recorder {
	return &NoopRecorder{}
}

// ObserveRequest does nothing in the no-op recorder.
func (n *NoopRecorder) ObserveRequest(
	_, _ string,
	_, _ int,
	_ float64,
	_ bool,
	_ string,
	_ time.Duration,
) {
}

// ObserveDecision does nothing in the no-op recorder.
func (n *NoopRecorder) ObserveDecision(_, _ string, _ bool, _ string) {}

// IncThrottle does nothing in the no-op recorder.
func (n *NoopRecorder) IncThrottle(_, _ string) {}
