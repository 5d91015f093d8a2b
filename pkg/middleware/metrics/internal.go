package metrics

import (
	"sync"
	"time"
)

// InternalRecorder implements the Recorder interface using in-memory
// aggregation. It is the default recorder when no Prometheus endpoint is
// configured and backs the session usage summaries.
type InternalRecorder struct {
	sessions map[string]*SessionMetrics // sessionID -> aggregated metrics
	mu       sync.RWMutex
}

// SessionMetrics represents aggregated usage for a single session.
//
//nolint:govet
type SessionMetrics struct {
	PromptTokens     int64          `json:"prompt_tokens"`
	CompletionTokens int64          `json:"completion_tokens"`
	TotalTokens      int64          `json:"total_tokens"`
	RequestCount     int64          `json:"request_count"`
	DecisionCount    int64          `json:"decision_count"`
	DowngradeCount   int64          `json:"downgrade_count"`
	TotalCost        float64        `json:"total_cost_usd"`
	Actions          map[string]int `json:"actions"`
	SessionID        string         `json:"session_id"`
	LastUpdated      time.Time      `json:"last_updated"`
}

var (
	// Singleton instance and initialization synchronization.
	internalInstance *InternalRecorder //nolint:gochecknoglobals
	internalOnce     sync.Once         //nolint:gochecknoglobals
)

// NewInternalRecorder returns a singleton internal metrics recorder.
func NewInternalRecorder() *InternalRecorder {
	internalOnce.Do(func() {
		internalInstance = &InternalRecorder{
			sessions: make(map[string]*SessionMetrics),
		}
	})
	return internalInstance
}

// ObserveRequest records metrics for a completed reasoning request.
func (r *InternalRecorder) ObserveRequest(
	_, sessionID string,
	promptTokens, completionTokens int,
	cost float64,
	success bool,
	_ string,
	_ time.Duration,
) {
	// Only successful requests contribute to token/cost aggregates.
	if !success || sessionID == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sess := r.getOrCreateLocked(sessionID)
	sess.PromptTokens += int64(promptTokens)
	sess.CompletionTokens += int64(completionTokens)
	sess.TotalTokens = sess.PromptTokens + sess.CompletionTokens
	sess.TotalCost += cost
	sess.RequestCount++
	sess.LastUpdated = time.Now()
}

// ObserveDecision records a validated decision for a session.
func (r *InternalRecorder) ObserveDecision(sessionID, action string, downgraded bool, _ string) {
	if sessionID == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sess := r.getOrCreateLocked(sessionID)
	sess.DecisionCount++
	sess.Actions[action]++
	if downgraded {
		sess.DowngradeCount++
	}
	sess.LastUpdated = time.Now()
}

// IncThrottle is a no-op for the internal recorder; throttle events are
// tracked by the limiter's own stats.
func (r *InternalRecorder) IncThrottle(_, _ string) {}

func (r *InternalRecorder) getOrCreateLocked(sessionID string) *SessionMetrics {
	sess, exists := r.sessions[sessionID]
	if !exists {
		sess = &SessionMetrics{
			SessionID: sessionID,
			Actions:   make(map[string]int),
		}
		r.sessions[sessionID] = sess
	}
	return sess
}

// GetSessionMetrics returns the aggregated metrics for a specific session.
func (r *InternalRecorder) GetSessionMetrics(sessionID string) *SessionMetrics {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if sess, exists := r.sessions[sessionID]; exists {
		return copySessionMetrics(sess)
	}
	return nil
}

// GetAllSessionMetrics returns metrics for all sessions.
func (r *InternalRecorder) GetAllSessionMetrics() map[string]*SessionMetrics {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*SessionMetrics, len(r.sessions))
	for sessionID, sess := range r.sessions {
		result[sessionID] = copySessionMetrics(sess)
	}
	return result
}

// ClearSessionMetrics removes metrics for a specific session.
func (r *InternalRecorder) ClearSessionMetrics(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

// Reset clears all metrics (useful for testing).
func (r *InternalRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = make(map[string]*SessionMetrics)
}

func copySessionMetrics(sess *SessionMetrics) *SessionMetrics {
	actions := make(map[string]int, len(sess.Actions))
	for k, v := range sess.Actions {
		actions[k] = v
	}
	return &SessionMetrics{
		SessionID:        sess.SessionID,
		PromptTokens:     sess.PromptTokens,
		CompletionTokens: sess.CompletionTokens,
		TotalTokens:      sess.TotalTokens,
		TotalCost:        sess.TotalCost,
		RequestCount:     sess.RequestCount,
		DecisionCount:    sess.DecisionCount,
		DowngradeCount:   sess.DowngradeCount,
		Actions:          actions,
		LastUpdated:      sess.LastUpdated,
	}
}
