// Package limiter provides token-bucket rate limiting and daily USD budget
// enforcement for reasoning calls. One limiter guards one provider; all
// sessions share it.
package limiter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"director/pkg/logx"
)

// BufferFactor shrinks bucket capacity below the nominal per-minute rate to
// absorb token estimation inaccuracies.
const BufferFactor = 0.9

// Config defines rate limiting configuration for a provider.
type Config struct {
	TokensPerMinute int     `json:"tokens_per_minute"`
	MaxConcurrency  int     `json:"max_concurrency"`
	DailyBudgetUSD  float64 `json:"daily_budget_usd"` // 0 disables budget enforcement
}

// BudgetExhaustedError indicates the provider's daily USD budget is spent.
// It is not retryable within the same day.
type BudgetExhaustedError struct {
	Provider string
	Spent    float64
	Budget   float64
}

func (e *BudgetExhaustedError) Error() string {
	return fmt.Sprintf("daily budget exhausted for %s: spent $%.2f of $%.2f", e.Provider, e.Spent, e.Budget)
}

// acquisition tracks a single concurrency slot for stale cleanup.
type acquisition struct {
	timestamp time.Time
	sessionID string
}

// TokenBucketLimiter combines a token bucket with a concurrency semaphore
// and a daily spend ledger.
//
//nolint:govet // fieldalignment: logical grouping preferred over memory optimization
type TokenBucketLimiter struct {
	mu sync.Mutex

	provider string
	logger   *logx.Logger

	// Token bucket state.
	availableTokens int
	tokensPerRefill int // added every 6 seconds (per-minute rate / 10)
	maxCapacity     int

	// Concurrency limiting.
	activeRequests int
	maxConcurrency int
	acquisitions   []*acquisition
	releaseTimeout time.Duration

	// Daily budget ledger.
	dailyBudgetUSD float64
	spentTodayUSD  float64
	spendDay       string // YYYY-MM-DD the ledger applies to

	// Counters for stats.
	tokenLimitHits  int64
	concurrencyHits int64
}

// Stats represents current limiter statistics.
type Stats struct {
	Provider        string  `json:"provider"`
	AvailableTokens int     `json:"available_tokens"`
	MaxCapacity     int     `json:"max_capacity"`
	ActiveRequests  int     `json:"active_requests"`
	MaxConcurrency  int     `json:"max_concurrency"`
	TokenLimitHits  int64   `json:"token_limit_hits"`
	ConcurrencyHits int64   `json:"concurrency_hits"`
	SpentTodayUSD   float64 `json:"spent_today_usd"`
	DailyBudgetUSD  float64 `json:"daily_budget_usd"`
}

// NewTokenBucketLimiter creates a limiter for one provider. Call Start to
// begin the refill timer.
func NewTokenBucketLimiter(provider string, cfg Config, requestTimeout time.Duration) *TokenBucketLimiter {
	maxCapacity := int(float64(cfg.TokensPerMinute) * BufferFactor)
	if maxCapacity < 1 {
		maxCapacity = 1
	}
	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}

	return &TokenBucketLimiter{
		provider:        provider,
		logger:          logx.NewLogger("limiter-" + provider),
		availableTokens: maxCapacity,
		tokensPerRefill: cfg.TokensPerMinute / 10,
		maxCapacity:     maxCapacity,
		maxConcurrency:  maxConcurrency,
		acquisitions:    make([]*acquisition, 0),
		releaseTimeout:  requestTimeout * 2,
		dailyBudgetUSD:  cfg.DailyBudgetUSD,
		spendDay:        today(),
	}
}

// Start begins the background refill timer, stopping when ctx is cancelled.
func (l *TokenBucketLimiter) Start(ctx context.Context) {
	ticker := time.NewTicker(6 * time.Second)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.refill()
			}
		}
	}()
}

// Acquire atomically acquires tokens and a concurrency slot, blocking until
// both are available or the context is cancelled. The returned release
// function MUST be called (via defer) to return the slot; spent tokens are
// not refunded. Fails fast with BudgetExhaustedError when the daily budget
// is gone - waiting cannot fix that.
func (l *TokenBucketLimiter) Acquire(ctx context.Context, tokens int, sessionID string) (func(), error) {
	firstAttempt := true

	for {
		l.mu.Lock()

		if err := l.checkBudgetLocked(); err != nil {
			l.mu.Unlock()
			return nil, err
		}

		if l.activeRequests >= l.maxConcurrency {
			l.cleanStaleAcquisitionsLocked()
		}

		hasTokens := l.availableTokens >= tokens
		hasSlot := l.activeRequests < l.maxConcurrency

		if hasTokens && hasSlot {
			l.availableTokens -= tokens
			l.activeRequests++

			acq := &acquisition{timestamp: time.Now(), sessionID: sessionID}
			l.acquisitions = append(l.acquisitions, acq)

			l.mu.Unlock()
			return func() { l.release(acq) }, nil
		}

		if firstAttempt {
			if !hasTokens {
				l.tokenLimitHits++
				l.logger.Info("token limit hit, waiting for refill (need %d, have %d, session: %s)",
					tokens, l.availableTokens, sessionID)
			}
			if !hasSlot {
				l.concurrencyHits++
				l.logger.Info("concurrency limit hit, waiting for slot (active: %d/%d, session: %s)",
					l.activeRequests, l.maxConcurrency, sessionID)
			}
			firstAttempt = false
		}

		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err() //nolint:wrapcheck // Context error propagated as-is
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// RecordSpend adds a completed call's cost to today's ledger.
func (l *TokenBucketLimiter) RecordSpend(usd float64) {
	if usd <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rolloverLocked()
	l.spentTodayUSD += usd
}

// checkBudgetLocked enforces the daily budget. Caller holds the lock.
func (l *TokenBucketLimiter) checkBudgetLocked() error {
	if l.dailyBudgetUSD <= 0 {
		return nil
	}
	l.rolloverLocked()
	if l.spentTodayUSD >= l.dailyBudgetUSD {
		return &BudgetExhaustedError{
			Provider: l.provider,
			Spent:    l.spentTodayUSD,
			Budget:   l.dailyBudgetUSD,
		}
	}
	return nil
}

// rolloverLocked resets the spend ledger when the calendar day changes.
func (l *TokenBucketLimiter) rolloverLocked() {
	if day := today(); day != l.spendDay {
		l.spendDay = day
		l.spentTodayUSD = 0
	}
}

// release returns a concurrency slot.
func (l *TokenBucketLimiter) release(acq *acquisition) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, a := range l.acquisitions {
		if a == acq {
			l.acquisitions = append(l.acquisitions[:i], l.acquisitions[i+1:]...)
			break
		}
	}
	l.activeRequests--
}

// cleanStaleAcquisitionsLocked force-releases slots held past the release
// timeout. Caller holds the lock.
func (l *TokenBucketLimiter) cleanStaleAcquisitionsLocked() {
	now := time.Now()
	cleaned := 0

	valid := make([]*acquisition, 0, len(l.acquisitions))
	for _, acq := range l.acquisitions {
		if now.Sub(acq.timestamp) > l.releaseTimeout {
			cleaned++
			l.activeRequests--
			l.logger.Error("force-released stale concurrency slot after %v (session: %s)",
				l.releaseTimeout, acq.sessionID)
		} else {
			valid = append(valid, acq)
		}
	}
	l.acquisitions = valid

	if cleaned > 0 {
		l.logger.Warn("cleaned %d stale concurrency slots", cleaned)
	}
}

// refill adds tokens to the bucket up to max capacity.
func (l *TokenBucketLimiter) refill() {
	l.mu.Lock()
	defer l.mu.Unlock()

	old := l.availableTokens
	l.availableTokens += l.tokensPerRefill
	if l.availableTokens > l.maxCapacity {
		l.availableTokens = l.maxCapacity
	}
	if l.availableTokens != old {
		l.logger.Debug("bucket refilled: %d -> %d tokens (max: %d)", old, l.availableTokens, l.maxCapacity)
	}
}

// GetStats returns current limiter statistics.
func (l *TokenBucketLimiter) GetStats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	return Stats{
		Provider:        l.provider,
		AvailableTokens: l.availableTokens,
		MaxCapacity:     l.maxCapacity,
		ActiveRequests:  l.activeRequests,
		MaxConcurrency:  l.maxConcurrency,
		TokenLimitHits:  l.tokenLimitHits,
		ConcurrencyHits: l.concurrencyHits,
		SpentTodayUSD:   l.spentTodayUSD,
		DailyBudgetUSD:  l.dailyBudgetUSD,
	}
}

func today() string {
	return time.Now().UTC().Format("2006-01-02")
}
