package llm

import (
	"context"
	"errors"
	"math"
	"time"

	"director/pkg/llm/llmerrors"
	"director/pkg/logx"
)

// RetryMiddleware wraps a client with classified retry logic. Each error is
// classified via llmerrors; the per-type retry config decides attempts and
// backoff. A user is waiting on every decision, so total attempts are capped
// regardless of classification, and exhausted retries surface as a
// ReasoningUnavailableError.
func RetryMiddleware(maxAttempts int, logger *logx.Logger) Middleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if logger == nil {
		logger = logx.NewLogger("llm-retry")
	}

	return func(next LLMClient) LLMClient {
		return WrapClient(
			func(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
				var lastErr error
				for attempt := 0; attempt < maxAttempts; attempt++ {
					if attempt > 0 {
						delay := retryDelay(lastErr, attempt)
						logger.Debug("retrying %s after %v (attempt %d/%d): %v",
							next.GetModelName(), delay, attempt+1, maxAttempts, lastErr)
						select {
						case <-ctx.Done():
							return CompletionResponse{}, &ReasoningUnavailableError{Cause: ctx.Err()}
						case <-time.After(delay):
						}
					}

					resp, err := next.Complete(ctx, req)
					if err == nil {
						return resp, nil
					}
					lastErr = err

					if !retryable(err) {
						break
					}
				}
				if errors.Is(lastErr, context.DeadlineExceeded) || errors.Is(lastErr, context.Canceled) {
					return CompletionResponse{}, &ReasoningUnavailableError{Cause: lastErr}
				}
				if retryable(lastErr) {
					return CompletionResponse{}, &ReasoningUnavailableError{
						Cause: llmerrors.NewUnavailableError(lastErr, maxAttempts),
					}
				}
				return CompletionResponse{}, lastErr
			},
			next.Stream, // streams are not retried; re-establishing mid-stream is the caller's call
			next.GetModelName,
		)
	}
}

// retryable decides via llmerrors classification, falling back to treating
// plain context errors as non-retryable.
func retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	var classified *llmerrors.Error
	if errors.As(err, &classified) {
		return classified.IsRetryable()
	}
	return false
}

// retryDelay computes the backoff for one attempt from the error's retry
// config, capped at the config's max delay.
func retryDelay(err error, attempt int) time.Duration {
	cfg := llmerrors.DefaultRetryConfigs[llmerrors.TypeOf(err)]
	if cfg.InitialDelay <= 0 {
		return 250 * time.Millisecond
	}
	delay := time.Duration(float64(cfg.InitialDelay) * math.Pow(cfg.BackoffFactor, float64(attempt-1)))
	if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	if cfg.Jitter {
		jitterFactor := float64(2*(time.Now().UnixNano()%2) - 1) // -1 or 1
		delay += time.Duration(float64(delay) * 0.1 * jitterFactor)
		if delay < 0 {
			delay = cfg.InitialDelay
		}
	}
	return delay
}
