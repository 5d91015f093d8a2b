package limiter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"director/pkg/llm"
)

func TestAcquireAndRelease(t *testing.T) {
	l := NewTokenBucketLimiter("test", Config{
		TokensPerMinute: 1000,
		MaxConcurrency:  2,
	}, time.Second)

	release, err := l.Acquire(context.Background(), 100, "s1")
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	stats := l.GetStats()
	if stats.ActiveRequests != 1 {
		t.Errorf("expected 1 active request, got %d", stats.ActiveRequests)
	}
	if stats.AvailableTokens != stats.MaxCapacity-100 {
		t.Errorf("tokens not deducted: %d of %d", stats.AvailableTokens, stats.MaxCapacity)
	}

	release()
	if l.GetStats().ActiveRequests != 0 {
		t.Error("release did not return the concurrency slot")
	}
	// Tokens are spent, not refunded.
	if l.GetStats().AvailableTokens != stats.MaxCapacity-100 {
		t.Error("tokens should not be refunded on release")
	}
}

func TestConcurrencyLimit(t *testing.T) {
	l := NewTokenBucketLimiter("test", Config{
		TokensPerMinute: 100000,
		MaxConcurrency:  1,
	}, time.Minute)

	release1, err := l.Acquire(context.Background(), 10, "s1")
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	// Second acquire should block until the first slot releases.
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		release2, err := l.Acquire(context.Background(), 10, "s2")
		if err != nil {
			t.Errorf("second acquire failed: %v", err)
			return
		}
		release2()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("second acquire should not complete while slot is held")
	case <-time.After(150 * time.Millisecond):
	}

	release1()
	wg.Wait()

	select {
	case <-done:
	default:
		t.Fatal("second acquire never completed after release")
	}
}

func TestAcquireContextCancellation(t *testing.T) {
	l := NewTokenBucketLimiter("test", Config{
		TokensPerMinute: 100, // capacity 90, request exceeds it
		MaxConcurrency:  1,
	}, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := l.Acquire(ctx, 10000, "s1")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestDailyBudget(t *testing.T) {
	l := NewTokenBucketLimiter("test", Config{
		TokensPerMinute: 100000,
		MaxConcurrency:  4,
		DailyBudgetUSD:  1.0,
	}, time.Second)

	release, err := l.Acquire(context.Background(), 10, "s1")
	if err != nil {
		t.Fatalf("acquire under budget failed: %v", err)
	}
	release()

	l.RecordSpend(1.5)

	_, err = l.Acquire(context.Background(), 10, "s1")
	var budgetErr *BudgetExhaustedError
	if !errors.As(err, &budgetErr) {
		t.Fatalf("expected BudgetExhaustedError, got %v", err)
	}
	if budgetErr.Spent != 1.5 {
		t.Errorf("unexpected spend in error: %v", budgetErr.Spent)
	}
}

func TestPricingCost(t *testing.T) {
	p := Pricing{InputPerMTok: 3.0, OutputPerMTok: 15.0}
	got := p.Cost(1_000_000, 1_000_000)
	if got != 18.0 {
		t.Errorf("Cost(1M, 1M) = %v, want 18.0", got)
	}
	if p.Cost(0, 0) != 0 {
		t.Error("zero tokens should cost nothing")
	}
}

func TestMiddlewareChargesAndRecords(t *testing.T) {
	l := NewTokenBucketLimiter("test", Config{
		TokensPerMinute: 100000,
		MaxConcurrency:  2,
		DailyBudgetUSD:  100,
	}, time.Second)

	mock := llm.NewMockClient([]llm.CompletionResponse{{Content: "decision text"}}, nil)
	client := llm.Chain(mock, Middleware(l, Pricing{InputPerMTok: 3, OutputPerMTok: 15}, "s1"))

	req := llm.NewCompletionRequest([]llm.CompletionMessage{llm.NewUserMessage("hello world")})
	if _, err := client.Complete(context.Background(), req); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	stats := l.GetStats()
	if stats.AvailableTokens >= stats.MaxCapacity {
		t.Error("middleware did not charge the bucket")
	}
	if stats.SpentTodayUSD <= 0 {
		t.Error("middleware did not record spend")
	}
	if stats.ActiveRequests != 0 {
		t.Error("middleware did not release the slot")
	}
}
