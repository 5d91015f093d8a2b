package llmerrors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorTypeStrings(t *testing.T) {
	cases := map[ErrorType]string{
		ErrorTypeRateLimit:   "rate_limit",
		ErrorTypeTransient:   "transient",
		ErrorTypeMalformed:   "malformed",
		ErrorTypeAuth:        "auth",
		ErrorTypeUnavailable: "unavailable",
	}
	for et, want := range cases {
		if got := et.String(); got != want {
			t.Errorf("ErrorType(%d).String() = %q, want %q", et, got, want)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	retryable := []ErrorType{ErrorTypeRateLimit, ErrorTypeTransient, ErrorTypeEmptyResponse, ErrorTypeMalformed, ErrorTypeUnknown}
	for _, et := range retryable {
		if !NewError(et, "x").IsRetryable() {
			t.Errorf("%s should be retryable", et)
		}
	}
	final := []ErrorType{ErrorTypeAuth, ErrorTypeBadPrompt, ErrorTypeUnavailable}
	for _, et := range final {
		if NewError(et, "x").IsRetryable() {
			t.Errorf("%s should not be retryable", et)
		}
	}
}

func TestUnwrapChain(t *testing.T) {
	cause := errors.New("socket closed")
	err := NewErrorWithCause(ErrorTypeTransient, cause, "connection died")
	if !errors.Is(err, cause) {
		t.Error("expected wrapped cause to be reachable via errors.Is")
	}
	if !Is(fmt.Errorf("outer: %w", err), ErrorTypeTransient) {
		t.Error("expected Is to see through wrapping")
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorType
	}{
		{context.DeadlineExceeded, ErrorTypeTransient},
		{errors.New("request failed with status code: 429"), ErrorTypeRateLimit},
		{errors.New("request failed with status code: 401"), ErrorTypeAuth},
		{errors.New("request failed with status code: 503"), ErrorTypeTransient},
		{errors.New("request failed with status code: 400"), ErrorTypeBadPrompt},
		{errors.New("unexpected EOF"), ErrorTypeTransient},
		{errors.New("quota exceeded for project"), ErrorTypeRateLimit},
		{errors.New("invalid api key provided"), ErrorTypeAuth},
		{errors.New("something inexplicable"), ErrorTypeUnknown},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got.Type != tc.want {
			t.Errorf("Classify(%v) = %s, want %s", tc.err, got.Type, tc.want)
		}
	}

	// Pre-classified errors pass through.
	pre := NewError(ErrorTypeMalformed, "bad json")
	if got := Classify(pre); got.Type != ErrorTypeMalformed {
		t.Errorf("pre-classified error reclassified to %s", got.Type)
	}
	if Classify(nil) != nil {
		t.Error("Classify(nil) should be nil")
	}
}

func TestUnavailableAfterRetries(t *testing.T) {
	cause := NewError(ErrorTypeTransient, "502")
	err := NewUnavailableError(cause, 3)
	if !IsUnavailable(err) {
		t.Error("expected IsUnavailable")
	}
	if err.IsRetryable() {
		t.Error("unavailable must not be retryable")
	}
	if err.GetRetryConfig().MaxRetries != 0 {
		t.Error("unavailable retry config must be zero")
	}
}

func TestSanitizePrompt(t *testing.T) {
	short := "tiny prompt"
	if SanitizePrompt(short, 100) != short {
		t.Error("short prompts pass through unchanged")
	}

	long := ""
	for i := 0; i < 100; i++ {
		long += "0123456789"
	}
	got := SanitizePrompt(long, 300)
	if len(got) >= len(long) {
		t.Error("long prompts should be truncated")
	}
	if !strings.Contains(got, "hash:") {
		t.Errorf("expected correlation hash in %q", got)
	}
}
