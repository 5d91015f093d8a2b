// Package engine orchestrates one decision turn: classify the approval
// signal, ask the reasoning capability for a proposed decision, then run it
// through the guardrail validator. The engine holds no per-session state;
// everything it needs is passed in and everything it produces is returned.
package engine

import (
	"context"
	"fmt"
	"time"

	"director/pkg/approval"
	"director/pkg/contextmgr"
	"director/pkg/guardrail"
	"director/pkg/llm"
	"director/pkg/llm/llmerrors"
	"director/pkg/logx"
	"director/pkg/proto"
	"director/pkg/session"
	"director/pkg/tools"
)

// DefaultDecideTimeout bounds the reasoning call. A user is waiting on every
// decision, so this is short.
const DefaultDecideTimeout = 15 * time.Second

// malformedRetries is the bounded retry for unparseable reasoning output.
const malformedRetries = 1

// Input carries everything one decision turn needs. The caller owns the
// progress snapshot and history; the engine only reads them.
//
//nolint:govet // struct alignment optimization not critical for this type.
type Input struct {
	SessionID string
	Utterance string
	Progress  session.Progress
	History   []contextmgr.Message
	Strawman  string // current strawman outline, empty if none exists yet
}

// Result is the outcome of one decision turn: the validated decision plus
// the diagnostics the caller needs for audit logging.
//
//nolint:govet // struct alignment optimization not critical for this type.
type Result struct {
	Decision proto.Decision
	Proposed proto.Decision
	Approval proto.ApprovalSignal

	Downgraded      bool
	DowngradeReason string
	Stripped        []string
}

// Engine is the decision orchestrator. Safe for concurrent use across
// sessions; within one session the caller serializes Decide calls.
type Engine struct {
	client    llm.LLMClient
	registry  *tools.Registry
	detector  *approval.Detector
	validator *guardrail.Validator
	logger    *logx.Logger
	timeout   time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout overrides the per-decision reasoning timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// New creates a decision engine. The registry must be sealed before the
// first Decide call.
func New(client llm.LLMClient, registry *tools.Registry, detector *approval.Detector, validator *guardrail.Validator, opts ...Option) *Engine {
	e := &Engine{
		client:    client,
		registry:  registry,
		detector:  detector,
		validator: validator,
		logger:    logx.NewLogger("engine"),
		timeout:   DefaultDecideTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Decide runs one decision turn. The only error it returns is
// ReasoningUnavailableError; every other failure is recovered into a safe
// decision before it gets here.
func (e *Engine) Decide(ctx context.Context, in Input) (Result, error) {
	signal := e.detector.Classify(in.Utterance)
	e.logger.Debug("session %s: approval=%s matched=%v", in.SessionID, signal.Class, signal.Matched)

	req := e.buildRequest(in, signal)

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	proposed, err := e.propose(ctx, req)
	if err != nil {
		return Result{}, err
	}

	validated := e.validator.Validate(proposed, in.Progress, signal)

	res := Result{
		Decision:   validated.Decision,
		Proposed:   proposed,
		Approval:   signal,
		Downgraded: validated.Downgraded,
		Stripped:   validated.Stripped,
	}
	if validated.Reason != nil {
		res.DowngradeReason = validated.Reason.Error()
	}

	if res.Downgraded {
		e.logger.Info("session %s: %s downgraded to %s (%s)",
			in.SessionID, proposed.Action, validated.Decision.Action, res.DowngradeReason)
	} else {
		e.logger.Debug("session %s: %s accepted (confidence %.2f)",
			in.SessionID, validated.Decision.Action, validated.Decision.Confidence)
	}

	return res, nil
}

// propose calls the reasoning capability and parses its output into a
// proposed decision. Unparseable output gets one corrective retry; anything
// still failing becomes ReasoningUnavailableError.
func (e *Engine) propose(ctx context.Context, req llm.CompletionRequest) (proto.Decision, error) {
	var lastErr error

	for attempt := 0; attempt <= malformedRetries; attempt++ {
		resp, err := e.client.Complete(ctx, req)
		if err != nil {
			if llm.IsReasoningUnavailable(err) {
				return proto.Decision{}, err //nolint:wrapcheck // already the boundary error
			}
			return proto.Decision{}, &llm.ReasoningUnavailableError{Cause: err}
		}

		decision, parseErr := parseDecision(resp.Content)
		if parseErr == nil {
			return decision, nil
		}

		lastErr = parseErr
		e.logger.Warn("unparseable reasoning output (attempt %d): %v", attempt+1, parseErr)

		// Feed the parser's complaint back so the retry can self-correct.
		req.Messages = append(req.Messages,
			llm.CompletionMessage{Role: llm.RoleAssistant, Content: resp.Content},
			llm.NewUserMessage(fmt.Sprintf(
				"That response could not be parsed (%v). Reply with ONLY the JSON decision object, no other text.", parseErr)),
		)
	}

	return proto.Decision{}, &llm.ReasoningUnavailableError{
		Cause: llmerrors.NewErrorWithCause(llmerrors.ErrorTypeMalformed, lastErr, "reasoning output unparseable after retry"),
	}
}
