package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"director/pkg/contextmgr"
	"director/pkg/engine"
	"director/pkg/llm"
	"director/pkg/metrics"
	"director/pkg/persistence"
	"director/pkg/proto"
	"director/pkg/session"
)

// interactiveSession is the mutable state of one presentation-building
// conversation: the progress flags, the rolling history window, and the
// current strawman text.
type interactiveSession struct {
	id       string
	progress session.Progress
	history  *contextmgr.Manager
	strawman string
}

// runInteractive drives a line-oriented conversation until the user quits or
// stdin closes. Resume mode picks up the most recent shutdown session.
func (a *app) runInteractive(continueMode bool) error {
	sess, err := a.openSession(continueMode)
	if err != nil {
		return err
	}

	locks := session.NewManager()
	eng := engine.New(
		a.sessionClient(sess.id),
		a.registry,
		a.detector,
		a.validator,
		engine.WithTimeout(time.Duration(a.cfg.Agent.DecideTimeoutSec)*time.Second),
	)

	fmt.Printf("Session %s. Type /status for progress, /quit to exit.\n", sess.id)
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/quit", "/exit":
			return a.closeSession(sess, persistence.SessionStatusShutdown)
		case "/status":
			a.printStatus(sess)
			continue
		case "/usage":
			a.printUsage()
			continue
		}

		locks.Lock(sess.id)
		err := a.handleTurn(eng, sess, line)
		locks.Unlock(sess.id)
		if err != nil {
			if llm.IsReasoningUnavailable(err) {
				fmt.Println("I'm having trouble reasoning about that right now. Please try again.")
				continue
			}
			return err
		}

		if sess.progress.IsComplete {
			fmt.Println("Presentation complete. 🎉")
			return a.closeSession(sess, persistence.SessionStatusCompleted)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("input read failed: %w", err)
	}
	return a.closeSession(sess, persistence.SessionStatusShutdown)
}

// handleTurn runs one utterance through the engine, applies the resulting
// decision to the session, and records the turn in the audit log.
func (a *app) handleTurn(eng *engine.Engine, sess *interactiveSession, utterance string) error {
	result, err := eng.Decide(context.Background(), engine.Input{
		SessionID: sess.id,
		Utterance: utterance,
		Progress:  sess.progress,
		History:   sess.history.Window(),
		Strawman:  sess.strawman,
	})
	if err != nil {
		return err
	}

	a.recorder.ObserveDecision(sess.id, string(result.Decision.Action), result.Downgraded, result.DowngradeReason)
	a.internal.ObserveDecision(sess.id, string(result.Decision.Action), result.Downgraded, result.DowngradeReason)

	applyDecision(sess, result)
	sess.history.AddUserMessage(utterance)
	if result.Decision.ResponseText != "" {
		sess.history.AddAssistantMessage(result.Decision.ResponseText)
		fmt.Println(result.Decision.ResponseText)
	}
	for _, call := range result.Decision.ToolCalls {
		fmt.Printf("  [tool] %s(%v)\n", call.Name, call.Parameters)
	}
	if result.Downgraded {
		a.logger.Debug("⚠️ Downgraded %s → %s: %s",
			result.Proposed.Action, result.Decision.Action, result.DowngradeReason)
	}

	if err := persistence.Ops().SaveProgress(sess.id, sess.progress); err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	rec := &persistence.DecisionRecord{
		ID:              result.Decision.ID,
		SessionID:       sess.id,
		Utterance:       utterance,
		ApprovalClass:   string(result.Approval.Class),
		ProposedAction:  result.Proposed.Action,
		Action:          result.Decision.Action,
		ResponseText:    result.Decision.ResponseText,
		ToolCalls:       result.Decision.ToolCalls,
		Confidence:      result.Decision.Confidence,
		Downgraded:      result.Downgraded,
		DowngradeReason: result.DowngradeReason,
		Stripped:        result.Stripped,
	}
	if err := persistence.Ops().RecordDecision(rec); err != nil {
		return fmt.Errorf("failed to record decision: %w", err)
	}
	return nil
}

// applyDecision folds a validated decision back into the session state.
// Explicit approval is consumed by whatever action it enabled; the flag is
// set so the guardrails see it on the turn it arrived.
func applyDecision(sess *interactiveSession, result engine.Result) {
	if result.Approval.IsExplicit() {
		sess.progress.HasExplicitApproval = true
	}

	switch result.Decision.Action {
	case proto.ActionProposePlan:
		sess.progress.HasTopic = true
		sess.progress.HasAudience = true
		sess.progress.HasDuration = true
		sess.progress.HasPurpose = true
		sess.progress.HasPlan = true
	case proto.ActionGenerateStrawman:
		sess.progress.HasStrawman = true
		sess.strawman = result.Decision.ResponseText
	case proto.ActionRefineStrawman:
		if result.Decision.ResponseText != "" {
			sess.strawman = result.Decision.ResponseText
		}
	case proto.ActionInvokeTools:
		for _, call := range result.Decision.ToolCalls {
			if call.Name == "content.generate" {
				sess.progress.HasContent = true
			}
		}
	case proto.ActionComplete:
		sess.progress.IsComplete = true
	case proto.ActionRespond, proto.ActionAskQuestions:
		// conversational turns don't advance progress
	}
}

// openSession creates a fresh session, or resumes the most recent shutdown
// session when continueMode is set and one exists.
func (a *app) openSession(continueMode bool) (*interactiveSession, error) {
	history := contextmgr.NewManagerWithWindow(a.cfg.Agent.WindowTokens)

	if continueMode {
		prev, err := persistence.Ops().GetResumableSession()
		if err == nil {
			if uerr := persistence.Ops().UpdateSessionStatus(prev.SessionID, persistence.SessionStatusActive); uerr != nil {
				return nil, fmt.Errorf("failed to reactivate session: %w", uerr)
			}
			a.logger.Info("✅ Resumed session %s", prev.SessionID)
			return &interactiveSession{
				id:       prev.SessionID,
				progress: prev.Progress,
				history:  history,
			}, nil
		}
		a.logger.Info("No resumable session found, starting fresh")
	}

	id := proto.GenerateSessionID()
	if err := persistence.Ops().CreateSession(id); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &interactiveSession{
		id:       id,
		progress: session.NewProgress(),
		history:  history,
	}, nil
}

func (a *app) closeSession(sess *interactiveSession, status string) error {
	if err := persistence.Ops().SaveProgress(sess.id, sess.progress); err != nil {
		return fmt.Errorf("failed to save progress on close: %w", err)
	}
	if err := persistence.Ops().UpdateSessionStatus(sess.id, status); err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}
	a.logger.Info("Session %s closed (%s)", sess.id, status)
	return nil
}

func (a *app) printStatus(sess *interactiveSession) {
	p := sess.progress
	fmt.Printf("Session %s\n", sess.id)
	fmt.Printf("  topic=%v audience=%v duration=%v purpose=%v\n",
		p.HasTopic, p.HasAudience, p.HasDuration, p.HasPurpose)
	fmt.Printf("  plan=%v strawman=%v approval=%v content=%v complete=%v\n",
		p.HasPlan, p.HasStrawman, p.HasExplicitApproval, p.HasContent, p.IsComplete)
	fmt.Printf("  history: %s\n", sess.history.Summary())

	if m := a.internal.GetSessionMetrics(sess.id); m != nil {
		fmt.Printf("  reasoning: %d requests, %d tokens, $%.4f\n",
			m.RequestCount, m.TotalTokens, m.TotalCost)
		fmt.Printf("  decisions: %d (%d downgraded)\n", m.DecisionCount, m.DowngradeCount)
	}

	stats := a.limiter.GetStats()
	fmt.Printf("  budget: $%.2f of $%.2f spent today (%s)\n",
		stats.SpentTodayUSD, stats.DailyBudgetUSD, stats.Provider)
}

// printUsage reports cross-session usage from Prometheus when a query
// endpoint is configured. Per-session numbers live in /status.
func (a *app) printUsage() {
	if a.cfg.Metrics.PrometheusURL == "" {
		fmt.Println("No prometheus_url configured; see /status for this session's usage.")
		return
	}
	svc, err := metrics.NewQueryService(a.cfg.Metrics.PrometheusURL)
	if err != nil {
		fmt.Printf("Usage query unavailable: %v\n", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	byModel, err := svc.GetUsageByModel(ctx)
	if err != nil {
		fmt.Printf("Usage query failed: %v\n", err)
		return
	}
	for _, usage := range byModel {
		fmt.Printf("  %s: %d tokens (%d prompt, %d completion), $%.4f\n",
			usage.Model, usage.TotalTokens, usage.PromptTokens, usage.CompletionTokens, usage.TotalCost)
	}

	if decisions, err := svc.GetDecisionCounts(ctx); err == nil {
		for action, count := range decisions {
			fmt.Printf("  decisions %s: %d\n", action, count)
		}
	}
	if downgrades, err := svc.GetDowngradeCounts(ctx); err == nil {
		for reason, count := range downgrades {
			fmt.Printf("  downgrades %s: %d\n", reason, count)
		}
	}
}
