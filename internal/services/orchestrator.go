// Package services contains the retry orchestrator, the state machine at
// the center of shex: it turns a free-text request into candidate commands,
// gates risky ones behind confirmation, executes, and feeds failures back
// into the next prompt until it succeeds or the retry budget runs out.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/YUHAI0/shex/internal/domain"
	"github.com/YUHAI0/shex/internal/ports"
)

// Orchestrator sequences provider → classifier → confirmation → executor.
// It is the only writer of the attempt sequence; collaborators only ever see
// the derived prompt strings.
type Orchestrator struct {
	Config          domain.Config
	ProviderFactory ports.ProviderFactory
	Classifier      ports.RiskClassifier
	Executor        ports.CommandExecutor
	Prompter        ports.ConfirmationPrompter
	Sink            ports.AttemptSink
	Logger          ports.Logger

	// NewRunID is overridable for tests; defaults to uuid.NewString.
	NewRunID func() string
}

// Run processes one request to a single terminal result. A negative
// MaxRetries falls back to the configured budget. Provider and execution
// failures are retried within budget; a decline, a fatal provider error, or
// cancellation ends the run immediately.
func (o *Orchestrator) Run(req domain.LoopRequest) (domain.LoopResult, error) {
	if o.ProviderFactory == nil || o.Classifier == nil || o.Executor == nil ||
		o.Prompter == nil || o.Logger == nil {
		return domain.LoopResult{}, errors.New("services.Orchestrator dependencies not satisfied")
	}
	if strings.TrimSpace(req.Text) == "" {
		return domain.LoopResult{}, domain.ErrEmptyRequest
	}

	ctx := req.Context
	if ctx == nil {
		ctx = context.Background()
	}

	maxRetries := req.MaxRetries
	if maxRetries < 0 {
		maxRetries = o.Config.Preferences.MaxRetries
	}

	model, err := pickModel(o.Config, req.ModelOverride)
	if err != nil {
		return aborted(nil, err.Error()), nil
	}
	provider, err := o.ProviderFactory.ForModel(model)
	if err != nil {
		return aborted(nil, err.Error()), nil
	}

	runID := o.runID()
	failures := newFailureContext(domain.MaxFailureSummaries)
	attempts := make([]domain.Attempt, 0, maxRetries+1)

	for seq := 1; seq <= maxRetries+1; seq++ {
		if ctx.Err() != nil {
			return aborted(attempts, "interrupted"), nil
		}

		attempt := domain.Attempt{
			Seq:    seq,
			Prompt: failures.compose(req.Text),
		}

		candidate, err := provider.Propose(ctx, ports.ProposeRequest{
			Prompt: attempt.Prompt,
			Debug:  req.Debug,
		})
		if err != nil {
			if ctx.Err() != nil {
				return aborted(attempts, "interrupted"), nil
			}
			attempt.Outcome = domain.Outcome{
				Kind:   domain.OutcomeProviderError,
				Reason: err.Error(),
			}
			attempts = o.record(attempts, runID, req.Text, attempt)
			if domain.IsFatalProviderError(err) {
				return aborted(attempts, err.Error()), nil
			}
			failures.addProviderError(err)
			continue
		}
		attempt.Candidate = candidate

		risk, err := o.Classifier.Classify(candidate.Command)
		if err != nil {
			return aborted(attempts, fmt.Sprintf("risk classification failed: %v", err)), nil
		}
		attempt.Risk = risk

		if risk.Tier.RequiresConfirmation() {
			approved, err := o.Prompter.Confirm(candidate, risk)
			if err != nil {
				// Fail safe: a gate that cannot answer never approves.
				o.Logger.Warn("confirmation failed, declining", map[string]interface{}{"error": err.Error()})
				approved = false
			}
			if !approved {
				attempt.Outcome = domain.Outcome{
					Kind:   domain.OutcomeDeclined,
					Reason: "declined by user",
				}
				attempts = o.record(attempts, runID, req.Text, attempt)
				return domain.LoopResult{
					Kind:     domain.LoopCompleted,
					Final:    attempt.Outcome,
					Attempts: attempts,
				}, nil
			}
		}

		execResult, err := o.Executor.Execute(ctx, candidate.Command)
		if err != nil {
			if ctx.Err() != nil {
				attempt.Outcome = executionOutcome(execResult)
				attempt.Outcome.Reason = "interrupted"
				attempts = o.record(attempts, runID, req.Text, attempt)
				return aborted(attempts, "interrupted"), nil
			}
			// An executor error is a failed execution, whatever the result
			// carries. Fold it in so the outcome can never read as success.
			if execResult.Err == nil {
				execResult.Err = err
			}
			if execResult.ExitCode == 0 {
				execResult.ExitCode = -1
			}
		}

		attempt.Outcome = executionOutcome(execResult)
		attempts = o.record(attempts, runID, req.Text, attempt)

		if attempt.Outcome.Kind == domain.OutcomeSuccess {
			return domain.LoopResult{
				Kind:     domain.LoopCompleted,
				Final:    attempt.Outcome,
				Attempts: attempts,
			}, nil
		}
		failures.addExecutionFailure(execResult)
	}

	return domain.LoopResult{
		Kind:     domain.LoopRetriesExhausted,
		Attempts: attempts,
	}, nil
}

func executionOutcome(result domain.ExecutionResult) domain.Outcome {
	outcome := domain.Outcome{
		Stdout:     result.Stdout,
		Stderr:     result.Stderr,
		ExitCode:   result.ExitCode,
		TimedOut:   result.TimedOut,
		DurationMS: result.DurationMS,
	}
	switch {
	case result.TimedOut:
		outcome.Kind = domain.OutcomeFailure
		outcome.Reason = "timed out"
	case result.Success():
		outcome.Kind = domain.OutcomeSuccess
	default:
		outcome.Kind = domain.OutcomeFailure
		if result.Err != nil {
			outcome.Reason = result.Err.Error()
		}
	}
	return outcome
}

// record appends the attempt and emits it to the audit sink. Sink failures
// are logged and ignored; the loop never blocks or fails on audit.
func (o *Orchestrator) record(attempts []domain.Attempt, runID, request string, attempt domain.Attempt) []domain.Attempt {
	attempts = append(attempts, attempt)
	if o.Sink == nil {
		return attempts
	}
	detail := attempt.Outcome.Reason
	if detail == "" {
		detail = truncate(attempt.Outcome.Stderr, domain.MaxStderrSummaryBytes)
	}
	record := domain.AttemptRecord{
		RunID:      runID,
		Seq:        attempt.Seq,
		Timestamp:  time.Now(),
		Request:    request,
		Prompt:     attempt.Prompt,
		Command:    attempt.Candidate.Command,
		Rationale:  attempt.Candidate.Rationale,
		Tier:       attempt.Risk.Tier,
		Outcome:    attempt.Outcome.Kind,
		ExitCode:   attempt.Outcome.ExitCode,
		Detail:     detail,
		DurationMS: attempt.Outcome.DurationMS,
	}
	if err := o.Sink.Record(record); err != nil {
		o.Logger.Warn("attempt audit failed", map[string]interface{}{"error": err.Error()})
	}
	return attempts
}

func (o *Orchestrator) runID() string {
	if o.NewRunID != nil {
		return o.NewRunID()
	}
	return uuid.NewString()
}

func aborted(attempts []domain.Attempt, reason string) domain.LoopResult {
	return domain.LoopResult{
		Kind:     domain.LoopAborted,
		Attempts: attempts,
		Reason:   reason,
	}
}

func pickModel(cfg domain.Config, override string) (domain.ModelDefinition, error) {
	name := override
	if name == "" {
		name = cfg.Preferences.DefaultModel
	}
	if name == "" && len(cfg.Models) > 0 {
		return cfg.Models[0], nil
	}
	for _, model := range cfg.Models {
		if model.Name == name {
			return model, nil
		}
	}
	return domain.ModelDefinition{}, fmt.Errorf("model %s not configured", name)
}

var _ domain.LoopService = (*Orchestrator)(nil)
