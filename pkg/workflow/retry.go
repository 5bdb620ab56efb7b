package workflow

import (
	"context"

	"github.com/codeready-toolchain/remedy/pkg/models"
)

// FinalStatus is the verdict of a retried run.
type FinalStatus string

const (
	// FinalStatusSuccess: a pass produced a non-empty report.
	FinalStatusSuccess FinalStatus = "success"
	// FinalStatusRetriesExhausted: every pass completed without a report.
	FinalStatusRetriesExhausted FinalStatus = "retries_exhausted"
	// FinalStatusFailed: the orchestration broke mid-pass. Not retried —
	// retrying a broken orchestration repeats the breakage.
	FinalStatusFailed FinalStatus = "failed"
	// FinalStatusCancelled: the run's context was cancelled.
	FinalStatusCancelled FinalStatus = "cancelled"
)

// FinalOutcome is the terminal result of RunWithRetry. State always carries
// the last known workflow state so a human can resume manually after a
// failure.
type FinalOutcome struct {
	Status   FinalStatus
	Attempts int
	State    models.WorkflowState
	Err      error
}

// RetryOptions configures the whole-run retry wrapper.
type RetryOptions struct {
	// MaxRetries is the number of additional passes after the first, so a
	// run makes at most MaxRetries+1 attempts. Negative means zero.
	MaxRetries int
	// ResetState clears the accumulated workflow state between passes.
	// The default (false) carries state over: a later pass sees — and
	// overwrites field by field — what earlier passes wrote.
	ResetState bool
}

// RunWithRetry executes full orchestration passes until one produces a
// non-empty report, the attempt limit is spent, the orchestration breaks, or
// the context is cancelled. Each retry re-runs the entire pass from the
// start; there is no mid-run resumption.
func (e *Engine) RunWithRetry(ctx context.Context, opts RetryOptions) *FinalOutcome {
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	var last *RunResult
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			e.logger.Warn("Retrying workflow run",
				"attempt", attempt+1,
				"max_attempts", maxRetries+1)
			if opts.ResetState {
				e.store.Reset()
			}
		}

		last = e.Run(ctx)

		if last.Phase == PhaseFailed {
			status := FinalStatusFailed
			if ctx.Err() != nil {
				status = FinalStatusCancelled
			}
			return &FinalOutcome{Status: status, Attempts: attempt + 1, State: last.State, Err: last.Err}
		}
		if last.Reported() {
			return &FinalOutcome{Status: FinalStatusSuccess, Attempts: attempt + 1, State: last.State}
		}
	}

	e.logger.Error("Report generation failed after all attempts",
		"attempts", maxRetries+1,
		"max_retries", maxRetries)
	return &FinalOutcome{Status: FinalStatusRetriesExhausted, Attempts: maxRetries + 1, State: last.State, Err: last.Err}
}
