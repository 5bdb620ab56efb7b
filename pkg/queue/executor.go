package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/codeready-toolchain/remedy/pkg/database"
	"github.com/codeready-toolchain/remedy/pkg/metrics"
	"github.com/codeready-toolchain/remedy/pkg/models"
	"github.com/codeready-toolchain/remedy/pkg/oc"
	"github.com/codeready-toolchain/remedy/pkg/workflow"
)

// runStateWriteTimeout bounds the detached persistence and publish calls made
// from observer callbacks.
const runStateWriteTimeout = 5 * time.Second

// ExecutorDeps carries what a WorkflowExecutor needs to run sessions.
// Runner, Investigator, Verifier, and Reporter are required. Store persists
// run state after each phase (nil disables persistence, for one-shot runs).
// Publisher streams live events (nil disables streaming).
type ExecutorDeps struct {
	Store        *database.SessionStore
	Publisher    RunPublisher
	Runner       oc.Runner
	Investigator workflow.Investigator
	Verifier     workflow.Verifier
	Reporter     workflow.Reporter

	MaxTools          int
	Timeouts          workflow.Timeouts
	MaxRetries        int
	ResetStateOnRetry bool

	// Sanitize masks secrets in captured output before it is stored or
	// published. Optional.
	Sanitize func(string) string
	// Metrics records run outcomes, retries, classified errors, and budget
	// exhaustions. Optional.
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// WorkflowExecutor implements SessionExecutor by driving one workflow engine
// run per claimed session. The collaborators are shared across sessions; the
// engine, its state store, and its budget are per run.
type WorkflowExecutor struct {
	deps   ExecutorDeps
	logger *slog.Logger
}

var _ SessionExecutor = (*WorkflowExecutor)(nil)

// NewWorkflowExecutor creates the executor. Panics on missing required
// dependencies; those are wiring errors, not runtime conditions.
func NewWorkflowExecutor(deps ExecutorDeps) *WorkflowExecutor {
	if deps.Runner == nil {
		panic("NewWorkflowExecutor: Runner must not be nil")
	}
	if deps.Investigator == nil {
		panic("NewWorkflowExecutor: Investigator must not be nil")
	}
	if deps.Verifier == nil {
		panic("NewWorkflowExecutor: Verifier must not be nil")
	}
	if deps.Reporter == nil {
		panic("NewWorkflowExecutor: Reporter must not be nil")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default().With("component", "session-executor")
	}
	return &WorkflowExecutor{deps: deps, logger: logger}
}

// Execute runs the session's alert through the workflow state machine with
// whole-run retries, then maps the final outcome to a terminal session
// status. Run state lands in the database phase by phase through the
// observer, so the returned result only carries the terminal verdict.
func (e *WorkflowExecutor) Execute(ctx context.Context, session *models.Session) *ExecutionResult {
	log := e.logger.With(
		"session_id", session.ID,
		"alert", session.AlertName,
		"namespace", session.Namespace)
	log.Info("Starting workflow run", "retry_count", session.RetryCount)

	engine := workflow.NewEngine(workflow.Dependencies{
		Alert:        session.AlertContext(),
		Runner:       e.deps.Runner,
		Investigator: e.deps.Investigator,
		Verifier:     e.deps.Verifier,
		Reporter:     e.deps.Reporter,
		MaxTools:     e.deps.MaxTools,
		Timeouts:     e.deps.Timeouts,
		Observer: &runObserver{
			sessionID: session.ID,
			store:     e.deps.Store,
			publisher: e.deps.Publisher,
			metrics:   e.deps.Metrics,
			logger:    log,
		},
		Sanitize:          e.deps.Sanitize,
		OnBudgetExhausted: e.deps.Metrics.BudgetExhausted,
	})

	outcome := engine.RunWithRetry(ctx, workflow.RetryOptions{
		MaxRetries: e.deps.MaxRetries,
		ResetState: e.deps.ResetStateOnRetry,
	})

	log.Info("Workflow run finished",
		"status", string(outcome.Status),
		"attempts", outcome.Attempts)
	e.deps.Metrics.RunRetries(outcome.Attempts - 1)

	switch outcome.Status {
	case workflow.FinalStatusSuccess:
		return &ExecutionResult{Status: models.SessionStatusCompleted, Report: outcome.State.Report}
	case workflow.FinalStatusRetriesExhausted:
		err := outcome.Err
		if err == nil {
			err = fmt.Errorf("no report produced after %d attempts", outcome.Attempts)
		}
		return &ExecutionResult{Status: models.SessionStatusFailed, Report: outcome.State.Report, Error: err}
	case workflow.FinalStatusCancelled:
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return &ExecutionResult{Status: models.SessionStatusTimedOut, Error: outcome.Err}
		}
		return &ExecutionResult{Status: models.SessionStatusCancelled, Error: outcome.Err}
	default:
		return &ExecutionResult{Status: models.SessionStatusFailed, Report: outcome.State.Report, Error: outcome.Err}
	}
}

// runObserver persists run state after every phase transition and publishes
// live events. It writes on a detached context because the run context may
// already be cancelled when the final transitions arrive.
type runObserver struct {
	sessionID string
	store     *database.SessionStore
	publisher RunPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

var _ workflow.Observer = (*runObserver)(nil)

func (o *runObserver) PhaseChanged(_ context.Context, phase workflow.Phase, state models.WorkflowState) {
	ctx, cancel := context.WithTimeout(context.Background(), runStateWriteTimeout)
	defer cancel()

	if o.store != nil {
		if err := o.store.StoreRunState(ctx, o.sessionID, string(phase), state); err != nil {
			o.logger.Warn("Failed to persist run state", "phase", string(phase), "error", err)
		}
	}

	if o.publisher == nil {
		return
	}
	if err := o.publisher.PublishPhaseStatus(ctx, o.sessionID, string(phase)); err != nil {
		o.logger.Warn("Failed to publish phase status", "phase", string(phase), "error", err)
	}
	if phase == workflow.PhaseReported && state.Report != nil {
		if err := o.publisher.PublishReportCreated(ctx, o.sessionID, state.Report); err != nil {
			o.logger.Warn("Failed to publish report event", "error", err)
		}
	}
}

func (o *runObserver) CommandFinished(_ context.Context, result models.CommandResult) {
	if result.Error != nil {
		o.metrics.ErrorClassified(result.Error.Kind)
	}

	if o.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), runStateWriteTimeout)
	defer cancel()
	if err := o.publisher.PublishCommandResult(ctx, o.sessionID, result); err != nil {
		o.logger.Warn("Failed to publish command result", "command", result.Command, "error", err)
	}
}
