// Package workflow implements the deterministic alert-remediation state
// machine: store alert → investigate/plan → execute → verify → report, with
// a per-run tool-call budget, a single-writer shared state store, and a
// whole-run retry wrapper. Collaborators (investigator, verifier, reporter)
// plug in through narrow interfaces; the engine owns ordering, branching,
// and failure routing.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/codeready-toolchain/remedy/pkg/models"
	"github.com/codeready-toolchain/remedy/pkg/oc"
)

// Phase names one state of the orchestration state machine.
type Phase string

const (
	PhaseStart           Phase = "start"
	PhaseAlertStored     Phase = "alert_stored"
	PhasePlanned         Phase = "planned"
	PhaseExecuted        Phase = "executed"
	PhaseVerified        Phase = "verified"
	PhaseExecutionFailed Phase = "execution_failed"
	PhaseReported        Phase = "reported"
	PhaseDone            Phase = "done"
	PhaseFailed          Phase = "failed"
)

// Terminal reports whether the phase ends a run.
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseFailed
}

// Default limits, matching the shipped configuration defaults.
const (
	DefaultMaxTools   = 5
	DefaultMaxRetries = 3

	defaultInvestigationTimeout = 30 * time.Second
	defaultExecutionTimeout     = 60 * time.Second
	defaultVerificationTimeout  = 30 * time.Second
	defaultLookupTimeout        = 30 * time.Second
)

// Timeouts bounds each class of external command a run makes. Investigation,
// execution, and verification are separately configurable; zero fields take
// the defaults.
type Timeouts struct {
	Investigation time.Duration
	Execution     time.Duration
	Verification  time.Duration
	Lookup        time.Duration
}

func (t Timeouts) withDefaults() Timeouts {
	if t.Investigation <= 0 {
		t.Investigation = defaultInvestigationTimeout
	}
	if t.Execution <= 0 {
		t.Execution = defaultExecutionTimeout
	}
	if t.Verification <= 0 {
		t.Verification = defaultVerificationTimeout
	}
	if t.Lookup <= 0 {
		t.Lookup = defaultLookupTimeout
	}
	return t
}

// Dependencies carries everything one run needs. Runner, Investigator,
// Verifier, and Reporter are required; the rest defaults sensibly.
type Dependencies struct {
	Alert        models.AlertContext
	Runner       oc.Runner
	Investigator Investigator
	Verifier     Verifier
	Reporter     Reporter

	// MaxTools bounds investigation calls per run; <=0 means DefaultMaxTools.
	MaxTools int
	Timeouts Timeouts

	// Observer receives phase transitions and command results. Optional.
	Observer Observer
	// Sanitize masks secrets in captured command output. Optional.
	Sanitize func(string) string
	// OnBudgetExhausted fires when an investigation call is rejected by the
	// budget. Optional.
	OnBudgetExhausted func()
	// Logger defaults to slog.Default with a component attribute.
	Logger *slog.Logger
}

// Engine drives one workflow run through the state machine. An Engine owns
// its run's state store and budget; create one Engine per run and do not
// share it across alerts.
type Engine struct {
	alert        models.AlertContext
	store        *Store
	budget       *Budget
	toolbox      *Toolbox
	executor     *BatchExecutor
	investigator Investigator
	verifier     Verifier
	reporter     Reporter
	observer     Observer
	logger       *slog.Logger
}

// NewEngine wires a run. Panics on missing required dependencies — those are
// programming errors, not runtime conditions.
func NewEngine(deps Dependencies) *Engine {
	if deps.Runner == nil {
		panic("NewEngine: Runner must not be nil")
	}
	if deps.Investigator == nil {
		panic("NewEngine: Investigator must not be nil")
	}
	if deps.Verifier == nil {
		panic("NewEngine: Verifier must not be nil")
	}
	if deps.Reporter == nil {
		panic("NewEngine: Reporter must not be nil")
	}

	maxTools := deps.MaxTools
	if maxTools <= 0 {
		maxTools = DefaultMaxTools
	}
	timeouts := deps.Timeouts.withDefaults()
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default().With("component", "workflow")
	}

	store := NewStore()
	budget := NewBudget(maxTools)

	var onResult func(context.Context, models.CommandResult)
	if deps.Observer != nil {
		obs := deps.Observer
		onResult = func(ctx context.Context, r models.CommandResult) {
			obs.CommandFinished(ctx, r)
		}
	}

	return &Engine{
		alert:        deps.Alert,
		store:        store,
		budget:       budget,
		toolbox:      NewToolbox(deps.Runner, budget, store, timeouts, ToolboxOptions{Sanitize: deps.Sanitize, OnBudgetExhausted: deps.OnBudgetExhausted}),
		executor:     NewBatchExecutor(deps.Runner, timeouts.Execution, BatchExecutorOptions{Sanitize: deps.Sanitize, OnResult: onResult}),
		investigator: deps.Investigator,
		verifier:     deps.Verifier,
		reporter:     deps.Reporter,
		observer:     deps.Observer,
		logger:       logger,
	}
}

// RunResult describes one orchestration pass.
//
//   - PhaseDone: a non-empty report was produced.
//   - PhaseFailed: the orchestration itself broke; Err holds the cause.
//   - Any other phase: the pass completed its reachable steps without
//     producing a report (retryable at the run level); Err holds the
//     report-generation error when that is what stopped it.
type RunResult struct {
	Phase Phase
	State models.WorkflowState
	Err   error
}

// Reported reports whether the pass produced a non-empty report.
func (r *RunResult) Reported() bool {
	return !r.State.Report.IsEmpty()
}

// Run drives one full orchestration pass. Steps execute strictly in order;
// cancellation is honored at every step boundary but never interrupts an
// in-flight external command, which remains bounded by its own timeout.
func (e *Engine) Run(ctx context.Context) *RunResult {
	e.budget.Reset()
	phase := PhaseStart
	e.notifyPhase(ctx, phase)

	// 0. Store the alert context. Pure state write, always succeeds.
	if err := ctx.Err(); err != nil {
		return e.failRun(ctx, phase, err)
	}
	e.store.Edit(func(ws *models.WorkflowState) {
		ws.AlertName = e.alert.AlertName
		ws.Namespace = e.alert.Namespace
		ws.AlertDiagnostics = e.alert.Diagnostics
		ws.Recommendation = e.alert.Recommendation
		ws.RunbookURL = e.alert.RunbookURL
	})
	phase = PhaseAlertStored
	e.notifyPhase(ctx, phase)

	// 1. Hand off to the investigation collaborator and block until it
	// returns. It must leave a validated plan in the store.
	if err := ctx.Err(); err != nil {
		return e.failRun(ctx, phase, err)
	}
	if err := e.investigator.Investigate(ctx, e.alert, e.toolbox); err != nil {
		return e.failRun(ctx, phase, fmt.Errorf("investigation failed: %w", err))
	}
	snap := e.store.Snapshot()
	if snap.RemediationPlan == nil || len(snap.RemediationPlan.Commands) == 0 {
		return e.failRun(ctx, phase, errors.New("investigator returned without submitting a remediation plan"))
	}
	phase = PhasePlanned
	e.notifyPhase(ctx, phase)

	// 2. Execute the plan. Always yields a batch result, synchronously.
	if err := ctx.Err(); err != nil {
		return e.failRun(ctx, phase, err)
	}
	batch := e.executor.Execute(ctx, *snap.RemediationPlan)
	e.store.Edit(func(ws *models.WorkflowState) {
		ws.ExecutionResults = batch.Results
		success := batch.AllSucceeded
		ws.ExecutionSuccess = &success
	})
	phase = PhaseExecuted
	e.notifyPhase(ctx, phase)

	// 3. Verify only when every command succeeded. A failed batch skips
	// verification entirely and routes straight to reporting — individual
	// command failures are data, not orchestration errors.
	if batch.AllSucceeded {
		if err := ctx.Err(); err != nil {
			return e.failRun(ctx, phase, err)
		}
		status, err := e.verifier.Verify(ctx, e.alert, e.store.Snapshot())
		if err != nil {
			return e.failRun(ctx, phase, fmt.Errorf("verification failed: %w", err))
		}
		e.store.Edit(func(ws *models.WorkflowState) {
			ws.AlertStatus = status
		})
		phase = PhaseVerified
		e.notifyPhase(ctx, phase)
	} else {
		phase = PhaseExecutionFailed
		e.notifyPhase(ctx, phase)
	}

	// 4. Report regardless of the execution outcome.
	if err := ctx.Err(); err != nil {
		return e.failRun(ctx, phase, err)
	}
	report, err := e.reporter.Report(ctx, e.store.Snapshot())
	if err != nil {
		e.logger.Warn("Report generation failed", "error", err)
		return &RunResult{Phase: phase, State: e.store.Snapshot(), Err: fmt.Errorf("report generation failed: %w", err)}
	}
	if report != nil {
		e.store.Edit(func(ws *models.WorkflowState) {
			ws.Report = report
		})
	}
	if report.IsEmpty() {
		e.logger.Warn("Reporter produced an empty report")
		return &RunResult{Phase: phase, State: e.store.Snapshot()}
	}
	phase = PhaseReported
	e.notifyPhase(ctx, phase)

	phase = PhaseDone
	e.notifyPhase(ctx, phase)
	return &RunResult{Phase: PhaseDone, State: e.store.Snapshot()}
}

// State returns a snapshot of the run's shared state.
func (e *Engine) State() models.WorkflowState {
	return e.store.Snapshot()
}

// Toolbox exposes the run's toolbox, mainly for collaborator tests.
func (e *Engine) Toolbox() *Toolbox {
	return e.toolbox
}

func (e *Engine) failRun(ctx context.Context, at Phase, err error) *RunResult {
	e.logger.Error("Workflow run failed", "phase", string(at), "error", err)
	e.notifyPhase(ctx, PhaseFailed)
	return &RunResult{Phase: PhaseFailed, State: e.store.Snapshot(), Err: err}
}

func (e *Engine) notifyPhase(ctx context.Context, p Phase) {
	e.logger.Info("Workflow phase reached", "phase", string(p))
	if e.observer != nil {
		e.observer.PhaseChanged(ctx, p, e.store.Snapshot())
	}
}
