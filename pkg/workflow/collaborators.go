package workflow

import (
	"context"
	"errors"
	"log/slog"

	"github.com/codeready-toolchain/remedy/pkg/models"
	"github.com/codeready-toolchain/remedy/pkg/oc"
)

// Investigator diagnoses the alert and produces a remediation plan. It runs
// its investigation through the Toolbox, which meters every command against
// the run's tool budget, and it must submit a plan via Toolbox.SubmitPlan
// before returning. Returning nil without a stored plan is a protocol
// violation and fails the run.
type Investigator interface {
	Investigate(ctx context.Context, alert models.AlertContext, tools *Toolbox) error
}

// Verifier checks whether the alert is still firing after a fully successful
// remediation batch. The returned status text is stored verbatim, no parsing.
// Implementations absorb command-level failures into the status text; a
// returned error means the verifier itself broke and fails the run.
type Verifier interface {
	Verify(ctx context.Context, alert models.AlertContext, state models.WorkflowState) (string, error)
}

// Reporter assembles the final report from the accumulated workflow state.
// An error, or an empty report, counts as "no report produced" and leaves the
// run eligible for a whole-run retry.
type Reporter interface {
	Report(ctx context.Context, state models.WorkflowState) (*models.Report, error)
}

// Observer receives run progress for persistence and live event delivery.
// Calls are made inline from the run loop, so implementations must be fast
// and must never fail the run. A nil observer disables all notifications.
type Observer interface {
	PhaseChanged(ctx context.Context, phase Phase, state models.WorkflowState)
	CommandFinished(ctx context.Context, result models.CommandResult)
}

// Toolbox is the investigation collaborator's window into the run: metered
// command execution, pod name resolution, read access to the shared state,
// and plan submission. One Toolbox per run, bound to the run's budget and
// state store.
type Toolbox struct {
	runner            oc.Runner
	budget            *Budget
	store             *Store
	timeouts          Timeouts
	sanitize          func(string) string
	onBudgetExhausted func()
	logger            *slog.Logger
}

// ToolboxOptions carries the optional hooks.
type ToolboxOptions struct {
	// Sanitize masks secrets in captured command output. Nil disables it.
	Sanitize func(string) string
	// OnBudgetExhausted fires each time an investigation call is rejected by
	// the budget. Nil disables it.
	OnBudgetExhausted func()
}

// NewToolbox creates a toolbox bound to one run's budget and state store.
func NewToolbox(runner oc.Runner, budget *Budget, store *Store, timeouts Timeouts, opts ToolboxOptions) *Toolbox {
	if runner == nil {
		panic("NewToolbox: runner must not be nil")
	}
	if budget == nil {
		panic("NewToolbox: budget must not be nil")
	}
	if store == nil {
		panic("NewToolbox: store must not be nil")
	}
	return &Toolbox{
		runner:            runner,
		budget:            budget,
		store:             store,
		timeouts:          timeouts.withDefaults(),
		sanitize:          opts.Sanitize,
		onBudgetExhausted: opts.OnBudgetExhausted,
		logger:            slog.Default().With("component", "toolbox"),
	}
}

// RunInvestigation executes one read-only diagnostic command, consuming one
// budget slot. The budget check happens before the command spawns: an
// exhausted budget returns *BudgetExceededError (check with IsBudgetExceeded)
// and nothing runs. A non-zero exit is data in the returned result, not an
// error; only timeouts and spawn failures come back as *models.ToolError.
func (t *Toolbox) RunInvestigation(ctx context.Context, argv []string) (*oc.Result, error) {
	if err := t.budget.CheckAndIncrement(); err != nil {
		t.logger.Warn("Investigation call rejected by budget",
			"command", oc.CommandString(argv),
			"used", t.budget.Used())
		if t.onBudgetExhausted != nil {
			t.onBudgetExhausted()
		}
		return nil, err
	}

	res, err := t.runner.Run(ctx, argv, t.timeouts.Investigation)
	if err != nil {
		kind := models.ErrorKindUnknown
		if errors.Is(err, oc.ErrTimedOut) {
			kind = models.ErrorKindTimeout
		}
		return nil, oc.NewToolError(kind, err.Error(), "investigate", "")
	}

	return t.sanitized(res), nil
}

// ResolvePod resolves a partial pod name in a namespace. It is a lookup
// helper inside an investigation step, not an investigation step itself, so
// it does not consume budget.
func (t *Toolbox) ResolvePod(ctx context.Context, partialName, namespace string) (string, error) {
	name, toolErr := oc.ResolvePodName(ctx, t.runner, partialName, namespace, t.timeouts.Lookup)
	if toolErr != nil {
		return "", toolErr
	}
	return name, nil
}

// SubmitPlan validates the candidate plan and, on acceptance, stores it and
// resets the tool budget so any later replanning starts fresh. A rejected
// plan changes nothing: the budget keeps its current count, forcing the
// investigator to work within what remains.
func (t *Toolbox) SubmitPlan(explanation string, commands []string) (*models.RemediationPlan, *models.ToolError) {
	plan, toolErr := ValidatePlan(explanation, commands)
	if toolErr != nil {
		t.logger.Warn("Remediation plan rejected",
			"error", toolErr.Message,
			"commands", len(commands))
		return nil, toolErr
	}

	t.budget.Reset()
	t.store.Edit(func(ws *models.WorkflowState) {
		ws.RemediationPlan = plan
	})
	t.logger.Info("Remediation plan accepted", "commands", len(plan.Commands))
	return plan, nil
}

// AppendDiagnostics adds an investigation finding to the shared diagnostics
// text, separated from earlier content by a blank line.
func (t *Toolbox) AppendDiagnostics(section string) {
	if section == "" {
		return
	}
	t.store.Edit(func(ws *models.WorkflowState) {
		if ws.AlertDiagnostics == "" {
			ws.AlertDiagnostics = section
			return
		}
		ws.AlertDiagnostics += "\n\n" + section
	})
}

// State returns a snapshot of the current workflow state.
func (t *Toolbox) State() models.WorkflowState {
	return t.store.Snapshot()
}

// BudgetRemaining returns how many investigation calls are left.
func (t *Toolbox) BudgetRemaining() int {
	return t.budget.Remaining()
}

func (t *Toolbox) sanitized(res *oc.Result) *oc.Result {
	if t.sanitize == nil || res == nil {
		return res
	}
	out := *res
	out.Stdout = t.sanitize(res.Stdout)
	out.Stderr = t.sanitize(res.Stderr)
	return &out
}
