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

// executeToolName identifies batch execution in classified command errors.
const executeToolName = "execute_commands"

// BatchExecutor runs a validated remediation plan command by command.
//
// It never short-circuits: every command runs regardless of earlier
// failures, because partial remediation is still informative and commands
// may be independent. It performs no rollback and no per-command retry —
// a failed cluster mutation is reported, not re-applied.
type BatchExecutor struct {
	runner   oc.Runner
	timeout  time.Duration
	sanitize func(string) string
	onResult func(context.Context, models.CommandResult)
	logger   *slog.Logger
}

// BatchExecutorOptions carries the optional hooks.
type BatchExecutorOptions struct {
	// Sanitize is applied to captured stdout/stderr before classification
	// and storage (secret masking). Nil disables it.
	Sanitize func(string) string
	// OnResult receives each command result as soon as it is recorded.
	// Nil disables per-command notification.
	OnResult func(context.Context, models.CommandResult)
}

// NewBatchExecutor creates an executor running commands with the given
// batch-level timeout. The timeout applies per command and is fixed for the
// whole batch.
func NewBatchExecutor(runner oc.Runner, timeout time.Duration, opts BatchExecutorOptions) *BatchExecutor {
	if runner == nil {
		panic("NewBatchExecutor: runner must not be nil")
	}
	if timeout <= 0 {
		timeout = defaultExecutionTimeout
	}
	return &BatchExecutor{
		runner:   runner,
		timeout:  timeout,
		sanitize: opts.Sanitize,
		onResult: opts.OnResult,
		logger:   slog.Default().With("component", "batch_executor"),
	}
}

// Execute runs every plan command in order and aggregates the outcomes.
// AllSucceeded is the AND across all per-command statuses.
//
// Plans reach execution only through validation, but execution is the last
// stop before the cluster changes, so the read-only and non-empty checks are
// re-applied here. A plan failing them executes nothing and comes back with
// no results and AllSucceeded=false.
func (e *BatchExecutor) Execute(ctx context.Context, plan models.RemediationPlan) *models.BatchResult {
	if len(plan.Commands) == 0 {
		e.logger.Warn("Refusing to execute an empty remediation plan")
		return &models.BatchResult{AllSucceeded: false}
	}
	for _, cmd := range plan.Commands {
		if IsReadOnlyCommand(cmd) {
			e.logger.Warn("Refusing to execute plan containing a read-only command", "command", cmd)
			return &models.BatchResult{AllSucceeded: false}
		}
	}

	batch := &models.BatchResult{
		Results:      make([]models.CommandResult, 0, len(plan.Commands)),
		AllSucceeded: true,
	}

	for _, cmd := range plan.Commands {
		result := e.runOne(ctx, cmd)
		if result.Status != models.CommandSuccess {
			batch.AllSucceeded = false
		}
		batch.Results = append(batch.Results, result)
		if e.onResult != nil {
			e.onResult(ctx, result)
		}
	}

	e.logger.Info("Remediation batch finished",
		"commands", len(batch.Results),
		"all_succeeded", batch.AllSucceeded)
	return batch
}

func (e *BatchExecutor) runOne(ctx context.Context, cmd string) models.CommandResult {
	e.logger.Info("Executing remediation command", "command", cmd)

	res, err := e.runner.Run(ctx, oc.SplitCommand(cmd), e.timeout)
	if err != nil {
		kind := models.ErrorKindUnknown
		if errors.Is(err, oc.ErrTimedOut) {
			kind = models.ErrorKindTimeout
		}
		e.logger.Warn("Remediation command did not complete", "command", cmd, "error", err)
		return models.CommandResult{
			Command: cmd,
			Status:  models.CommandFailed,
			Error:   oc.NewToolError(kind, err.Error(), executeToolName, ""),
		}
	}

	if res.ExitCode == 0 {
		return models.CommandResult{Command: cmd, Status: models.CommandSuccess}
	}

	stderr := e.clean(res.Stderr)
	msg := fmt.Sprintf("Command failed with exit code %d: %s", res.ExitCode, cmd)
	toolErr := oc.ClassifyToolError(stderr, msg, executeToolName, "")
	e.logger.Warn("Remediation command failed",
		"command", cmd,
		"exit_code", res.ExitCode,
		"error_kind", string(toolErr.Kind))
	return models.CommandResult{
		Command: cmd,
		Status:  models.CommandFailed,
		Error:   toolErr,
	}
}

func (e *BatchExecutor) clean(s string) string {
	if e.sanitize == nil {
		return s
	}
	return e.sanitize(s)
}
