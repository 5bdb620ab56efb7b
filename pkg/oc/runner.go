// Package oc executes OpenShift CLI commands as child processes and turns
// their raw outcomes into the structured results and classified errors the
// workflow engine operates on.
package oc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
)

// ErrTimedOut is returned by Runner.Run when the command did not complete
// within its timeout. It is the only failure callers must handle specially;
// it always classifies as ErrorKindTimeout with recoverable=true.
var ErrTimedOut = errors.New("command timed out")

// Result holds the outcome of one completed command invocation. A non-zero
// exit code is a normal outcome, not an error.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner executes a single external command with a bounded timeout.
//
// Run returns (nil, error) only for timeouts (ErrTimedOut) and process-spawn
// failures; every completed process, whatever its exit code, comes back as
// (result, nil). Run spawns exactly one child process per call and never
// retries internally.
type Runner interface {
	Run(ctx context.Context, argv []string, timeout time.Duration) (*Result, error)
}

// ExecRunner runs commands as OS child processes.
//
// The child's lifetime is bounded by the timeout only: cancelling ctx does
// not kill an in-flight command. Cancellation is honored at step boundaries
// by the workflow engine, and killing a cluster-mutating command halfway
// through would leave the cluster in a state no result reports.
type ExecRunner struct{}

var _ Runner = ExecRunner{}

// Run executes argv and captures both output streams.
func (ExecRunner) Run(ctx context.Context, argv []string, timeout time.Duration) (*Result, error) {
	if len(argv) == 0 {
		return nil, errors.New("empty command")
	}

	procCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	cmd := exec.CommandContext(procCtx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Bound Wait in case the child leaks the pipes to a grandchild.
	cmd.WaitDelay = time.Second

	start := time.Now()
	err := cmd.Run()

	if procCtx.Err() == context.DeadlineExceeded {
		slog.Warn("Command timed out",
			"command", CommandString(argv),
			"timeout", timeout)
		return nil, fmt.Errorf("%w after %s: %s", ErrTimedOut, timeout, CommandString(argv))
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			// The process never ran (binary missing, fork failure).
			return nil, fmt.Errorf("failed to start %q: %w", argv[0], err)
		}
	}

	res := &Result{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}

	slog.Debug("Command completed",
		"command", CommandString(argv),
		"exit_code", res.ExitCode,
		"duration_ms", time.Since(start).Milliseconds())

	return res, nil
}

// CommandString renders argv the way it would be typed in a shell. Used in
// log lines and error messages only, never re-parsed.
func CommandString(argv []string) string {
	return strings.Join(argv, " ")
}

// SplitCommand tokenizes a plan command string into argv with shell quoting
// rules, so a command like `oc patch ... -p '{"spec":{"replicas":3}}'`
// carries its payload as a single argument. A string that cannot be parsed
// (unbalanced quotes) falls back to plain whitespace fields rather than
// failing: classification of the resulting oc error is more useful than a
// tokenizer error.
func SplitCommand(command string) []string {
	argv, err := shellquote.Split(command)
	if err != nil {
		return strings.Fields(command)
	}
	return argv
}

// CompactOutput squeezes runs of spaces inside each line to single spaces
// while keeping line structure, so tabular oc output stays readable when
// embedded in diagnostics text.
func CompactOutput(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.Join(lines, "\n")
}
