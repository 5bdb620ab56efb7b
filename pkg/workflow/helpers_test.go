package workflow

import (
	"context"
	"sync"

	"github.com/codeready-toolchain/remedy/pkg/models"
)

// scriptedInvestigator submits a fixed plan through the toolbox, or runs a
// custom fn when one is set.
type scriptedInvestigator struct {
	explanation string
	commands    []string
	err         error
	fn          func(ctx context.Context, alert models.AlertContext, tools *Toolbox) error

	calls int
}

func (s *scriptedInvestigator) Investigate(ctx context.Context, alert models.AlertContext, tools *Toolbox) error {
	s.calls++
	if s.fn != nil {
		return s.fn(ctx, alert, tools)
	}
	if s.err != nil {
		return s.err
	}
	if _, toolErr := tools.SubmitPlan(s.explanation, s.commands); toolErr != nil {
		return toolErr
	}
	return nil
}

type scriptedVerifier struct {
	status string
	err    error

	calls int
}

func (s *scriptedVerifier) Verify(context.Context, models.AlertContext, models.WorkflowState) (string, error) {
	s.calls++
	return s.status, s.err
}

// scriptedReporter returns a fixed report, or delegates to fn with the
// 1-based call number for per-pass behavior.
type scriptedReporter struct {
	fn func(call int, state models.WorkflowState) (*models.Report, error)

	calls int
}

func (s *scriptedReporter) Report(_ context.Context, state models.WorkflowState) (*models.Report, error) {
	s.calls++
	if s.fn != nil {
		return s.fn(s.calls, state)
	}
	return &models.Report{
		Summary:   "remediation completed",
		RootCause: "resource limits too low",
	}, nil
}

// recordingObserver captures phase transitions and command results.
type recordingObserver struct {
	mu       sync.Mutex
	phases   []Phase
	commands []models.CommandResult
}

func (o *recordingObserver) PhaseChanged(_ context.Context, phase Phase, _ models.WorkflowState) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.phases = append(o.phases, phase)
}

func (o *recordingObserver) CommandFinished(_ context.Context, result models.CommandResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.commands = append(o.commands, result)
}

func (o *recordingObserver) Phases() []Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Phase(nil), o.phases...)
}

func (o *recordingObserver) sawPhase(p Phase) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, got := range o.phases {
		if got == p {
			return true
		}
	}
	return false
}

var testAlert = models.AlertContext{
	AlertName:      "HighMemory",
	Namespace:      "prod",
	Diagnostics:    "memory usage above 80% threshold",
	Recommendation: "oc set resources deployment x -n prod --limits=memory=1Gi",
}
