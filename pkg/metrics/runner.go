package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/codeready-toolchain/remedy/pkg/oc"
)

// instrumentedRunner decorates an oc.Runner, timing every spawned command and
// counting outcomes. It covers investigation, execution, verification, and
// lookup commands alike, since they all pass through the same Runner.
type instrumentedRunner struct {
	next    oc.Runner
	metrics *Metrics
}

var _ oc.Runner = (*instrumentedRunner)(nil)

// InstrumentRunner wraps next so every command records its duration and
// outcome on m. A nil m returns next unwrapped.
func InstrumentRunner(next oc.Runner, m *Metrics) oc.Runner {
	if m == nil {
		return next
	}
	return &instrumentedRunner{next: next, metrics: m}
}

func (r *instrumentedRunner) Run(ctx context.Context, argv []string, timeout time.Duration) (*oc.Result, error) {
	start := time.Now()
	res, err := r.next.Run(ctx, argv, timeout)
	elapsed := time.Since(start)

	switch {
	case errors.Is(err, oc.ErrTimedOut):
		r.metrics.CommandFinished(CommandStatusTimeout, elapsed)
	case err != nil:
		r.metrics.CommandFinished(CommandStatusError, elapsed)
	case res.ExitCode == 0:
		r.metrics.CommandFinished(CommandStatusSuccess, elapsed)
	default:
		r.metrics.CommandFinished(CommandStatusFailed, elapsed)
	}

	return res, err
}
