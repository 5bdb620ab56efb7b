// Package metrics defines the Prometheus instrumentation for the remediation
// pipeline: session outcomes, whole-run retries, command execution, error
// classifications, budget exhaustions, and worker activity.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/codeready-toolchain/remedy/pkg/models"
)

const namespace = "remedy"

// Command outcome labels recorded by CommandFinished. Success and failed
// describe completed processes by exit code; timeout and error cover commands
// that never completed.
const (
	CommandStatusSuccess = "success"
	CommandStatusFailed  = "failed"
	CommandStatusTimeout = "timeout"
	CommandStatusError   = "error"
)

// Metrics holds the pipeline collectors. Every recording method is safe on a
// nil receiver, so collaborators hold a possibly-nil *Metrics and record
// unconditionally; a nil Metrics records nothing.
type Metrics struct {
	SessionsTotal          *prometheus.CounterVec
	RunRetriesTotal        prometheus.Counter
	CommandsTotal          *prometheus.CounterVec
	CommandDurationSeconds prometheus.Histogram
	ErrorsTotal            *prometheus.CounterVec
	BudgetExhaustionsTotal prometheus.Counter
	ActiveWorkers          prometheus.Gauge
}

// New creates the collectors and registers them with reg. Registering the
// same registry twice panics, so call once per process.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SessionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Sessions finished, by terminal status.",
		}, []string{"status"}),
		RunRetriesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "run_retries_total",
			Help:      "Whole-run retries performed after passes that produced no report.",
		}),
		CommandsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands executed, by outcome.",
		}, []string{"status"}),
		CommandDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Wall-clock duration of executed commands.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Classified remediation command failures, by error kind.",
		}, []string{"kind"}),
		BudgetExhaustionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "budget_exhaustions_total",
			Help:      "Investigation calls rejected by an exhausted tool budget.",
		}),
		ActiveWorkers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_workers",
			Help:      "Workers currently processing a session.",
		}),
	}
}

// SessionFinished counts a session reaching a terminal status.
func (m *Metrics) SessionFinished(status models.SessionStatus) {
	if m == nil {
		return
	}
	m.SessionsTotal.WithLabelValues(string(status)).Inc()
}

// RunRetries adds the retries one finished run spent. Zero or negative adds
// nothing.
func (m *Metrics) RunRetries(retries int) {
	if m == nil || retries <= 0 {
		return
	}
	m.RunRetriesTotal.Add(float64(retries))
}

// CommandFinished records one spawned command's outcome and duration.
func (m *Metrics) CommandFinished(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.CommandsTotal.WithLabelValues(status).Inc()
	m.CommandDurationSeconds.Observe(duration.Seconds())
}

// ErrorClassified counts a classified command failure.
func (m *Metrics) ErrorClassified(kind models.ErrorKind) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(string(kind)).Inc()
}

// BudgetExhausted counts an investigation call rejected by the budget.
func (m *Metrics) BudgetExhausted() {
	if m == nil {
		return
	}
	m.BudgetExhaustionsTotal.Inc()
}

// WorkerBusy marks one worker as processing a session.
func (m *Metrics) WorkerBusy() {
	if m == nil {
		return
	}
	m.ActiveWorkers.Inc()
}

// WorkerIdle marks one worker as done processing.
func (m *Metrics) WorkerIdle() {
	if m == nil {
		return
	}
	m.ActiveWorkers.Dec()
}
