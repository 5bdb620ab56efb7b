package agents

import (
	"context"
	"log/slog"
	"time"

	"github.com/codeready-toolchain/remedy/pkg/models"
	"github.com/codeready-toolchain/remedy/pkg/oc"
	"github.com/codeready-toolchain/remedy/pkg/workflow"
)

// Alertmanager coordinates for a stock OpenShift monitoring stack, matching
// the shipped configuration defaults.
const (
	DefaultAlertmanagerNamespace = "openshift-monitoring"
	DefaultAlertmanagerPod       = "alertmanager-main-0"
	DefaultAlertmanagerURL       = "http://localhost:9093"

	defaultAmtoolTimeout = 30 * time.Second
)

// VerifierOptions configures the AmtoolVerifier. Empty strings and a zero
// Timeout take the stock OpenShift monitoring defaults. Settle is used as
// given: zero disables the settle wait, which is what loading it from a
// config that defaults it to 30s relies on.
type VerifierOptions struct {
	// Namespace and PodName locate the Alertmanager instance to exec into.
	Namespace string
	PodName   string
	// URL is the Alertmanager API address as seen from inside its pod.
	URL string
	// Settle is how long to wait before querying, giving Alertmanager time
	// to observe the effect of the remediation.
	Settle time.Duration
	// Timeout bounds the amtool exec itself.
	Timeout time.Duration
	// Logger defaults to slog.Default with a component attribute.
	Logger *slog.Logger
}

// AmtoolVerifier checks post-remediation alert status by running amtool
// inside the cluster's Alertmanager pod. Whatever amtool prints is the
// status, stored verbatim. Command failures are folded into the status text
// rather than failing the run: "could not check" is itself a reportable
// outcome.
type AmtoolVerifier struct {
	runner    oc.Runner
	namespace string
	podName   string
	url       string
	settle    time.Duration
	timeout   time.Duration
	logger    *slog.Logger
}

var _ workflow.Verifier = (*AmtoolVerifier)(nil)

// NewAmtoolVerifier creates the verifier. Panics on a nil runner.
func NewAmtoolVerifier(runner oc.Runner, opts VerifierOptions) *AmtoolVerifier {
	if runner == nil {
		panic("NewAmtoolVerifier: runner must not be nil")
	}
	if opts.Namespace == "" {
		opts.Namespace = DefaultAlertmanagerNamespace
	}
	if opts.PodName == "" {
		opts.PodName = DefaultAlertmanagerPod
	}
	if opts.URL == "" {
		opts.URL = DefaultAlertmanagerURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultAmtoolTimeout
	}
	if opts.Settle < 0 {
		opts.Settle = 0
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "verifier")
	}
	return &AmtoolVerifier{
		runner:    runner,
		namespace: opts.Namespace,
		podName:   opts.PodName,
		url:       opts.URL,
		settle:    opts.Settle,
		timeout:   opts.Timeout,
		logger:    logger,
	}
}

// Verify waits out the settle period, then queries Alertmanager for alerts
// matching the alert name. Only context cancellation returns an error;
// every other failure becomes the status text.
func (v *AmtoolVerifier) Verify(ctx context.Context, alert models.AlertContext, _ models.WorkflowState) (string, error) {
	if v.settle > 0 {
		v.logger.Info("Waiting for Alertmanager to settle",
			"alert", alert.AlertName,
			"settle", v.settle.String())
		timer := time.NewTimer(v.settle)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}

	argv := []string{
		"oc", "-n", v.namespace, "exec", v.podName, "--",
		"amtool", "alert", "query", "alertname=" + alert.AlertName,
		"--alertmanager.url=" + v.url,
	}
	res, err := v.runner.Run(ctx, argv, v.timeout)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		v.logger.Warn("Alert status check failed", "alert", alert.AlertName, "error", err)
		return "Error: " + err.Error(), nil
	}
	if res.ExitCode != 0 {
		v.logger.Warn("amtool query exited non-zero", "alert", alert.AlertName, "exit_code", res.ExitCode)
		return "Failed to check alerts: " + res.Stderr, nil
	}
	return res.Stdout, nil
}
