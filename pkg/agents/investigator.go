// Package agents provides the built-in workflow collaborators: an oc-driven
// investigator, an amtool-backed verifier, and a deterministic report
// assembler. Each is a plain implementation of the corresponding
// pkg/workflow interface, so alternative collaborators plug in the same way.
package agents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/codeready-toolchain/remedy/pkg/models"
	"github.com/codeready-toolchain/remedy/pkg/oc"
	"github.com/codeready-toolchain/remedy/pkg/workflow"
)

// Context-gathering sizes, matching the shipped configuration defaults.
const (
	DefaultEventsTail = 10
	DefaultLogsTail   = 5
)

// RunbookFetcher resolves an alert's runbook URL into its content. Fetch
// failures are absorbed by the investigator: a missing runbook degrades the
// gathered context, it does not fail the investigation.
type RunbookFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// InvestigatorOptions tunes the OCInvestigator. Zero values take defaults.
type InvestigatorOptions struct {
	// EventsTail is how many recent events to keep for the suspect resource.
	EventsTail int
	// LogsTail is how many log lines to fetch from the suspect pod.
	LogsTail int
	// Runbooks resolves the alert's runbook URL. Optional.
	Runbooks RunbookFetcher
	// Logger defaults to slog.Default with a component attribute.
	Logger *slog.Logger
}

// OCInvestigator is the built-in investigation collaborator. It gathers
// cluster context for the alert through a fixed, budget-metered sweep of oc
// queries, then derives the remediation plan from the diagnosis
// recommendation attached to the alert: every mutating oc command line in
// the recommendation becomes a plan command.
type OCInvestigator struct {
	eventsTail int
	logsTail   int
	runbooks   RunbookFetcher
	logger     *slog.Logger
}

var _ workflow.Investigator = (*OCInvestigator)(nil)

// NewOCInvestigator creates the investigator with defaults applied.
func NewOCInvestigator(opts InvestigatorOptions) *OCInvestigator {
	eventsTail := opts.EventsTail
	if eventsTail <= 0 {
		eventsTail = DefaultEventsTail
	}
	logsTail := opts.LogsTail
	if logsTail <= 0 {
		logsTail = DefaultLogsTail
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "investigator")
	}
	return &OCInvestigator{
		eventsTail: eventsTail,
		logsTail:   logsTail,
		runbooks:   opts.Runbooks,
		logger:     logger,
	}
}

// Investigate gathers cluster context and submits the remediation plan. The
// sweep order is fixed: namespace pod listing, suspect deployment resources,
// suspect pod detail, suspect events, suspect pod logs. Every query is
// metered against the run budget; once the budget is spent the sweep stops
// early and the plan is submitted with whatever context was gathered.
func (a *OCInvestigator) Investigate(ctx context.Context, alert models.AlertContext, tools *workflow.Toolbox) error {
	log := a.logger.With("alert", alert.AlertName, "namespace", alert.Namespace)
	log.Info("Starting investigation")

	a.attachRunbook(ctx, alert, tools)

	commands := mutatingCommands(alert.Recommendation)
	if err := a.gatherContext(ctx, alert, tools, commands); err != nil {
		return err
	}

	plan, toolErr := tools.SubmitPlan(planExplanation(alert), commands)
	if toolErr != nil {
		return toolErr
	}
	log.Info("Investigation complete", "plan_commands", len(plan.Commands))
	return nil
}

func (a *OCInvestigator) attachRunbook(ctx context.Context, alert models.AlertContext, tools *workflow.Toolbox) {
	if a.runbooks == nil || alert.RunbookURL == "" {
		return
	}
	content, err := a.runbooks.Fetch(ctx, alert.RunbookURL)
	if err != nil {
		a.logger.Warn("Runbook fetch failed, continuing without it",
			"url", alert.RunbookURL,
			"error", err)
		return
	}
	tools.AppendDiagnostics(fmt.Sprintf("Runbook (%s):\n%s", alert.RunbookURL, strings.TrimSpace(content)))
}

// gatherContext runs the context sweep. It returns an error only for
// cancellation; budget exhaustion ends the sweep silently and every other
// query outcome, failures included, lands in the diagnostics text.
func (a *OCInvestigator) gatherContext(ctx context.Context, alert models.AlertContext, tools *workflow.Toolbox, commands []string) error {
	type step func(context.Context) (string, error)

	steps := []step{
		func(ctx context.Context) (string, error) {
			return a.podsOverview(ctx, tools, alert.Namespace)
		},
	}

	target, found := findSuspect(commands)
	if found {
		if target.Kind == "deployment" {
			steps = append(steps, func(ctx context.Context) (string, error) {
				return a.deploymentResources(ctx, tools, target.Name, alert.Namespace)
			})
		}
		// The describe step resolves the concrete pod name; the logs step
		// reuses it, so a failed resolution skips the logs fetch.
		var podName string
		steps = append(steps,
			func(ctx context.Context) (string, error) {
				section, resolved, err := a.describeSuspectPod(ctx, tools, target.Name, alert.Namespace)
				podName = resolved
				return section, err
			},
			func(ctx context.Context) (string, error) {
				return a.resourceEvents(ctx, tools, alert.Namespace, target.Name)
			},
			func(ctx context.Context) (string, error) {
				if podName == "" {
					return "", nil
				}
				return a.podLogs(ctx, tools, podName, alert.Namespace)
			},
		)
	} else {
		a.logger.Info("No remediation target found in the recommendation, gathering namespace context only")
	}

	for _, run := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		section, err := run(ctx)
		if err != nil {
			if workflow.IsBudgetExceeded(err) {
				a.logger.Warn("Tool budget exhausted, submitting the plan with partial context")
				return nil
			}
			return err
		}
		if section != "" {
			tools.AppendDiagnostics(section)
		}
	}
	return nil
}

func (a *OCInvestigator) podsOverview(ctx context.Context, tools *workflow.Toolbox, namespace string) (string, error) {
	res, err := tools.RunInvestigation(ctx, []string{"oc", "get", "pods", "-n", namespace})
	if err != nil {
		if workflow.IsBudgetExceeded(err) {
			return "", err
		}
		if isTimeout(err) {
			return fmt.Sprintf("Timeout executing oc get pods for namespace %s", namespace), nil
		}
		return fmt.Sprintf("Error executing oc get pods: %v", err), nil
	}
	if res.ExitCode != 0 {
		return "Error getting pods: " + res.Stderr, nil
	}
	return fmt.Sprintf("Pods in '%s':\n%s", namespace, oc.CompactOutput(res.Stdout)), nil
}

// deploymentResourcesJSONPath extracts only the container names, images, and
// resource blocks, which is what a limits fix needs to see.
const deploymentResourcesJSONPath = `jsonpath={range .spec.template.spec.containers[*]}{"Container: "}{.name}{"\n"}{"Image: "}{.image}{"\n"}{"Resources:\n"}{.resources}{"\n---\n"}{end}`

func (a *OCInvestigator) deploymentResources(ctx context.Context, tools *workflow.Toolbox, name, namespace string) (string, error) {
	argv := []string{"oc", "get", "deployment", name, "-n", namespace, "-o", deploymentResourcesJSONPath}
	res, err := tools.RunInvestigation(ctx, argv)
	if err != nil {
		if workflow.IsBudgetExceeded(err) {
			return "", err
		}
		if isTimeout(err) {
			return fmt.Sprintf("Timeout executing oc get deployment %s", name), nil
		}
		return fmt.Sprintf("Error executing oc get deployment resources: %v", err), nil
	}
	if res.ExitCode != 0 {
		return "Error getting deployment resources: " + res.Stderr, nil
	}
	output := strings.TrimSpace(res.Stdout)
	if output == "" {
		return fmt.Sprintf("Deployment '%s' found but no container resource info available (may have no limits/requests set)", name), nil
	}
	return fmt.Sprintf("Resource configuration for deployment '%s':\n%s", name, output), nil
}

// describeSuspectPod resolves the suspect to a concrete pod and reports its
// status, containers, and resource settings. It returns the resolved pod
// name so the logs step can reuse it without a second lookup.
func (a *OCInvestigator) describeSuspectPod(ctx context.Context, tools *workflow.Toolbox, partial, namespace string) (string, string, error) {
	pod, err := tools.ResolvePod(ctx, partial, namespace)
	if err != nil {
		var toolErr *models.ToolError
		if errors.As(err, &toolErr) {
			return "Error getting pod: " + toolErr.Message, "", nil
		}
		return "Error getting pod: " + err.Error(), "", nil
	}

	res, err := tools.RunInvestigation(ctx, []string{"oc", "get", "pod", pod, "-n", namespace, "-o", "json"})
	if err != nil {
		if workflow.IsBudgetExceeded(err) {
			return "", "", err
		}
		if isTimeout(err) {
			return fmt.Sprintf("Timeout executing oc describe pod %s", partial), pod, nil
		}
		return fmt.Sprintf("Error executing oc describe pod: %v", err), pod, nil
	}
	if res.ExitCode != 0 {
		return "Error getting pod: " + res.Stderr, pod, nil
	}

	var detail podDetail
	if err := json.Unmarshal([]byte(res.Stdout), &detail); err != nil {
		return fmt.Sprintf("Error executing oc describe pod: %v", err), pod, nil
	}
	return formatPodDetail(&detail), pod, nil
}

func (a *OCInvestigator) resourceEvents(ctx context.Context, tools *workflow.Toolbox, namespace, resource string) (string, error) {
	argv := []string{"oc", "get", "events", "-n", namespace, "--sort-by=.lastTimestamp"}
	res, err := tools.RunInvestigation(ctx, argv)
	if err != nil {
		if workflow.IsBudgetExceeded(err) {
			return "", err
		}
		if isTimeout(err) {
			return fmt.Sprintf("Timeout executing oc get events for namespace %s", namespace), nil
		}
		return fmt.Sprintf("Error executing oc get events: %v", err), nil
	}
	if res.ExitCode != 0 {
		return "Error getting events: " + res.Stderr, nil
	}

	matched := lastLines(filterLines(res.Stdout, resource), a.eventsTail)
	if len(matched) == 0 {
		return fmt.Sprintf("No events found for resource '%s' in namespace '%s'", resource, namespace), nil
	}
	compacted := oc.CompactOutput(strings.Join(matched, "\n"))
	count := len(strings.Split(compacted, "\n"))
	return fmt.Sprintf("Events for '%s' in '%s' (last %d):\n%s", resource, namespace, count, compacted), nil
}

func (a *OCInvestigator) podLogs(ctx context.Context, tools *workflow.Toolbox, pod, namespace string) (string, error) {
	argv := []string{"oc", "logs", pod, "-n", namespace, fmt.Sprintf("--tail=%d", a.logsTail)}
	res, err := tools.RunInvestigation(ctx, argv)
	if err != nil {
		if workflow.IsBudgetExceeded(err) {
			return "", err
		}
		if isTimeout(err) {
			return fmt.Sprintf("Timeout executing oc logs for pod %s", pod), nil
		}
		return fmt.Sprintf("Error executing oc logs: %v", err), nil
	}
	if res.ExitCode != 0 {
		return "Error getting logs: " + res.Stderr, nil
	}
	return fmt.Sprintf("Logs for pod '%s' (last %d lines):\n%s", pod, a.logsTail, res.Stdout), nil
}

func isTimeout(err error) bool {
	var toolErr *models.ToolError
	return errors.As(err, &toolErr) && toolErr.Kind == models.ErrorKindTimeout
}

// filterLines keeps the non-blank lines containing needle,
// case-insensitively.
func filterLines(text, needle string) []string {
	needle = strings.ToLower(needle)
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.Contains(strings.ToLower(line), needle) {
			out = append(out, line)
		}
	}
	return out
}

func lastLines(lines []string, n int) []string {
	if n <= 0 || len(lines) <= n {
		return lines
	}
	return lines[len(lines)-n:]
}
