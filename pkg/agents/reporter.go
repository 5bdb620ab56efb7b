package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/codeready-toolchain/remedy/pkg/models"
	"github.com/codeready-toolchain/remedy/pkg/workflow"
)

// SummaryReporter assembles the final remediation report directly from the
// accumulated workflow state. It never returns an error: everything it needs
// is already in the state, and a report has to come out even when execution
// or verification went badly.
type SummaryReporter struct {
	logger *slog.Logger
}

var _ workflow.Reporter = (*SummaryReporter)(nil)

// NewSummaryReporter creates the reporter.
func NewSummaryReporter() *SummaryReporter {
	return &SummaryReporter{logger: slog.Default().With("component", "reporter")}
}

// Report builds the report. Resolved is claimed only when every command
// succeeded and the post-remediation Alertmanager status no longer mentions
// the alert.
func (r *SummaryReporter) Report(_ context.Context, state models.WorkflowState) (*models.Report, error) {
	succeeded, failed := countResults(state.ExecutionResults)
	executed := state.ExecutionSuccess != nil && *state.ExecutionSuccess
	resolved := executed && alertInactive(state.AlertStatus, state.AlertName)

	report := &models.Report{
		Summary:          buildSummary(state, succeeded, failed, resolved),
		RootCause:        rootCause(state),
		RemediationSteps: remediationSteps(state, succeeded, failed),
		Recommendations:  recommendations(state, resolved),
		CommandsExecuted: state.ExecutionResults,
		AlertStatus:      state.AlertStatus,
		Resolved:         resolved,
	}
	r.logger.Info("Report assembled",
		"alert", state.AlertName,
		"namespace", state.Namespace,
		"resolved", resolved)
	return report, nil
}

func buildSummary(state models.WorkflowState, succeeded, failed int, resolved bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Remediation for alert '%s' in namespace '%s' executed %d command(s): %d succeeded, %d failed.",
		state.AlertName, state.Namespace, succeeded+failed, succeeded, failed)
	switch {
	case resolved:
		b.WriteString(" The alert is no longer firing in Alertmanager.")
	case failed > 0:
		b.WriteString(" Verification was skipped because the plan did not execute cleanly.")
	case state.AlertStatus != "":
		b.WriteString(" The alert may still be firing; see the post-remediation status.")
	default:
		b.WriteString(" Post-remediation alert status is unavailable.")
	}
	return b.String()
}

// rootCause falls back through the state: the plan explanation is the
// investigator's analysis of why its commands fix the alert, which is the
// closest thing to a root-cause statement a run produces.
func rootCause(state models.WorkflowState) string {
	if state.RemediationPlan != nil {
		if explanation := strings.TrimSpace(state.RemediationPlan.Explanation); explanation != "" {
			return explanation
		}
	}
	return fmt.Sprintf("Root cause not established; alert '%s' fired in namespace '%s' and no remediation plan explanation was recorded.",
		state.AlertName, state.Namespace)
}

func remediationSteps(state models.WorkflowState, succeeded, failed int) string {
	if len(state.ExecutionResults) == 0 {
		return "No remediation commands were executed."
	}
	lines := make([]string, 0, len(state.ExecutionResults)+1)
	lines = append(lines, fmt.Sprintf("Executed %d remediation command(s), %d succeeded and %d failed:",
		len(state.ExecutionResults), succeeded, failed))
	for i, result := range state.ExecutionResults {
		lines = append(lines, fmt.Sprintf("%d. %s (%s)", i+1, result.Command, strings.ToLower(string(result.Status))))
	}
	return strings.Join(lines, "\n")
}

func recommendations(state models.WorkflowState, resolved bool) []string {
	if resolved {
		return []string{
			fmt.Sprintf("Monitor '%s' in namespace '%s' for recurrence before closing the incident.",
				state.AlertName, state.Namespace),
			"Capture the applied changes in the service's deployment manifests so the fix survives redeployment.",
		}
	}

	var recs []string
	seen := map[string]bool{}
	for _, result := range state.ExecutionResults {
		if result.Error == nil || result.Error.Suggestion == "" || seen[result.Error.Suggestion] {
			continue
		}
		seen[result.Error.Suggestion] = true
		recs = append(recs, result.Error.Suggestion)
	}
	if state.ExecutionSuccess != nil && !*state.ExecutionSuccess {
		recs = append(recs, "Re-run remediation once the failed commands are addressed.")
	} else {
		recs = append(recs, fmt.Sprintf("The alert may still be firing; investigate '%s' further before retrying remediation.",
			state.AlertName))
	}
	return recs
}

// alertInactive interprets the stored Alertmanager status text. An empty
// query result means nothing matched the alert name. An error text, or any
// output still mentioning the alert, cannot be read as resolved.
func alertInactive(status, alertName string) bool {
	s := strings.TrimSpace(status)
	if s == "" {
		return true
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "failed to check alerts") || strings.HasPrefix(lower, "error") {
		return false
	}
	return !strings.Contains(lower, strings.ToLower(alertName))
}

func countResults(results []models.CommandResult) (succeeded, failed int) {
	for _, result := range results {
		if result.Status == models.CommandSuccess {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}
