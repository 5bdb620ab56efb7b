package agents

import (
	"context"
	"testing"

	"github.com/codeready-toolchain/remedy/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(v bool) *bool { return &v }

func remediatedState() models.WorkflowState {
	return models.WorkflowState{
		AlertName: "HighMemory",
		Namespace: "prod",
		RemediationPlan: &models.RemediationPlan{
			Explanation: "The app container is OOMKilled because its memory limit is too low.",
			Commands: []string{
				"oc set resources deployment x -n prod --limits=memory=1Gi",
				"oc rollout restart deployment/x -n prod",
			},
		},
		ExecutionResults: []models.CommandResult{
			{Command: "oc set resources deployment x -n prod --limits=memory=1Gi", Status: models.CommandSuccess},
			{Command: "oc rollout restart deployment/x -n prod", Status: models.CommandSuccess},
		},
		ExecutionSuccess: boolPtr(true),
	}
}

func TestSummaryReporter_Report(t *testing.T) {
	ctx := context.Background()
	reporter := NewSummaryReporter()

	t.Run("resolved run", func(t *testing.T) {
		state := remediatedState()
		state.AlertStatus = ""

		report, err := reporter.Report(ctx, state)
		require.NoError(t, err)
		require.NotNil(t, report)
		assert.False(t, report.IsEmpty())

		assert.True(t, report.Resolved)
		assert.Contains(t, report.Summary, "executed 2 command(s): 2 succeeded, 0 failed")
		assert.Contains(t, report.Summary, "no longer firing")
		assert.Equal(t, "The app container is OOMKilled because its memory limit is too low.", report.RootCause)
		assert.Contains(t, report.RemediationSteps, "Executed 2 remediation command(s), 2 succeeded and 0 failed:")
		assert.Contains(t, report.RemediationSteps, "1. oc set resources deployment x -n prod --limits=memory=1Gi (success)")
		assert.Contains(t, report.RemediationSteps, "2. oc rollout restart deployment/x -n prod (success)")
		require.Len(t, report.Recommendations, 2)
		assert.Contains(t, report.Recommendations[0], "Monitor 'HighMemory' in namespace 'prod' for recurrence")
		assert.Equal(t, state.ExecutionResults, report.CommandsExecuted)
		assert.Empty(t, report.AlertStatus)
	})

	t.Run("alert still firing after a clean execution", func(t *testing.T) {
		state := remediatedState()
		state.AlertStatus = "Alertname    Starts At\nHighMemory   2026-01-01 00:00:00 UTC\n"

		report, err := reporter.Report(ctx, state)
		require.NoError(t, err)

		assert.False(t, report.Resolved)
		assert.Contains(t, report.Summary, "may still be firing")
		assert.Equal(t, state.AlertStatus, report.AlertStatus)
		require.NotEmpty(t, report.Recommendations)
		assert.Contains(t, report.Recommendations[0], "investigate 'HighMemory' further")
	})

	t.Run("verification check failure is not resolution", func(t *testing.T) {
		state := remediatedState()
		state.AlertStatus = "Failed to check alerts: unable to connect to alertmanager"

		report, err := reporter.Report(ctx, state)
		require.NoError(t, err)
		assert.False(t, report.Resolved)
	})

	t.Run("failed execution collects command suggestions", func(t *testing.T) {
		state := remediatedState()
		state.ExecutionSuccess = boolPtr(false)
		suggestion := "Check RBAC permissions for the service account"
		state.ExecutionResults = []models.CommandResult{
			{Command: "oc set resources deployment x -n prod --limits=memory=1Gi", Status: models.CommandSuccess},
			{
				Command: "oc rollout restart deployment/x -n prod",
				Status:  models.CommandFailed,
				Error:   &models.ToolError{Kind: models.ErrorKindPermission, Message: "forbidden", Suggestion: suggestion},
			},
			{
				Command: "oc scale deployment x --replicas=3 -n prod",
				Status:  models.CommandFailed,
				Error:   &models.ToolError{Kind: models.ErrorKindPermission, Message: "forbidden", Suggestion: suggestion},
			},
		}

		report, err := reporter.Report(ctx, state)
		require.NoError(t, err)

		assert.False(t, report.Resolved)
		assert.Contains(t, report.Summary, "1 succeeded, 2 failed")
		assert.Contains(t, report.Summary, "Verification was skipped")
		// The duplicate suggestion collapses to one entry.
		require.Len(t, report.Recommendations, 2)
		assert.Equal(t, suggestion, report.Recommendations[0])
		assert.Contains(t, report.Recommendations[1], "Re-run remediation")
	})

	t.Run("sparse state still yields a usable report", func(t *testing.T) {
		report, err := reporter.Report(ctx, models.WorkflowState{AlertName: "HighMemory", Namespace: "prod"})
		require.NoError(t, err)

		assert.False(t, report.IsEmpty())
		assert.False(t, report.Resolved)
		assert.Contains(t, report.Summary, "Post-remediation alert status is unavailable")
		assert.Contains(t, report.RootCause, "Root cause not established")
		assert.Equal(t, "No remediation commands were executed.", report.RemediationSteps)
	})
}

func TestAlertInactive(t *testing.T) {
	tests := []struct {
		name      string
		status    string
		alertName string
		want      bool
	}{
		{name: "empty status", status: "", alertName: "HighMemory", want: true},
		{name: "whitespace only", status: "  \n", alertName: "HighMemory", want: true},
		{name: "other alerts firing", status: "Alertname\nDiskPressure", alertName: "HighMemory", want: true},
		{name: "alert mentioned", status: "Alertname\nHighMemory", alertName: "HighMemory", want: false},
		{name: "case-insensitive match", status: "alertname\nhighmemory firing", alertName: "HighMemory", want: false},
		{name: "check failure", status: "Failed to check alerts: boom", alertName: "HighMemory", want: false},
		{name: "check error", status: "Error: command timed out", alertName: "HighMemory", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, alertInactive(tt.status, tt.alertName))
		})
	}
}
