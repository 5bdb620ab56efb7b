package workflow

import (
	"fmt"
	"strings"

	"github.com/codeready-toolchain/remedy/pkg/models"
)

// planToolName identifies plan submission in validation errors.
const planToolName = "submit_plan"

// ReadOnlyCommandPrefixes is the closed set of oc command forms that only
// query cluster state. A remediation plan containing any of them is rejected:
// read-only commands gather information, they cannot resolve an alert.
// The set is part of the validation contract, not runtime configuration.
var ReadOnlyCommandPrefixes = []string{
	"oc get",
	"oc describe",
	"oc logs",
	"oc status",
	"oc observe",
	"oc explain",
}

// ValidatePlan checks a candidate remediation plan and returns either the
// validated plan or a single classified validation error.
//
// The empty check runs first; the read-only check reports every offending
// command, not just the first. Validation is pure: it does not store the plan
// or touch the budget (Toolbox.SubmitPlan couples those side effects).
func ValidatePlan(explanation string, commands []string) (*models.RemediationPlan, *models.ToolError) {
	if len(commands) == 0 {
		return nil, &models.ToolError{
			Kind: models.ErrorKindSyntax,
			Message: "No remediation commands provided. Alert remediation requires executable " +
				"actions to modify cluster state and resolve the underlying issue.",
			Suggestion: "Provide at least one executable oc command that fixes the root cause " +
				"(e.g., 'oc set resources', 'oc scale', 'oc patch')",
			ToolName: planToolName,
		}
	}

	var readOnly []string
	for _, cmd := range commands {
		if IsReadOnlyCommand(cmd) {
			readOnly = append(readOnly, cmd)
		}
	}
	if len(readOnly) > 0 {
		return nil, &models.ToolError{
			Kind: models.ErrorKindSyntax,
			Message: fmt.Sprintf("Read-only commands cannot remediate alerts: %s. These commands "+
				"only gather information and do not modify cluster state to resolve the underlying issue.",
				strings.Join(readOnly, ", ")),
			Suggestion: "Use only state-changing commands that fix the root cause like " +
				"'oc set resources', 'oc scale', 'oc patch', 'oc rollout restart'",
			ToolName: planToolName,
		}
	}

	return &models.RemediationPlan{
		Explanation: explanation,
		Commands:    append([]string(nil), commands...),
	}, nil
}

// IsReadOnlyCommand reports whether the command text starts with one of the
// read-only oc prefixes.
func IsReadOnlyCommand(command string) bool {
	for _, prefix := range ReadOnlyCommandPrefixes {
		if strings.HasPrefix(command, prefix) {
			return true
		}
	}
	return false
}
