package agents

import (
	"fmt"
	"strings"

	"github.com/codeready-toolchain/remedy/pkg/models"
	"github.com/codeready-toolchain/remedy/pkg/oc"
	"github.com/codeready-toolchain/remedy/pkg/workflow"
)

// mutatingCommands pulls the executable oc commands out of the diagnosis
// recommendation, one candidate per line. Bullet markers, shell prompts, and
// markdown backticks around a command are stripped. Read-only lines are
// dropped: they cannot change cluster state, so they cannot remediate.
func mutatingCommands(recommendation string) []string {
	var commands []string
	for _, line := range strings.Split(recommendation, "\n") {
		command, ok := commandLine(line)
		if !ok || workflow.IsReadOnlyCommand(command) {
			continue
		}
		commands = append(commands, command)
	}
	return commands
}

func commandLine(line string) (string, bool) {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "- ")
	line = strings.TrimPrefix(line, "* ")
	line = strings.Trim(line, "`")
	line = strings.TrimPrefix(line, "$ ")
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "oc ") {
		return "", false
	}
	return line, true
}

// planExplanation turns the recommendation into the plan's explanation. The
// recommendation is the analysis that produced the commands, so it doubles
// as the explanation of record.
func planExplanation(alert models.AlertContext) string {
	rec := strings.TrimSpace(alert.Recommendation)
	if rec == "" {
		return fmt.Sprintf("Remediate alert '%s' in namespace '%s'.", alert.AlertName, alert.Namespace)
	}
	return fmt.Sprintf("Applying the diagnosis recommendation for alert '%s' in namespace '%s': %s",
		alert.AlertName, alert.Namespace, rec)
}

// suspect is the workload a remediation plan acts on.
type suspect struct {
	Kind string
	Name string
}

// workloadKinds maps resource-kind tokens, including the oc short aliases,
// to a normalized kind name.
var workloadKinds = map[string]string{
	"deployment":        "deployment",
	"deployments":       "deployment",
	"deploy":            "deployment",
	"deploymentconfig":  "deploymentconfig",
	"deploymentconfigs": "deploymentconfig",
	"dc":                "deploymentconfig",
	"statefulset":       "statefulset",
	"statefulsets":      "statefulset",
	"sts":               "statefulset",
	"daemonset":         "daemonset",
	"daemonsets":        "daemonset",
	"ds":                "daemonset",
	"replicaset":        "replicaset",
	"replicasets":       "replicaset",
	"rs":                "replicaset",
	"pod":               "pod",
	"pods":              "pod",
	"po":                "pod",
}

// findSuspect derives the remediation target from the plan commands: the
// first "kind name" or "kind/name" pair found in any command wins. Flags and
// their values never match because flags start with '-' and flag values are
// not kind tokens.
func findSuspect(commands []string) (suspect, bool) {
	for _, command := range commands {
		tokens := oc.SplitCommand(command)
		for i := 1; i < len(tokens); i++ {
			token := tokens[i]
			if strings.HasPrefix(token, "-") {
				continue
			}
			if kind, name, slashed := strings.Cut(token, "/"); slashed {
				if normalized, known := workloadKinds[strings.ToLower(kind)]; known && name != "" {
					return suspect{Kind: normalized, Name: name}, true
				}
				continue
			}
			normalized, known := workloadKinds[strings.ToLower(token)]
			if !known {
				continue
			}
			if i+1 < len(tokens) && !strings.HasPrefix(tokens[i+1], "-") {
				return suspect{Kind: normalized, Name: tokens[i+1]}, true
			}
		}
	}
	return suspect{}, false
}
