package oc

import (
	"fmt"
	"strings"

	"github.com/codeready-toolchain/remedy/pkg/models"
)

// classifyRule maps a set of lowercase substrings to an ErrorKind. Rules are
// evaluated in table order and the first match wins.
type classifyRule struct {
	kind     models.ErrorKind
	patterns []string
}

// classifyRules is ordered, and the order is part of the contract:
// configuration-specific patterns must win over the generic "not found"
// match ("configmap not found" is a configuration problem, not a missing
// resource), and timeout must win over network so
// "Unable to connect to the server: timeout" reads as a timeout. The bare
// "config" catch-all runs last among the named kinds.
var classifyRules = []classifyRule{
	{models.ErrorKindConfiguration, []string{
		"configmap",
		"secret not found",
		"invalid configuration",
		"error validating",
	}},
	{models.ErrorKindNotFound, []string{
		"not found",
		"no resources found",
		"doesn't have a resource type",
	}},
	{models.ErrorKindTimeout, []string{
		"timeout",
		"timed out",
		"deadline exceeded",
	}},
	{models.ErrorKindSyntax, []string{
		"unknown command",
		"invalid resource name",
		"malformed",
		"error parsing",
		"syntax",
	}},
	{models.ErrorKindPermission, []string{
		"forbidden",
		"unauthorized",
		"permission denied",
	}},
	{models.ErrorKindNetwork, []string{
		"connection refused",
		"unable to connect",
		"unreachable",
		"no route to host",
		"refused",
	}},
	{models.ErrorKindResourceLimit, []string{
		"exceeded quota",
		"quota exceeded",
		"limit range",
		"limits exceeded",
	}},
	{models.ErrorKindConfiguration, []string{
		"configuration",
		"config",
	}},
}

// Classify maps raw command stderr to an ErrorKind by case-insensitive
// substring matching against the ordered rule table. Unmatched text,
// including empty input, classifies as ErrorKindUnknown.
func Classify(stderr string) models.ErrorKind {
	text := strings.ToLower(stderr)
	for _, rule := range classifyRules {
		for _, pattern := range rule.patterns {
			if strings.Contains(text, pattern) {
				return rule.kind
			}
		}
	}
	return models.ErrorKindUnknown
}

// Suggest returns a remediation hint for the given error kind. namespace and
// resource are optional context; when present they are woven into the hint.
// Every kind maps to a non-empty suggestion.
func Suggest(kind models.ErrorKind, namespace, resource string) string {
	nsSuffix := ""
	if namespace != "" {
		nsSuffix = fmt.Sprintf(" in namespace '%s'", namespace)
	}

	switch kind {
	case models.ErrorKindNotFound:
		subject := "resource"
		if resource != "" {
			subject = resource + " resource"
		}
		return fmt.Sprintf("Verify the %s exists and the name is correct%s", subject, nsSuffix)
	case models.ErrorKindPermission:
		return fmt.Sprintf("Check RBAC permissions for the service account%s", nsSuffix)
	case models.ErrorKindTimeout:
		return "Retry the operation and check cluster responsiveness"
	case models.ErrorKindSyntax:
		return "Review the command syntax and arguments"
	case models.ErrorKindNetwork:
		return "Check network connectivity to the cluster API server"
	case models.ErrorKindResourceLimit:
		return fmt.Sprintf("Check resource quotas and limit ranges%s", nsSuffix)
	case models.ErrorKindConfiguration:
		return "Validate the resource configuration and manifest data"
	default:
		return "Check command logs and cluster status for details"
	}
}

// NewToolError builds a classified ToolError with the kind's default
// recoverability and standard suggestion. Callers that know better (an
// explicit suggestion, raw output) set those fields on the result.
func NewToolError(kind models.ErrorKind, message, toolName, namespace string) *models.ToolError {
	return &models.ToolError{
		Kind:        kind,
		Message:     message,
		Recoverable: kind.Recoverable(),
		Suggestion:  Suggest(kind, namespace, ""),
		ToolName:    toolName,
		Namespace:   namespace,
	}
}

// ClassifyToolError classifies stderr and wraps it into a ToolError in one
// step, preserving the raw output for debugging.
func ClassifyToolError(stderr, message, toolName, namespace string) *models.ToolError {
	toolErr := NewToolError(Classify(stderr), message, toolName, namespace)
	toolErr.RawOutput = stderr
	return toolErr
}
