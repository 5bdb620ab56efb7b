package oc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/codeready-toolchain/remedy/pkg/models"
)

// ResolvePodName resolves a possibly partial pod name to an exact one by
// listing the pods in the namespace.
//
// An exact match wins over any prefix match. Otherwise the first pod whose
// name starts with partial — first in listing order, not lexicographic —
// is returned. If the listing command itself fails with a non-zero exit, the
// partial name is returned unchanged (optimistic fallback: the next command
// that uses it will surface the real error). A listing timeout is its own
// distinct failure.
func ResolvePodName(ctx context.Context, runner Runner, partial, namespace string, timeout time.Duration) (string, *models.ToolError) {
	argv := []string{"oc", "get", "pods", "-n", namespace, "-o", "jsonpath={.items[*].metadata.name}"}

	res, err := runner.Run(ctx, argv, timeout)
	if err != nil {
		if errors.Is(err, ErrTimedOut) {
			return "", &models.ToolError{
				Kind:        models.ErrorKindTimeout,
				Message:     fmt.Sprintf("Timeout finding pod %s", partial),
				Recoverable: true,
				Suggestion:  Suggest(models.ErrorKindTimeout, namespace, "pod"),
				ToolName:    "resolve_pod_name",
				Namespace:   namespace,
			}
		}
		return "", &models.ToolError{
			Kind:       models.ErrorKindUnknown,
			Message:    fmt.Sprintf("Error finding pod: %v", err),
			Suggestion: Suggest(models.ErrorKindUnknown, namespace, "pod"),
			ToolName:   "resolve_pod_name",
			Namespace:  namespace,
		}
	}

	if res.ExitCode != 0 {
		// Listing failed for some other reason; try the name as given.
		slog.Warn("Pod listing failed, falling back to partial name",
			"partial", partial,
			"namespace", namespace,
			"stderr", res.Stderr)
		return partial, nil
	}

	pods := strings.Fields(res.Stdout)
	for _, pod := range pods {
		if pod == partial {
			return partial, nil
		}
	}
	for _, pod := range pods {
		if strings.HasPrefix(pod, partial) {
			slog.Info("Resolved partial pod name",
				"partial", partial,
				"pod", pod,
				"namespace", namespace)
			return pod, nil
		}
	}

	return "", &models.ToolError{
		Kind: models.ErrorKindNotFound,
		Message: fmt.Sprintf("No pod found matching '%s' in namespace '%s'. It might be that the deployment doesn't have active pods.",
			partial, namespace),
		Suggestion: Suggest(models.ErrorKindNotFound, namespace, "pod"),
		ToolName:   "resolve_pod_name",
		Namespace:  namespace,
	}
}
