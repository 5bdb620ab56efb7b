package agents

import (
	"encoding/json"
	"fmt"
	"strings"
)

// podDetail is the slice of a Pod object the investigator reports on:
// status, service account, container images and resource settings, and
// per-container runtime state.
type podDetail struct {
	Metadata struct {
		Name string `json:"name"`
	} `json:"metadata"`
	Spec struct {
		ServiceAccountName string         `json:"serviceAccountName"`
		Containers         []podContainer `json:"containers"`
	} `json:"spec"`
	Status struct {
		Phase             string               `json:"phase"`
		ContainerStatuses []podContainerStatus `json:"containerStatuses"`
	} `json:"status"`
}

type podContainer struct {
	Name      string `json:"name"`
	Image     string `json:"image"`
	Resources struct {
		Limits   map[string]string `json:"limits"`
		Requests map[string]string `json:"requests"`
	} `json:"resources"`
}

type podContainerStatus struct {
	Name         string                     `json:"name"`
	Ready        bool                       `json:"ready"`
	RestartCount int                        `json:"restartCount"`
	State        map[string]json.RawMessage `json:"state"`
}

func formatPodDetail(pod *podDetail) string {
	phase := pod.Status.Phase
	if phase == "" {
		phase = "Unknown"
	}
	serviceAccount := pod.Spec.ServiceAccountName
	if serviceAccount == "" {
		serviceAccount = "default"
	}

	lines := []string{
		"Pod: " + pod.Metadata.Name,
		"Status: " + phase,
		"ServiceAccount: " + serviceAccount,
		"",
		"Containers:",
	}
	for _, container := range pod.Spec.Containers {
		lines = append(lines, fmt.Sprintf("  - %s: %s", container.Name, container.Image))
		if container.Resources.Limits != nil {
			lines = append(lines, fmt.Sprintf("    Limits: cpu=%s mem=%s",
				quantityOr(container.Resources.Limits, "cpu"),
				quantityOr(container.Resources.Limits, "memory")))
		}
		if container.Resources.Requests != nil {
			lines = append(lines, fmt.Sprintf("    Requests: cpu=%s mem=%s",
				quantityOr(container.Resources.Requests, "cpu"),
				quantityOr(container.Resources.Requests, "memory")))
		}
	}

	if len(pod.Status.ContainerStatuses) > 0 {
		lines = append(lines, "", "Container Status:")
		for _, status := range pod.Status.ContainerStatuses {
			lines = append(lines, fmt.Sprintf("  - %s: ready=%t restarts=%d state=%s",
				status.Name, status.Ready, status.RestartCount, containerState(status.State)))
		}
	}
	return strings.Join(lines, "\n")
}

// containerState names the single state key Kubernetes sets on a container
// status.
func containerState(state map[string]json.RawMessage) string {
	for _, key := range []string{"running", "waiting", "terminated"} {
		if _, ok := state[key]; ok {
			return key
		}
	}
	return "unknown"
}

func quantityOr(quantities map[string]string, key string) string {
	if v, ok := quantities[key]; ok && v != "" {
		return v
	}
	return "none"
}
