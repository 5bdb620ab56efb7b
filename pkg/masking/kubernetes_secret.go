package masking

import (
	"bytes"
	"encoding/json"
	"io"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// MaskedSecretValue replaces the data and stringData sections of masked
// Kubernetes Secret resources.
const MaskedSecretValue = "[MASKED_SECRET_DATA]"

// Fast pre-checks for AppliesTo, covering both Secret and SecretList kinds.
var (
	yamlSecretPattern = regexp.MustCompile(`(?m)^kind:\s*Secret(?:List)?\s*$`)
	jsonSecretPattern = regexp.MustCompile(`"kind"\s*:\s*"Secret(?:List)?"`)
)

// KubernetesSecretMasker masks the data and stringData sections of Kubernetes
// Secret resources while leaving ConfigMaps and other kinds untouched.
// Command output frequently embeds whole Secret manifests, for example from
// "oc get secret -o yaml".
type KubernetesSecretMasker struct{}

// Name returns the identifier pattern groups use to reference this masker.
func (m *KubernetesSecretMasker) Name() string { return "kubernetes_secret" }

// AppliesTo reports whether the data looks like it contains a Secret manifest.
func (m *KubernetesSecretMasker) AppliesTo(data string) bool {
	if !strings.Contains(data, "Secret") {
		return false
	}
	return yamlSecretPattern.MatchString(data) || jsonSecretPattern.MatchString(data)
}

// Mask detects JSON vs YAML and applies the matching parser. Returns the
// original data on parse or serialization errors.
func (m *KubernetesSecretMasker) Mask(data string) string {
	trimmed := strings.TrimSpace(data)

	// JSON first when the input looks like JSON. The YAML parser accepts
	// JSON too and would re-serialize it as YAML.
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		if masked := m.maskJSON(data); masked != data {
			return masked
		}
	}

	// YAML, including multi-document streams with --- separators.
	if masked := m.maskYAML(data); masked != data {
		return masked
	}

	return data
}

// maskYAML parses multi-document YAML and masks Secret resources.
func (m *KubernetesSecretMasker) maskYAML(data string) string {
	decoder := yaml.NewDecoder(strings.NewReader(data))
	var documents []map[string]any
	anyMasked := false

	for {
		var doc map[string]any
		err := decoder.Decode(&doc)
		if err == io.EOF {
			break
		}
		if err != nil {
			return data
		}
		if doc == nil {
			continue
		}
		if maskResource(doc) {
			anyMasked = true
		}
		documents = append(documents, doc)
	}

	if !anyMasked || len(documents) == 0 {
		return data
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	for _, doc := range documents {
		if err := encoder.Encode(doc); err != nil {
			return data
		}
	}
	if err := encoder.Close(); err != nil {
		return data
	}

	// The encoder always appends a trailing newline; match the original.
	result := strings.TrimRight(buf.String(), "\n")
	if strings.HasSuffix(data, "\n") {
		result += "\n"
	}

	return result
}

// maskJSON parses a JSON object and masks Secret resources.
func (m *KubernetesSecretMasker) maskJSON(data string) string {
	var obj map[string]any
	if err := json.Unmarshal([]byte(data), &obj); err != nil {
		return data
	}

	if !maskResource(obj) {
		return data
	}

	result, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return data
	}

	output := string(result)
	if strings.HasSuffix(data, "\n") {
		output += "\n"
	}

	return output
}

// maskResource masks a parsed resource in place. Returns true when the
// resource was a Secret, or a list containing one, and was modified.
func maskResource(resource map[string]any) bool {
	if isKubernetesSecret(resource) {
		maskSecretFields(resource)
		maskAnnotationSecrets(resource)
		return true
	}
	if isKubernetesList(resource) {
		return maskListItems(resource)
	}
	return false
}

// maskListItems masks Secret items inside a List resource, SecretList
// included. Returns true when at least one item was masked.
func maskListItems(resource map[string]any) bool {
	items, ok := resource["items"].([]any)
	if !ok {
		return false
	}

	anyMasked := false
	for _, item := range items {
		itemMap, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if isKubernetesSecret(itemMap) {
			maskSecretFields(itemMap)
			maskAnnotationSecrets(itemMap)
			anyMasked = true
		}
	}

	return anyMasked
}

// isKubernetesSecret checks whether a resource map is a single Secret.
// SecretList is excluded on purpose: lists are handled item by item so that
// item annotations get masked too.
func isKubernetesSecret(resource map[string]any) bool {
	kind, ok := resource["kind"].(string)
	return ok && kind == "Secret"
}

// isKubernetesList checks whether a resource map is a List of any kind.
func isKubernetesList(resource map[string]any) bool {
	kind, ok := resource["kind"].(string)
	return ok && strings.HasSuffix(kind, "List")
}

// maskSecretFields replaces the data and stringData sections with the masked
// placeholder. The whole section is replaced, key names included.
func maskSecretFields(resource map[string]any) {
	for _, field := range []string{"data", "stringData"} {
		if _, ok := resource[field]; ok {
			resource[field] = MaskedSecretValue
		}
	}
}

// maskAnnotationSecrets masks Secret manifests embedded in annotation values,
// typically kubectl.kubernetes.io/last-applied-configuration.
func maskAnnotationSecrets(resource map[string]any) {
	metadata, ok := resource["metadata"].(map[string]any)
	if !ok {
		return
	}
	annotations, ok := metadata["annotations"].(map[string]any)
	if !ok {
		return
	}

	for key, val := range annotations {
		strVal, ok := val.(string)
		if !ok || !strings.Contains(strVal, "Secret") {
			continue
		}

		var embedded map[string]any
		if err := json.Unmarshal([]byte(strVal), &embedded); err != nil {
			continue
		}
		if !isKubernetesSecret(embedded) {
			continue
		}

		maskSecretFields(embedded)
		masked, err := json.Marshal(embedded)
		if err != nil {
			continue
		}
		annotations[key] = string(masked)
	}
}
