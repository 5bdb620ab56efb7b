package masking

import (
	"log/slog"
	"regexp"
)

// CompiledPattern holds a pre-compiled regex pattern with its replacement.
type CompiledPattern struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
	Description string
}

// builtinPattern is an uncompiled built-in masking pattern definition.
type builtinPattern struct {
	pattern     string
	replacement string
	description string
}

// resolvedPatterns holds the resolved set of maskers and patterns for a
// masking operation.
type resolvedPatterns struct {
	codeMaskerNames []string           // Names of code-based maskers to apply
	regexPatterns   []*CompiledPattern // Compiled regex patterns to apply
}

// builtinPatterns returns the built-in masking pattern definitions.
func builtinPatterns() map[string]builtinPattern {
	return map[string]builtinPattern{
		"api_key": {
			pattern:     `(?i)(?:api[_-]?key|apikey|key)["\']?\s*[:=]\s*["\']?([A-Za-z0-9_\-]{20,})["\']?`,
			replacement: `"api_key": "[MASKED_API_KEY]"`,
			description: "API keys",
		},
		"password": {
			pattern:     `(?i)(?:password|pwd|pass)["\']?\s*[:=]\s*["\']?([^"\'\s\n]{6,})["\']?`,
			replacement: `"password": "[MASKED_PASSWORD]"`,
			description: "Passwords",
		},
		"certificate": {
			pattern:     `(?s)-----BEGIN [A-Z ]+-----.*?-----END [A-Z ]+-----`,
			replacement: `[MASKED_CERTIFICATE]`,
			description: "PEM certificates and keys",
		},
		"certificate_authority_data": {
			pattern:     `(?i)certificate-authority-data:\s*([A-Za-z0-9+/]{20,}={0,2})`,
			replacement: `certificate-authority-data: [MASKED_CA_CERTIFICATE]`,
			description: "Kubeconfig CA data",
		},
		"token": {
			pattern:     `(?i)(?:token|bearer|jwt)["\']?\s*[:=]\s*["\']?([A-Za-z0-9_\-\.]{20,})["\']?`,
			replacement: `"token": "[MASKED_TOKEN]"`,
			description: "Access tokens",
		},
		"email": {
			pattern:     `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9]+(?:[.-][A-Za-z0-9]+)*\.[A-Za-z]{2,63}\b`,
			replacement: `[MASKED_EMAIL]`,
			description: "Email addresses",
		},
		"ssh_key": {
			pattern:     `ssh-(?:rsa|dss|ed25519|ecdsa)\s+[A-Za-z0-9+/=]+`,
			replacement: `[MASKED_SSH_KEY]`,
			description: "SSH public keys",
		},
		"base64_secret": {
			pattern:     `\b([A-Za-z0-9+/]{20,}={0,2})\b`,
			replacement: `[MASKED_BASE64_VALUE]`,
			description: "Base64 values (20+ chars)",
		},
		"base64_short": {
			pattern:     `:\s+([A-Za-z0-9+/]{4,19}={0,2})(?:\s|$)`,
			replacement: `: [MASKED_SHORT_BASE64]`,
			description: "Short base64 values",
		},
		"private_key": {
			pattern:     `(?i)(?:private[_-]?key)["\']?\s*[:=]\s*["\']?([A-Za-z0-9_\-\.]{20,})["\']?`,
			replacement: `"private_key": "[MASKED_PRIVATE_KEY]"`,
			description: "Private keys",
		},
		"secret_key": {
			pattern:     `(?i)(?:secret[_-]?key)["\']?\s*[:=]\s*["\']?([A-Za-z0-9_\-\.]{20,})["\']?`,
			replacement: `"secret_key": "[MASKED_SECRET_KEY]"`,
			description: "Secret keys",
		},
		"aws_access_key": {
			pattern:     `(?i)(?:aws[_-]?access[_-]?key[_-]?id)["\']?\s*[:=]\s*["\']?(AKIA[A-Z0-9]{16})["\']?`,
			replacement: `"aws_access_key_id": "[MASKED_AWS_KEY]"`,
			description: "AWS access keys",
		},
		"aws_secret_key": {
			pattern:     `(?i)(?:aws[_-]?secret[_-]?access[_-]?key)["\']?\s*[:=]\s*["\']?([A-Za-z0-9/+=]{40})["\']?`,
			replacement: `"aws_secret_access_key": "[MASKED_AWS_SECRET]"`,
			description: "AWS secret keys",
		},
		"github_token": {
			pattern:     `(?i)(?:github[_-]?token|gh[ps]_[A-Za-z0-9_]{36,255})`,
			replacement: `[MASKED_GITHUB_TOKEN]`,
			description: "GitHub tokens",
		},
		"slack_token": {
			pattern:     `(?i)xox[baprs]-[A-Za-z0-9-]{10,72}`,
			replacement: `[MASKED_SLACK_TOKEN]`,
			description: "Slack tokens",
		},
	}
}

// builtinPatternGroups returns predefined groups of masking patterns. Group
// members name either regex patterns or code-based maskers; kubernetes_secret
// is the structural Secret masker.
func builtinPatternGroups() map[string][]string {
	return map[string][]string{
		"basic":      {"api_key", "password"},
		"secrets":    {"api_key", "password", "token", "private_key", "secret_key"},
		"security":   {"kubernetes_secret", "api_key", "password", "token", "certificate", "certificate_authority_data", "email", "ssh_key"},
		"kubernetes": {"kubernetes_secret", "api_key", "password", "certificate_authority_data"},
		"cloud":      {"aws_access_key", "aws_secret_key", "api_key", "token"},
		"all": {
			"kubernetes_secret", "base64_secret", "base64_short", "api_key", "password",
			"certificate", "certificate_authority_data", "email", "token", "ssh_key",
			"private_key", "secret_key", "aws_access_key", "aws_secret_key",
			"github_token", "slack_token",
		},
	}
}

// compileBuiltinPatterns compiles all built-in regex patterns.
// Invalid patterns are logged and skipped.
func (s *Service) compileBuiltinPatterns() {
	for name, p := range builtinPatterns() {
		compiled, err := regexp.Compile(p.pattern)
		if err != nil {
			slog.Error("Failed to compile built-in masking pattern, skipping",
				"pattern", name, "error", err)
			continue
		}
		s.patterns[name] = &CompiledPattern{
			Name:        name,
			Regex:       compiled,
			Replacement: p.replacement,
			Description: p.description,
		}
	}
}

// resolvePatternGroups expands group names into a deduplicated resolvedPatterns.
// Unknown group names and unknown pattern names are skipped.
func (s *Service) resolvePatternGroups(groups []string) *resolvedPatterns {
	seen := make(map[string]bool)
	resolved := &resolvedPatterns{}

	for _, groupName := range groups {
		groupPatterns, ok := s.patternGroups[groupName]
		if !ok {
			slog.Warn("Unknown masking pattern group, skipping", "group", groupName)
			continue
		}
		for _, name := range groupPatterns {
			if seen[name] {
				continue
			}
			seen[name] = true
			s.addToResolved(resolved, name)
		}
	}

	return resolved
}

// addToResolved adds a pattern name to the resolved set, categorizing it as
// either a code masker or a regex pattern.
func (s *Service) addToResolved(resolved *resolvedPatterns, name string) {
	if _, ok := s.codeMaskers[name]; ok {
		resolved.codeMaskerNames = append(resolved.codeMaskerNames, name)
		return
	}
	if cp, ok := s.patterns[name]; ok {
		resolved.regexPatterns = append(resolved.regexPatterns, cp)
	}
}
