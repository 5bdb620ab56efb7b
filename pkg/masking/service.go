package masking

import (
	"fmt"
	"log/slog"

	"github.com/codeready-toolchain/remedy/pkg/config"
)

// RedactionNotice replaces command output that could not be safely masked.
const RedactionNotice = "[REDACTED: data masking failure, command output could not be safely processed]"

// Service applies data masking to command output and alert payloads.
// Created once at application startup (singleton). Thread-safe and stateless
// aside from compiled patterns.
type Service struct {
	enabled       bool
	patterns      map[string]*CompiledPattern // Compiled built-in patterns
	patternGroups map[string][]string         // Group name → pattern names
	codeMaskers   map[string]Masker           // Registered code-based maskers
	resolved      *resolvedPatterns           // Active set from configured groups
}

// NewService creates a masking service with compiled patterns and registered
// maskers. All patterns are compiled eagerly at creation time. Invalid
// patterns are logged and skipped.
func NewService(cfg *config.MaskingConfig) *Service {
	if cfg == nil {
		cfg = config.DefaultMaskingConfig()
	}

	s := &Service{
		enabled:       cfg.Enabled,
		patterns:      make(map[string]*CompiledPattern),
		patternGroups: builtinPatternGroups(),
		codeMaskers:   make(map[string]Masker),
	}

	// 1. Compile all built-in regex patterns
	s.compileBuiltinPatterns()

	// 2. Register code-based maskers; resolution below looks them up by name
	s.registerMasker(&KubernetesSecretMasker{})

	// 3. Resolve the configured pattern groups once (config is fixed at startup)
	s.resolved = s.resolvePatternGroups(cfg.PatternGroups)

	slog.Info("Masking service initialized",
		"enabled", cfg.Enabled,
		"compiled_patterns", len(s.patterns),
		"code_maskers", len(s.codeMaskers),
		"active_patterns", len(s.resolved.regexPatterns),
		"active_maskers", len(s.resolved.codeMaskerNames))

	return s
}

// MaskCommandOutput masks secrets in captured command output before it is
// appended to diagnostics or persisted. On masking failure the output is
// replaced with a redaction notice (fail-closed).
func (s *Service) MaskCommandOutput(output string) string {
	if !s.enabled || output == "" {
		return output
	}
	if len(s.resolved.codeMaskerNames) == 0 && len(s.resolved.regexPatterns) == 0 {
		return output
	}

	masked, err := s.applyMasking(output, s.resolved)
	if err != nil {
		slog.Error("Masking failed, redacting command output (fail-closed)", "error", err)
		return RedactionNotice
	}

	return masked
}

// MaskAlertData masks secrets in alert payload data using the configured
// pattern groups. On masking failure the original data is returned
// (fail-open for alerts).
func (s *Service) MaskAlertData(data string) string {
	if !s.enabled || data == "" {
		return data
	}
	if len(s.resolved.codeMaskerNames) == 0 && len(s.resolved.regexPatterns) == 0 {
		return data
	}

	masked, err := s.applyMasking(data, s.resolved)
	if err != nil {
		slog.Error("Alert masking failed, continuing with unmasked data (fail-open)", "error", err)
		return data
	}

	return masked
}

// applyMasking applies code-based maskers then regex patterns to content.
// A panicking masker is converted to an error so callers can apply their
// fail-open or fail-closed policy.
func (s *Service) applyMasking(content string, resolved *resolvedPatterns) (masked string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("masker panic: %v", r)
		}
	}()

	masked = content

	// Phase 1: Code-based maskers (more specific, structural awareness)
	for _, maskerName := range resolved.codeMaskerNames {
		masker, ok := s.codeMaskers[maskerName]
		if !ok {
			continue
		}
		if masker.AppliesTo(masked) {
			masked = masker.Mask(masked)
		}
	}

	// Phase 2: Regex patterns (general sweep)
	for _, pattern := range resolved.regexPatterns {
		masked = pattern.Regex.ReplaceAllString(masked, pattern.Replacement)
	}

	return masked, nil
}

// registerMasker registers a code-based masker by its name.
func (s *Service) registerMasker(m Masker) {
	s.codeMaskers[m.Name()] = m
}
