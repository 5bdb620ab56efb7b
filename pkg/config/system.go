package config

import "time"

const defaultDashboardURL = "http://localhost:5173"

// RunbookConfig holds resolved runbook fetching configuration.
type RunbookConfig struct {
	TokenEnv        string   // Env var name containing GitHub PAT (default: "GITHUB_TOKEN")
	CacheTTLMinutes int      // Cache duration in minutes (default: 15)
	AllowedDomains  []string // Allowed URL domains (default: ["github.com", "raw.githubusercontent.com"])
	MaxSizeBytes    int      // Largest runbook body accepted (default: 1 MiB)
}

// DefaultRunbookConfig returns the built-in runbook defaults.
func DefaultRunbookConfig() *RunbookConfig {
	return &RunbookConfig{
		TokenEnv:        "GITHUB_TOKEN",
		CacheTTLMinutes: 15,
		AllowedDomains:  []string{"github.com", "raw.githubusercontent.com"},
		MaxSizeBytes:    1 << 20,
	}
}

// CacheTTL returns the cache duration.
func (r *RunbookConfig) CacheTTL() time.Duration {
	return time.Duration(r.CacheTTLMinutes) * time.Minute
}

// SlackConfig holds resolved Slack notification configuration.
type SlackConfig struct {
	Enabled  bool
	TokenEnv string // Env var name for Slack bot token (default: "SLACK_BOT_TOKEN")
	Channel  string // Slack channel ID (e.g., "C12345678")
}

// DefaultSlackConfig returns the built-in Slack defaults (disabled).
func DefaultSlackConfig() *SlackConfig {
	return &SlackConfig{
		Enabled:  false,
		TokenEnv: "SLACK_BOT_TOKEN",
	}
}

// MaskingConfig holds resolved command output masking configuration.
type MaskingConfig struct {
	Enabled       bool
	PatternGroups []string // Built-in pattern group names (default: ["security"])
}

// DefaultMaskingConfig returns the built-in masking defaults.
func DefaultMaskingConfig() *MaskingConfig {
	return &MaskingConfig{
		Enabled:       true,
		PatternGroups: []string{"security"},
	}
}
