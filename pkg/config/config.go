package config

// Config is the umbrella configuration object returned by Initialize() and
// used throughout the application. Every section carries built-in defaults;
// remedy.yaml overrides them field by field.
type Config struct {
	configDir string // Configuration directory path (for reference)

	// Workflow run behavior (retries, state carry-over)
	Workflow *WorkflowConfig

	// Investigation tool-call budget
	Budget *BudgetConfig

	// Per-command-class timeouts
	Timeouts *TimeoutsConfig

	// Alertmanager access for post-remediation verification
	Alertmanager *AlertmanagerConfig

	// Diagnostic tail sizes for the investigation sweep
	Logs *LogsConfig

	// Queue and worker pool configuration
	Queue *QueueConfig

	// Retention cleanup configuration
	Cleanup *CleanupConfig

	// Command output masking configuration
	Masking *MaskingConfig

	// Runbook fetching configuration
	Runbooks *RunbookConfig

	// Slack notification configuration
	Slack *SlackConfig

	// DashboardURL is the base URL used when building session links
	DashboardURL string

	// AllowedWSOrigins lists additional WebSocket origin patterns
	AllowedWSOrigins []string
}

// Default returns a Config carrying only built-in defaults, without reading
// any file. The one-shot CLI path uses this when no config directory is given.
func Default() *Config {
	return &Config{
		Workflow:     DefaultWorkflowConfig(),
		Budget:       DefaultBudgetConfig(),
		Timeouts:     DefaultTimeoutsConfig(),
		Alertmanager: DefaultAlertmanagerConfig(),
		Logs:         DefaultLogsConfig(),
		Queue:        DefaultQueueConfig(),
		Cleanup:      DefaultCleanupConfig(),
		Masking:      DefaultMaskingConfig(),
		Runbooks:     DefaultRunbookConfig(),
		Slack:        DefaultSlackConfig(),
		DashboardURL: defaultDashboardURL,
	}
}

// ConfigDir returns the configuration directory path
func (c *Config) ConfigDir() string {
	return c.configDir
}
