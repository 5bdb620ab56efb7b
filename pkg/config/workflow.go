package config

import "time"

// WorkflowConfig controls whole-run retry behavior.
type WorkflowConfig struct {
	// MaxRetries is the number of additional full passes after the first
	// when a pass completes without producing a report. Zero disables retry.
	MaxRetries int

	// ResetStateOnRetry clears accumulated workflow state between passes.
	// The default (false) carries state over so a retry sees what earlier
	// passes learned.
	ResetStateOnRetry bool
}

// DefaultWorkflowConfig returns the built-in workflow defaults.
func DefaultWorkflowConfig() *WorkflowConfig {
	return &WorkflowConfig{
		MaxRetries:        3,
		ResetStateOnRetry: false,
	}
}

// BudgetConfig bounds investigation tool calls per workflow run.
type BudgetConfig struct {
	// MaxTools is the number of metered investigation commands a single run
	// may issue before being forced to submit a plan.
	MaxTools int
}

// DefaultBudgetConfig returns the built-in budget defaults.
func DefaultBudgetConfig() *BudgetConfig {
	return &BudgetConfig{MaxTools: 5}
}

// TimeoutsConfig bounds each class of external command a run makes. Values
// are whole seconds in YAML; use the accessors for time.Duration.
type TimeoutsConfig struct {
	InvestigationSeconds int `yaml:"investigation_seconds"`
	ExecutionSeconds     int `yaml:"execution_seconds"`
	VerificationSeconds  int `yaml:"verification_seconds"`
	LookupSeconds        int `yaml:"lookup_seconds"`
}

// DefaultTimeoutsConfig returns the built-in timeout defaults.
func DefaultTimeoutsConfig() *TimeoutsConfig {
	return &TimeoutsConfig{
		InvestigationSeconds: 30,
		ExecutionSeconds:     60,
		VerificationSeconds:  30,
		LookupSeconds:        30,
	}
}

func (t *TimeoutsConfig) Investigation() time.Duration {
	return time.Duration(t.InvestigationSeconds) * time.Second
}

func (t *TimeoutsConfig) Execution() time.Duration {
	return time.Duration(t.ExecutionSeconds) * time.Second
}

func (t *TimeoutsConfig) Verification() time.Duration {
	return time.Duration(t.VerificationSeconds) * time.Second
}

func (t *TimeoutsConfig) Lookup() time.Duration {
	return time.Duration(t.LookupSeconds) * time.Second
}

// LogsConfig sets how much recent history the investigation sweep gathers.
type LogsConfig struct {
	// EventsTail is the number of recent namespace events to collect.
	EventsTail int `yaml:"events_tail"`

	// LogsTail is the number of trailing pod log lines to collect.
	LogsTail int `yaml:"logs_tail"`
}

// DefaultLogsConfig returns the built-in diagnostic tail defaults.
func DefaultLogsConfig() *LogsConfig {
	return &LogsConfig{
		EventsTail: 10,
		LogsTail:   5,
	}
}
