package config

import "fmt"

// ConfigValidator validates configuration comprehensively with clear error messages
type ConfigValidator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration
func NewValidator(cfg *Config) *ConfigValidator {
	return &ConfigValidator{cfg: cfg}
}

// ValidateAll performs comprehensive validation (fail-fast - stops at first error)
func (v *ConfigValidator) ValidateAll() error {
	if err := v.validateWorkflow(); err != nil {
		return fmt.Errorf("workflow validation failed: %w", err)
	}

	if err := v.validateBudget(); err != nil {
		return fmt.Errorf("budget validation failed: %w", err)
	}

	if err := v.validateTimeouts(); err != nil {
		return fmt.Errorf("timeouts validation failed: %w", err)
	}

	if err := v.validateAlertmanager(); err != nil {
		return fmt.Errorf("alertmanager validation failed: %w", err)
	}

	if err := v.validateLogs(); err != nil {
		return fmt.Errorf("logs validation failed: %w", err)
	}

	if err := v.validateQueue(); err != nil {
		return fmt.Errorf("queue validation failed: %w", err)
	}

	if err := v.validateCleanup(); err != nil {
		return fmt.Errorf("cleanup validation failed: %w", err)
	}

	if err := v.validateSlack(); err != nil {
		return fmt.Errorf("slack validation failed: %w", err)
	}

	return nil
}

func (v *ConfigValidator) validateWorkflow() error {
	if v.cfg.Workflow.MaxRetries < 0 {
		return NewValidationError("workflow", "max_retries", fmt.Errorf("must not be negative"))
	}
	return nil
}

func (v *ConfigValidator) validateBudget() error {
	if v.cfg.Budget.MaxTools < 1 {
		return NewValidationError("budget", "max_tools", fmt.Errorf("must be at least 1"))
	}
	return nil
}

func (v *ConfigValidator) validateTimeouts() error {
	t := v.cfg.Timeouts
	if t.InvestigationSeconds < 1 {
		return NewValidationError("timeouts", "investigation_seconds", fmt.Errorf("must be at least 1"))
	}
	if t.ExecutionSeconds < 1 {
		return NewValidationError("timeouts", "execution_seconds", fmt.Errorf("must be at least 1"))
	}
	if t.VerificationSeconds < 1 {
		return NewValidationError("timeouts", "verification_seconds", fmt.Errorf("must be at least 1"))
	}
	if t.LookupSeconds < 1 {
		return NewValidationError("timeouts", "lookup_seconds", fmt.Errorf("must be at least 1"))
	}
	return nil
}

func (v *ConfigValidator) validateAlertmanager() error {
	a := v.cfg.Alertmanager
	if a.Namespace == "" {
		return NewValidationError("alertmanager", "namespace", fmt.Errorf("namespace required"))
	}
	if a.PodName == "" {
		return NewValidationError("alertmanager", "pod_name", fmt.Errorf("pod name required"))
	}
	if a.URL == "" {
		return NewValidationError("alertmanager", "url", fmt.Errorf("url required"))
	}
	if a.SettleSeconds < 0 {
		return NewValidationError("alertmanager", "settle_seconds", fmt.Errorf("must not be negative"))
	}
	return nil
}

func (v *ConfigValidator) validateLogs() error {
	l := v.cfg.Logs
	if l.EventsTail < 1 {
		return NewValidationError("logs", "events_tail", fmt.Errorf("must be at least 1"))
	}
	if l.LogsTail < 1 {
		return NewValidationError("logs", "logs_tail", fmt.Errorf("must be at least 1"))
	}
	return nil
}

func (v *ConfigValidator) validateQueue() error {
	q := v.cfg.Queue
	if q.WorkerCount < 1 {
		return NewValidationError("queue", "worker_count", fmt.Errorf("must be at least 1"))
	}
	if q.MaxConcurrentSessions < 1 {
		return NewValidationError("queue", "max_concurrent_sessions", fmt.Errorf("must be at least 1"))
	}
	if q.PollIntervalSeconds < 1 {
		return NewValidationError("queue", "poll_interval_seconds", fmt.Errorf("must be at least 1"))
	}
	if q.HeartbeatIntervalSeconds < 1 {
		return NewValidationError("queue", "heartbeat_interval_seconds", fmt.Errorf("must be at least 1"))
	}
	if q.OrphanThresholdSeconds <= q.HeartbeatIntervalSeconds {
		return NewValidationError("queue", "orphan_threshold_seconds",
			fmt.Errorf("must exceed heartbeat_interval_seconds (%d), otherwise healthy runs look orphaned", q.HeartbeatIntervalSeconds))
	}
	if q.SessionTimeoutMinutes < 1 {
		return NewValidationError("queue", "session_timeout_minutes", fmt.Errorf("must be at least 1"))
	}
	if q.MaxRequeues < 0 {
		return NewValidationError("queue", "max_requeues", fmt.Errorf("must not be negative"))
	}
	return nil
}

func (v *ConfigValidator) validateCleanup() error {
	c := v.cfg.Cleanup
	if !c.Enabled {
		return nil
	}
	if c.RetentionDays < 1 {
		return NewValidationError("cleanup", "retention_days", fmt.Errorf("must be at least 1"))
	}
	if c.IntervalHours < 1 {
		return NewValidationError("cleanup", "interval_hours", fmt.Errorf("must be at least 1"))
	}
	return nil
}

func (v *ConfigValidator) validateSlack() error {
	s := v.cfg.Slack
	if !s.Enabled {
		return nil
	}
	if s.Channel == "" {
		return NewValidationError("slack", "channel", fmt.Errorf("channel required when slack is enabled"))
	}
	if s.TokenEnv == "" {
		return NewValidationError("slack", "token_env", fmt.Errorf("token_env required when slack is enabled"))
	}
	return nil
}
