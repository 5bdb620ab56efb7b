package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// RemedyYAMLConfig represents the complete remedy.yaml file structure.
// Sections are pointers so an absent section falls back to built-in defaults,
// and optional booleans are pointers so an explicit false survives merging.
type RemedyYAMLConfig struct {
	Workflow         *WorkflowYAMLConfig     `yaml:"workflow"`
	Budget           *BudgetYAMLConfig       `yaml:"budget"`
	Timeouts         *TimeoutsConfig         `yaml:"timeouts"`
	Alertmanager     *AlertmanagerYAMLConfig `yaml:"alertmanager"`
	Logs             *LogsConfig             `yaml:"logs"`
	Queue            *QueueConfig            `yaml:"queue"`
	Cleanup          *CleanupYAMLConfig      `yaml:"cleanup"`
	Masking          *MaskingYAMLConfig      `yaml:"masking"`
	Runbooks         *RunbooksYAMLConfig     `yaml:"runbooks"`
	Slack            *SlackYAMLConfig        `yaml:"slack"`
	DashboardURL     string                  `yaml:"dashboard_url"`
	AllowedWSOrigins []string                `yaml:"allowed_ws_origins"`
}

// WorkflowYAMLConfig holds workflow retry settings from YAML. MaxRetries is a
// pointer because an explicit 0 (no retries) differs from "not set".
type WorkflowYAMLConfig struct {
	MaxRetries        *int  `yaml:"max_retries,omitempty"`
	ResetStateOnRetry *bool `yaml:"reset_state_on_retry,omitempty"`
}

// BudgetYAMLConfig holds tool budget settings from YAML.
type BudgetYAMLConfig struct {
	MaxTools *int `yaml:"max_tools,omitempty"`
}

// AlertmanagerYAMLConfig holds Alertmanager settings from YAML.
type AlertmanagerYAMLConfig struct {
	Namespace     string `yaml:"namespace,omitempty"`
	PodName       string `yaml:"pod_name,omitempty"`
	URL           string `yaml:"url,omitempty"`
	SettleSeconds *int   `yaml:"settle_seconds,omitempty"`
}

// CleanupYAMLConfig holds retention settings from YAML.
type CleanupYAMLConfig struct {
	Enabled       *bool `yaml:"enabled,omitempty"`
	RetentionDays int   `yaml:"retention_days,omitempty"`
	IntervalHours int   `yaml:"interval_hours,omitempty"`
}

// MaskingYAMLConfig holds output masking settings from YAML.
type MaskingYAMLConfig struct {
	Enabled       *bool    `yaml:"enabled,omitempty"`
	PatternGroups []string `yaml:"pattern_groups,omitempty"`
}

// RunbooksYAMLConfig holds runbook system settings from YAML.
type RunbooksYAMLConfig struct {
	TokenEnv        string   `yaml:"token_env,omitempty"` // Defaults to "GITHUB_TOKEN" if omitted
	CacheTTLMinutes int      `yaml:"cache_ttl_minutes,omitempty"`
	AllowedDomains  []string `yaml:"allowed_domains,omitempty"`
	MaxSizeBytes    int      `yaml:"max_size_bytes,omitempty"`
}

// SlackYAMLConfig holds Slack notification settings from YAML.
type SlackYAMLConfig struct {
	Enabled  *bool  `yaml:"enabled,omitempty"`
	TokenEnv string `yaml:"token_env,omitempty"`
	Channel  string `yaml:"channel,omitempty"`
}

// Initialize loads, validates, and returns ready-to-use configuration.
// This is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load remedy.yaml from configDir
//  2. Expand environment variables
//  3. Parse YAML into structs
//  4. Resolve each section against built-in defaults
//  5. Validate all configuration
//  6. Return Config ready for use
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("Initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	log.Info("Configuration initialized successfully",
		"max_retries", cfg.Workflow.MaxRetries,
		"max_tools", cfg.Budget.MaxTools,
		"workers", cfg.Queue.WorkerCount,
		"cleanup_enabled", cfg.Cleanup.Enabled,
		"masking_enabled", cfg.Masking.Enabled,
		"slack_enabled", cfg.Slack.Enabled)

	return cfg, nil
}

// load is the internal loader (not exported)
func load(_ context.Context, configDir string) (*Config, error) {
	loader := &configLoader{
		configDir: configDir,
	}

	raw, err := loader.loadRemedyYAML()
	if err != nil {
		return nil, NewLoadError("remedy.yaml", err)
	}

	// Merge sections whose zero values all mean "not set" on top of the
	// built-in defaults. Sections with meaningful zeros resolve field by
	// field below.
	timeouts := DefaultTimeoutsConfig()
	if raw.Timeouts != nil {
		if err := mergo.Merge(timeouts, raw.Timeouts, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge timeouts config: %w", err)
		}
	}

	logsCfg := DefaultLogsConfig()
	if raw.Logs != nil {
		if err := mergo.Merge(logsCfg, raw.Logs, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge logs config: %w", err)
		}
	}

	queueCfg := DefaultQueueConfig()
	if raw.Queue != nil {
		if err := mergo.Merge(queueCfg, raw.Queue, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge queue config: %w", err)
		}
	}

	return &Config{
		configDir:        configDir,
		Workflow:         resolveWorkflowConfig(raw.Workflow),
		Budget:           resolveBudgetConfig(raw.Budget),
		Timeouts:         timeouts,
		Alertmanager:     resolveAlertmanagerConfig(raw.Alertmanager),
		Logs:             logsCfg,
		Queue:            queueCfg,
		Cleanup:          resolveCleanupConfig(raw.Cleanup),
		Masking:          resolveMaskingConfig(raw.Masking),
		Runbooks:         resolveRunbooksConfig(raw.Runbooks),
		Slack:            resolveSlackConfig(raw.Slack),
		DashboardURL:     resolveDashboardURL(raw.DashboardURL),
		AllowedWSOrigins: raw.AllowedWSOrigins,
	}, nil
}

// validate performs comprehensive validation on loaded configuration
func validate(cfg *Config) error {
	validator := NewValidator(cfg)
	return validator.ValidateAll()
}

type configLoader struct {
	configDir string
}

func (l *configLoader) loadYAML(filename string, target any) error {
	path := filepath.Join(l.configDir, filename)

	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}

	// Expand environment variables using {{.VAR}} template syntax
	// Note: ExpandEnv passes through original data on parse/execution errors,
	// allowing YAML parser to handle the content (or fail with clearer error message)
	data = ExpandEnv(data)

	// Parse YAML
	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return nil
}

func (l *configLoader) loadRemedyYAML() (*RemedyYAMLConfig, error) {
	var config RemedyYAMLConfig
	if err := l.loadYAML("remedy.yaml", &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// resolveWorkflowConfig resolves workflow configuration from YAML, applying defaults.
func resolveWorkflowConfig(raw *WorkflowYAMLConfig) *WorkflowConfig {
	cfg := DefaultWorkflowConfig()
	if raw == nil {
		return cfg
	}
	if raw.MaxRetries != nil {
		cfg.MaxRetries = *raw.MaxRetries
	}
	if raw.ResetStateOnRetry != nil {
		cfg.ResetStateOnRetry = *raw.ResetStateOnRetry
	}
	return cfg
}

// resolveBudgetConfig resolves budget configuration from YAML, applying defaults.
func resolveBudgetConfig(raw *BudgetYAMLConfig) *BudgetConfig {
	cfg := DefaultBudgetConfig()
	if raw == nil {
		return cfg
	}
	if raw.MaxTools != nil {
		cfg.MaxTools = *raw.MaxTools
	}
	return cfg
}

// resolveAlertmanagerConfig resolves Alertmanager configuration from YAML, applying defaults.
func resolveAlertmanagerConfig(raw *AlertmanagerYAMLConfig) *AlertmanagerConfig {
	cfg := DefaultAlertmanagerConfig()
	if raw == nil {
		return cfg
	}
	if raw.Namespace != "" {
		cfg.Namespace = raw.Namespace
	}
	if raw.PodName != "" {
		cfg.PodName = raw.PodName
	}
	if raw.URL != "" {
		cfg.URL = raw.URL
	}
	if raw.SettleSeconds != nil {
		cfg.SettleSeconds = *raw.SettleSeconds
	}
	return cfg
}

// resolveCleanupConfig resolves retention configuration from YAML, applying defaults.
func resolveCleanupConfig(raw *CleanupYAMLConfig) *CleanupConfig {
	cfg := DefaultCleanupConfig()
	if raw == nil {
		return cfg
	}
	if raw.Enabled != nil {
		cfg.Enabled = *raw.Enabled
	}
	if raw.RetentionDays > 0 {
		cfg.RetentionDays = raw.RetentionDays
	}
	if raw.IntervalHours > 0 {
		cfg.IntervalHours = raw.IntervalHours
	}
	return cfg
}

// resolveMaskingConfig resolves masking configuration from YAML, applying defaults.
func resolveMaskingConfig(raw *MaskingYAMLConfig) *MaskingConfig {
	cfg := DefaultMaskingConfig()
	if raw == nil {
		return cfg
	}
	if raw.Enabled != nil {
		cfg.Enabled = *raw.Enabled
	}
	if len(raw.PatternGroups) > 0 {
		cfg.PatternGroups = raw.PatternGroups
	}
	return cfg
}

// resolveRunbooksConfig resolves runbook configuration from YAML, applying defaults.
func resolveRunbooksConfig(raw *RunbooksYAMLConfig) *RunbookConfig {
	cfg := DefaultRunbookConfig()
	if raw == nil {
		return cfg
	}
	if raw.TokenEnv != "" {
		cfg.TokenEnv = raw.TokenEnv
	}
	if raw.CacheTTLMinutes > 0 {
		cfg.CacheTTLMinutes = raw.CacheTTLMinutes
	}
	if len(raw.AllowedDomains) > 0 {
		cfg.AllowedDomains = raw.AllowedDomains
	}
	if raw.MaxSizeBytes > 0 {
		cfg.MaxSizeBytes = raw.MaxSizeBytes
	}
	return cfg
}

// resolveSlackConfig resolves Slack configuration from YAML, applying defaults.
func resolveSlackConfig(raw *SlackYAMLConfig) *SlackConfig {
	cfg := DefaultSlackConfig()
	if raw == nil {
		return cfg
	}
	if raw.Enabled != nil {
		cfg.Enabled = *raw.Enabled
	}
	if raw.TokenEnv != "" {
		cfg.TokenEnv = raw.TokenEnv
	}
	if raw.Channel != "" {
		cfg.Channel = raw.Channel
	}
	return cfg
}

// resolveDashboardURL resolves the dashboard base URL, applying the default.
func resolveDashboardURL(url string) string {
	if url != "" {
		return url
	}
	return defaultDashboardURL
}
