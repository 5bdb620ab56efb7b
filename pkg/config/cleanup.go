package config

import "time"

// CleanupConfig controls data retention and cleanup behavior.
type CleanupConfig struct {
	// Enabled turns the periodic cleanup loop on or off.
	Enabled bool

	// RetentionDays is how many days to keep terminal sessions and their
	// events before deletion.
	RetentionDays int `yaml:"retention_days"`

	// IntervalHours is how often the cleanup loop runs.
	IntervalHours int `yaml:"interval_hours"`
}

// DefaultCleanupConfig returns the built-in retention defaults.
func DefaultCleanupConfig() *CleanupConfig {
	return &CleanupConfig{
		Enabled:       true,
		RetentionDays: 30,
		IntervalHours: 6,
	}
}

// Interval returns the cleanup loop period as a duration.
func (c *CleanupConfig) Interval() time.Duration {
	return time.Duration(c.IntervalHours) * time.Hour
}

// RetentionAge returns the retention window as a duration.
func (c *CleanupConfig) RetentionAge() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}
