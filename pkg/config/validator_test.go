package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAll(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "negative max retries",
			mutate:  func(cfg *Config) { cfg.Workflow.MaxRetries = -1 },
			wantErr: "max_retries",
		},
		{
			name:    "zero tool budget",
			mutate:  func(cfg *Config) { cfg.Budget.MaxTools = 0 },
			wantErr: "max_tools",
		},
		{
			name:    "zero execution timeout",
			mutate:  func(cfg *Config) { cfg.Timeouts.ExecutionSeconds = 0 },
			wantErr: "execution_seconds",
		},
		{
			name:    "missing alertmanager pod",
			mutate:  func(cfg *Config) { cfg.Alertmanager.PodName = "" },
			wantErr: "pod_name",
		},
		{
			name:    "negative settle period",
			mutate:  func(cfg *Config) { cfg.Alertmanager.SettleSeconds = -1 },
			wantErr: "settle_seconds",
		},
		{
			name:    "zero events tail",
			mutate:  func(cfg *Config) { cfg.Logs.EventsTail = 0 },
			wantErr: "events_tail",
		},
		{
			name:    "zero workers",
			mutate:  func(cfg *Config) { cfg.Queue.WorkerCount = 0 },
			wantErr: "worker_count",
		},
		{
			name: "orphan threshold not beyond heartbeat",
			mutate: func(cfg *Config) {
				cfg.Queue.HeartbeatIntervalSeconds = 60
				cfg.Queue.OrphanThresholdSeconds = 60
			},
			wantErr: "orphan_threshold_seconds",
		},
		{
			name: "cleanup enabled without retention",
			mutate: func(cfg *Config) {
				cfg.Cleanup.Enabled = true
				cfg.Cleanup.RetentionDays = 0
			},
			wantErr: "retention_days",
		},
		{
			name: "cleanup disabled skips retention checks",
			mutate: func(cfg *Config) {
				cfg.Cleanup.Enabled = false
				cfg.Cleanup.RetentionDays = 0
			},
		},
		{
			name: "slack enabled without channel",
			mutate: func(cfg *Config) {
				cfg.Slack.Enabled = true
				cfg.Slack.Channel = ""
			},
			wantErr: "channel",
		},
		{
			name: "slack disabled skips channel check",
			mutate: func(cfg *Config) {
				cfg.Slack.Enabled = false
				cfg.Slack.Channel = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := NewValidator(cfg).ValidateAll()

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			var vErr *ValidationError
			assert.True(t, errors.As(err, &vErr), "validation failures must be ValidationError")
		})
	}
}
