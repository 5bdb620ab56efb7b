package config

import "time"

// QueueConfig contains queue and worker pool configuration.
// These values control how sessions are polled, claimed, and processed.
// Interval fields are whole units in YAML; use the accessors for durations.
type QueueConfig struct {
	// WorkerCount is the number of worker goroutines per replica/pod.
	// Each worker independently polls and processes sessions.
	WorkerCount int `yaml:"worker_count"`

	// MaxConcurrentSessions is the global limit of concurrent sessions being
	// processed across ALL replicas/pods. Enforced by database COUNT(*) check.
	MaxConcurrentSessions int `yaml:"max_concurrent_sessions"`

	// PollIntervalSeconds is the base interval for checking pending sessions.
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`

	// PollJitterMillis is the random jitter added to the poll interval so
	// replicas do not stampede the sessions table in lockstep.
	PollJitterMillis int `yaml:"poll_jitter_ms"`

	// HeartbeatIntervalSeconds is how often an in-flight run refreshes its
	// session heartbeat.
	HeartbeatIntervalSeconds int `yaml:"heartbeat_interval_seconds"`

	// OrphanScanIntervalSeconds is how often to scan for orphaned sessions.
	OrphanScanIntervalSeconds int `yaml:"orphan_scan_interval_seconds"`

	// OrphanThresholdSeconds is how long a session can go without a
	// heartbeat before it is considered orphaned.
	OrphanThresholdSeconds int `yaml:"orphan_threshold_seconds"`

	// SessionTimeoutMinutes is the maximum wall-clock time one session run
	// may take; it also bounds the graceful shutdown drain.
	SessionTimeoutMinutes int `yaml:"session_timeout_minutes"`

	// MaxRequeues is how many times an orphaned session is requeued before
	// being marked failed.
	MaxRequeues int `yaml:"max_requeues"`
}

// DefaultQueueConfig returns the built-in queue defaults.
func DefaultQueueConfig() *QueueConfig {
	return &QueueConfig{
		WorkerCount:               5,
		MaxConcurrentSessions:     10,
		PollIntervalSeconds:       2,
		PollJitterMillis:          500,
		HeartbeatIntervalSeconds:  30,
		OrphanScanIntervalSeconds: 60,
		OrphanThresholdSeconds:    120,
		SessionTimeoutMinutes:     30,
		MaxRequeues:               3,
	}
}

func (q *QueueConfig) PollInterval() time.Duration {
	return time.Duration(q.PollIntervalSeconds) * time.Second
}

func (q *QueueConfig) PollJitter() time.Duration {
	return time.Duration(q.PollJitterMillis) * time.Millisecond
}

func (q *QueueConfig) HeartbeatInterval() time.Duration {
	return time.Duration(q.HeartbeatIntervalSeconds) * time.Second
}

func (q *QueueConfig) OrphanScanInterval() time.Duration {
	return time.Duration(q.OrphanScanIntervalSeconds) * time.Second
}

func (q *QueueConfig) OrphanThreshold() time.Duration {
	return time.Duration(q.OrphanThresholdSeconds) * time.Second
}

func (q *QueueConfig) SessionTimeout() time.Duration {
	return time.Duration(q.SessionTimeoutMinutes) * time.Minute
}
