// Package queue provides session queue management and processing: workers
// that claim pending sessions from Postgres, the executor that drives a
// claimed session through a workflow run, and orphan recovery for sessions
// whose pod died mid-run.
package queue

import (
	"context"
	"errors"
	"time"

	"github.com/codeready-toolchain/remedy/pkg/models"
)

// Sentinel errors for queue operations.
var (
	// ErrNoSessionsAvailable indicates no pending sessions are in the queue.
	ErrNoSessionsAvailable = errors.New("no sessions available")

	// ErrAtCapacity indicates the global concurrent session limit has been reached.
	ErrAtCapacity = errors.New("at capacity")
)

// SessionExecutor is the interface for session processing.
//
// The executor owns the entire run internally: it drives the workflow state
// machine, persists run state progressively after each phase, and publishes
// live events as the run moves. The worker only handles claiming, heartbeat,
// the terminal status update, notifications, and event cleanup.
type SessionExecutor interface {
	Execute(ctx context.Context, session *models.Session) *ExecutionResult
}

// ExecutionResult is lightweight, just the terminal state. All intermediate
// state (phase, plan, command results, report) was already written to the
// database by the executor during processing.
type ExecutionResult struct {
	Status models.SessionStatus // completed, failed, timed_out, cancelled
	Report *models.Report       // final report, when the run produced one
	Error  error                // error details (if failed/timed_out)
}

// RunPublisher is the subset of the events publisher the queue needs to
// stream run progress. Implementations persist and NOTIFY; callers log
// errors and never fail the run on them. A nil publisher disables streaming.
type RunPublisher interface {
	PublishSessionStatus(ctx context.Context, sessionID string, status models.SessionStatus) error
	PublishPhaseStatus(ctx context.Context, sessionID string, phase string) error
	PublishCommandResult(ctx context.Context, sessionID string, result models.CommandResult) error
	PublishReportCreated(ctx context.Context, sessionID string, report *models.Report) error
}

// PoolHealth contains health information for the entire worker pool.
type PoolHealth struct {
	IsHealthy        bool           `json:"is_healthy"`
	DBReachable      bool           `json:"db_reachable"`
	DBError          string         `json:"db_error,omitempty"`
	PodID            string         `json:"pod_id"`
	ActiveWorkers    int            `json:"active_workers"`
	TotalWorkers     int            `json:"total_workers"`
	ActiveSessions   int            `json:"active_sessions"`
	MaxConcurrent    int            `json:"max_concurrent"`
	QueueDepth       int            `json:"queue_depth"`
	WorkerStats      []WorkerHealth `json:"worker_stats"`
	LastOrphanScan   time.Time      `json:"last_orphan_scan"`
	OrphansRecovered int            `json:"orphans_recovered"`
}

// WorkerHealth contains health information for a single worker.
type WorkerHealth struct {
	ID                string    `json:"id"`
	Status            string    `json:"status"` // "idle" or "working"
	CurrentSessionID  string    `json:"current_session_id,omitempty"`
	SessionsProcessed int       `json:"sessions_processed"`
	LastActivity      time.Time `json:"last_activity"`
}
