package models

import "time"

// SessionStatus is the queue-level lifecycle of a remediation session.
type SessionStatus string

const (
	SessionStatusPending    SessionStatus = "pending"
	SessionStatusInProgress SessionStatus = "in_progress"
	SessionStatusCompleted  SessionStatus = "completed"
	SessionStatusFailed     SessionStatus = "failed"
	SessionStatusCancelled  SessionStatus = "cancelled"
	SessionStatusTimedOut   SessionStatus = "timed_out"
)

// Terminal reports whether the status is final. Terminal sessions are never
// claimed again and become eligible for retention cleanup.
func (s SessionStatus) Terminal() bool {
	switch s {
	case SessionStatusCompleted, SessionStatusFailed, SessionStatusCancelled, SessionStatusTimedOut:
		return true
	}
	return false
}

// ValidSessionStatus reports whether s names a known session status.
func ValidSessionStatus(s string) bool {
	switch SessionStatus(s) {
	case SessionStatusPending, SessionStatusInProgress, SessionStatusCompleted,
		SessionStatusFailed, SessionStatusCancelled, SessionStatusTimedOut:
		return true
	}
	return false
}

// Session is one queued remediation of one alert: the inbound alert context,
// queue bookkeeping, and the progressively written run output.
type Session struct {
	ID             string        `json:"session_id"`
	AlertName      string        `json:"alert_name"`
	Namespace      string        `json:"namespace"`
	Diagnostics    string        `json:"diagnostics,omitempty"`
	Recommendation string        `json:"recommendation,omitempty"`
	RunbookURL     string        `json:"runbook_url,omitempty"`
	Author         string        `json:"author,omitempty"`
	Status         SessionStatus `json:"status"`

	// Queue bookkeeping
	PodID           *string    `json:"pod_id,omitempty"`
	WorkerID        *string    `json:"worker_id,omitempty"`
	RetryCount      int        `json:"retry_count"`
	CreatedAt       time.Time  `json:"created_at"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	LastHeartbeatAt *time.Time `json:"last_heartbeat_at,omitempty"`
	DeletedAt       *time.Time `json:"-"`

	// Run output, written progressively by the executor
	Phase            string           `json:"phase,omitempty"`
	Plan             *RemediationPlan `json:"remediation_plan,omitempty"`
	ExecutionResults []CommandResult  `json:"execution_results,omitempty"`
	ExecutionSuccess *bool            `json:"execution_success,omitempty"`
	AlertStatus      string           `json:"alert_status,omitempty"`
	Report           *Report          `json:"report,omitempty"`
	ErrorMessage     *string          `json:"error_message,omitempty"`
}

// AlertContext extracts the immutable alert fields a workflow run starts from.
func (s *Session) AlertContext() AlertContext {
	return AlertContext{
		AlertName:      s.AlertName,
		Namespace:      s.Namespace,
		Diagnostics:    s.Diagnostics,
		Recommendation: s.Recommendation,
		RunbookURL:     s.RunbookURL,
	}
}

// SessionFilters contains filtering options for listing sessions.
type SessionFilters struct {
	Status         string `json:"status,omitempty"`
	AlertName      string `json:"alert_name,omitempty"`
	Namespace      string `json:"namespace,omitempty"`
	Limit          int    `json:"limit,omitempty"`
	Offset         int    `json:"offset,omitempty"`
	IncludeDeleted bool   `json:"include_deleted,omitempty"`
}

// SessionList contains one page of sessions plus the unpaginated total.
type SessionList struct {
	Sessions   []*Session `json:"sessions"`
	TotalCount int        `json:"total_count"`
	Limit      int        `json:"limit"`
	Offset     int        `json:"offset"`
}
