package events

import (
	"time"

	"github.com/codeready-toolchain/remedy/pkg/models"
)

// BasePayload carries the fields every event payload shares. Type is the
// client-side discriminator. db_event_id is not part of the stored payload;
// it is injected into the NOTIFY copy and into catchup responses from the
// events table row id.
type BasePayload struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Timestamp string `json:"timestamp"` // RFC3339Nano
}

func newBasePayload(eventType, sessionID string) BasePayload {
	return BasePayload{
		Type:      eventType,
		SessionID: sessionID,
		Timestamp: time.Now().Format(time.RFC3339Nano),
	}
}

// SessionStatusPayload is the payload for session.status events.
// Published when a session transitions between queue lifecycle states.
type SessionStatusPayload struct {
	BasePayload
	Status models.SessionStatus `json:"status"` // pending, in_progress, completed, failed, cancelled, timed_out
}

// PhaseStatusPayload is the payload for phase.status events.
// Published once per workflow state machine transition.
type PhaseStatusPayload struct {
	BasePayload
	Phase string `json:"phase"` // start, alert_stored, planned, executed, ...
}

// CommandResultPayload is the payload for command.result events.
// Published after each remediation command finishes, success or not.
type CommandResultPayload struct {
	BasePayload
	Command string               `json:"command"`
	Status  models.CommandStatus `json:"status"`
	Error   *models.ToolError    `json:"error,omitempty"` // set only for failed commands
}

// ReportCreatedPayload is the payload for report.created events.
// Published when a run produces its final report.
type ReportCreatedPayload struct {
	BasePayload
	Report *models.Report `json:"report"`
}
