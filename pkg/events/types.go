// Package events delivers remediation run progress to dashboard clients in
// real time: WebSocket connections on each pod, PostgreSQL NOTIFY/LISTEN for
// cross-pod distribution, and the events table for catchup after reconnects.
//
// Every event the run emits is INSERTed into the events table and broadcast
// via pg_notify in one transaction, so a notification never fires for a row
// that was rolled back. The NOTIFY copy carries a db_event_id injected from
// the inserted row; clients track it and request the events they missed
// while disconnected. NOTIFY payloads near PostgreSQL's 8000-byte limit are
// replaced with a small truncation envelope that tells the client to fetch
// the full event from the database instead.
package events

// Persistent event types (stored in DB + NOTIFY).
const (
	// Session lifecycle: queued, claimed, terminal.
	EventTypeSessionStatus = "session.status"

	// State machine progress, one event per phase transition.
	EventTypePhaseStatus = "phase.status"

	// One event per executed remediation command.
	EventTypeCommandResult = "command.result"

	// The run produced its final report.
	EventTypeReportCreated = "report.created"
)

// GlobalSessionsChannel carries session.status events for every session. The
// session list page subscribes to it instead of one channel per session.
const GlobalSessionsChannel = "sessions"

// SessionChannel returns the channel name for a specific session's events.
// Format: "session:{session_id}"
func SessionChannel(sessionID string) string {
	return "session:" + sessionID
}

// ClientMessage is the JSON structure for client-to-server WebSocket messages.
type ClientMessage struct {
	Action      string `json:"action"`                  // "subscribe", "unsubscribe", "catchup", "ping"
	Channel     string `json:"channel,omitempty"`       // channel name (e.g., "session:abc-123")
	LastEventID *int64 `json:"last_event_id,omitempty"` // for catchup
}
