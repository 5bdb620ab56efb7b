package models

import "time"

// Event is one persisted real-time event row. Events are written by the
// publisher in the same transaction as the pg_notify broadcast, so the table
// is a complete replay log for WebSocket catchup.
type Event struct {
	ID        int64          `json:"id"`
	SessionID string         `json:"session_id"`
	Channel   string         `json:"channel"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}
