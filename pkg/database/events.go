package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/codeready-toolchain/remedy/pkg/models"
)

// EventStore is the SQL repository for persisted WebSocket events. Event
// writes happen in pkg/events (the INSERT shares a transaction with the
// NOTIFY); this store covers the read and cleanup side.
type EventStore struct {
	db *sql.DB
}

// NewEventStore creates an event repository on top of the shared pool.
func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

// EventsSince returns up to limit events on a channel with id > sinceID,
// oldest first. The WebSocket catchup path uses this after a reconnect.
func (s *EventStore) EventsSince(ctx context.Context, channel string, sinceID int64, limit int) ([]*models.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, channel, payload, created_at
		FROM events
		WHERE channel = $1 AND id > $2
		ORDER BY id
		LIMIT $3`,
		channel, sinceID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		var (
			evt     models.Event
			payload []byte
		)
		if err := rows.Scan(&evt.ID, &evt.SessionID, &evt.Channel, &payload, &evt.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if err := json.Unmarshal(payload, &evt.Payload); err != nil {
			return nil, fmt.Errorf("failed to decode event payload: %w", err)
		}
		events = append(events, &evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	return events, nil
}

// DeleteSessionEvents removes all events for one session. Called a grace
// period after the session reaches a terminal status, once connected clients
// have had a chance to receive the final events.
func (s *EventStore) DeleteSessionEvents(ctx context.Context, sessionID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE session_id = $1`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup session events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted events: %w", err)
	}
	return n, nil
}

// DeleteEventsBefore removes events older than cutoff regardless of session,
// catching events whose per-session cleanup was missed.
func (s *EventStore) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted events: %w", err)
	}
	return n, nil
}
