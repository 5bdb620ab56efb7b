package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionChannel(t *testing.T) {
	tests := []struct {
		name      string
		sessionID string
		want      string
	}{
		{
			name:      "formats session channel correctly",
			sessionID: "abc-123",
			want:      "session:abc-123",
		},
		{
			name:      "handles UUID format",
			sessionID: "550e8400-e29b-41d4-a716-446655440000",
			want:      "session:550e8400-e29b-41d4-a716-446655440000",
		},
		{
			name:      "handles empty string",
			sessionID: "",
			want:      "session:",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SessionChannel(tt.sessionID)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEventTypeConstants(t *testing.T) {
	// Verify event types are non-empty and distinct
	types := []string{
		EventTypeSessionStatus,
		EventTypePhaseStatus,
		EventTypeCommandResult,
		EventTypeReportCreated,
	}

	seen := make(map[string]bool)
	for _, typ := range types {
		assert.NotEmpty(t, typ, "event type should not be empty")
		assert.False(t, seen[typ], "duplicate event type: %s", typ)
		seen[typ] = true
	}
}

func TestGlobalSessionsChannel(t *testing.T) {
	assert.Equal(t, "sessions", GlobalSessionsChannel)
}

func TestClientMessage_Unmarshal(t *testing.T) {
	t.Run("catchup with last_event_id", func(t *testing.T) {
		var msg ClientMessage
		require.NoError(t, json.Unmarshal(
			[]byte(`{"action":"catchup","channel":"session:abc","last_event_id":17}`), &msg))

		assert.Equal(t, "catchup", msg.Action)
		assert.Equal(t, "session:abc", msg.Channel)
		require.NotNil(t, msg.LastEventID)
		assert.Equal(t, int64(17), *msg.LastEventID)
	})

	t.Run("subscribe without last_event_id", func(t *testing.T) {
		var msg ClientMessage
		require.NoError(t, json.Unmarshal(
			[]byte(`{"action":"subscribe","channel":"sessions"}`), &msg))

		assert.Equal(t, "subscribe", msg.Action)
		assert.Equal(t, "sessions", msg.Channel)
		assert.Nil(t, msg.LastEventID)
	})
}
