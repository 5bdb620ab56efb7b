package events

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/codeready-toolchain/remedy/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateIfNeeded(t *testing.T) {
	t.Run("passes through normal payload", func(t *testing.T) {
		payload, _ := json.Marshal(PhaseStatusPayload{
			BasePayload: BasePayload{
				Type:      EventTypePhaseStatus,
				SessionID: "abc-123",
			},
			Phase: "planned",
		})

		result, err := truncateIfNeeded(string(payload))
		require.NoError(t, err)
		assert.Contains(t, result, EventTypePhaseStatus)
		assert.Contains(t, result, "abc-123")
	})

	t.Run("truncates oversized payload", func(t *testing.T) {
		payload, _ := json.Marshal(CommandResultPayload{
			BasePayload: BasePayload{
				Type:      EventTypeCommandResult,
				SessionID: "abc-123",
			},
			Command: "oc logs deployment/payments -n payments",
			Status:  models.CommandFailed,
			Error: &models.ToolError{
				Kind:      models.ErrorKindUnknown,
				Message:   "command failed",
				RawOutput: strings.Repeat("a", 8000),
			},
		})

		result, err := truncateIfNeeded(string(payload))
		require.NoError(t, err)
		assert.Contains(t, result, "truncated")
		assert.Less(t, len(result), 8000)
	})

	t.Run("does not truncate small payload", func(t *testing.T) {
		payload, _ := json.Marshal(SessionStatusPayload{
			BasePayload: BasePayload{
				Type: EventTypeSessionStatus,
			},
			Status: models.SessionStatusPending,
		})

		result, err := truncateIfNeeded(string(payload))
		require.NoError(t, err)
		assert.NotContains(t, result, "truncated")
	})

	t.Run("truncated payload preserves routing fields", func(t *testing.T) {
		payload, _ := json.Marshal(ReportCreatedPayload{
			BasePayload: BasePayload{
				Type:      EventTypeReportCreated,
				SessionID: "sess-789",
			},
			Report: &models.Report{
				Summary:   strings.Repeat("x", 8000),
				RootCause: "OOMKilled",
			},
		})

		result, err := truncateIfNeeded(string(payload))
		require.NoError(t, err)

		assert.Contains(t, result, EventTypeReportCreated)
		assert.Contains(t, result, "sess-789")
		assert.Contains(t, result, `"truncated":true`)
		assert.NotContains(t, result, "xxxx")
	})

	t.Run("boundary: payload just under limit is not truncated", func(t *testing.T) {
		// Build a payload whose JSON is just under 7900 bytes. Marshal an
		// empty struct first to measure the fixed-field overhead (keys,
		// quotes, separators); the 20-byte margin keeps the test from
		// flipping if fields with non-zero defaults are added later.
		base, _ := json.Marshal(PhaseStatusPayload{
			BasePayload: BasePayload{Type: "t"},
		})
		contentSize := 7900 - len(base) - 20
		payload, _ := json.Marshal(PhaseStatusPayload{
			BasePayload: BasePayload{Type: "t"},
			Phase:       strings.Repeat("b", contentSize),
		})
		require.LessOrEqual(t, len(payload), 7900, "test payload should be under limit")

		result, err := truncateIfNeeded(string(payload))
		require.NoError(t, err)
		assert.NotContains(t, result, "truncated")
	})

	t.Run("empty JSON object", func(t *testing.T) {
		result, err := truncateIfNeeded("{}")
		require.NoError(t, err)
		assert.Equal(t, "{}", result)
	})
}

func TestInjectDBEventIDAndTruncate(t *testing.T) {
	t.Run("injects db_event_id into normal payload", func(t *testing.T) {
		payload, _ := json.Marshal(CommandResultPayload{
			BasePayload: BasePayload{
				Type:      EventTypeCommandResult,
				SessionID: "sess-1",
			},
			Command: "oc rollout restart deployment payments -n payments",
			Status:  models.CommandSuccess,
		})

		result, err := injectDBEventIDAndTruncate(payload, 42)
		require.NoError(t, err)
		assert.Contains(t, result, `"db_event_id":42`)
		assert.Contains(t, result, "rollout restart")
	})

	t.Run("truncated payload preserves db_event_id", func(t *testing.T) {
		payload, _ := json.Marshal(ReportCreatedPayload{
			BasePayload: BasePayload{
				Type:      EventTypeReportCreated,
				SessionID: "sess-789",
			},
			Report: &models.Report{
				Summary: strings.Repeat("x", 8000),
			},
		})

		result, err := injectDBEventIDAndTruncate(payload, 42)
		require.NoError(t, err)
		assert.Contains(t, result, `"truncated":true`)
		assert.Contains(t, result, `"db_event_id":42`)
		assert.Contains(t, result, "sess-789")
	})

	t.Run("tolerates payload without session_id", func(t *testing.T) {
		raw := `{"type":"phase.status","phase":"` + strings.Repeat("x", 8000) + `"}`

		result, err := injectDBEventIDAndTruncate([]byte(raw), 99)
		require.NoError(t, err)
		assert.Contains(t, result, `"truncated":true`)
		assert.Contains(t, result, `"db_event_id":99`)
	})
}

func TestNewEventPublisher(t *testing.T) {
	publisher := NewEventPublisher(nil)
	assert.NotNil(t, publisher)
	assert.Nil(t, publisher.db)
}

func TestSessionStatusPayload_JSON(t *testing.T) {
	payload := SessionStatusPayload{
		BasePayload: BasePayload{
			Type:      EventTypeSessionStatus,
			SessionID: "sess-123",
			Timestamp: "2026-02-10T12:00:00Z",
		},
		Status: models.SessionStatusInProgress,
	}

	data, err := json.Marshal(payload)
	require.NoError(t, err)

	var decoded SessionStatusPayload
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, EventTypeSessionStatus, decoded.Type)
	assert.Equal(t, "sess-123", decoded.SessionID)
	assert.Equal(t, models.SessionStatusInProgress, decoded.Status)
	assert.Equal(t, "2026-02-10T12:00:00Z", decoded.Timestamp)
}

func TestPhaseStatusPayload_JSON(t *testing.T) {
	payload := PhaseStatusPayload{
		BasePayload: BasePayload{
			Type:      EventTypePhaseStatus,
			SessionID: "sess-100",
			Timestamp: "2026-02-13T10:00:00Z",
		},
		Phase: "executed",
	}

	data, err := json.Marshal(payload)
	require.NoError(t, err)

	var decoded PhaseStatusPayload
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, EventTypePhaseStatus, decoded.Type)
	assert.Equal(t, "sess-100", decoded.SessionID)
	assert.Equal(t, "executed", decoded.Phase)
}

func TestCommandResultPayload_JSON(t *testing.T) {
	payload := CommandResultPayload{
		BasePayload: BasePayload{
			Type:      EventTypeCommandResult,
			SessionID: "sess-200",
			Timestamp: "2026-02-13T10:00:00Z",
		},
		Command: "oc scale deployment payments --replicas=3 -n payments",
		Status:  models.CommandFailed,
		Error: &models.ToolError{
			Kind:        models.ErrorKindPermission,
			Message:     "deployments.apps is forbidden",
			Recoverable: false,
			Suggestion:  "Check RBAC permissions for the service account.",
			ToolName:    "oc",
			Namespace:   "payments",
		},
	}

	data, err := json.Marshal(payload)
	require.NoError(t, err)

	var decoded CommandResultPayload
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, EventTypeCommandResult, decoded.Type)
	assert.Equal(t, "sess-200", decoded.SessionID)
	assert.Equal(t, "oc scale deployment payments --replicas=3 -n payments", decoded.Command)
	assert.Equal(t, models.CommandFailed, decoded.Status)
	require.NotNil(t, decoded.Error)
	assert.Equal(t, models.ErrorKindPermission, decoded.Error.Kind)
	assert.Equal(t, "payments", decoded.Error.Namespace)
}

func TestCommandResultPayload_OmitsNilError(t *testing.T) {
	// Successful commands carry no error object at all.
	payload := CommandResultPayload{
		BasePayload: BasePayload{
			Type:      EventTypeCommandResult,
			SessionID: "sess-201",
			Timestamp: "2026-02-13T10:00:00Z",
		},
		Command: "oc rollout restart deployment payments -n payments",
		Status:  models.CommandSuccess,
	}

	data, err := json.Marshal(payload)
	require.NoError(t, err)

	assert.NotContains(t, string(data), `"error"`)
}

func TestReportCreatedPayload_JSON(t *testing.T) {
	payload := ReportCreatedPayload{
		BasePayload: BasePayload{
			Type:      EventTypeReportCreated,
			SessionID: "sess-300",
			Timestamp: "2026-02-13T10:00:00Z",
		},
		Report: &models.Report{
			Summary:   "Restarted the payments deployment to clear a crash loop.",
			RootCause: "OOMKilled due to a memory leak in v2.3.1",
			Resolved:  true,
		},
	}

	data, err := json.Marshal(payload)
	require.NoError(t, err)

	var decoded ReportCreatedPayload
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, EventTypeReportCreated, decoded.Type)
	assert.Equal(t, "sess-300", decoded.SessionID)
	require.NotNil(t, decoded.Report)
	assert.Equal(t, "OOMKilled due to a memory leak in v2.3.1", decoded.Report.RootCause)
	assert.True(t, decoded.Report.Resolved)
}
