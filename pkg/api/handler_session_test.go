package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListSessionsHandler_Validation(t *testing.T) {
	// Only parameter validation is covered here; these paths return 400
	// before any service call. Happy paths run against a real database in
	// server_test.go.
	s := newValidationTestServer(t)

	tests := []struct {
		name   string
		query  string
		errMsg string
	}{
		{
			name:   "invalid status",
			query:  "status=bogus",
			errMsg: "invalid status: bogus",
		},
		{
			name:   "limit zero",
			query:  "limit=0",
			errMsg: "invalid limit",
		},
		{
			name:   "limit above cap",
			query:  "limit=101",
			errMsg: "invalid limit",
		},
		{
			name:   "limit not a number",
			query:  "limit=many",
			errMsg: "invalid limit",
		},
		{
			name:   "negative offset",
			query:  "offset=-1",
			errMsg: "invalid offset",
		},
		{
			name:   "offset not a number",
			query:  "offset=few",
			errMsg: "invalid offset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(s, http.MethodGet, "/api/v1/sessions?"+tt.query, nil)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, errorBody(t, rec), tt.errMsg)
		})
	}
}

func TestWSHandler_NoManager(t *testing.T) {
	s := newValidationTestServer(t)

	rec := doRequest(s, http.MethodGet, "/api/v1/ws", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, errorBody(t, rec), "WebSocket not available")
}
