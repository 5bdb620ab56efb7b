package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/remedy/pkg/config"
)

// newValidationTestServer builds a server without services. Only request
// validation paths may be exercised: they return before any service call.
func newValidationTestServer(t *testing.T) *Server {
	t.Helper()
	return NewServer(config.Default(), nil, nil, nil, nil, nil)
}

func doRequest(s *Server, method, target string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestSubmitAlertHandler_Validation(t *testing.T) {
	s := newValidationTestServer(t)

	t.Run("malformed JSON", func(t *testing.T) {
		rec := doRequest(s, http.MethodPost, "/api/v1/alerts", strings.NewReader(`{"alert_name": `))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing alert_name", func(t *testing.T) {
		rec := doRequest(s, http.MethodPost, "/api/v1/alerts", strings.NewReader(`{"namespace":"prod"}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, errorBody(t, rec), "alert_name field is required")
	})

	t.Run("missing namespace", func(t *testing.T) {
		rec := doRequest(s, http.MethodPost, "/api/v1/alerts", strings.NewReader(`{"alert_name":"HighMemoryUsage"}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, errorBody(t, rec), "namespace field is required")
	})

	t.Run("oversized diagnostics", func(t *testing.T) {
		body := fmt.Sprintf(`{"alert_name":"HighMemoryUsage","namespace":"prod","diagnostics":%q}`,
			strings.Repeat("x", maxAlertFieldBytes+1))

		rec := doRequest(s, http.MethodPost, "/api/v1/alerts", strings.NewReader(body))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Contains(t, errorBody(t, rec), "exceeds maximum size")
	})

	t.Run("oversized recommendation", func(t *testing.T) {
		body := fmt.Sprintf(`{"alert_name":"HighMemoryUsage","namespace":"prod","recommendation":%q}`,
			strings.Repeat("x", maxAlertFieldBytes+1))

		rec := doRequest(s, http.MethodPost, "/api/v1/alerts", strings.NewReader(body))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}
