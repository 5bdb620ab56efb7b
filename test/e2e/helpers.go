package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/remedy/pkg/api"
	"github.com/codeready-toolchain/remedy/pkg/models"
)

// SubmitAlert posts an alert and returns the queued session ID.
func (a *TestApp) SubmitAlert(t *testing.T, req api.SubmitAlertRequest) string {
	t.Helper()

	body, err := json.Marshal(req)
	require.NoError(t, err)

	resp, err := http.Post(a.BaseURL+"/api/v1/alerts", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var alertResp api.AlertResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&alertResp))
	require.NotEmpty(t, alertResp.SessionID)
	require.Equal(t, "queued", alertResp.Status)
	return alertResp.SessionID
}

// GetSession fetches the full session through the HTTP API.
func (a *TestApp) GetSession(t *testing.T, sessionID string) *models.Session {
	t.Helper()

	resp, err := http.Get(a.BaseURL + "/api/v1/sessions/" + sessionID)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var session models.Session
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&session))
	return &session
}

// listSessions fetches one page of sessions, with an optional raw query
// string such as "status=completed".
func (a *TestApp) listSessions(t *testing.T, query string) *models.SessionList {
	t.Helper()

	url := a.BaseURL + "/api/v1/sessions"
	if query != "" {
		url += "?" + query
	}
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list models.SessionList
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	return &list
}

// CancelSession requests cancellation through the HTTP API and returns the
// response status code.
func (a *TestApp) CancelSession(t *testing.T, sessionID string) int {
	t.Helper()

	resp, err := http.Post(a.BaseURL+"/api/v1/sessions/"+sessionID+"/cancel", "application/json", nil)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode
}

// AwaitSessionStatus polls until the session reaches the wanted status,
// failing the test when it lands on a different terminal status or the
// timeout elapses.
func (a *TestApp) AwaitSessionStatus(t *testing.T, sessionID string, want models.SessionStatus, timeout time.Duration) *models.Session {
	t.Helper()

	deadline := time.Now().Add(timeout)
	var last *models.Session
	for time.Now().Before(deadline) {
		last = a.GetSession(t, sessionID)
		if last.Status == want {
			return last
		}
		if last.Status.Terminal() {
			t.Fatalf("session %s reached terminal status %q, wanted %q", sessionID, last.Status, want)
		}
		time.Sleep(100 * time.Millisecond)
	}
	status := models.SessionStatus("<never fetched>")
	if last != nil {
		status = last.Status
	}
	t.Fatalf("session %s did not reach %q within %v (last status %q)", sessionID, want, timeout, status)
	return nil
}

// awaitCondition polls cond until it returns true or the timeout elapses.
func awaitCondition(t *testing.T, timeout, interval time.Duration, msg string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(interval)
	}
	t.Fatalf("condition not met within %v: %s", timeout, msg)
}

// oomAlert is the canonical test alert: a deployment over its memory limit
// with a recommendation carrying one mutating command.
func oomAlert(namespace string) api.SubmitAlertRequest {
	return api.SubmitAlertRequest{
		AlertName:   "HighMemoryUsage",
		Namespace:   namespace,
		Diagnostics: "Pod payments-5d8f7c9b4-x2vq8 is using 95% of its memory limit",
		Recommendation: fmt.Sprintf(
			"Raise the memory limit:\noc set resources deployment payments -n %s --limits=memory=1Gi",
			namespace),
	}
}
