package e2e

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/remedy/pkg/models"
	"github.com/codeready-toolchain/remedy/pkg/oc"
)

// blockingRunner parks the first command until its context is cancelled,
// holding the session in flight so the test can cancel it through the API.
type blockingRunner struct {
	started chan struct{}
	once    sync.Once
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{started: make(chan struct{})}
}

func (r *blockingRunner) Run(ctx context.Context, _ []string, _ time.Duration) (*oc.Result, error) {
	r.once.Do(func() { close(r.started) })
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestCancellation_PendingSession(t *testing.T) {
	// No workers: submitted sessions stay pending indefinitely.
	app := NewTestApp(t, WithWorkerCount(0))

	sessionID := app.SubmitAlert(t, oomAlert("prod-payments"))

	code := app.CancelSession(t, sessionID)
	require.Equal(t, http.StatusOK, code)

	session := app.GetSession(t, sessionID)
	assert.Equal(t, models.SessionStatusCancelled, session.Status)
	assert.Nil(t, session.Plan)
	assert.Empty(t, session.ExecutionResults)
}

func TestCancellation_InFlightSession(t *testing.T) {
	runner := newBlockingRunner()
	app := NewTestApp(t, WithRunner(runner))

	sessionID := app.SubmitAlert(t, oomAlert("prod-payments"))

	// Wait until a worker claimed the session and is blocked inside the
	// first investigation command.
	select {
	case <-runner.started:
	case <-time.After(15 * time.Second):
		t.Fatal("session was never picked up by a worker")
	}

	code := app.CancelSession(t, sessionID)
	require.Equal(t, http.StatusOK, code)

	session := app.AwaitSessionStatus(t, sessionID, models.SessionStatusCancelled, sessionWait)
	require.NotNil(t, session.CompletedAt)
	assert.Nil(t, session.Report)
}

func TestCancellation_CompletedSessionRejected(t *testing.T) {
	app := NewTestApp(t)

	sessionID := app.SubmitAlert(t, oomAlert("prod-payments"))
	app.AwaitSessionStatus(t, sessionID, models.SessionStatusCompleted, sessionWait)

	code := app.CancelSession(t, sessionID)
	assert.Equal(t, http.StatusConflict, code)
}

func TestCancellation_UnknownSession(t *testing.T) {
	app := NewTestApp(t, WithWorkerCount(0))

	code := app.CancelSession(t, "b2c3d4e5-0000-0000-0000-000000000000")
	assert.Equal(t, http.StatusNotFound, code)
}
