// Package e2e boots a complete remedy instance — real Postgres, real event
// streaming, real worker pool — with only the cluster boundary stubbed: every
// oc invocation goes to a scripted runner instead of a child process.
package e2e

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/remedy/pkg/agents"
	"github.com/codeready-toolchain/remedy/pkg/api"
	"github.com/codeready-toolchain/remedy/pkg/config"
	"github.com/codeready-toolchain/remedy/pkg/database"
	"github.com/codeready-toolchain/remedy/pkg/events"
	"github.com/codeready-toolchain/remedy/pkg/masking"
	"github.com/codeready-toolchain/remedy/pkg/oc"
	"github.com/codeready-toolchain/remedy/pkg/queue"
	"github.com/codeready-toolchain/remedy/pkg/services"
	remedyslack "github.com/codeready-toolchain/remedy/pkg/slack"
	"github.com/codeready-toolchain/remedy/pkg/workflow"
	testdb "github.com/codeready-toolchain/remedy/test/database"
)

// TestApp is a full remedy instance under test.
type TestApp struct {
	Config   *config.Config
	DBClient *database.Client
	Sessions *database.SessionStore
	Events   *database.EventStore

	// Runner is the scripted cluster boundary. Tests script command
	// responses here; nil responses succeed with empty output.
	Runner oc.Runner

	EventPublisher *events.EventPublisher
	ConnManager    *events.ConnectionManager
	WorkerPool     *queue.WorkerPool

	BaseURL string
	WSURL   string

	t *testing.T
}

type testAppConfig struct {
	runner       oc.Runner
	workerCount  int
	maxRetries   int
	slackService *remedyslack.Service
}

// TestAppOption configures the test app.
type TestAppOption func(*testAppConfig)

// WithRunner replaces the default always-succeeding stub runner.
func WithRunner(r oc.Runner) TestAppOption {
	return func(c *testAppConfig) { c.runner = r }
}

// WithWorkerCount sets the number of worker pool goroutines.
func WithWorkerCount(n int) TestAppOption {
	return func(c *testAppConfig) { c.workerCount = n }
}

// WithMaxRetries sets the whole-run retry budget.
func WithMaxRetries(n int) TestAppOption {
	return func(c *testAppConfig) { c.maxRetries = n }
}

// WithSlackService injects a Slack notification service backed by a mock API
// server.
func WithSlackService(svc *remedyslack.Service) TestAppOption {
	return func(c *testAppConfig) { c.slackService = svc }
}

// NewTestApp creates and starts a full remedy test instance.
// Shutdown is registered via t.Cleanup automatically.
func NewTestApp(t *testing.T, opts ...TestAppOption) *TestApp {
	t.Helper()

	tc := &testAppConfig{workerCount: 1, maxRetries: 1}
	for _, opt := range opts {
		opt(tc)
	}
	if tc.runner == nil {
		tc.runner = oc.NewStubRunner()
	}

	cfg := config.Default()
	cfg.Queue.WorkerCount = tc.workerCount
	cfg.Queue.MaxConcurrentSessions = tc.workerCount
	cfg.Queue.PollIntervalSeconds = 1
	cfg.Queue.PollJitterMillis = 50
	cfg.Queue.OrphanScanIntervalSeconds = 3600
	cfg.Workflow.MaxRetries = tc.maxRetries
	// Verification must not sleep in tests.
	cfg.Alertmanager.SettleSeconds = 0

	ctx := context.Background()

	// 1. Database — a shared schema so the NOTIFY listener's dedicated
	// connection observes the same tables as the pooled clients.
	sdb := testdb.NewSharedTestDB(t)
	dbClient := sdb.NewClient(t)
	sessions := database.NewSessionStore(dbClient.DB())
	eventStore := database.NewEventStore(dbClient.DB())

	// 2. Event streaming — real publisher, LISTEN connection, WS manager.
	eventPublisher := events.NewEventPublisher(dbClient.DB())
	connManager := events.NewConnectionManager(events.NewStoreCatchupQuerier(eventStore), 5*time.Second)
	notifyListener := events.NewNotifyListener(sdb.ConnStringWithSchema(), connManager)
	require.NoError(t, notifyListener.Start(ctx))
	connManager.SetListener(notifyListener)

	// 3. Workflow collaborators against the scripted runner.
	executor := queue.NewWorkflowExecutor(queue.ExecutorDeps{
		Store:     sessions,
		Publisher: eventPublisher,
		Runner:    tc.runner,
		Investigator: agents.NewOCInvestigator(agents.InvestigatorOptions{
			EventsTail: cfg.Logs.EventsTail,
			LogsTail:   cfg.Logs.LogsTail,
		}),
		Verifier: agents.NewAmtoolVerifier(tc.runner, agents.VerifierOptions{
			Namespace: cfg.Alertmanager.Namespace,
			PodName:   cfg.Alertmanager.PodName,
			URL:       cfg.Alertmanager.URL,
		}),
		Reporter:   agents.NewSummaryReporter(),
		MaxTools:   cfg.Budget.MaxTools,
		MaxRetries: cfg.Workflow.MaxRetries,
		Timeouts: workflow.Timeouts{
			Investigation: 5 * time.Second,
			Execution:     5 * time.Second,
			Verification:  5 * time.Second,
			Lookup:        5 * time.Second,
		},
		Sanitize: masking.NewService(cfg.Masking).MaskCommandOutput,
	})

	// 4. Worker pool.
	podID := fmt.Sprintf("e2e-%s", t.Name())
	workerPool := queue.NewWorkerPool(podID, sessions, cfg.Queue, executor, queue.PoolOptions{
		Events:       eventStore,
		Publisher:    eventPublisher,
		SlackService: tc.slackService,
	})
	require.NoError(t, workerPool.Start(ctx))

	// 5. HTTP server.
	alertService := services.NewAlertService(sessions, eventPublisher, masking.NewService(cfg.Masking))
	sessionService := services.NewSessionService(sessions, workerPool, eventPublisher)
	server := api.NewServer(cfg, dbClient, alertService, sessionService, workerPool, connManager)

	httpSrv := httptest.NewServer(server.Handler())

	app := &TestApp{
		Config:         cfg,
		DBClient:       dbClient,
		Sessions:       sessions,
		Events:         eventStore,
		Runner:         tc.runner,
		EventPublisher: eventPublisher,
		ConnManager:    connManager,
		WorkerPool:     workerPool,
		BaseURL:        httpSrv.URL,
		WSURL:          "ws" + strings.TrimPrefix(httpSrv.URL, "http") + "/api/v1/ws",
		t:              t,
	}

	// Teardown in reverse-creation order; the DB schema drop is registered
	// by NewSharedTestDB and runs last.
	t.Cleanup(func() {
		httpSrv.Close()
		workerPool.Stop()
		notifyListener.Stop(context.Background())
	})

	return app
}

// StubRunner returns the app's runner as a *oc.StubRunner, failing the test
// if a custom runner was injected.
func (a *TestApp) StubRunner() *oc.StubRunner {
	a.t.Helper()
	stub, ok := a.Runner.(*oc.StubRunner)
	require.True(a.t, ok, "test app runner is not a StubRunner")
	return stub
}
