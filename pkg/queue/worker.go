package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/codeready-toolchain/remedy/pkg/config"
	"github.com/codeready-toolchain/remedy/pkg/database"
	"github.com/codeready-toolchain/remedy/pkg/metrics"
	"github.com/codeready-toolchain/remedy/pkg/models"
	remedyslack "github.com/codeready-toolchain/remedy/pkg/slack"
)

// WorkerStatus represents the current state of a worker.
type WorkerStatus string

// Worker status constants.
const (
	WorkerStatusIdle    WorkerStatus = "idle"
	WorkerStatusWorking WorkerStatus = "working"
)

// eventCleanupGrace is how long final events stay readable after a session
// reaches a terminal status.
const eventCleanupGrace = 60 * time.Second

// Worker is a single queue worker that polls for and processes sessions.
type Worker struct {
	id              string
	podID           string
	store           *database.SessionStore
	events          *database.EventStore
	config          *config.QueueConfig
	sessionExecutor SessionExecutor
	publisher       RunPublisher
	slackService    *remedyslack.Service
	metrics         *metrics.Metrics
	pool            SessionRegistry
	stopCh          chan struct{}
	stopOnce        sync.Once
	wg              sync.WaitGroup

	// Health tracking
	mu                sync.RWMutex
	status            WorkerStatus
	currentSessionID  string
	sessionsProcessed int
	lastActivity      time.Time
}

// SessionRegistry is the subset of WorkerPool used by Worker for session registration.
type SessionRegistry interface {
	RegisterSession(sessionID string, cancel context.CancelFunc)
	UnregisterSession(sessionID string)
}

// NewWorker creates a new queue worker. The optional collaborators arrive
// through opts: a nil Events disables event cleanup, a nil Publisher disables
// streaming, a nil SlackService disables notifications, and a nil Metrics
// disables recording.
func NewWorker(id, podID string, store *database.SessionStore, cfg *config.QueueConfig, executor SessionExecutor, pool SessionRegistry, opts PoolOptions) *Worker {
	return &Worker{
		id:              id,
		podID:           podID,
		store:           store,
		events:          opts.Events,
		config:          cfg,
		sessionExecutor: executor,
		publisher:       opts.Publisher,
		slackService:    opts.SlackService,
		metrics:         opts.Metrics,
		pool:            pool,
		stopCh:          make(chan struct{}),
		status:          WorkerStatusIdle,
		lastActivity:    time.Now(),
	}
}

// Start begins the worker polling loop in a goroutine.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop signals the worker to stop and waits for it to finish.
// It is safe to call Stop multiple times.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
}

// Health returns the current worker health status.
func (w *Worker) Health() WorkerHealth {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return WorkerHealth{
		ID:                w.id,
		Status:            string(w.status),
		CurrentSessionID:  w.currentSessionID,
		SessionsProcessed: w.sessionsProcessed,
		LastActivity:      w.lastActivity,
	}
}

// run is the main worker loop.
func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	log := slog.With("worker_id", w.id, "pod_id", w.podID)
	log.Info("Worker started")

	for {
		select {
		case <-w.stopCh:
			log.Info("Worker shutting down")
			return
		case <-ctx.Done():
			log.Info("Context cancelled, worker shutting down")
			return
		default:
			if err := w.pollAndProcess(ctx); err != nil {
				if errors.Is(err, ErrNoSessionsAvailable) || errors.Is(err, ErrAtCapacity) {
					w.sleep(w.pollInterval())
					continue
				}
				log.Error("Error processing session", "error", err)
				w.sleep(time.Second) // Brief backoff on error
			}
		}
	}
}

// sleep waits for the given duration or until stop is signalled.
func (w *Worker) sleep(d time.Duration) {
	select {
	case <-w.stopCh:
	case <-time.After(d):
	}
}

// pollAndProcess checks capacity, claims a session, and processes it.
func (w *Worker) pollAndProcess(ctx context.Context) error {
	// 1. Check global capacity (best-effort; racy with concurrent workers but
	//    bounded by WorkerCount and mitigated by poll jitter).
	activeCount, err := w.store.CountByStatus(ctx, models.SessionStatusInProgress)
	if err != nil {
		return fmt.Errorf("checking active sessions: %w", err)
	}
	if activeCount >= w.config.MaxConcurrentSessions {
		return ErrAtCapacity
	}

	// 2. Claim the next pending session, FIFO.
	session, err := w.store.ClaimNext(ctx, w.podID, w.id)
	if err != nil {
		if errors.Is(err, database.ErrNoPendingSessions) {
			return ErrNoSessionsAvailable
		}
		return fmt.Errorf("claiming session: %w", err)
	}

	log := slog.With("session_id", session.ID, "worker_id", w.id)
	log.Info("Session claimed",
		"alert", session.AlertName,
		"namespace", session.Namespace,
		"retry_count", session.RetryCount)

	// Publish session status "in_progress" to both session and global channels.
	w.publishSessionStatus(ctx, session.ID, models.SessionStatusInProgress)

	w.setStatus(WorkerStatusWorking, session.ID)
	defer w.setStatus(WorkerStatusIdle, "")

	// 3. Create session context with timeout.
	sessionCtx, cancelSession := context.WithTimeout(ctx, w.config.SessionTimeout())
	defer cancelSession()

	// 4. Register cancel function for API-triggered cancellation.
	w.pool.RegisterSession(session.ID, cancelSession)
	defer w.pool.UnregisterSession(session.ID)

	// 5. Start heartbeat.
	heartbeatCtx, cancelHeartbeat := context.WithCancel(sessionCtx)
	defer cancelHeartbeat()
	go w.runHeartbeat(heartbeatCtx, session.ID)

	// 6. Execute the session.
	result := w.sessionExecutor.Execute(sessionCtx, session)
	result = w.normalizeResult(sessionCtx, result)

	// 7. Stop heartbeat before the terminal write.
	cancelHeartbeat()

	// 8. Update terminal status (use background context; the session context
	// may already be cancelled and the write must not be lost).
	var errMsg string
	if result.Error != nil {
		errMsg = result.Error.Error()
	}
	if err := w.store.MarkStatus(context.Background(), session.ID, result.Status, errMsg); err != nil {
		log.Error("Failed to update session terminal status", "error", err)
		return err
	}

	// 9. Publish terminal session status event.
	w.publishSessionStatus(context.Background(), session.ID, result.Status)
	w.metrics.SessionFinished(result.Status)

	// 10. Send the Slack outcome notification.
	w.notifySlack(context.Background(), session, result)

	// 11. Cleanup transient events after a grace period to allow clients
	// to receive final events before they are deleted.
	w.scheduleEventCleanup(session.ID)

	w.mu.Lock()
	w.sessionsProcessed++
	w.mu.Unlock()

	log.Info("Session processing complete", "status", string(result.Status))
	return nil
}

// normalizeResult guards against a nil executor result and maps an empty
// status to the session context outcome.
func (w *Worker) normalizeResult(sessionCtx context.Context, result *ExecutionResult) *ExecutionResult {
	if result == nil {
		result = &ExecutionResult{}
	}
	if result.Status != "" {
		return result
	}

	switch {
	case errors.Is(sessionCtx.Err(), context.DeadlineExceeded):
		result.Status = models.SessionStatusTimedOut
		if result.Error == nil {
			result.Error = fmt.Errorf("session timed out after %v", w.config.SessionTimeout())
		}
	case errors.Is(sessionCtx.Err(), context.Canceled):
		result.Status = models.SessionStatusCancelled
		if result.Error == nil {
			result.Error = context.Canceled
		}
	default:
		result.Status = models.SessionStatusFailed
		if result.Error == nil {
			result.Error = errors.New("executor returned no result")
		}
	}
	return result
}

// runHeartbeat periodically refreshes last_heartbeat_at for orphan detection.
func (w *Worker) runHeartbeat(ctx context.Context, sessionID string) {
	ticker := time.NewTicker(w.config.HeartbeatInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.store.Heartbeat(ctx, sessionID); err != nil {
				slog.Warn("Heartbeat update failed", "session_id", sessionID, "error", err)
			}
		}
	}
}

// publishSessionStatus publishes a session status event for real-time
// WebSocket delivery. Non-blocking: errors are logged.
func (w *Worker) publishSessionStatus(ctx context.Context, sessionID string, status models.SessionStatus) {
	if w.publisher == nil {
		return
	}
	if err := w.publisher.PublishSessionStatus(ctx, sessionID, status); err != nil {
		slog.Warn("Failed to publish session status",
			"session_id", sessionID, "status", string(status), "error", err)
	}
}

// notifySlack sends the session outcome notification. A nil Slack service
// makes this a no-op.
func (w *Worker) notifySlack(ctx context.Context, session *models.Session, result *ExecutionResult) {
	var summary string
	if result.Report != nil {
		summary = result.Report.Summary
	}
	var errMsg string
	if result.Error != nil {
		errMsg = result.Error.Error()
	}
	w.slackService.NotifySessionCompleted(ctx, remedyslack.SessionCompletedInput{
		SessionID:    session.ID,
		AlertName:    session.AlertName,
		Namespace:    session.Namespace,
		Status:       string(result.Status),
		Summary:      summary,
		ErrorMessage: errMsg,
	})
}

// scheduleEventCleanup schedules deletion of the session's transient events
// after the grace period, allowing WebSocket clients to receive final events.
func (w *Worker) scheduleEventCleanup(sessionID string) {
	if w.events == nil {
		return
	}
	time.AfterFunc(eventCleanupGrace, func() {
		if _, err := w.events.DeleteSessionEvents(context.Background(), sessionID); err != nil {
			slog.Warn("Failed to cleanup session events after grace period",
				"session_id", sessionID, "error", err)
		}
	})
}

// pollInterval returns the poll duration with jitter.
func (w *Worker) pollInterval() time.Duration {
	base := w.config.PollInterval()
	jitter := w.config.PollJitter()
	if jitter <= 0 {
		return base
	}
	// Range: [base - jitter, base + jitter]
	offset := time.Duration(rand.Int64N(int64(2 * jitter)))
	return base - jitter + offset
}

// setStatus updates the worker's health tracking state and the active-worker
// gauge. Callers alternate working/idle strictly, one pair per session.
func (w *Worker) setStatus(status WorkerStatus, sessionID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = status
	w.currentSessionID = sessionID
	w.lastActivity = time.Now()

	if status == WorkerStatusWorking {
		w.metrics.WorkerBusy()
	} else {
		w.metrics.WorkerIdle()
	}
}
