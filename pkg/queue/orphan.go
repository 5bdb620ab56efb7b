package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/codeready-toolchain/remedy/pkg/database"
	"github.com/codeready-toolchain/remedy/pkg/models"
)

// orphanState tracks orphan detection metrics (thread-safe).
type orphanState struct {
	mu               sync.Mutex
	lastOrphanScan   time.Time
	orphansRecovered int
}

// runOrphanDetection periodically scans for orphaned sessions.
// All pods run this independently; the per-session guards in the store make
// the recovery operations idempotent across concurrent scanners.
func (p *WorkerPool) runOrphanDetection(ctx context.Context) {
	ticker := time.NewTicker(p.config.OrphanScanInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			if err := p.detectAndRecoverOrphans(ctx); err != nil {
				slog.Error("Orphan detection failed", "error", err)
			}
		}
	}
}

// detectAndRecoverOrphans finds in_progress sessions with stale heartbeats
// and requeues them, or fails them once their requeue budget is spent.
func (p *WorkerPool) detectAndRecoverOrphans(ctx context.Context) error {
	staleBefore := time.Now().Add(-p.config.OrphanThreshold())

	orphans, err := p.store.FindOrphans(ctx, staleBefore)
	if err != nil {
		return fmt.Errorf("querying orphaned sessions: %w", err)
	}

	if len(orphans) == 0 {
		p.orphans.mu.Lock()
		p.orphans.lastOrphanScan = time.Now()
		p.orphans.mu.Unlock()
		return nil
	}

	slog.Warn("Detected orphaned sessions", "count", len(orphans))

	recovered := 0
	for _, session := range orphans {
		ok, err := p.recoverOrphanedSession(ctx, session, staleBefore)
		if err != nil {
			slog.Error("Failed to recover orphaned session",
				"session_id", session.ID,
				"error", err)
			continue
		}
		if ok {
			recovered++
		}
	}

	p.orphans.mu.Lock()
	p.orphans.lastOrphanScan = time.Now()
	p.orphans.orphansRecovered += recovered
	p.orphans.mu.Unlock()

	return nil
}

// recoverOrphanedSession requeues one orphaned session, or marks it failed
// when it has already been requeued max_requeues times. Returns false without
// error when another pod recovered the session first.
func (p *WorkerPool) recoverOrphanedSession(ctx context.Context, session *models.Session, staleBefore time.Time) (bool, error) {
	podID := "unknown"
	if session.PodID != nil {
		podID = *session.PodID
	}
	lastHeartbeat := "unknown"
	if session.LastHeartbeatAt != nil {
		lastHeartbeat = session.LastHeartbeatAt.Format(time.RFC3339)
	}
	log := slog.With("session_id", session.ID, "old_pod_id", podID)

	if session.RetryCount < p.config.MaxRequeues {
		ok, err := p.store.RequeueOrphan(ctx, session.ID, staleBefore)
		if err != nil {
			return false, fmt.Errorf("requeueing orphaned session: %w", err)
		}
		if !ok {
			log.Info("Orphaned session already recovered by another pod")
			return false, nil
		}
		log.Warn("Orphaned session requeued",
			"last_heartbeat", lastHeartbeat,
			"retry_count", session.RetryCount+1)
		p.publishOrphanStatus(ctx, session.ID, models.SessionStatusPending)
		return true, nil
	}

	msg := fmt.Sprintf("Orphaned: no heartbeat from pod %s since %s", podID, lastHeartbeat)
	ok, err := p.store.FailOrphan(ctx, session.ID, staleBefore, msg)
	if err != nil {
		return false, fmt.Errorf("failing orphaned session: %w", err)
	}
	if !ok {
		log.Info("Orphaned session already recovered by another pod")
		return false, nil
	}
	log.Warn("Orphaned session marked as failed",
		"last_heartbeat", lastHeartbeat,
		"retry_count", session.RetryCount)
	p.publishOrphanStatus(ctx, session.ID, models.SessionStatusFailed)
	return true, nil
}

func (p *WorkerPool) publishOrphanStatus(ctx context.Context, sessionID string, status models.SessionStatus) {
	if p.opts.Publisher == nil {
		return
	}
	if err := p.opts.Publisher.PublishSessionStatus(ctx, sessionID, status); err != nil {
		slog.Warn("Failed to publish orphan recovery status",
			"session_id", sessionID, "status", string(status), "error", err)
	}
}

// CleanupStartupOrphans recovers sessions this pod left in progress before a
// restart: each is requeued, or failed once its requeue budget is spent.
// Called once during startup, before the worker pool begins processing.
func CleanupStartupOrphans(ctx context.Context, store *database.SessionStore, podID string, maxRequeues int) error {
	requeued, err := store.RequeueOwned(ctx, podID, maxRequeues)
	if err != nil {
		return fmt.Errorf("requeueing sessions from previous run: %w", err)
	}
	for _, id := range requeued {
		slog.Info("Requeued session from previous run", "session_id", id, "pod_id", podID)
	}

	failed, err := store.FailOwned(ctx, podID, maxRequeues,
		fmt.Sprintf("Orphaned: pod %s restarted while session was in progress", podID))
	if err != nil {
		return fmt.Errorf("failing sessions from previous run: %w", err)
	}
	for _, id := range failed {
		slog.Warn("Failed session from previous run", "session_id", id, "pod_id", podID)
	}

	if len(requeued)+len(failed) > 0 {
		slog.Warn("Recovered startup orphans from previous run",
			"pod_id", podID,
			"requeued", len(requeued),
			"failed", len(failed))
	}
	return nil
}
