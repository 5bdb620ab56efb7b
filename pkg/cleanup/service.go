// Package cleanup enforces data retention: terminal sessions past the
// retention window are soft-deleted and their leftover events removed.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/codeready-toolchain/remedy/pkg/config"
	"github.com/codeready-toolchain/remedy/pkg/database"
)

// Service runs the periodic retention loop. One cutoff governs both stores:
// sessions whose completed_at is older than the retention window are
// soft-deleted, and events older than the window are dropped outright
// (per-session event cleanup normally removes them much earlier; this is the
// safety net for sessions that never got one).
//
// All operations are idempotent and safe to run from multiple pods.
type Service struct {
	config   *config.CleanupConfig
	sessions *database.SessionStore
	events   *database.EventStore

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a cleanup service. A nil events store disables event
// cleanup; session retention still runs.
func NewService(cfg *config.CleanupConfig, sessions *database.SessionStore, events *database.EventStore) *Service {
	if cfg == nil {
		cfg = config.DefaultCleanupConfig()
	}
	return &Service{
		config:   cfg,
		sessions: sessions,
		events:   events,
	}
}

// Start launches the background cleanup loop. Disabled config makes Start a
// no-op, so callers can wire the service unconditionally.
func (s *Service) Start(ctx context.Context) {
	if !s.config.Enabled {
		slog.Info("Cleanup disabled, skipping retention loop")
		return
	}
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("Cleanup service started",
		"retention_days", s.config.RetentionDays,
		"interval_hours", s.config.IntervalHours)
}

// Stop signals the cleanup loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("Cleanup service stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.runAll(ctx)

	ticker := time.NewTicker(s.config.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runAll(ctx)
		}
	}
}

func (s *Service) runAll(ctx context.Context) {
	cutoff := time.Now().Add(-s.config.RetentionAge())
	s.softDeleteOldSessions(ctx, cutoff)
	s.cleanupOldEvents(ctx, cutoff)
}

func (s *Service) softDeleteOldSessions(ctx context.Context, cutoff time.Time) {
	count, err := s.sessions.SoftDeleteOld(ctx, cutoff)
	if err != nil {
		slog.Error("Retention: soft-delete sessions failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("Retention: soft-deleted old sessions", "count", count)
	}
}

func (s *Service) cleanupOldEvents(ctx context.Context, cutoff time.Time) {
	if s.events == nil {
		return
	}
	count, err := s.events.DeleteEventsBefore(ctx, cutoff)
	if err != nil {
		slog.Error("Retention: event cleanup failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("Retention: cleaned up old events", "count", count)
	}
}
