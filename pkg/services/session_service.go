package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/codeready-toolchain/remedy/pkg/database"
	"github.com/codeready-toolchain/remedy/pkg/models"
)

// SessionCanceller cancels a run that is in flight on this pod.
// Implemented by *queue.WorkerPool; nil means no pool is running here.
type SessionCanceller interface {
	CancelSession(sessionID string) bool
}

// SessionService reads session state and handles cancellation.
type SessionService struct {
	store     *database.SessionStore
	canceller SessionCanceller
	publisher StatusPublisher
}

// NewSessionService creates a new SessionService.
func NewSessionService(store *database.SessionStore, canceller SessionCanceller, publisher StatusPublisher) *SessionService {
	if store == nil {
		panic("NewSessionService: store must not be nil")
	}
	return &SessionService{
		store:     store,
		canceller: canceller,
		publisher: publisher,
	}
}

// GetSession returns one session by ID.
func (s *SessionService) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, database.ErrSessionNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// ListSessions returns one page of sessions, newest first.
func (s *SessionService) ListSessions(ctx context.Context, filters models.SessionFilters) (*models.SessionList, error) {
	list, err := s.store.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return list, nil
}

// CancelSession cancels a session. Pending sessions are cancelled directly in
// the store; in_progress sessions are cancelled through the worker pool's
// registry, which cancels the run context so the worker records the terminal
// status itself.
func (s *SessionService) CancelSession(ctx context.Context, sessionID string) error {
	cancelled, err := s.store.CancelIfPending(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to cancel session: %w", err)
	}
	if cancelled {
		if s.publisher != nil {
			if pubErr := s.publisher.PublishSessionStatus(ctx, sessionID, models.SessionStatusCancelled); pubErr != nil {
				slog.Warn("Failed to publish cancelled session status",
					"session_id", sessionID, "error", pubErr)
			}
		}
		return nil
	}

	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, database.ErrSessionNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get session: %w", err)
	}

	if session.Status != models.SessionStatusInProgress {
		return ErrNotCancellable
	}

	// In flight. The registry only knows runs on this pod; a session claimed
	// by another pod cannot be cancelled from here.
	if s.canceller != nil && s.canceller.CancelSession(sessionID) {
		return nil
	}
	return ErrNotCancellable
}
