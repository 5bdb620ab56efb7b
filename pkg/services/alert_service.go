package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/codeready-toolchain/remedy/pkg/database"
	"github.com/codeready-toolchain/remedy/pkg/masking"
	"github.com/codeready-toolchain/remedy/pkg/models"
	"github.com/google/uuid"
)

// SubmitAlertInput contains the domain-level data needed to queue a
// remediation session. Transformed from the HTTP request + headers by the
// handler.
type SubmitAlertInput struct {
	AlertName      string
	Namespace      string
	Diagnostics    string
	Recommendation string
	RunbookURL     string
	Author         string // from auth proxy headers
}

// StatusPublisher broadcasts session status transitions to WebSocket clients.
// Implemented by *events.EventPublisher; nil disables publishing.
type StatusPublisher interface {
	PublishSessionStatus(ctx context.Context, sessionID string, status models.SessionStatus) error
}

// AlertService handles alert submission and session creation.
type AlertService struct {
	store     *database.SessionStore
	publisher StatusPublisher
	masker    *masking.Service
}

// NewAlertService creates a new AlertService. The masker may be nil, in
// which case diagnostics are stored unmasked.
func NewAlertService(store *database.SessionStore, publisher StatusPublisher, masker *masking.Service) *AlertService {
	if store == nil {
		panic("NewAlertService: store must not be nil")
	}
	return &AlertService{
		store:     store,
		publisher: publisher,
		masker:    masker,
	}
}

// SubmitAlert creates a new session from an alert submission.
// The session starts in "pending" status and is picked up by the worker pool.
func (s *AlertService) SubmitAlert(ctx context.Context, input SubmitAlertInput) (*models.Session, error) {
	if input.AlertName == "" {
		return nil, NewValidationError("alert_name", "alert name is required")
	}
	if input.Namespace == "" {
		return nil, NewValidationError("namespace", "namespace is required")
	}

	// Diagnostics can carry raw cluster state, so masking happens before
	// storage. The recommendation is stored as-is: remediation commands are
	// extracted from it verbatim and masking could corrupt them.
	diagnostics := input.Diagnostics
	if s.masker != nil {
		diagnostics = s.masker.MaskAlertData(diagnostics)
	}

	session := &models.Session{
		ID:             uuid.New().String(),
		AlertName:      input.AlertName,
		Namespace:      input.Namespace,
		Diagnostics:    diagnostics,
		Recommendation: input.Recommendation,
		RunbookURL:     input.RunbookURL,
		Author:         input.Author,
		Status:         models.SessionStatusPending,
		CreatedAt:      time.Now(),
	}

	if err := s.store.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	// Best effort: the session list page follows queue transitions live.
	if s.publisher != nil {
		if err := s.publisher.PublishSessionStatus(ctx, session.ID, session.Status); err != nil {
			slog.Warn("Failed to publish queued session status",
				"session_id", session.ID, "error", err)
		}
	}

	return session, nil
}
