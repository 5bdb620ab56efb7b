package services

import (
	"context"
	"errors"
	"testing"

	"github.com/codeready-toolchain/remedy/pkg/config"
	"github.com/codeready-toolchain/remedy/pkg/database"
	"github.com/codeready-toolchain/remedy/pkg/masking"
	"github.com/codeready-toolchain/remedy/pkg/models"
	"github.com/codeready-toolchain/remedy/test/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestAlertService(t *testing.T, maskingSvc ...*masking.Service) (*AlertService, *database.SessionStore) {
	t.Helper()

	store := database.NewSessionStore(util.SetupTestDatabase(t))

	var masker *masking.Service
	if len(maskingSvc) > 0 {
		masker = maskingSvc[0]
	}
	return NewAlertService(store, nil, masker), store
}

type publishedStatus struct {
	sessionID string
	status    models.SessionStatus
}

// recordingPublisher captures status broadcasts for assertions.
type recordingPublisher struct {
	calls []publishedStatus
}

func (p *recordingPublisher) PublishSessionStatus(_ context.Context, sessionID string, status models.SessionStatus) error {
	p.calls = append(p.calls, publishedStatus{sessionID: sessionID, status: status})
	return nil
}

type failingPublisher struct{}

func (failingPublisher) PublishSessionStatus(context.Context, string, models.SessionStatus) error {
	return errors.New("event hub offline")
}

func TestNewAlertService(t *testing.T) {
	t.Run("panics on nil store", func(t *testing.T) {
		assert.Panics(t, func() {
			NewAlertService(nil, nil, nil)
		})
	})

	t.Run("publisher and masker are optional", func(t *testing.T) {
		store := database.NewSessionStore(util.SetupTestDatabase(t))
		assert.NotNil(t, NewAlertService(store, nil, nil))
	})
}

func TestAlertService_SubmitAlert(t *testing.T) {
	svc, store := setupTestAlertService(t)
	ctx := context.Background()

	t.Run("creates pending session with all fields", func(t *testing.T) {
		input := SubmitAlertInput{
			AlertName:      "KubePodCrashLooping",
			Namespace:      "payments",
			Diagnostics:    "Pod payments-5d8f7 restarted 12 times in 10 minutes",
			Recommendation: "oc delete pod payments-5d8f7 -n payments",
			RunbookURL:     "https://github.com/acme/runbooks/blob/main/crash-loop.md",
			Author:         "alertmanager",
		}

		session, err := svc.SubmitAlert(ctx, input)
		require.NoError(t, err)
		require.NotNil(t, session)

		assert.NotEmpty(t, session.ID)
		assert.Equal(t, models.SessionStatusPending, session.Status)
		assert.False(t, session.CreatedAt.IsZero())
		assert.Nil(t, session.StartedAt)

		stored, err := store.Get(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, "KubePodCrashLooping", stored.AlertName)
		assert.Equal(t, "payments", stored.Namespace)
		assert.Equal(t, input.Diagnostics, stored.Diagnostics)
		assert.Equal(t, input.Recommendation, stored.Recommendation)
		assert.Equal(t, input.RunbookURL, stored.RunbookURL)
		assert.Equal(t, "alertmanager", stored.Author)
		assert.Equal(t, models.SessionStatusPending, stored.Status)
	})

	t.Run("creates session with minimal fields", func(t *testing.T) {
		session, err := svc.SubmitAlert(ctx, SubmitAlertInput{
			AlertName: "HighMemoryUsage",
			Namespace: "prod",
		})
		require.NoError(t, err)

		stored, err := store.Get(ctx, session.ID)
		require.NoError(t, err)
		assert.Empty(t, stored.Diagnostics)
		assert.Empty(t, stored.Recommendation)
		assert.Empty(t, stored.RunbookURL)
		assert.Empty(t, stored.Author)
		assert.Equal(t, models.SessionStatusPending, stored.Status)
	})

	t.Run("rejects missing alert name", func(t *testing.T) {
		_, err := svc.SubmitAlert(ctx, SubmitAlertInput{Namespace: "prod"})

		var valErr *ValidationError
		require.ErrorAs(t, err, &valErr)
		assert.Equal(t, "alert_name", valErr.Field)
		assert.Contains(t, valErr.Message, "required")
	})

	t.Run("rejects missing namespace", func(t *testing.T) {
		_, err := svc.SubmitAlert(ctx, SubmitAlertInput{AlertName: "HighMemoryUsage"})

		var valErr *ValidationError
		require.ErrorAs(t, err, &valErr)
		assert.Equal(t, "namespace", valErr.Field)
		assert.Contains(t, valErr.Message, "required")
	})
}

func TestAlertService_SubmitAlert_PublishesPendingStatus(t *testing.T) {
	store := database.NewSessionStore(util.SetupTestDatabase(t))
	publisher := &recordingPublisher{}
	svc := NewAlertService(store, publisher, nil)

	session, err := svc.SubmitAlert(context.Background(), SubmitAlertInput{
		AlertName: "HighMemoryUsage",
		Namespace: "prod",
	})
	require.NoError(t, err)

	require.Len(t, publisher.calls, 1)
	assert.Equal(t, session.ID, publisher.calls[0].sessionID)
	assert.Equal(t, models.SessionStatusPending, publisher.calls[0].status)
}

func TestAlertService_SubmitAlert_PublishFailureIsNotFatal(t *testing.T) {
	store := database.NewSessionStore(util.SetupTestDatabase(t))
	svc := NewAlertService(store, failingPublisher{}, nil)

	session, err := svc.SubmitAlert(context.Background(), SubmitAlertInput{
		AlertName: "HighMemoryUsage",
		Namespace: "prod",
	})
	require.NoError(t, err)

	// The session must be queued even when the broadcast fails.
	stored, err := store.Get(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusPending, stored.Status)
}

func TestAlertService_SubmitAlert_MaskingApplied(t *testing.T) {
	maskingSvc := masking.NewService(&config.MaskingConfig{
		Enabled:       true,
		PatternGroups: []string{"security"},
	})
	svc, store := setupTestAlertService(t, maskingSvc)

	input := SubmitAlertInput{
		AlertName:      "SecretSyncFailed",
		Namespace:      "payments",
		Diagnostics:    "Sync failed for user ops@example.com with password: FAKE-Sup3rS3cret",
		Recommendation: "oc get secret payments-db -n payments -o yaml",
	}

	session, err := svc.SubmitAlert(context.Background(), input)
	require.NoError(t, err)

	stored, err := store.Get(context.Background(), session.ID)
	require.NoError(t, err)

	assert.NotContains(t, stored.Diagnostics, "FAKE-Sup3rS3cret")
	assert.NotContains(t, stored.Diagnostics, "ops@example.com")
	assert.Contains(t, stored.Diagnostics, "[MASKED_PASSWORD]")
	assert.Contains(t, stored.Diagnostics, "[MASKED_EMAIL]")

	// The recommendation carries the commands to execute and is stored
	// verbatim; masking it would corrupt them.
	assert.Equal(t, input.Recommendation, stored.Recommendation)
}

func TestAlertService_SubmitAlert_MaskingDisabled(t *testing.T) {
	maskingSvc := masking.NewService(&config.MaskingConfig{
		Enabled:       false,
		PatternGroups: []string{"security"},
	})
	svc, store := setupTestAlertService(t, maskingSvc)

	diagnostics := "login with password: FAKE-Sup3rS3cret"
	session, err := svc.SubmitAlert(context.Background(), SubmitAlertInput{
		AlertName:   "HighMemoryUsage",
		Namespace:   "prod",
		Diagnostics: diagnostics,
	})
	require.NoError(t, err)

	stored, err := store.Get(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, diagnostics, stored.Diagnostics)
}

func TestAlertService_SubmitAlert_NilMasker(t *testing.T) {
	svc, store := setupTestAlertService(t)

	diagnostics := "login with password: FAKE-Sup3rS3cret"
	session, err := svc.SubmitAlert(context.Background(), SubmitAlertInput{
		AlertName:   "HighMemoryUsage",
		Namespace:   "prod",
		Diagnostics: diagnostics,
	})
	require.NoError(t, err)

	stored, err := store.Get(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, diagnostics, stored.Diagnostics)
}
