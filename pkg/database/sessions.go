package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/codeready-toolchain/remedy/pkg/models"
)

var (
	// ErrSessionNotFound is returned when no live session matches the given ID.
	ErrSessionNotFound = errors.New("session not found")

	// ErrNoPendingSessions is returned by ClaimNext when the queue is empty.
	ErrNoPendingSessions = errors.New("no pending sessions")
)

// sessionColumns lists the sessions table columns in scanSession order.
var sessionColumns = []string{
	"id", "alert_name", "namespace", "diagnostics", "recommendation",
	"runbook_url", "author", "status", "pod_id", "worker_id", "retry_count",
	"phase", "plan_explanation", "plan_commands", "execution_results",
	"execution_success", "alert_status", "report", "error_message",
	"created_at", "started_at", "completed_at", "last_heartbeat_at", "deleted_at",
}

func columnList(prefix string) string {
	if prefix == "" {
		return strings.Join(sessionColumns, ", ")
	}
	cols := make([]string, len(sessionColumns))
	for i, c := range sessionColumns {
		cols[i] = prefix + "." + c
	}
	return strings.Join(cols, ", ")
}

// requeueSQL resets queue bookkeeping so a session can be claimed again.
// The previous attempt's run output is left in place; the next run overwrites
// it phase by phase.
const requeueSQL = `
	UPDATE sessions SET
		status = 'pending',
		pod_id = NULL,
		worker_id = NULL,
		started_at = NULL,
		last_heartbeat_at = NULL,
		phase = '',
		error_message = NULL,
		retry_count = retry_count + 1`

// SessionStore is the SQL repository for remediation sessions.
type SessionStore struct {
	db *sql.DB
}

// NewSessionStore creates a session repository on top of the shared pool.
func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

// Create inserts a freshly queued session. The caller supplies the ID,
// status, and creation timestamp.
func (s *SessionStore) Create(ctx context.Context, session *models.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (
			id, alert_name, namespace, diagnostics, recommendation,
			runbook_url, author, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		session.ID, session.AlertName, session.Namespace, session.Diagnostics,
		session.Recommendation, session.RunbookURL, session.Author,
		session.Status, session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Get returns one session by ID. Soft-deleted sessions are treated as absent.
func (s *SessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+columnList("")+` FROM sessions WHERE id = $1 AND deleted_at IS NULL`, id)

	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// List returns one page of sessions, newest first, plus the unpaginated
// total for the same filters.
func (s *SessionStore) List(ctx context.Context, filters models.SessionFilters) (*models.SessionList, error) {
	where := make([]string, 0, 4)
	args := make([]any, 0, 5)

	if filters.Status != "" {
		args = append(args, filters.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filters.AlertName != "" {
		args = append(args, filters.AlertName)
		where = append(where, fmt.Sprintf("alert_name = $%d", len(args)))
	}
	if filters.Namespace != "" {
		args = append(args, filters.Namespace)
		where = append(where, fmt.Sprintf("namespace = $%d", len(args)))
	}
	if !filters.IncludeDeleted {
		where = append(where, "deleted_at IS NULL")
	}

	var clause string
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM sessions"+clause, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filters.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf("SELECT %s FROM sessions%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		columnList(""), clause, len(args)+1, len(args)+2)

	rows, err := s.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	sessions, err := scanSessions(rows)
	if err != nil {
		return nil, err
	}

	return &models.SessionList{
		Sessions:   sessions,
		TotalCount: total,
		Limit:      limit,
		Offset:     offset,
	}, nil
}

// ClaimNext atomically claims the oldest pending session for a worker. The
// claim is a single UPDATE over a FOR UPDATE SKIP LOCKED subquery, so
// concurrent workers never pick the same session and never block each other.
func (s *SessionStore) ClaimNext(ctx context.Context, podID, workerID string) (*models.Session, error) {
	query := `
		UPDATE sessions SET
			status = 'in_progress',
			pod_id = $1,
			worker_id = $2,
			started_at = now(),
			last_heartbeat_at = now()
		FROM (
			SELECT id FROM sessions
			WHERE status = 'pending' AND deleted_at IS NULL
			ORDER BY created_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		) next_session
		WHERE sessions.id = next_session.id
		RETURNING ` + columnList("sessions")

	session, err := scanSession(s.db.QueryRowContext(ctx, query, podID, workerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoPendingSessions
		}
		return nil, fmt.Errorf("failed to claim session: %w", err)
	}
	return session, nil
}

// Heartbeat refreshes last_heartbeat_at for an in-flight session. Returns
// ErrSessionNotFound when the session is no longer in progress (cancelled or
// recovered by another pod).
func (s *SessionStore) Heartbeat(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET last_heartbeat_at = now() WHERE id = $1 AND status = 'in_progress'`, id)
	if err != nil {
		return fmt.Errorf("failed to update heartbeat: %w", err)
	}
	return requireAffected(res, "heartbeat update")
}

// MarkStatus moves a session to the given status. Terminal statuses also
// record completed_at. A non-empty errorMessage is stored alongside.
func (s *SessionStore) MarkStatus(ctx context.Context, id string, status models.SessionStatus, errorMessage string) error {
	set := []string{"status = $1"}
	args := []any{status}

	if status.Terminal() {
		set = append(set, "completed_at = now()")
	}
	if errorMessage != "" {
		args = append(args, errorMessage)
		set = append(set, fmt.Sprintf("error_message = $%d", len(args)))
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE sessions SET %s WHERE id = $%d", strings.Join(set, ", "), len(args))
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}
	return requireAffected(res, "session status update")
}

// CancelIfPending cancels a session only while it is still queued. Returns
// false when the session is absent, already claimed, or terminal; claimed
// sessions are cancelled through the worker pool instead.
func (s *SessionStore) CancelIfPending(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET status = 'cancelled', completed_at = now()
		WHERE id = $1 AND status = 'pending' AND deleted_at IS NULL`, id)
	if err != nil {
		return false, fmt.Errorf("failed to cancel session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check session cancel: %w", err)
	}
	return affected > 0, nil
}

// StoreRunState persists the run output visible so far: the state machine
// phase plus every workflow state field produced up to it. Called after each
// phase transition so a crash loses at most one step.
func (s *SessionStore) StoreRunState(ctx context.Context, id, phase string, state models.WorkflowState) error {
	var (
		planExplanation string
		planCommands    []byte
		results         []byte
		report          []byte
		err             error
	)
	if state.RemediationPlan != nil {
		planExplanation = state.RemediationPlan.Explanation
		planCommands, err = json.Marshal(state.RemediationPlan.Commands)
		if err != nil {
			return fmt.Errorf("failed to marshal plan commands: %w", err)
		}
	}
	if state.ExecutionResults != nil {
		results, err = json.Marshal(state.ExecutionResults)
		if err != nil {
			return fmt.Errorf("failed to marshal execution results: %w", err)
		}
	}
	if state.Report != nil {
		report, err = json.Marshal(state.Report)
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET
			phase = $1,
			plan_explanation = $2,
			plan_commands = $3,
			execution_results = $4,
			execution_success = $5,
			alert_status = $6,
			report = $7
		WHERE id = $8`,
		phase, planExplanation, planCommands, results,
		state.ExecutionSuccess, state.AlertStatus, report, id,
	)
	if err != nil {
		return fmt.Errorf("failed to store run state: %w", err)
	}
	return requireAffected(res, "run state update")
}

// CountByStatus counts live sessions in the given status.
func (s *SessionStore) CountByStatus(ctx context.Context, status models.SessionStatus) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM sessions WHERE status = $1 AND deleted_at IS NULL`, status).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}

// CountInProgressOnPod counts sessions this pod is currently processing.
func (s *SessionStore) CountInProgressOnPod(ctx context.Context, podID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT count(*) FROM sessions
		WHERE status = 'in_progress' AND pod_id = $1 AND deleted_at IS NULL`, podID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count active sessions: %w", err)
	}
	return n, nil
}

// FindOrphans returns in_progress sessions whose heartbeat went stale before
// the given instant.
func (s *SessionStore) FindOrphans(ctx context.Context, staleBefore time.Time) ([]*models.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+columnList("")+` FROM sessions
		WHERE status = 'in_progress'
		  AND deleted_at IS NULL
		  AND last_heartbeat_at IS NOT NULL
		  AND last_heartbeat_at < $1
		ORDER BY last_heartbeat_at`,
		staleBefore,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query orphaned sessions: %w", err)
	}
	defer rows.Close()
	return scanSessions(rows)
}

// RequeueOrphan returns an orphaned session to the queue for another
// attempt. The heartbeat guard keeps concurrent scans idempotent: whichever
// pod updates first wins, later attempts see zero rows and report false.
func (s *SessionStore) RequeueOrphan(ctx context.Context, id string, staleBefore time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, requeueSQL+`
		WHERE id = $1
		  AND status = 'in_progress'
		  AND last_heartbeat_at < $2`,
		id, staleBefore,
	)
	if err != nil {
		return false, fmt.Errorf("failed to requeue session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check session requeue: %w", err)
	}
	return affected > 0, nil
}

// FailOrphan marks an orphaned session failed once its requeue budget is
// spent. Guarded the same way as RequeueOrphan.
func (s *SessionStore) FailOrphan(ctx context.Context, id string, staleBefore time.Time, message string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET
			status = 'failed',
			completed_at = now(),
			error_message = $3
		WHERE id = $1
		  AND status = 'in_progress'
		  AND last_heartbeat_at < $2`,
		id, staleBefore, message,
	)
	if err != nil {
		return false, fmt.Errorf("failed to fail orphaned session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check orphan failure: %w", err)
	}
	return affected > 0, nil
}

// RequeueOwned requeues every in_progress session owned by podID that still
// has requeue budget. Used once at startup after a pod restart, when any
// session this pod owns is known dead. Returns the requeued session IDs.
func (s *SessionStore) RequeueOwned(ctx context.Context, podID string, maxRequeues int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, requeueSQL+`
		WHERE status = 'in_progress'
		  AND pod_id = $1
		  AND retry_count < $2
		RETURNING id`,
		podID, maxRequeues,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to requeue pod sessions: %w", err)
	}
	return collectIDs(rows)
}

// FailOwned fails every in_progress session owned by podID whose requeue
// budget is spent. Returns the failed session IDs.
func (s *SessionStore) FailOwned(ctx context.Context, podID string, maxRequeues int, message string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		UPDATE sessions SET
			status = 'failed',
			completed_at = now(),
			error_message = $3
		WHERE status = 'in_progress'
		  AND pod_id = $1
		  AND retry_count >= $2
		RETURNING id`,
		podID, maxRequeues, message,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to mark pod sessions failed: %w", err)
	}
	return collectIDs(rows)
}

// SoftDeleteOld soft-deletes terminal sessions that completed before cutoff.
// Soft-deleted rows stay queryable with IncludeDeleted.
func (s *SessionStore) SoftDeleteOld(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET deleted_at = now()
		WHERE completed_at IS NOT NULL
		  AND completed_at < $1
		  AND deleted_at IS NULL`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to soft delete sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count soft deleted sessions: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanSession decodes one sessions row in sessionColumns order.
func scanSession(row rowScanner) (*models.Session, error) {
	var (
		session          models.Session
		podID            sql.NullString
		workerID         sql.NullString
		planExplanation  string
		planCommands     []byte
		results          []byte
		executionSuccess sql.NullBool
		report           []byte
		errorMessage     sql.NullString
		startedAt        sql.NullTime
		completedAt      sql.NullTime
		lastHeartbeatAt  sql.NullTime
		deletedAt        sql.NullTime
	)

	err := row.Scan(
		&session.ID, &session.AlertName, &session.Namespace, &session.Diagnostics,
		&session.Recommendation, &session.RunbookURL, &session.Author, &session.Status,
		&podID, &workerID, &session.RetryCount, &session.Phase,
		&planExplanation, &planCommands, &results, &executionSuccess,
		&session.AlertStatus, &report, &errorMessage,
		&session.CreatedAt, &startedAt, &completedAt, &lastHeartbeatAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	if podID.Valid {
		session.PodID = &podID.String
	}
	if workerID.Valid {
		session.WorkerID = &workerID.String
	}
	if executionSuccess.Valid {
		session.ExecutionSuccess = &executionSuccess.Bool
	}
	if errorMessage.Valid {
		session.ErrorMessage = &errorMessage.String
	}
	if startedAt.Valid {
		session.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		session.CompletedAt = &completedAt.Time
	}
	if lastHeartbeatAt.Valid {
		session.LastHeartbeatAt = &lastHeartbeatAt.Time
	}
	if deletedAt.Valid {
		session.DeletedAt = &deletedAt.Time
	}

	if len(planCommands) > 0 {
		var commands []string
		if err := json.Unmarshal(planCommands, &commands); err != nil {
			return nil, fmt.Errorf("failed to decode plan_commands: %w", err)
		}
		session.Plan = &models.RemediationPlan{Explanation: planExplanation, Commands: commands}
	}
	if len(results) > 0 {
		if err := json.Unmarshal(results, &session.ExecutionResults); err != nil {
			return nil, fmt.Errorf("failed to decode execution_results: %w", err)
		}
	}
	if len(report) > 0 {
		var r models.Report
		if err := json.Unmarshal(report, &r); err != nil {
			return nil, fmt.Errorf("failed to decode report: %w", err)
		}
		session.Report = &r
	}

	return &session, nil
}

func scanSessions(rows *sql.Rows) ([]*models.Session, error) {
	var sessions []*models.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sessions: %w", err)
	}
	return sessions, nil
}

func collectIDs(rows *sql.Rows) ([]string, error) {
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read session ids: %w", err)
	}
	return ids, nil
}

func requireAffected(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", op, err)
	}
	if affected == 0 {
		return ErrSessionNotFound
	}
	return nil
}
