package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mindmetric/internal/domain"
	"mindmetric/internal/repository/models"
	"mindmetric/internal/util"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const sessionColumns = `id, user_id, anon_token, test_type, status, question_ids,
	current_index, time_limit_sec, tab_switches, devtools_opened, copy_paste_count,
	started_at, ended_at, created_at, updated_at`

// SessionDatabaseAdapter implements domain.SessionRepository using sqlx.DB
type SessionDatabaseAdapter struct {
	db *sqlx.DB
}

// NewSessionDatabaseAdapter creates a new instance of SessionDatabaseAdapter
func NewSessionDatabaseAdapter(db *sqlx.DB) domain.SessionRepository {
	return &SessionDatabaseAdapter{db: db}
}

// CreateSession implements domain.SessionRepository
func (a *SessionDatabaseAdapter) CreateSession(ctx context.Context, s *domain.TestSession) error {
	if s == nil {
		return fmt.Errorf("cannot create nil session")
	}
	exec := GetExecutor(ctx, a.db)

	m := fromDomainSession(s)
	m.ID = util.NewULID()
	m.CreatedAt = time.Now()
	m.UpdatedAt = m.CreatedAt

	query := `INSERT INTO test_sessions (
		id, user_id, anon_token, test_type, status, question_ids,
		current_index, time_limit_sec, started_at, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := exec.ExecContext(ctx, query,
		m.ID,
		m.UserID,
		m.AnonToken,
		m.TestType,
		m.Status,
		m.QuestionIDs,
		m.CurrentIndex,
		m.TimeLimitSec,
		m.StartedAt,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	s.ID = m.ID
	s.CreatedAt = m.CreatedAt
	s.UpdatedAt = m.UpdatedAt
	return nil
}

// GetSessionByID implements domain.SessionRepository
func (a *SessionDatabaseAdapter) GetSessionByID(ctx context.Context, id string) (*domain.TestSession, error) {
	return a.getSession(ctx, id, false)
}

// GetSessionForUpdate implements domain.SessionRepository. Must be called
// inside WithTransaction; the row lock serializes concurrent submissions for
// the same session.
func (a *SessionDatabaseAdapter) GetSessionForUpdate(ctx context.Context, id string) (*domain.TestSession, error) {
	return a.getSession(ctx, id, true)
}

func (a *SessionDatabaseAdapter) getSession(ctx context.Context, id string, forUpdate bool) (*domain.TestSession, error) {
	exec := GetExecutor(ctx, a.db)

	query := `SELECT ` + sessionColumns + ` FROM test_sessions WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var m models.TestSession
	err := exec.GetContext(ctx, &m, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session by ID %s: %w", id, err)
	}
	return toDomainSession(&m), nil
}

// AdvanceSession implements domain.SessionRepository
func (a *SessionDatabaseAdapter) AdvanceSession(ctx context.Context, s *domain.TestSession) error {
	exec := GetExecutor(ctx, a.db)

	var endedAt sql.NullTime
	if s.EndedAt != nil {
		endedAt = util.TimeToNullTime(*s.EndedAt)
	}

	query := `UPDATE test_sessions SET
		current_index = $2,
		status = $3,
		ended_at = $4,
		updated_at = $5
	WHERE id = $1`

	result, err := exec.ExecContext(ctx, query, s.ID, s.CurrentIndex, string(s.Status), endedAt, time.Now())
	if err != nil {
		return fmt.Errorf("failed to advance session %s: %w", s.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("session %s not found for advance", s.ID)
	}
	return nil
}

// UpdateStatus implements domain.SessionRepository
func (a *SessionDatabaseAdapter) UpdateStatus(ctx context.Context, id string, status domain.SessionStatus) error {
	exec := GetExecutor(ctx, a.db)

	now := time.Now()
	var endedAt sql.NullTime
	if status.IsTerminal() {
		endedAt = sql.NullTime{Time: now, Valid: true}
	}

	query := `UPDATE test_sessions SET
		status = $2,
		ended_at = COALESCE(ended_at, $3),
		updated_at = $4
	WHERE id = $1`

	_, err := exec.ExecContext(ctx, query, id, string(status), endedAt, now)
	if err != nil {
		return fmt.Errorf("failed to update status of session %s: %w", id, err)
	}
	return nil
}

// AccumulateBehavior implements domain.SessionRepository
func (a *SessionDatabaseAdapter) AccumulateBehavior(ctx context.Context, id string, delta domain.BehaviorCounters) error {
	exec := GetExecutor(ctx, a.db)

	query := `UPDATE test_sessions SET
		tab_switches = tab_switches + $2,
		devtools_opened = devtools_opened OR $3,
		copy_paste_count = copy_paste_count + $4,
		updated_at = $5
	WHERE id = $1`

	_, err := exec.ExecContext(ctx, query, id, delta.TabSwitches, delta.DevToolsOpened, delta.CopyPasteCount, time.Now())
	if err != nil {
		return fmt.Errorf("failed to accumulate behavior counters for session %s: %w", id, err)
	}
	return nil
}

// ListCompletedByUser implements domain.SessionRepository
func (a *SessionDatabaseAdapter) ListCompletedByUser(ctx context.Context, userID string, offset, limit int) ([]*domain.TestSession, int, error) {
	exec := GetExecutor(ctx, a.db)

	var total int
	countQuery := `SELECT COUNT(*) FROM test_sessions WHERE user_id = $1 AND status = $2`
	if err := exec.GetContext(ctx, &total, countQuery, userID, string(domain.SessionCompleted)); err != nil {
		return nil, 0, fmt.Errorf("failed to count sessions for user %s: %w", userID, err)
	}

	var rows []*models.TestSession
	query := `SELECT ` + sessionColumns + `
	FROM test_sessions
	WHERE user_id = $1 AND status = $2
	ORDER BY started_at DESC
	OFFSET $3 LIMIT $4`
	if err := exec.SelectContext(ctx, &rows, query, userID, string(domain.SessionCompleted), offset, limit); err != nil {
		return nil, 0, fmt.Errorf("failed to list sessions for user %s: %w", userID, err)
	}

	sessions := make([]*domain.TestSession, 0, len(rows))
	for _, m := range rows {
		sessions = append(sessions, toDomainSession(m))
	}
	return sessions, total, nil
}

func toDomainSession(m *models.TestSession) *domain.TestSession {
	if m == nil {
		return nil
	}
	var endedAt *time.Time
	if m.EndedAt.Valid {
		endedAt = &m.EndedAt.Time
	}
	return &domain.TestSession{
		ID:           m.ID,
		UserID:       m.UserID.String,
		AnonToken:    m.AnonToken.String,
		TestType:     domain.TestType(m.TestType),
		Status:       domain.SessionStatus(m.Status),
		QuestionIDs:  []string(m.QuestionIDs),
		CurrentIndex: m.CurrentIndex,
		TimeLimitSec: int(m.TimeLimitSec.Int64),
		Behavior: domain.BehaviorCounters{
			TabSwitches:    m.TabSwitches,
			DevToolsOpened: m.DevtoolsOpened,
			CopyPasteCount: m.CopyPasteCount,
		},
		StartedAt: m.StartedAt,
		EndedAt:   endedAt,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func fromDomainSession(d *domain.TestSession) *models.TestSession {
	if d == nil {
		return nil
	}
	var endedAt sql.NullTime
	if d.EndedAt != nil {
		endedAt = util.TimeToNullTime(*d.EndedAt)
	}
	return &models.TestSession{
		ID:             d.ID,
		UserID:         util.StringToNullString(d.UserID),
		AnonToken:      util.StringToNullString(d.AnonToken),
		TestType:       string(d.TestType),
		Status:         string(d.Status),
		QuestionIDs:    pq.StringArray(d.QuestionIDs),
		CurrentIndex:   d.CurrentIndex,
		TimeLimitSec:   util.IntToNullInt64(d.TimeLimitSec),
		TabSwitches:    d.Behavior.TabSwitches,
		DevtoolsOpened: d.Behavior.DevToolsOpened,
		CopyPasteCount: d.Behavior.CopyPasteCount,
		StartedAt:      d.StartedAt,
		EndedAt:        endedAt,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}
