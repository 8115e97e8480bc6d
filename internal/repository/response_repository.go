package repository

import (
	"context"
	"fmt"
	"time"

	"mindmetric/internal/domain"
	"mindmetric/internal/repository/models"
	"mindmetric/internal/util"

	"github.com/jmoiron/sqlx"
)

// uq_responses_session_question guards one response per (session, question).
const responseUniqueConstraint = "uq_responses_session_question"

// ResponseDatabaseAdapter implements domain.ResponseRepository using sqlx.DB
type ResponseDatabaseAdapter struct {
	db *sqlx.DB
}

// NewResponseDatabaseAdapter creates a new instance of ResponseDatabaseAdapter
func NewResponseDatabaseAdapter(db *sqlx.DB) domain.ResponseRepository {
	return &ResponseDatabaseAdapter{db: db}
}

// CreateResponse implements domain.ResponseRepository. The unique constraint
// on (session_id, question_id) is the correctness guard against concurrent
// duplicate submissions; its violation surfaces as a domain conflict error.
func (a *ResponseDatabaseAdapter) CreateResponse(ctx context.Context, r *domain.Response) error {
	if r == nil {
		return fmt.Errorf("cannot create nil response")
	}
	exec := GetExecutor(ctx, a.db)

	m := fromDomainResponse(r)
	m.ID = util.NewULID()
	m.CreatedAt = time.Now()

	query := `INSERT INTO responses (
		id, session_id, question_id, answer, is_correct, response_time_ms, behavior, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := exec.ExecContext(ctx, query,
		m.ID,
		m.SessionID,
		m.QuestionID,
		m.Answer,
		m.IsCorrect,
		m.ResponseTimeMs,
		m.Behavior,
		m.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, responseUniqueConstraint) {
			return domain.NewDuplicateResponseError(r.SessionID, r.QuestionID)
		}
		return fmt.Errorf("failed to create response: %w", err)
	}

	r.ID = m.ID
	r.CreatedAt = m.CreatedAt
	return nil
}

// GetBySession implements domain.ResponseRepository
func (a *ResponseDatabaseAdapter) GetBySession(ctx context.Context, sessionID string) ([]*domain.Response, error) {
	exec := GetExecutor(ctx, a.db)

	var rows []*models.Response
	query := `SELECT id, session_id, question_id, answer, is_correct, response_time_ms, behavior, created_at
	FROM responses
	WHERE session_id = $1
	ORDER BY created_at ASC, id ASC`
	err := exec.SelectContext(ctx, &rows, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get responses for session %s: %w", sessionID, err)
	}

	responses := make([]*domain.Response, 0, len(rows))
	for _, m := range rows {
		responses = append(responses, toDomainResponse(m))
	}
	return responses, nil
}

// CountBySession implements domain.ResponseRepository
func (a *ResponseDatabaseAdapter) CountBySession(ctx context.Context, sessionID string) (int, error) {
	exec := GetExecutor(ctx, a.db)

	var count int
	query := `SELECT COUNT(*) FROM responses WHERE session_id = $1`
	if err := exec.GetContext(ctx, &count, query, sessionID); err != nil {
		return 0, fmt.Errorf("failed to count responses for session %s: %w", sessionID, err)
	}
	return count, nil
}

func toDomainResponse(m *models.Response) *domain.Response {
	if m == nil {
		return nil
	}
	return &domain.Response{
		ID:             m.ID,
		SessionID:      m.SessionID,
		QuestionID:     m.QuestionID,
		Answer:         m.Answer,
		IsCorrect:      m.IsCorrect,
		ResponseTimeMs: m.ResponseTimeMs,
		Behavior:       m.Behavior,
		CreatedAt:      m.CreatedAt,
	}
}

func fromDomainResponse(d *domain.Response) *models.Response {
	if d == nil {
		return nil
	}
	return &models.Response{
		ID:             d.ID,
		SessionID:      d.SessionID,
		QuestionID:     d.QuestionID,
		Answer:         d.Answer,
		IsCorrect:      d.IsCorrect,
		ResponseTimeMs: d.ResponseTimeMs,
		Behavior:       models.JSONMap(d.Behavior),
		CreatedAt:      d.CreatedAt,
	}
}
