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

const questionColumns = `id, type, category, difficulty, discrimination, guessing,
	content, correct_answer, active, times_used, avg_time_ms, success_rate,
	created_at, updated_at, deleted_at`

// QuestionDatabaseAdapter implements domain.QuestionRepository using sqlx.DB
type QuestionDatabaseAdapter struct {
	db *sqlx.DB
}

// NewQuestionDatabaseAdapter creates a new instance of QuestionDatabaseAdapter
func NewQuestionDatabaseAdapter(db *sqlx.DB) domain.QuestionRepository {
	return &QuestionDatabaseAdapter{db: db}
}

// GetQuestionByID implements domain.QuestionRepository
func (a *QuestionDatabaseAdapter) GetQuestionByID(ctx context.Context, id string) (*domain.Question, error) {
	exec := GetExecutor(ctx, a.db)

	var m models.Question
	query := `SELECT ` + questionColumns + ` FROM questions WHERE id = $1 AND deleted_at IS NULL`
	err := exec.GetContext(ctx, &m, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get question by ID %s: %w", id, err)
	}
	return toDomainQuestion(&m), nil
}

// GetQuestionsByIDs implements domain.QuestionRepository
func (a *QuestionDatabaseAdapter) GetQuestionsByIDs(ctx context.Context, ids []string) (map[string]*domain.Question, error) {
	if len(ids) == 0 {
		return map[string]*domain.Question{}, nil
	}
	exec := GetExecutor(ctx, a.db)

	var rows []*models.Question
	query := `SELECT ` + questionColumns + ` FROM questions WHERE id = ANY($1) AND deleted_at IS NULL`
	err := exec.SelectContext(ctx, &rows, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get questions by IDs: %w", err)
	}

	result := make(map[string]*domain.Question, len(rows))
	for _, m := range rows {
		result[m.ID] = toDomainQuestion(m)
	}
	return result, nil
}

// SelectActiveByCategories implements domain.QuestionRepository
func (a *QuestionDatabaseAdapter) SelectActiveByCategories(ctx context.Context, categories []domain.QuestionType, limit int) ([]*domain.Question, error) {
	exec := GetExecutor(ctx, a.db)

	cats := make([]string, 0, len(categories))
	for _, c := range categories {
		cats = append(cats, string(c))
	}

	var rows []*models.Question
	query := `SELECT ` + questionColumns + `
	FROM questions
	WHERE type = ANY($1)
	AND active = TRUE
	AND deleted_at IS NULL
	ORDER BY difficulty ASC, id ASC
	LIMIT $2`
	err := exec.SelectContext(ctx, &rows, query, pq.Array(cats), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select active questions: %w", err)
	}

	questions := make([]*domain.Question, 0, len(rows))
	for _, m := range rows {
		questions = append(questions, toDomainQuestion(m))
	}
	return questions, nil
}

// SaveQuestion implements domain.QuestionRepository
func (a *QuestionDatabaseAdapter) SaveQuestion(ctx context.Context, q *domain.Question) error {
	if q == nil {
		return fmt.Errorf("cannot save nil question")
	}
	exec := GetExecutor(ctx, a.db)

	m := fromDomainQuestion(q)
	m.ID = util.NewULID()
	m.CreatedAt = time.Now()
	m.UpdatedAt = m.CreatedAt

	query := `INSERT INTO questions (
		id, type, category, difficulty, discrimination, guessing,
		content, correct_answer, active, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := exec.ExecContext(ctx, query,
		m.ID,
		m.Type,
		m.Category,
		m.Difficulty,
		m.Discrimination,
		m.Guessing,
		m.Content,
		m.CorrectAnswer,
		m.Active,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save question: %w", err)
	}

	q.ID = m.ID
	q.CreatedAt = m.CreatedAt
	q.UpdatedAt = m.UpdatedAt
	return nil
}

// RecordUsage implements domain.QuestionRepository. The running averages are
// folded in with a single statement so concurrent submissions do not race a
// read-modify-write in the application.
func (a *QuestionDatabaseAdapter) RecordUsage(ctx context.Context, id string, responseTimeMs int, correct bool) error {
	exec := GetExecutor(ctx, a.db)

	correctInc := 0
	if correct {
		correctInc = 1
	}

	query := `UPDATE questions SET
		times_used = times_used + 1,
		avg_time_ms = (avg_time_ms * times_used + $2) / (times_used + 1),
		success_rate = (success_rate * times_used + $3) / (times_used + 1),
		updated_at = $4
	WHERE id = $1 AND deleted_at IS NULL`

	_, err := exec.ExecContext(ctx, query, id, responseTimeMs, correctInc, time.Now())
	if err != nil {
		return fmt.Errorf("failed to record question usage for %s: %w", id, err)
	}
	return nil
}

func toDomainQuestion(m *models.Question) *domain.Question {
	if m == nil {
		return nil
	}
	return &domain.Question{
		ID:             m.ID,
		Type:           domain.QuestionType(m.Type),
		Category:       m.Category,
		Difficulty:     m.Difficulty,
		Discrimination: m.Discrimination,
		Guessing:       m.Guessing,
		Content:        m.Content,
		CorrectAnswer:  m.CorrectAnswer,
		Active:         m.Active,
		TimesUsed:      m.TimesUsed,
		AvgTimeMs:      m.AvgTimeMs,
		SuccessRate:    m.SuccessRate,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func fromDomainQuestion(d *domain.Question) *models.Question {
	if d == nil {
		return nil
	}
	return &models.Question{
		ID:             d.ID,
		Type:           string(d.Type),
		Category:       d.Category,
		Difficulty:     d.Difficulty,
		Discrimination: d.Discrimination,
		Guessing:       d.Guessing,
		Content:        models.JSONMap(d.Content),
		CorrectAnswer:  d.CorrectAnswer,
		Active:         d.Active,
		TimesUsed:      d.TimesUsed,
		AvgTimeMs:      d.AvgTimeMs,
		SuccessRate:    d.SuccessRate,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}
