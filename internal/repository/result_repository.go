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
)

// uq_test_results_session guards at most one result per session.
const resultUniqueConstraint = "uq_test_results_session"

// ResultDatabaseAdapter implements domain.ResultRepository using sqlx.DB
type ResultDatabaseAdapter struct {
	db *sqlx.DB
}

// NewResultDatabaseAdapter creates a new instance of ResultDatabaseAdapter
func NewResultDatabaseAdapter(db *sqlx.DB) domain.ResultRepository {
	return &ResultDatabaseAdapter{db: db}
}

// CreateResult implements domain.ResultRepository
func (a *ResultDatabaseAdapter) CreateResult(ctx context.Context, r *domain.TestResult) error {
	if r == nil {
		return fmt.Errorf("cannot create nil result")
	}
	exec := GetExecutor(ctx, a.db)

	m := fromDomainResult(r)
	m.ID = util.NewULID()
	m.CreatedAt = time.Now()

	query := `INSERT INTO test_results (
		id, session_id, raw_score, total_questions, iq_score, percentile,
		ability_level, standard_error, category_scores, total_time_ms,
		average_time_ms, validity_flags, completed_at, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := exec.ExecContext(ctx, query,
		m.ID,
		m.SessionID,
		m.RawScore,
		m.TotalQuestions,
		m.IQScore,
		m.Percentile,
		m.AbilityLevel,
		m.StandardError,
		m.CategoryScores,
		m.TotalTimeMs,
		m.AverageTimeMs,
		m.ValidityFlags,
		m.CompletedAt,
		m.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, resultUniqueConstraint) {
			return domain.NewConflictError(fmt.Sprintf("A result already exists for session %s", r.SessionID))
		}
		return fmt.Errorf("failed to create result: %w", err)
	}

	r.ID = m.ID
	r.CreatedAt = m.CreatedAt
	return nil
}

// GetBySessionID implements domain.ResultRepository
func (a *ResultDatabaseAdapter) GetBySessionID(ctx context.Context, sessionID string) (*domain.TestResult, error) {
	exec := GetExecutor(ctx, a.db)

	var m models.TestResult
	query := `SELECT id, session_id, raw_score, total_questions, iq_score, percentile,
		ability_level, standard_error, category_scores, total_time_ms,
		average_time_ms, validity_flags, completed_at, created_at
	FROM test_results
	WHERE session_id = $1`
	err := exec.GetContext(ctx, &m, query, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get result for session %s: %w", sessionID, err)
	}
	return toDomainResult(&m), nil
}

func toDomainResult(m *models.TestResult) *domain.TestResult {
	if m == nil {
		return nil
	}
	return &domain.TestResult{
		ID:             m.ID,
		SessionID:      m.SessionID,
		RawScore:       m.RawScore,
		TotalQuestions: m.TotalQuestions,
		IQScore:        m.IQScore,
		Percentile:     m.Percentile,
		AbilityLevel:   m.AbilityLevel,
		StandardError:  m.StandardError,
		CategoryScores: map[string]domain.CategoryScore(m.CategoryScores),
		TotalTimeMs:    m.TotalTimeMs,
		AverageTimeMs:  m.AverageTimeMs,
		ValidityFlags:  []string(m.ValidityFlags),
		CompletedAt:    m.CompletedAt,
		CreatedAt:      m.CreatedAt,
	}
}

func fromDomainResult(d *domain.TestResult) *models.TestResult {
	if d == nil {
		return nil
	}
	return &models.TestResult{
		ID:             d.ID,
		SessionID:      d.SessionID,
		RawScore:       d.RawScore,
		TotalQuestions: d.TotalQuestions,
		IQScore:        d.IQScore,
		Percentile:     d.Percentile,
		AbilityLevel:   d.AbilityLevel,
		StandardError:  d.StandardError,
		CategoryScores: models.CategoryScoreMap(d.CategoryScores),
		TotalTimeMs:    d.TotalTimeMs,
		AverageTimeMs:  d.AverageTimeMs,
		ValidityFlags:  models.StringSlice(d.ValidityFlags),
		CompletedAt:    d.CompletedAt,
		CreatedAt:      d.CreatedAt,
	}
}
