package dto

import (
	"time"

	"mindmetric/internal/domain"
)

// ResultResponse is the persisted score report in its API shape.
// @Description Computed test result
type ResultResponse struct {
	SessionID      string                          `json:"session_id"`
	RawScore       int                             `json:"raw_score"`
	TotalQuestions int                             `json:"total_questions"`
	IQScore        int                             `json:"iq_score"`
	Percentile     float64                         `json:"percentile"`
	AbilityLevel   float64                         `json:"ability_level"`
	StandardError  float64                         `json:"standard_error"`
	TotalTimeMs    int                             `json:"total_time_ms"`
	AverageTimeMs  float64                         `json:"average_time_ms"`
	ValidityFlags  []string                        `json:"validity_flags"`
	CompletedAt    time.Time                       `json:"completed_at"`
	Breakdown      map[string]domain.CategoryScore `json:"breakdown"`
}

// ToResultResponse converts a domain result to its API shape.
func ToResultResponse(r *domain.TestResult) *ResultResponse {
	if r == nil {
		return nil
	}
	flags := r.ValidityFlags
	if flags == nil {
		flags = []string{}
	}
	return &ResultResponse{
		SessionID:      r.SessionID,
		RawScore:       r.RawScore,
		TotalQuestions: r.TotalQuestions,
		IQScore:        r.IQScore,
		Percentile:     r.Percentile,
		AbilityLevel:   r.AbilityLevel,
		StandardError:  r.StandardError,
		TotalTimeMs:    r.TotalTimeMs,
		AverageTimeMs:  r.AverageTimeMs,
		ValidityFlags:  flags,
		CompletedAt:    r.CompletedAt,
		Breakdown:      r.CategoryScores,
	}
}

// SessionResultResponse is the reply to GET /results/session/:sessionId.
type SessionResultResponse struct {
	Session        SessionResponse        `json:"session"`
	Result         *ResultResponse        `json:"result"`
	Timing         *domain.TimingAnalysis `json:"timing"`
	TotalQuestions int                    `json:"total_questions"`
	ValidityFlags  []string               `json:"validity_flags"`
}

// HistoryItem is one entry of the results history listing.
type HistoryItem struct {
	Session SessionResponse `json:"session"`
	Result  *ResultResponse `json:"result,omitempty"`
}

// Pagination carries page/limit parameters for listing endpoints.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Offset converts the page number into a row offset.
func (p Pagination) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// HistoryResponse is the paginated reply to GET /results/history.
type HistoryResponse struct {
	Items      []HistoryItem `json:"items"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalCount int           `json:"total_count"`
}
