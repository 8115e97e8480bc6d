package dto

import (
	"time"

	"mindmetric/internal/domain"
)

// StartTestRequest is the body of POST /test/start.
// @Description Request body for starting a test session
type StartTestRequest struct {
	TestType     string `json:"test_type"`
	TimeLimitSec int    `json:"time_limit,omitempty"`
}

// QuestionResponse is a bank item with the grading key stripped.
// @Description Question presented to the test taker
type QuestionResponse struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Category   string                 `json:"category"`
	Difficulty float64                `json:"difficulty"`
	Content    map[string]interface{} `json:"content"`
}

// ToQuestionResponse converts a domain question to its public shape. The
// correct answer never crosses this boundary.
func ToQuestionResponse(q *domain.Question) *QuestionResponse {
	if q == nil {
		return nil
	}
	return &QuestionResponse{
		ID:         q.ID,
		Type:       string(q.Type),
		Category:   q.Category,
		Difficulty: q.Difficulty,
		Content:    q.Content,
	}
}

// SessionResponse is the session snapshot returned by the test endpoints.
type SessionResponse struct {
	ID           string `json:"id"`
	TestType     string `json:"test_type"`
	Status       string `json:"status"`
	TimeLimitSec int    `json:"time_limit,omitempty"`
	AnonToken    string `json:"anon_token,omitempty"`
	StartedAt    string `json:"started_at"`
}

// ToSessionResponse converts a domain session to its API shape.
func ToSessionResponse(s *domain.TestSession) SessionResponse {
	return SessionResponse{
		ID:           s.ID,
		TestType:     string(s.TestType),
		Status:       string(s.Status),
		TimeLimitSec: s.TimeLimitSec,
		AnonToken:    s.AnonToken,
		StartedAt:    s.StartedAt.Format(time.RFC3339),
	}
}

// StartTestResponse is the reply to POST /test/start.
type StartTestResponse struct {
	Session         SessionResponse   `json:"session"`
	CurrentQuestion *QuestionResponse `json:"current_question"`
	Progress        domain.Progress   `json:"progress"`
	Message         string            `json:"message"`
}

// CurrentQuestionResponse is the reply to GET /test/:sessionId/question.
type CurrentQuestionResponse struct {
	Question      *QuestionResponse `json:"question"`
	Progress      domain.Progress   `json:"progress"`
	TimeRemaining *int              `json:"time_remaining"`
}

// SubmitResponseRequest is the body of POST /test/:sessionId/response.
// @Description Request body for submitting an answer
type SubmitResponseRequest struct {
	QuestionID     string                 `json:"question_id"`
	Answer         string                 `json:"answer"`
	ResponseTimeMs int                    `json:"response_time"`
	BehaviorData   map[string]interface{} `json:"behavior_data,omitempty"`
}

// SubmitResponseResponse is the reply to POST /test/:sessionId/response.
// NextQuestion and Progress are omitted once the session completes.
type SubmitResponseResponse struct {
	IsCorrect    bool              `json:"is_correct"`
	Completed    bool              `json:"completed"`
	NextQuestion *QuestionResponse `json:"next_question,omitempty"`
	Progress     *domain.Progress  `json:"progress,omitempty"`
}

// SessionStatusResponse is the reply to GET /test/:sessionId/status.
type SessionStatusResponse struct {
	Session SessionStatusBody `json:"session"`
}

type SessionStatusBody struct {
	ID            string          `json:"id"`
	Status        string          `json:"status"`
	Progress      domain.Progress `json:"progress"`
	ElapsedSec    int             `json:"elapsed_seconds"`
	TimeRemaining *int            `json:"time_remaining"`
}

// MessageResponse is a bare confirmation payload.
type MessageResponse struct {
	Message string `json:"message"`
}
