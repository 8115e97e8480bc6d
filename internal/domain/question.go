package domain

import "time"

// QuestionType identifies one of the six fixed item categories.
type QuestionType string

const (
	QuestionTypeNumeric QuestionType = "numeric"
	QuestionTypeMatrix  QuestionType = "matrix"
	QuestionTypeSpatial QuestionType = "spatial"
	QuestionTypeVerbal  QuestionType = "verbal"
	QuestionTypeMemory  QuestionType = "memory"
	QuestionTypeSpeed   QuestionType = "speed"
)

// AllQuestionTypes lists every valid item category.
var AllQuestionTypes = []QuestionType{
	QuestionTypeNumeric,
	QuestionTypeMatrix,
	QuestionTypeSpatial,
	QuestionTypeVerbal,
	QuestionTypeMemory,
	QuestionTypeSpeed,
}

// IsValidQuestionType reports whether t names a known category.
func IsValidQuestionType(t QuestionType) bool {
	for _, known := range AllQuestionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Question is one item of the test bank. The IRT-shaped parameters
// (Difficulty, Discrimination, Guessing) are stored metadata; selection only
// orders by Difficulty and scoring only averages it per category. Content is
// a free-form payload (sequence, matrix cells, options) rendered by the
// client; CorrectAnswer is the grading key and must never leave the backend.
type Question struct {
	ID             string
	Type           QuestionType
	Category       string
	Difficulty     float64
	Discrimination float64
	Guessing       float64
	Content        map[string]interface{}
	CorrectAnswer  string
	Active         bool

	// Usage statistics, updated opportunistically after submissions.
	TimesUsed   int64
	AvgTimeMs   float64
	SuccessRate float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate validates the question
func (q *Question) Validate() error {
	if !IsValidQuestionType(q.Type) {
		return NewValidationError("unknown question type: " + string(q.Type))
	}
	if q.CorrectAnswer == "" {
		return NewValidationError("correct answer is required")
	}
	if len(q.Content) == 0 {
		return NewValidationError("content payload is required")
	}
	return nil
}

// IsCorrect grades a submitted answer by exact, case-sensitive string
// equality against the stored key. No normalization is applied; this is a
// deliberate product limitation, not an oversight.
func (q *Question) IsCorrect(answer string) bool {
	return answer == q.CorrectAnswer
}
