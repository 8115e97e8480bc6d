package domain

import "time"

// Response is one answer to one question within a session, unique per
// (session, question) pair. IsCorrect is an immutable fact captured at
// submit time against the key the question carried then; it is never
// re-derived from a possibly edited question.
type Response struct {
	ID             string
	SessionID      string
	QuestionID     string
	Answer         string
	IsCorrect      bool
	ResponseTimeMs int
	Behavior       map[string]interface{}
	CreatedAt      time.Time
}

// CategoryScore is the per-category slice of a result breakdown.
// SuccessRate is a fraction in [0, 1].
type CategoryScore struct {
	Total             int     `json:"total"`
	Correct           int     `json:"correct"`
	SuccessRate       float64 `json:"success_rate"`
	AverageTimeMs     float64 `json:"average_time_ms"`
	AverageDifficulty float64 `json:"average_difficulty"`
}

// TimingAnalysis summarizes response times across a session. It is exposed
// alongside a result but not persisted on it.
type TimingAnalysis struct {
	TotalTimeMs   int     `json:"total_time_ms"`
	AverageTimeMs float64 `json:"average_time_ms"`
	MedianTimeMs  float64 `json:"median_time_ms"`
	MinTimeMs     int     `json:"min_time_ms"`
	MaxTimeMs     int     `json:"max_time_ms"`
}

// TestResult is the persisted score report, at most one per session.
// StandardError is a fixed placeholder (no estimation backs it) and
// ValidityFlags is always empty in the current product; both are stored
// verbatim rather than computed.
type TestResult struct {
	ID             string
	SessionID      string
	RawScore       int
	TotalQuestions int
	IQScore        int
	Percentile     float64
	AbilityLevel   float64
	StandardError  float64
	CategoryScores map[string]CategoryScore
	TotalTimeMs    int
	AverageTimeMs  float64
	ValidityFlags  []string
	CompletedAt    time.Time
	CreatedAt      time.Time
}

// NormGroup is a read-only population reference used to place an IQ score
// within a distribution. The overall group carries mean 100 / sd 15.
type NormGroup struct {
	ID        string
	Name      string
	AgeMin    int
	AgeMax    int
	Country   string
	Mean      float64
	StdDev    float64
	CreatedAt time.Time
}
