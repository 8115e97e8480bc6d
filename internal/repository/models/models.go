package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mindmetric/internal/domain"

	"github.com/lib/pq"
)

// JSONMap stores a free-form JSON object in a jsonb column.
type JSONMap map[string]interface{}

// Value implements the driver.Valuer interface
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	jsonData, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(jsonData), nil
}

// Scan implements the sql.Scanner interface
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}

	var bytesToParse []byte
	switch v := value.(type) {
	case []byte:
		bytesToParse = v
	case string:
		bytesToParse = []byte(v)
	default:
		return errors.New("JSONMap Scan: unsupported type " + fmt.Sprintf("%T", value))
	}

	if len(bytesToParse) == 0 || string(bytesToParse) == "null" {
		*m = JSONMap{}
		return nil
	}
	return json.Unmarshal(bytesToParse, m)
}

// StringSlice stores a string array as a JSON document.
type StringSlice []string

// Value implements the driver.Valuer interface
func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	jsonData, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(jsonData), nil
}

// Scan implements the sql.Scanner interface
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}

	var bytesToParse []byte
	switch v := value.(type) {
	case []byte:
		bytesToParse = v
	case string:
		bytesToParse = []byte(v)
	default:
		return errors.New("StringSlice Scan: unsupported type " + fmt.Sprintf("%T", value))
	}

	if len(bytesToParse) == 0 || string(bytesToParse) == "null" {
		*s = StringSlice{}
		return nil
	}
	return json.Unmarshal(bytesToParse, s)
}

// CategoryScoreMap stores the per-category breakdown as a JSON document.
type CategoryScoreMap map[string]domain.CategoryScore

// Value implements the driver.Valuer interface
func (m CategoryScoreMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	jsonData, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(jsonData), nil
}

// Scan implements the sql.Scanner interface
func (m *CategoryScoreMap) Scan(value interface{}) error {
	if value == nil {
		*m = CategoryScoreMap{}
		return nil
	}

	var bytesToParse []byte
	switch v := value.(type) {
	case []byte:
		bytesToParse = v
	case string:
		bytesToParse = []byte(v)
	default:
		return errors.New("CategoryScoreMap Scan: unsupported type " + fmt.Sprintf("%T", value))
	}

	if len(bytesToParse) == 0 || string(bytesToParse) == "null" {
		*m = CategoryScoreMap{}
		return nil
	}
	return json.Unmarshal(bytesToParse, m)
}

// Question is a row of the question bank.
type Question struct {
	ID             string       `db:"id"`
	Type           string       `db:"type"`
	Category       string       `db:"category"`
	Difficulty     float64      `db:"difficulty"`
	Discrimination float64      `db:"discrimination"`
	Guessing       float64      `db:"guessing"`
	Content        JSONMap      `db:"content"`
	CorrectAnswer  string       `db:"correct_answer"`
	Active         bool         `db:"active"`
	TimesUsed      int64        `db:"times_used"`
	AvgTimeMs      float64      `db:"avg_time_ms"`
	SuccessRate    float64      `db:"success_rate"`
	CreatedAt      time.Time    `db:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at"`
	DeletedAt      sql.NullTime `db:"deleted_at"`
}

// TestSession is a row of test_sessions. QuestionIDs keeps its insertion
// order, which is the presentation order of the test.
type TestSession struct {
	ID             string         `db:"id"`
	UserID         sql.NullString `db:"user_id"`
	AnonToken      sql.NullString `db:"anon_token"`
	TestType       string         `db:"test_type"`
	Status         string         `db:"status"`
	QuestionIDs    pq.StringArray `db:"question_ids"`
	CurrentIndex   int            `db:"current_index"`
	TimeLimitSec   sql.NullInt64  `db:"time_limit_sec"`
	TabSwitches    int            `db:"tab_switches"`
	DevtoolsOpened bool           `db:"devtools_opened"`
	CopyPasteCount int            `db:"copy_paste_count"`
	StartedAt      time.Time      `db:"started_at"`
	EndedAt        sql.NullTime   `db:"ended_at"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

// Response is a row of responses, unique per (session_id, question_id).
type Response struct {
	ID             string    `db:"id"`
	SessionID      string    `db:"session_id"`
	QuestionID     string    `db:"question_id"`
	Answer         string    `db:"answer"`
	IsCorrect      bool      `db:"is_correct"`
	ResponseTimeMs int       `db:"response_time_ms"`
	Behavior       JSONMap   `db:"behavior"`
	CreatedAt      time.Time `db:"created_at"`
}

// TestResult is a row of test_results, unique per session_id.
type TestResult struct {
	ID             string           `db:"id"`
	SessionID      string           `db:"session_id"`
	RawScore       int              `db:"raw_score"`
	TotalQuestions int              `db:"total_questions"`
	IQScore        int              `db:"iq_score"`
	Percentile     float64          `db:"percentile"`
	AbilityLevel   float64          `db:"ability_level"`
	StandardError  float64          `db:"standard_error"`
	CategoryScores CategoryScoreMap `db:"category_scores"`
	TotalTimeMs    int              `db:"total_time_ms"`
	AverageTimeMs  float64          `db:"average_time_ms"`
	ValidityFlags  StringSlice      `db:"validity_flags"`
	CompletedAt    time.Time        `db:"completed_at"`
	CreatedAt      time.Time        `db:"created_at"`
}

// User is a row of users.
type User struct {
	ID                string         `db:"id"`
	GoogleID          string         `db:"google_id"`
	Email             string         `db:"email"`
	Name              sql.NullString `db:"name"`
	ProfilePictureURL sql.NullString `db:"profile_picture_url"`
	Age               sql.NullInt64  `db:"age"`
	Gender            sql.NullString `db:"gender"`
	Education         sql.NullString `db:"education"`
	Country           sql.NullString `db:"country"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
	DeletedAt         sql.NullTime   `db:"deleted_at"`
}

// NormGroup is a row of the static norm_groups reference table.
type NormGroup struct {
	ID        string         `db:"id"`
	Name      string         `db:"name"`
	AgeMin    int            `db:"age_min"`
	AgeMax    int            `db:"age_max"`
	Country   sql.NullString `db:"country"`
	Mean      float64        `db:"mean"`
	StdDev    float64        `db:"std_dev"`
	CreatedAt time.Time      `db:"created_at"`
}
