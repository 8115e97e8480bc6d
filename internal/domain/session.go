package domain

import (
	"time"
)

// SessionStatus is the lifecycle state of a test session.
type SessionStatus string

const (
	SessionStarted    SessionStatus = "started"
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionAbandoned  SessionStatus = "abandoned"
	// SessionInvalid is assignable by integrity tooling only; the normal
	// flow never produces it.
	SessionInvalid SessionStatus = "invalid"
)

// IsTerminal reports whether no further responses may be accepted.
func (s SessionStatus) IsTerminal() bool {
	switch s {
	case SessionCompleted, SessionAbandoned, SessionInvalid:
		return true
	}
	return false
}

// TestType selects one of the static test presets.
type TestType string

const (
	TestTypeFull     TestType = "full"
	TestTypeQuick    TestType = "quick"
	TestTypePractice TestType = "practice"
)

// TestPreset fixes the composition of a test: which categories items are
// drawn from and how many items in total. Selection orders active questions
// by ascending difficulty; the sequence is fixed at session creation.
type TestPreset struct {
	Type          TestType
	QuestionCount int
	Categories    []QuestionType
}

var testPresets = map[TestType]TestPreset{
	TestTypeFull: {
		Type:          TestTypeFull,
		QuestionCount: 60,
		Categories: []QuestionType{
			QuestionTypeNumeric,
			QuestionTypeMatrix,
			QuestionTypeSpatial,
			QuestionTypeVerbal,
			QuestionTypeMemory,
		},
	},
	TestTypeQuick: {
		Type:          TestTypeQuick,
		QuestionCount: 20,
		Categories: []QuestionType{
			QuestionTypeNumeric,
			QuestionTypeMatrix,
			QuestionTypeVerbal,
		},
	},
	TestTypePractice: {
		Type:          TestTypePractice,
		QuestionCount: 10,
		Categories: []QuestionType{
			QuestionTypeNumeric,
		},
	},
}

// PresetFor returns the preset for a test type, or false for an unknown one.
func PresetFor(t TestType) (TestPreset, bool) {
	p, ok := testPresets[t]
	return p, ok
}

// BehaviorCounters are lightweight client-reported signals accumulated on
// the session. They are stored as-is; no validity rule interprets them at
// scoring time.
type BehaviorCounters struct {
	TabSwitches    int  `json:"tab_switches"`
	DevToolsOpened bool `json:"devtools_opened"`
	CopyPasteCount int  `json:"copy_paste_count"`
}

// TestSession is one complete attempt at a test, from start to a terminal
// status. QuestionIDs is fixed at creation; insertion order is presentation
// order. CurrentIndex advances monotonically, exactly once per accepted
// response, and never exceeds len(QuestionIDs).
type TestSession struct {
	ID           string
	UserID       string // empty for anonymous sessions
	AnonToken    string // set iff UserID is empty
	TestType     TestType
	Status       SessionStatus
	QuestionIDs  []string
	CurrentIndex int
	TimeLimitSec int // 0 means no limit
	Behavior     BehaviorCounters
	StartedAt    time.Time
	EndedAt      *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewTestSession creates a session in the Started state.
func NewTestSession(testType TestType, questionIDs []string, timeLimitSec int, userID, anonToken string) *TestSession {
	now := time.Now()
	return &TestSession{
		UserID:       userID,
		AnonToken:    anonToken,
		TestType:     testType,
		Status:       SessionStarted,
		QuestionIDs:  questionIDs,
		CurrentIndex: 0,
		TimeLimitSec: timeLimitSec,
		StartedAt:    now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// TotalQuestions returns the planned length of the test.
func (s *TestSession) TotalQuestions() int {
	return len(s.QuestionIDs)
}

// CurrentQuestionID returns the ID at the current index, or false if the
// session has run through its full sequence.
func (s *TestSession) CurrentQuestionID() (string, bool) {
	if s.CurrentIndex >= len(s.QuestionIDs) {
		return "", false
	}
	return s.QuestionIDs[s.CurrentIndex], true
}

// ElapsedSeconds returns whole seconds since the session started, measured
// at now.
func (s *TestSession) ElapsedSeconds(now time.Time) int {
	return int(now.Sub(s.StartedAt) / time.Second)
}

// Expired reports whether the session's time limit has elapsed at now.
// Sessions without a limit never expire.
func (s *TestSession) Expired(now time.Time) bool {
	if s.TimeLimitSec <= 0 {
		return false
	}
	return s.ElapsedSeconds(now) >= s.TimeLimitSec
}

// TimeRemaining returns the remaining seconds, or nil when no limit is set.
func (s *TestSession) TimeRemaining(now time.Time) *int {
	if s.TimeLimitSec <= 0 {
		return nil
	}
	remaining := s.TimeLimitSec - s.ElapsedSeconds(now)
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}

// OwnedBy reports whether the given authenticated user may access this
// session. Anonymous sessions are checked against their token instead.
func (s *TestSession) OwnedBy(userID, anonToken string) bool {
	if s.UserID != "" {
		return s.UserID == userID
	}
	return s.AnonToken != "" && s.AnonToken == anonToken
}

// Progress is the client-facing position within a session.
type Progress struct {
	Current    int     `json:"current"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// ProgressOf derives the progress snapshot from the current index.
func (s *TestSession) ProgressOf() Progress {
	total := len(s.QuestionIDs)
	pct := 0.0
	if total > 0 {
		pct = float64(s.CurrentIndex) / float64(total) * 100
	}
	return Progress{
		Current:    s.CurrentIndex,
		Total:      total,
		Percentage: pct,
	}
}
