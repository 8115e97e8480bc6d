package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStatusIsTerminal(t *testing.T) {
	assert.False(t, SessionStarted.IsTerminal())
	assert.False(t, SessionInProgress.IsTerminal())
	assert.True(t, SessionCompleted.IsTerminal())
	assert.True(t, SessionAbandoned.IsTerminal())
	assert.True(t, SessionInvalid.IsTerminal())
}

func TestPresetFor(t *testing.T) {
	full, ok := PresetFor(TestTypeFull)
	require.True(t, ok)
	assert.Equal(t, 60, full.QuestionCount)
	assert.Len(t, full.Categories, 5)

	quick, ok := PresetFor(TestTypeQuick)
	require.True(t, ok)
	assert.Equal(t, 20, quick.QuestionCount)
	assert.Len(t, quick.Categories, 3)

	practice, ok := PresetFor(TestTypePractice)
	require.True(t, ok)
	assert.Equal(t, 10, practice.QuestionCount)
	assert.Equal(t, []QuestionType{QuestionTypeNumeric}, practice.Categories)

	_, ok = PresetFor(TestType("marathon"))
	assert.False(t, ok)
}

func TestTestSessionTiming(t *testing.T) {
	start := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s := &TestSession{
		QuestionIDs:  []string{"a", "b", "c"},
		TimeLimitSec: 100,
		StartedAt:    start,
	}

	t.Run("elapsed and remaining", func(t *testing.T) {
		now := start.Add(40 * time.Second)
		assert.Equal(t, 40, s.ElapsedSeconds(now))
		require.NotNil(t, s.TimeRemaining(now))
		assert.Equal(t, 60, *s.TimeRemaining(now))
		assert.False(t, s.Expired(now))
	})

	t.Run("expiry is inclusive of the limit", func(t *testing.T) {
		assert.True(t, s.Expired(start.Add(100*time.Second)))
		assert.True(t, s.Expired(start.Add(101*time.Second)))
	})

	t.Run("remaining clamps at zero", func(t *testing.T) {
		r := s.TimeRemaining(start.Add(500 * time.Second))
		require.NotNil(t, r)
		assert.Equal(t, 0, *r)
	})

	t.Run("no limit never expires", func(t *testing.T) {
		unlimited := &TestSession{StartedAt: start}
		assert.False(t, unlimited.Expired(start.Add(1000*time.Hour)))
		assert.Nil(t, unlimited.TimeRemaining(start))
	})
}

func TestCurrentQuestionID(t *testing.T) {
	s := &TestSession{QuestionIDs: []string{"a", "b"}}

	id, ok := s.CurrentQuestionID()
	require.True(t, ok)
	assert.Equal(t, "a", id)

	s.CurrentIndex = 2
	_, ok = s.CurrentQuestionID()
	assert.False(t, ok)
}

func TestOwnedBy(t *testing.T) {
	t.Run("user sessions match on user id", func(t *testing.T) {
		s := &TestSession{UserID: "u1"}
		assert.True(t, s.OwnedBy("u1", ""))
		assert.False(t, s.OwnedBy("u2", ""))
		assert.False(t, s.OwnedBy("", "anything"))
	})

	t.Run("anonymous sessions match on token", func(t *testing.T) {
		s := &TestSession{AnonToken: "tok"}
		assert.True(t, s.OwnedBy("", "tok"))
		assert.False(t, s.OwnedBy("", "other"))
		assert.False(t, s.OwnedBy("", ""))
	})
}

func TestProgressOf(t *testing.T) {
	s := &TestSession{QuestionIDs: []string{"a", "b", "c", "d"}, CurrentIndex: 1}
	p := s.ProgressOf()
	assert.Equal(t, 1, p.Current)
	assert.Equal(t, 4, p.Total)
	assert.InDelta(t, 25.0, p.Percentage, 1e-9)
}
