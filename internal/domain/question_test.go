package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuestionIsCorrect(t *testing.T) {
	q := &Question{CorrectAnswer: "Hive"}

	assert.True(t, q.IsCorrect("Hive"))
	assert.False(t, q.IsCorrect("hive"))
	assert.False(t, q.IsCorrect(" Hive"))
	assert.False(t, q.IsCorrect(""))
}

func TestQuestionValidate(t *testing.T) {
	valid := &Question{
		Type:          QuestionTypeNumeric,
		CorrectAnswer: "42",
		Content:       map[string]interface{}{"prompt": "?"},
	}
	assert.NoError(t, valid.Validate())

	t.Run("unknown type", func(t *testing.T) {
		q := *valid
		q.Type = "astrology"
		assert.Error(t, q.Validate())
	})

	t.Run("missing answer", func(t *testing.T) {
		q := *valid
		q.CorrectAnswer = ""
		assert.Error(t, q.Validate())
	})

	t.Run("empty content", func(t *testing.T) {
		q := *valid
		q.Content = nil
		assert.Error(t, q.Validate())
	})
}
