package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"mindmetric/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseDatabaseAdapter_CreateResponse(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts the response", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewResponseDatabaseAdapter(db)

		mock.ExpectExec(`INSERT INTO responses`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		response := &domain.Response{
			SessionID:      "sess-1",
			QuestionID:     "q1",
			Answer:         "32",
			IsCorrect:      true,
			ResponseTimeMs: 1500,
		}
		require.NoError(t, repo.CreateResponse(ctx, response))
		assert.NotEmpty(t, response.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation becomes a duplicate response error", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewResponseDatabaseAdapter(db)

		mock.ExpectExec(`INSERT INTO responses`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "uq_responses_session_question"})

		err := repo.CreateResponse(ctx, &domain.Response{SessionID: "sess-1", QuestionID: "q1", Answer: "32"})
		require.Error(t, err)
		var dErr *domain.DomainError
		require.ErrorAs(t, err, &dErr)
		assert.Equal(t, domain.CodeDuplicateResponse, dErr.Code)
	})

	t.Run("other database errors pass through wrapped", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewResponseDatabaseAdapter(db)

		dbErr := errors.New("connection reset")
		mock.ExpectExec(`INSERT INTO responses`).WillReturnError(dbErr)

		err := repo.CreateResponse(ctx, &domain.Response{SessionID: "sess-1", QuestionID: "q1", Answer: "32"})
		require.Error(t, err)
		assert.ErrorIs(t, err, dbErr)
	})
}

func TestResponseDatabaseAdapter_GetBySession(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewResponseDatabaseAdapter(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "session_id", "question_id", "answer", "is_correct",
		"response_time_ms", "behavior", "created_at",
	}).
		AddRow("r1", "sess-1", "q1", "32", true, 1500, `{"tab_switches":1}`, now).
		AddRow("r2", "sess-1", "q2", "13", false, 2000, nil, now.Add(time.Second))

	mock.ExpectQuery(`SELECT (.+) FROM responses`).
		WithArgs("sess-1").
		WillReturnRows(rows)

	responses, err := repo.GetBySession(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, responses, 2)
	assert.Equal(t, "q1", responses[0].QuestionID)
	assert.True(t, responses[0].IsCorrect)
	assert.Equal(t, float64(1), responses[0].Behavior["tab_switches"])
	assert.False(t, responses[1].IsCorrect)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResponseDatabaseAdapter_CountBySession(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewResponseDatabaseAdapter(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM responses`).
		WithArgs("sess-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	count, err := repo.CountBySession(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}
