package service

import (
	"context"
	"testing"
	"time"

	"mindmetric/internal/domain"
	"mindmetric/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResultServiceForTest(
	sessionRepo *MockSessionRepository,
	resultRepo *MockResultRepository,
	scoring *MockScoringService,
	now time.Time,
) *resultService {
	return &resultService{
		sessionRepo: sessionRepo,
		resultRepo:  resultRepo,
		scoring:     scoring,
		stateCache:  newSessionStateCache(nil, 0),
		now:         func() time.Time { return now },
	}
}

func TestGetSessionResult(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	endedAt := now.Add(-time.Hour)

	completedSession := func() *domain.TestSession {
		return &domain.TestSession{
			ID:          "sess-1",
			AnonToken:   "anon-1",
			TestType:    domain.TestTypeQuick,
			Status:      domain.SessionCompleted,
			QuestionIDs: []string{"q1", "q2"},
			StartedAt:   endedAt.Add(-20 * time.Minute),
			EndedAt:     &endedAt,
		}
	}
	storedResult := &domain.TestResult{
		SessionID:      "sess-1",
		RawScore:       1,
		TotalQuestions: 2,
		IQScore:        100,
		Percentile:     50,
		StandardError:  5.0,
		CompletedAt:    endedAt,
	}
	timing := &domain.TimingAnalysis{TotalTimeMs: 3000, AverageTimeMs: 1500}

	t.Run("returns the stored report with timing", func(t *testing.T) {
		sessionRepo := new(MockSessionRepository)
		resultRepo := new(MockResultRepository)
		scoring := new(MockScoringService)
		svc := newResultServiceForTest(sessionRepo, resultRepo, scoring, now)

		sessionRepo.On("GetSessionByID", ctx, "sess-1").Return(completedSession(), nil)
		resultRepo.On("GetBySessionID", ctx, "sess-1").Return(storedResult, nil)
		scoring.On("AnalyzeTiming", ctx, "sess-1").Return(timing, nil)

		resp, err := svc.GetSessionResult(ctx, "sess-1", "", "anon-1")
		require.NoError(t, err)
		require.NotNil(t, resp.Result)
		assert.Equal(t, 100, resp.Result.IQScore)
		assert.Equal(t, 2, resp.TotalQuestions)
		assert.Empty(t, resp.Session.AnonToken)
		assert.NotNil(t, resp.Timing)
		assert.NotNil(t, resp.ValidityFlags)
	})

	t.Run("missing result for a completed session triggers computation", func(t *testing.T) {
		sessionRepo := new(MockSessionRepository)
		resultRepo := new(MockResultRepository)
		scoring := new(MockScoringService)
		svc := newResultServiceForTest(sessionRepo, resultRepo, scoring, now)

		sessionRepo.On("GetSessionByID", ctx, "sess-1").Return(completedSession(), nil)
		resultRepo.On("GetBySessionID", ctx, "sess-1").Return(nil, nil)
		scoring.On("ComputeResult", ctx, "sess-1").Return(storedResult, nil)
		scoring.On("AnalyzeTiming", ctx, "sess-1").Return(timing, nil)

		resp, err := svc.GetSessionResult(ctx, "sess-1", "", "anon-1")
		require.NoError(t, err)
		assert.Equal(t, 100, resp.Result.IQScore)
		scoring.AssertExpectations(t)
	})

	t.Run("in-progress session has no result yet", func(t *testing.T) {
		sessionRepo := new(MockSessionRepository)
		svc := newResultServiceForTest(sessionRepo, new(MockResultRepository), new(MockScoringService), now)

		session := completedSession()
		session.Status = domain.SessionInProgress
		session.EndedAt = nil
		session.StartedAt = now.Add(-time.Minute)
		sessionRepo.On("GetSessionByID", ctx, "sess-1").Return(session, nil)

		_, err := svc.GetSessionResult(ctx, "sess-1", "", "anon-1")
		require.Error(t, err)
		var dErr *domain.DomainError
		require.ErrorAs(t, err, &dErr)
		assert.Equal(t, domain.CodeIncompleteSession, dErr.Code)
	})

	t.Run("abandoned session has no result at all", func(t *testing.T) {
		sessionRepo := new(MockSessionRepository)
		svc := newResultServiceForTest(sessionRepo, new(MockResultRepository), new(MockScoringService), now)

		session := completedSession()
		session.Status = domain.SessionAbandoned
		sessionRepo.On("GetSessionByID", ctx, "sess-1").Return(session, nil)

		_, err := svc.GetSessionResult(ctx, "sess-1", "", "anon-1")
		require.Error(t, err)
		var dErr *domain.DomainError
		require.ErrorAs(t, err, &dErr)
		assert.Equal(t, domain.CodeResultNotFound, dErr.Code)
	})

	t.Run("foreign caller is rejected", func(t *testing.T) {
		sessionRepo := new(MockSessionRepository)
		svc := newResultServiceForTest(sessionRepo, new(MockResultRepository), new(MockScoringService), now)

		sessionRepo.On("GetSessionByID", ctx, "sess-1").Return(completedSession(), nil)

		_, err := svc.GetSessionResult(ctx, "sess-1", "", "wrong-token")
		require.Error(t, err)
	})
}

func TestGetHistory(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	t.Run("pages through completed sessions", func(t *testing.T) {
		sessionRepo := new(MockSessionRepository)
		resultRepo := new(MockResultRepository)
		svc := newResultServiceForTest(sessionRepo, resultRepo, new(MockScoringService), now)

		sessions := []*domain.TestSession{
			{ID: "s1", UserID: "user-1", Status: domain.SessionCompleted, QuestionIDs: []string{"q"}, StartedAt: now},
			{ID: "s2", UserID: "user-1", Status: domain.SessionCompleted, QuestionIDs: []string{"q"}, StartedAt: now},
		}
		sessionRepo.On("ListCompletedByUser", ctx, "user-1", 20, 20).Return(sessions, 42, nil)
		resultRepo.On("GetBySessionID", ctx, "s1").Return(&domain.TestResult{SessionID: "s1", IQScore: 110}, nil)
		resultRepo.On("GetBySessionID", ctx, "s2").Return(nil, nil)

		resp, err := svc.GetHistory(ctx, "user-1", dto.Pagination{Page: 2, Limit: 20})
		require.NoError(t, err)
		assert.Equal(t, 42, resp.TotalCount)
		assert.Equal(t, 2, resp.Page)
		require.Len(t, resp.Items, 2)
		assert.Equal(t, 110, resp.Items[0].Result.IQScore)
		assert.Nil(t, resp.Items[1].Result)
	})

	t.Run("bad pagination falls back to defaults", func(t *testing.T) {
		sessionRepo := new(MockSessionRepository)
		svc := newResultServiceForTest(sessionRepo, new(MockResultRepository), new(MockScoringService), now)

		sessionRepo.On("ListCompletedByUser", ctx, "user-1", 0, 20).Return([]*domain.TestSession{}, 0, nil)

		resp, err := svc.GetHistory(ctx, "user-1", dto.Pagination{Page: -3, Limit: 9999})
		require.NoError(t, err)
		assert.Equal(t, 1, resp.Page)
		assert.Equal(t, 20, resp.Limit)
	})
}
