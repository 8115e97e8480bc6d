package service

import (
	"context"
	"testing"
	"time"

	"mindmetric/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newScoringServiceForTest(
	sessionRepo *MockSessionRepository,
	responseRepo *MockResponseRepository,
	questionRepo *MockQuestionRepository,
	resultRepo *MockResultRepository,
	userRepo *MockUserRepository,
	normRepo *MockNormGroupRepository,
) *scoringService {
	return &scoringService{
		sessionRepo:  sessionRepo,
		responseRepo: responseRepo,
		questionRepo: questionRepo,
		resultRepo:   resultRepo,
		userRepo:     userRepo,
		normRepo:     normRepo,
		now:          func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func TestComputeIQScore(t *testing.T) {
	tests := []struct {
		name     string
		raw      int
		total    int
		expected int
	}{
		{"half correct sits at 100", 5, 10, 100},
		{"all correct", 10, 10, 115},
		{"none correct", 0, 10, 85},
		{"zero questions clamps low", 0, 0, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, computeIQScore(tt.raw, tt.total))
		})
	}

	t.Run("monotonic in raw score", func(t *testing.T) {
		prev := -1
		for raw := 0; raw <= 60; raw++ {
			iq := computeIQScore(raw, 60)
			assert.GreaterOrEqual(t, iq, prev)
			prev = iq
		}
	})

	t.Run("always within bounds", func(t *testing.T) {
		for total := 1; total <= 60; total++ {
			for raw := 0; raw <= total; raw++ {
				iq := computeIQScore(raw, total)
				assert.GreaterOrEqual(t, iq, 40)
				assert.LessOrEqual(t, iq, 200)
			}
		}
	})
}

func TestComputeResult(t *testing.T) {
	ctx := context.Background()
	endedAt := time.Date(2026, 8, 1, 11, 30, 0, 0, time.UTC)

	makeSession := func(status domain.SessionStatus) *domain.TestSession {
		return &domain.TestSession{
			ID:          "sess-1",
			AnonToken:   "anon-1",
			TestType:    domain.TestTypePractice,
			Status:      status,
			QuestionIDs: []string{"q1", "q2", "q3", "q4"},
			StartedAt:   endedAt.Add(-10 * time.Minute),
			EndedAt:     &endedAt,
		}
	}
	questions := map[string]*domain.Question{
		"q1": {ID: "q1", Type: domain.QuestionTypeNumeric, Difficulty: -1},
		"q2": {ID: "q2", Type: domain.QuestionTypeNumeric, Difficulty: 0},
		"q3": {ID: "q3", Type: domain.QuestionTypeVerbal, Difficulty: 1},
		"q4": {ID: "q4", Type: domain.QuestionTypeVerbal, Difficulty: 2},
	}
	responses := []*domain.Response{
		{QuestionID: "q1", IsCorrect: true, ResponseTimeMs: 1000},
		{QuestionID: "q2", IsCorrect: false, ResponseTimeMs: 3000},
		{QuestionID: "q3", IsCorrect: true, ResponseTimeMs: 2000},
		{QuestionID: "q4", IsCorrect: true, ResponseTimeMs: 4000},
	}

	t.Run("computes and stores a fresh result", func(t *testing.T) {
		sessionRepo := new(MockSessionRepository)
		responseRepo := new(MockResponseRepository)
		questionRepo := new(MockQuestionRepository)
		resultRepo := new(MockResultRepository)
		userRepo := new(MockUserRepository)
		normRepo := new(MockNormGroupRepository)
		svc := newScoringServiceForTest(sessionRepo, responseRepo, questionRepo, resultRepo, userRepo, normRepo)

		resultRepo.On("GetBySessionID", ctx, "sess-1").Return(nil, nil)
		sessionRepo.On("GetSessionByID", ctx, "sess-1").Return(makeSession(domain.SessionCompleted), nil)
		responseRepo.On("GetBySession", ctx, "sess-1").Return(responses, nil)
		questionRepo.On("GetQuestionsByIDs", ctx, []string{"q1", "q2", "q3", "q4"}).Return(questions, nil)
		resultRepo.On("CreateResult", ctx, mock.AnythingOfType("*domain.TestResult")).Return(nil)

		result, err := svc.ComputeResult(ctx, "sess-1")
		require.NoError(t, err)

		assert.Equal(t, 3, result.RawScore)
		assert.Equal(t, 4, result.TotalQuestions)
		// 3/4 correct: 100 + (0.75-0.5)*30 = 107.5, rounds to 108.
		assert.Equal(t, 108, result.IQScore)
		assert.InDelta(t, (108.0-100.0)/15.0, result.AbilityLevel, 1e-9)
		assert.Equal(t, 5.0, result.StandardError)
		assert.Empty(t, result.ValidityFlags)
		assert.Equal(t, 10000, result.TotalTimeMs)
		assert.InDelta(t, 2500.0, result.AverageTimeMs, 1e-9)
		assert.Equal(t, endedAt, result.CompletedAt)

		numeric := result.CategoryScores["numeric"]
		assert.Equal(t, 2, numeric.Total)
		assert.Equal(t, 1, numeric.Correct)
		assert.InDelta(t, 0.5, numeric.SuccessRate, 1e-9)
		assert.InDelta(t, 2000.0, numeric.AverageTimeMs, 1e-9)
		assert.InDelta(t, -0.5, numeric.AverageDifficulty, 1e-9)

		verbal := result.CategoryScores["verbal"]
		assert.Equal(t, 2, verbal.Total)
		assert.Equal(t, 2, verbal.Correct)

		resultRepo.AssertExpectations(t)
	})

	t.Run("percentile at the population mean is 50", func(t *testing.T) {
		sessionRepo := new(MockSessionRepository)
		responseRepo := new(MockResponseRepository)
		questionRepo := new(MockQuestionRepository)
		resultRepo := new(MockResultRepository)
		svc := newScoringServiceForTest(sessionRepo, responseRepo, questionRepo, resultRepo, new(MockUserRepository), new(MockNormGroupRepository))

		half := []*domain.Response{
			{QuestionID: "q1", IsCorrect: true, ResponseTimeMs: 1000},
			{QuestionID: "q2", IsCorrect: true, ResponseTimeMs: 1000},
			{QuestionID: "q3", IsCorrect: false, ResponseTimeMs: 1000},
			{QuestionID: "q4", IsCorrect: false, ResponseTimeMs: 1000},
		}
		resultRepo.On("GetBySessionID", ctx, "sess-1").Return(nil, nil)
		sessionRepo.On("GetSessionByID", ctx, "sess-1").Return(makeSession(domain.SessionCompleted), nil)
		responseRepo.On("GetBySession", ctx, "sess-1").Return(half, nil)
		questionRepo.On("GetQuestionsByIDs", ctx, mock.Anything).Return(questions, nil)
		resultRepo.On("CreateResult", ctx, mock.Anything).Return(nil)

		result, err := svc.ComputeResult(ctx, "sess-1")
		require.NoError(t, err)
		assert.Equal(t, 100, result.IQScore)
		assert.InDelta(t, 50.0, result.Percentile, 0.01)
	})

	t.Run("idempotent when a result already exists", func(t *testing.T) {
		resultRepo := new(MockResultRepository)
		svc := newScoringServiceForTest(new(MockSessionRepository), new(MockResponseRepository), new(MockQuestionRepository), resultRepo, new(MockUserRepository), new(MockNormGroupRepository))

		existing := &domain.TestResult{ID: "r1", SessionID: "sess-1", IQScore: 112}
		resultRepo.On("GetBySessionID", ctx, "sess-1").Return(existing, nil)

		result, err := svc.ComputeResult(ctx, "sess-1")
		require.NoError(t, err)
		assert.Same(t, existing, result)
	})

	t.Run("partial timeout scoring counts unanswered as incorrect", func(t *testing.T) {
		sessionRepo := new(MockSessionRepository)
		responseRepo := new(MockResponseRepository)
		questionRepo := new(MockQuestionRepository)
		resultRepo := new(MockResultRepository)
		svc := newScoringServiceForTest(sessionRepo, responseRepo, questionRepo, resultRepo, new(MockUserRepository), new(MockNormGroupRepository))

		partial := []*domain.Response{
			{QuestionID: "q1", IsCorrect: true, ResponseTimeMs: 1500},
			{QuestionID: "q2", IsCorrect: true, ResponseTimeMs: 2500},
		}
		resultRepo.On("GetBySessionID", ctx, "sess-1").Return(nil, nil)
		sessionRepo.On("GetSessionByID", ctx, "sess-1").Return(makeSession(domain.SessionCompleted), nil)
		responseRepo.On("GetBySession", ctx, "sess-1").Return(partial, nil)
		questionRepo.On("GetQuestionsByIDs", ctx, mock.Anything).Return(questions, nil)
		resultRepo.On("CreateResult", ctx, mock.Anything).Return(nil)

		result, err := svc.ComputeResult(ctx, "sess-1")
		require.NoError(t, err)
		assert.Equal(t, 2, result.RawScore)
		assert.Equal(t, 4, result.TotalQuestions)
		assert.Equal(t, 100, result.IQScore)

		verbal := result.CategoryScores["verbal"]
		assert.Equal(t, 2, verbal.Total)
		assert.Equal(t, 0, verbal.Correct)
		assert.Zero(t, verbal.AverageTimeMs)
	})

	t.Run("rejects sessions that are not completed", func(t *testing.T) {
		sessionRepo := new(MockSessionRepository)
		resultRepo := new(MockResultRepository)
		svc := newScoringServiceForTest(sessionRepo, new(MockResponseRepository), new(MockQuestionRepository), resultRepo, new(MockUserRepository), new(MockNormGroupRepository))

		resultRepo.On("GetBySessionID", ctx, "sess-1").Return(nil, nil)
		sessionRepo.On("GetSessionByID", ctx, "sess-1").Return(makeSession(domain.SessionInProgress), nil)

		_, err := svc.ComputeResult(ctx, "sess-1")
		require.Error(t, err)
		var dErr *domain.DomainError
		require.ErrorAs(t, err, &dErr)
		assert.Equal(t, domain.CodeIncompleteSession, dErr.Code)
	})

	t.Run("lost creation race returns the stored row", func(t *testing.T) {
		sessionRepo := new(MockSessionRepository)
		responseRepo := new(MockResponseRepository)
		questionRepo := new(MockQuestionRepository)
		resultRepo := new(MockResultRepository)
		svc := newScoringServiceForTest(sessionRepo, responseRepo, questionRepo, resultRepo, new(MockUserRepository), new(MockNormGroupRepository))

		stored := &domain.TestResult{ID: "r-other", SessionID: "sess-1"}
		resultRepo.On("GetBySessionID", ctx, "sess-1").Return(nil, nil).Twice()
		sessionRepo.On("GetSessionByID", ctx, "sess-1").Return(makeSession(domain.SessionCompleted), nil)
		responseRepo.On("GetBySession", ctx, "sess-1").Return(responses, nil)
		questionRepo.On("GetQuestionsByIDs", ctx, mock.Anything).Return(questions, nil)
		resultRepo.On("CreateResult", ctx, mock.Anything).Return(domain.NewConflictError("duplicate"))
		resultRepo.On("GetBySessionID", ctx, "sess-1").Return(stored, nil)

		result, err := svc.ComputeResult(ctx, "sess-1")
		require.NoError(t, err)
		assert.Same(t, stored, result)
	})

	t.Run("authenticated taker uses their norm group", func(t *testing.T) {
		sessionRepo := new(MockSessionRepository)
		responseRepo := new(MockResponseRepository)
		questionRepo := new(MockQuestionRepository)
		resultRepo := new(MockResultRepository)
		userRepo := new(MockUserRepository)
		normRepo := new(MockNormGroupRepository)
		svc := newScoringServiceForTest(sessionRepo, responseRepo, questionRepo, resultRepo, userRepo, normRepo)

		session := makeSession(domain.SessionCompleted)
		session.UserID = "user-1"
		session.AnonToken = ""
		user := &domain.User{ID: "user-1", Demographics: domain.Demographics{Age: 25}}
		group := &domain.NormGroup{Mean: 95, StdDev: 10}

		resultRepo.On("GetBySessionID", ctx, "sess-1").Return(nil, nil)
		sessionRepo.On("GetSessionByID", ctx, "sess-1").Return(session, nil)
		responseRepo.On("GetBySession", ctx, "sess-1").Return(responses, nil)
		questionRepo.On("GetQuestionsByIDs", ctx, mock.Anything).Return(questions, nil)
		userRepo.On("GetUserByID", ctx, "user-1").Return(user, nil)
		normRepo.On("FindForDemographics", ctx, user.Demographics).Return(group, nil)
		resultRepo.On("CreateResult", ctx, mock.Anything).Return(nil)

		result, err := svc.ComputeResult(ctx, "sess-1")
		require.NoError(t, err)
		// IQ 108 against mean 95 / sd 10 sits above the 85th percentile.
		assert.Greater(t, result.Percentile, 85.0)
	})
}

func TestAnalyzeTiming(t *testing.T) {
	ctx := context.Background()

	t.Run("odd count takes the middle value", func(t *testing.T) {
		responseRepo := new(MockResponseRepository)
		svc := newScoringServiceForTest(new(MockSessionRepository), responseRepo, new(MockQuestionRepository), new(MockResultRepository), new(MockUserRepository), new(MockNormGroupRepository))

		responseRepo.On("GetBySession", ctx, "sess-1").Return([]*domain.Response{
			{ResponseTimeMs: 3000},
			{ResponseTimeMs: 1000},
			{ResponseTimeMs: 2000},
		}, nil)

		timing, err := svc.AnalyzeTiming(ctx, "sess-1")
		require.NoError(t, err)
		assert.Equal(t, 6000, timing.TotalTimeMs)
		assert.InDelta(t, 2000.0, timing.AverageTimeMs, 1e-9)
		assert.InDelta(t, 2000.0, timing.MedianTimeMs, 1e-9)
		assert.Equal(t, 1000, timing.MinTimeMs)
		assert.Equal(t, 3000, timing.MaxTimeMs)
	})

	t.Run("even count averages the middle pair", func(t *testing.T) {
		responseRepo := new(MockResponseRepository)
		svc := newScoringServiceForTest(new(MockSessionRepository), responseRepo, new(MockQuestionRepository), new(MockResultRepository), new(MockUserRepository), new(MockNormGroupRepository))

		responseRepo.On("GetBySession", ctx, "sess-1").Return([]*domain.Response{
			{ResponseTimeMs: 1000},
			{ResponseTimeMs: 2000},
			{ResponseTimeMs: 4000},
			{ResponseTimeMs: 8000},
		}, nil)

		timing, err := svc.AnalyzeTiming(ctx, "sess-1")
		require.NoError(t, err)
		assert.InDelta(t, 3000.0, timing.MedianTimeMs, 1e-9)
	})

	t.Run("no responses yields zeroes", func(t *testing.T) {
		responseRepo := new(MockResponseRepository)
		svc := newScoringServiceForTest(new(MockSessionRepository), responseRepo, new(MockQuestionRepository), new(MockResultRepository), new(MockUserRepository), new(MockNormGroupRepository))

		responseRepo.On("GetBySession", ctx, "sess-1").Return([]*domain.Response{}, nil)

		timing, err := svc.AnalyzeTiming(ctx, "sess-1")
		require.NoError(t, err)
		assert.Zero(t, timing.TotalTimeMs)
	})
}
