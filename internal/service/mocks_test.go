package service

import (
	"context"
	"time"

	"mindmetric/internal/domain"

	"github.com/stretchr/testify/mock"
)

type MockTransactionManager struct {
	mock.Mock
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}

type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) CreateSession(ctx context.Context, s *domain.TestSession) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSessionRepository) GetSessionByID(ctx context.Context, id string) (*domain.TestSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TestSession), args.Error(1)
}

func (m *MockSessionRepository) GetSessionForUpdate(ctx context.Context, id string) (*domain.TestSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TestSession), args.Error(1)
}

func (m *MockSessionRepository) AdvanceSession(ctx context.Context, s *domain.TestSession) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSessionRepository) UpdateStatus(ctx context.Context, id string, status domain.SessionStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockSessionRepository) AccumulateBehavior(ctx context.Context, id string, delta domain.BehaviorCounters) error {
	args := m.Called(ctx, id, delta)
	return args.Error(0)
}

func (m *MockSessionRepository) ListCompletedByUser(ctx context.Context, userID string, offset, limit int) ([]*domain.TestSession, int, error) {
	args := m.Called(ctx, userID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*domain.TestSession), args.Int(1), args.Error(2)
}

type MockQuestionRepository struct {
	mock.Mock
}

func (m *MockQuestionRepository) GetQuestionByID(ctx context.Context, id string) (*domain.Question, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Question), args.Error(1)
}

func (m *MockQuestionRepository) GetQuestionsByIDs(ctx context.Context, ids []string) (map[string]*domain.Question, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*domain.Question), args.Error(1)
}

func (m *MockQuestionRepository) SelectActiveByCategories(ctx context.Context, categories []domain.QuestionType, limit int) ([]*domain.Question, error) {
	args := m.Called(ctx, categories, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Question), args.Error(1)
}

func (m *MockQuestionRepository) SaveQuestion(ctx context.Context, q *domain.Question) error {
	args := m.Called(ctx, q)
	return args.Error(0)
}

func (m *MockQuestionRepository) RecordUsage(ctx context.Context, id string, responseTimeMs int, correct bool) error {
	args := m.Called(ctx, id, responseTimeMs, correct)
	return args.Error(0)
}

type MockResponseRepository struct {
	mock.Mock
}

func (m *MockResponseRepository) CreateResponse(ctx context.Context, r *domain.Response) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockResponseRepository) GetBySession(ctx context.Context, sessionID string) ([]*domain.Response, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Response), args.Error(1)
}

func (m *MockResponseRepository) CountBySession(ctx context.Context, sessionID string) (int, error) {
	args := m.Called(ctx, sessionID)
	return args.Int(0), args.Error(1)
}

type MockResultRepository struct {
	mock.Mock
}

func (m *MockResultRepository) CreateResult(ctx context.Context, r *domain.TestResult) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockResultRepository) GetBySessionID(ctx context.Context, sessionID string) (*domain.TestResult, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TestResult), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	args := m.Called(ctx, googleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) CreateUser(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateDemographics(ctx context.Context, id string, d domain.Demographics) error {
	args := m.Called(ctx, id, d)
	return args.Error(0)
}

type MockNormGroupRepository struct {
	mock.Mock
}

func (m *MockNormGroupRepository) FindForDemographics(ctx context.Context, d domain.Demographics) (*domain.NormGroup, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.NormGroup), args.Error(1)
}

func (m *MockNormGroupRepository) SaveNormGroup(ctx context.Context, g *domain.NormGroup) error {
	args := m.Called(ctx, g)
	return args.Error(0)
}

type MockScoringService struct {
	mock.Mock
}

func (m *MockScoringService) ComputeResult(ctx context.Context, sessionID string) (*domain.TestResult, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TestResult), args.Error(1)
}

func (m *MockScoringService) AnalyzeTiming(ctx context.Context, sessionID string) (*domain.TimingAnalysis, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TimingAnalysis), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCache) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
