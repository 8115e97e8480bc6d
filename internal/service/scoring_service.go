package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"mindmetric/internal/domain"
	"mindmetric/internal/logger"
	"mindmetric/internal/util"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	defaultNormMean   = 100.0
	defaultNormStdDev = 15.0

	// Fixed reported measurement error; no estimation backs it.
	fixedStandardError = 5.0
)

// ScoringService computes and persists score reports.
type ScoringService interface {
	// ComputeResult computes the result for a completed session. It is
	// idempotent: an existing result is returned as-is. Sessions completed by
	// timeout are scored partially, with unanswered items counted incorrect
	// against the full planned question count.
	ComputeResult(ctx context.Context, sessionID string) (*domain.TestResult, error)

	// AnalyzeTiming derives the response-time summary of a session. It is
	// computed on demand and never persisted.
	AnalyzeTiming(ctx context.Context, sessionID string) (*domain.TimingAnalysis, error)
}

type scoringService struct {
	sessionRepo  domain.SessionRepository
	responseRepo domain.ResponseRepository
	questionRepo domain.QuestionRepository
	resultRepo   domain.ResultRepository
	userRepo     domain.UserRepository
	normRepo     domain.NormGroupRepository
	group        singleflight.Group
	now          func() time.Time
}

// NewScoringService creates a new ScoringService
func NewScoringService(
	sessionRepo domain.SessionRepository,
	responseRepo domain.ResponseRepository,
	questionRepo domain.QuestionRepository,
	resultRepo domain.ResultRepository,
	userRepo domain.UserRepository,
	normRepo domain.NormGroupRepository,
) ScoringService {
	return &scoringService{
		sessionRepo:  sessionRepo,
		responseRepo: responseRepo,
		questionRepo: questionRepo,
		resultRepo:   resultRepo,
		userRepo:     userRepo,
		normRepo:     normRepo,
		now:          time.Now,
	}
}

func (s *scoringService) ComputeResult(ctx context.Context, sessionID string) (*domain.TestResult, error) {
	existing, err := s.resultRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up existing result: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	// Concurrent computations for the same session collapse into one; the
	// unique constraint on the result row backs this up across processes.
	v, err, _ := s.group.Do(sessionID, func() (interface{}, error) {
		return s.computeAndStore(ctx, sessionID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.TestResult), nil
}

func (s *scoringService) computeAndStore(ctx context.Context, sessionID string) (*domain.TestResult, error) {
	if existing, err := s.resultRepo.GetBySessionID(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("failed to look up existing result: %w", err)
	} else if existing != nil {
		return existing, nil
	}

	session, err := s.sessionRepo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, domain.NewSessionNotFoundError(sessionID)
	}
	if session.Status != domain.SessionCompleted {
		return nil, domain.NewError(domain.CodeIncompleteSession,
			fmt.Sprintf("Session %s is %s; results exist only for completed sessions", sessionID, session.Status), nil)
	}

	responses, err := s.responseRepo.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load responses: %w", err)
	}
	questions, err := s.questionRepo.GetQuestionsByIDs(ctx, session.QuestionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}

	totalQuestions := session.TotalQuestions()
	rawScore := 0
	totalTimeMs := 0
	for _, r := range responses {
		if r.IsCorrect {
			rawScore++
		}
		totalTimeMs += r.ResponseTimeMs
	}

	iqScore := computeIQScore(rawScore, totalQuestions)
	mean, stdDev := s.normParameters(ctx, session)
	z := (float64(iqScore) - mean) / stdDev
	percentile := util.Round2(100 * util.NormalCDF(z))
	abilityLevel := (float64(iqScore) - 100.0) / 15.0

	averageTimeMs := 0.0
	if len(responses) > 0 {
		averageTimeMs = float64(totalTimeMs) / float64(len(responses))
	}

	completedAt := s.now()
	if session.EndedAt != nil {
		completedAt = *session.EndedAt
	}

	result := &domain.TestResult{
		SessionID:      sessionID,
		RawScore:       rawScore,
		TotalQuestions: totalQuestions,
		IQScore:        iqScore,
		Percentile:     percentile,
		AbilityLevel:   abilityLevel,
		StandardError:  fixedStandardError,
		CategoryScores: categoryBreakdown(session, responses, questions),
		TotalTimeMs:    totalTimeMs,
		AverageTimeMs:  averageTimeMs,
		ValidityFlags:  []string{},
		CompletedAt:    completedAt,
	}

	if err := s.resultRepo.CreateResult(ctx, result); err != nil {
		// Another process won the race; its row is the result.
		var dErr *domain.DomainError
		if errors.As(err, &dErr) && dErr.Code == domain.CodeConflict {
			stored, readErr := s.resultRepo.GetBySessionID(ctx, sessionID)
			if readErr == nil && stored != nil {
				return stored, nil
			}
		}
		return nil, fmt.Errorf("failed to store result: %w", err)
	}

	logger.Get().Info("result computed",
		zap.String("session_id", sessionID),
		zap.Int("raw_score", rawScore),
		zap.Int("total_questions", totalQuestions),
		zap.Int("iq_score", iqScore),
		zap.Float64("percentile", percentile))
	return result, nil
}

func (s *scoringService) AnalyzeTiming(ctx context.Context, sessionID string) (*domain.TimingAnalysis, error) {
	responses, err := s.responseRepo.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load responses: %w", err)
	}
	if len(responses) == 0 {
		return &domain.TimingAnalysis{}, nil
	}

	times := make([]int, 0, len(responses))
	total := 0
	for _, r := range responses {
		times = append(times, r.ResponseTimeMs)
		total += r.ResponseTimeMs
	}
	sort.Ints(times)

	median := float64(times[len(times)/2])
	if len(times)%2 == 0 {
		median = float64(times[len(times)/2-1]+times[len(times)/2]) / 2.0
	}

	return &domain.TimingAnalysis{
		TotalTimeMs:   total,
		AverageTimeMs: float64(total) / float64(len(times)),
		MedianTimeMs:  median,
		MinTimeMs:     times[0],
		MaxTimeMs:     times[len(times)-1],
	}, nil
}

// normParameters resolves the norm distribution for the session's taker.
// Anonymous takers and unmatched demographics fall back to the overall
// population parameters.
func (s *scoringService) normParameters(ctx context.Context, session *domain.TestSession) (float64, float64) {
	if session.UserID == "" {
		return defaultNormMean, defaultNormStdDev
	}
	user, err := s.userRepo.GetUserByID(ctx, session.UserID)
	if err != nil || user == nil {
		return defaultNormMean, defaultNormStdDev
	}
	group, err := s.normRepo.FindForDemographics(ctx, user.Demographics)
	if err != nil {
		logger.Get().Warn("norm group lookup failed",
			zap.String("session_id", session.ID), zap.Error(err))
		return defaultNormMean, defaultNormStdDev
	}
	if group == nil || group.StdDev <= 0 {
		return defaultNormMean, defaultNormStdDev
	}
	return group.Mean, group.StdDev
}

// computeIQScore maps a raw percentage onto the IQ scale: 50% correct sits
// at 100, each full test spans 30 points around it, clamped to [40, 200].
func computeIQScore(rawScore, totalQuestions int) int {
	if totalQuestions <= 0 {
		return 40
	}
	rawPercentage := float64(rawScore) / float64(totalQuestions)
	iq := int(math.Round(100 + (rawPercentage-0.5)*30))
	if iq < 40 {
		iq = 40
	}
	if iq > 200 {
		iq = 200
	}
	return iq
}

// categoryBreakdown aggregates per-category counts over the full planned
// sequence. Unanswered items count toward their category's total, so a
// timeout-completed session shows depressed success rates rather than a
// shortened test.
func categoryBreakdown(session *domain.TestSession, responses []*domain.Response, questions map[string]*domain.Question) map[string]domain.CategoryScore {
	type acc struct {
		total         int
		correct       int
		answered      int
		timeMs        int
		difficultySum float64
	}
	accs := map[string]*acc{}

	byQuestion := make(map[string]*domain.Response, len(responses))
	for _, r := range responses {
		byQuestion[r.QuestionID] = r
	}

	for _, qid := range session.QuestionIDs {
		q, ok := questions[qid]
		if !ok {
			continue
		}
		category := string(q.Type)
		a := accs[category]
		if a == nil {
			a = &acc{}
			accs[category] = a
		}
		a.total++
		a.difficultySum += q.Difficulty
		if r, ok := byQuestion[qid]; ok {
			a.answered++
			a.timeMs += r.ResponseTimeMs
			if r.IsCorrect {
				a.correct++
			}
		}
	}

	breakdown := make(map[string]domain.CategoryScore, len(accs))
	for category, a := range accs {
		score := domain.CategoryScore{
			Total:   a.total,
			Correct: a.correct,
		}
		if a.total > 0 {
			score.SuccessRate = util.Round2(float64(a.correct) / float64(a.total))
			score.AverageDifficulty = util.Round2(a.difficultySum / float64(a.total))
		}
		if a.answered > 0 {
			score.AverageTimeMs = util.Round2(float64(a.timeMs) / float64(a.answered))
		}
		breakdown[category] = score
	}
	return breakdown
}
