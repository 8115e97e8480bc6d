package service

import (
	"context"
	"fmt"
	"time"

	"mindmetric/internal/config"
	"mindmetric/internal/domain"
	"mindmetric/internal/dto"
	"mindmetric/internal/logger"
	"mindmetric/internal/util"
	"mindmetric/internal/validation"

	"go.uber.org/zap"
)

// SessionService drives the test-session lifecycle.
type SessionService interface {
	// StartTest creates a session for the given preset and returns it with
	// the first question. userID may be empty for anonymous sessions.
	StartTest(ctx context.Context, req dto.StartTestRequest, userID string) (*dto.StartTestResponse, error)

	// GetCurrentQuestion returns the question at the session's current index.
	GetCurrentQuestion(ctx context.Context, sessionID, userID, anonToken string) (*dto.CurrentQuestionResponse, error)

	// GetStatus returns the live progress snapshot of a session.
	GetStatus(ctx context.Context, sessionID, userID, anonToken string) (*dto.SessionStatusResponse, error)

	// Abandon transitions the session to the Abandoned terminal status.
	// Abandoning an already terminal session is a no-op.
	Abandon(ctx context.Context, sessionID, userID, anonToken string) error
}

type sessionService struct {
	sessionRepo  domain.SessionRepository
	questionRepo domain.QuestionRepository
	scoring      ScoringService
	stateCache   *sessionStateCache
	testCfg      config.TestConfig
	now          func() time.Time
}

// NewSessionService creates a new SessionService
func NewSessionService(
	sessionRepo domain.SessionRepository,
	questionRepo domain.QuestionRepository,
	scoring ScoringService,
	cacheClient domain.Cache,
	cfg *config.Config,
) SessionService {
	return &sessionService{
		sessionRepo:  sessionRepo,
		questionRepo: questionRepo,
		scoring:      scoring,
		stateCache:   newSessionStateCache(cacheClient, cfg.Cache.SessionStateTTL),
		testCfg:      cfg.Test,
		now:          time.Now,
	}
}

func (s *sessionService) StartTest(ctx context.Context, req dto.StartTestRequest, userID string) (*dto.StartTestResponse, error) {
	if err := validation.ValidateTestType(req.TestType); err != nil {
		return nil, err
	}
	if err := validation.ValidateTimeLimit(req.TimeLimitSec, s.testCfg.MinTimeLimitSec, s.testCfg.MaxTimeLimitSec); err != nil {
		return nil, err
	}

	preset, _ := domain.PresetFor(domain.TestType(req.TestType))
	questions, err := s.questionRepo.SelectActiveByCategories(ctx, preset.Categories, preset.QuestionCount)
	if err != nil {
		return nil, fmt.Errorf("failed to select questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, domain.NewInternalError("question bank has no active questions for this test type", nil)
	}

	questionIDs := make([]string, 0, len(questions))
	for _, q := range questions {
		questionIDs = append(questionIDs, q.ID)
	}

	anonToken := ""
	if userID == "" {
		anonToken = util.NewULID()
	}

	session := domain.NewTestSession(domain.TestType(req.TestType), questionIDs, req.TimeLimitSec, userID, anonToken)
	if err := s.sessionRepo.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.stateCache.put(ctx, session)
	logger.Get().Info("test session started",
		zap.String("session_id", session.ID),
		zap.String("test_type", req.TestType),
		zap.Int("questions", len(questionIDs)),
		zap.Bool("anonymous", userID == ""))

	return &dto.StartTestResponse{
		Session:         dto.ToSessionResponse(session),
		CurrentQuestion: dto.ToQuestionResponse(questions[0]),
		Progress:        session.ProgressOf(),
		Message:         "Test session started",
	}, nil
}

func (s *sessionService) GetCurrentQuestion(ctx context.Context, sessionID, userID, anonToken string) (*dto.CurrentQuestionResponse, error) {
	session, err := s.resolveSession(ctx, sessionID, userID, anonToken)
	if err != nil {
		return nil, err
	}
	if session.Status.IsTerminal() {
		return nil, domain.NewSessionTerminalError(session.ID, session.Status)
	}

	questionID, ok := session.CurrentQuestionID()
	if !ok {
		return nil, domain.NewSessionTerminalError(session.ID, session.Status)
	}
	question, err := s.questionRepo.GetQuestionByID(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load current question: %w", err)
	}
	if question == nil {
		return nil, domain.NewQuestionNotFoundError(questionID)
	}

	return &dto.CurrentQuestionResponse{
		Question:      dto.ToQuestionResponse(question),
		Progress:      session.ProgressOf(),
		TimeRemaining: session.TimeRemaining(s.now()),
	}, nil
}

func (s *sessionService) GetStatus(ctx context.Context, sessionID, userID, anonToken string) (*dto.SessionStatusResponse, error) {
	// Fast path: serve non-expired snapshots straight from the cache.
	if state := s.stateCache.get(ctx, sessionID); state != nil {
		if resp, ok := s.statusFromCache(state, userID, anonToken); ok {
			return resp, nil
		}
	}

	session, err := s.resolveSession(ctx, sessionID, userID, anonToken)
	if err != nil {
		return nil, err
	}
	s.stateCache.put(ctx, session)

	now := s.now()
	return &dto.SessionStatusResponse{
		Session: dto.SessionStatusBody{
			ID:            session.ID,
			Status:        string(session.Status),
			Progress:      session.ProgressOf(),
			ElapsedSec:    session.ElapsedSeconds(now),
			TimeRemaining: session.TimeRemaining(now),
		},
	}, nil
}

// statusFromCache builds a status reply from the cached snapshot. It refuses
// (ok=false) when the limit has elapsed so the caller falls through to the
// database path and the lazy completion runs there.
func (s *sessionService) statusFromCache(state *cachedSessionState, userID, anonToken string) (*dto.SessionStatusResponse, bool) {
	owned := false
	if state.UserID != "" {
		owned = state.UserID == userID
	} else {
		owned = state.AnonToken != "" && state.AnonToken == anonToken
	}
	if !owned {
		return nil, false
	}

	now := s.now()
	elapsed := int(now.Unix() - state.StartedAtUnix)
	var remaining *int
	if state.TimeLimitSec > 0 {
		if elapsed >= state.TimeLimitSec && !domain.SessionStatus(state.Status).IsTerminal() {
			return nil, false
		}
		r := state.TimeLimitSec - elapsed
		if r < 0 {
			r = 0
		}
		remaining = &r
	}

	pct := 0.0
	if state.Total > 0 {
		pct = float64(state.CurrentIndex) / float64(state.Total) * 100
	}
	return &dto.SessionStatusResponse{
		Session: dto.SessionStatusBody{
			ID:     state.ID,
			Status: state.Status,
			Progress: domain.Progress{
				Current:    state.CurrentIndex,
				Total:      state.Total,
				Percentage: pct,
			},
			ElapsedSec:    elapsed,
			TimeRemaining: remaining,
		},
	}, true
}

func (s *sessionService) Abandon(ctx context.Context, sessionID, userID, anonToken string) error {
	session, err := s.loadOwnedSession(ctx, sessionID, userID, anonToken)
	if err != nil {
		return err
	}
	if session.Status.IsTerminal() {
		return nil
	}

	if err := s.sessionRepo.UpdateStatus(ctx, sessionID, domain.SessionAbandoned); err != nil {
		return fmt.Errorf("failed to abandon session: %w", err)
	}
	s.stateCache.invalidate(ctx, sessionID)
	logger.Get().Info("test session abandoned", zap.String("session_id", sessionID))
	return nil
}

// loadOwnedSession fetches a session and verifies the caller may access it.
func (s *sessionService) loadOwnedSession(ctx context.Context, sessionID, userID, anonToken string) (*domain.TestSession, error) {
	session, err := s.sessionRepo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, domain.NewSessionNotFoundError(sessionID)
	}
	if !session.OwnedBy(userID, anonToken) {
		return nil, domain.NewAuthorizationError("You do not have access to this session")
	}
	return session, nil
}

// resolveSession loads an owned session and applies the lazy timeout: an
// expired non-terminal session flips to Completed and its partial result is
// computed before the session is returned.
func (s *sessionService) resolveSession(ctx context.Context, sessionID, userID, anonToken string) (*domain.TestSession, error) {
	session, err := s.loadOwnedSession(ctx, sessionID, userID, anonToken)
	if err != nil {
		return nil, err
	}

	if !session.Status.IsTerminal() && session.Expired(s.now()) {
		if err := s.sessionRepo.UpdateStatus(ctx, sessionID, domain.SessionCompleted); err != nil {
			return nil, fmt.Errorf("failed to complete expired session: %w", err)
		}
		session.Status = domain.SessionCompleted
		now := s.now()
		session.EndedAt = &now
		s.stateCache.invalidate(ctx, sessionID)

		if _, err := s.scoring.ComputeResult(ctx, sessionID); err != nil {
			logger.Get().Error("failed to score expired session",
				zap.String("session_id", sessionID), zap.Error(err))
		}
		logger.Get().Info("session completed by timeout", zap.String("session_id", sessionID))
	}
	return session, nil
}
