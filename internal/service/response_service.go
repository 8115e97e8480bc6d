package service

import (
	"context"
	"fmt"
	"time"

	"mindmetric/internal/domain"
	"mindmetric/internal/dto"
	"mindmetric/internal/logger"
	"mindmetric/internal/validation"

	"go.uber.org/zap"
)

// ResponseService records answers against a session.
type ResponseService interface {
	// Submit grades and persists one answer for the session's current
	// question, advancing the session. On the last answer the session is
	// completed and its result computed before the reply is returned.
	Submit(ctx context.Context, sessionID string, req dto.SubmitResponseRequest, userID, anonToken string) (*dto.SubmitResponseResponse, error)
}

type responseService struct {
	txManager    domain.TransactionManager
	sessionRepo  domain.SessionRepository
	responseRepo domain.ResponseRepository
	questionRepo domain.QuestionRepository
	scoring      ScoringService
	stateCache   *sessionStateCache
	now          func() time.Time
}

// NewResponseService creates a new ResponseService
func NewResponseService(
	txManager domain.TransactionManager,
	sessionRepo domain.SessionRepository,
	responseRepo domain.ResponseRepository,
	questionRepo domain.QuestionRepository,
	scoring ScoringService,
	cacheClient domain.Cache,
	stateTTL time.Duration,
) ResponseService {
	return &responseService{
		txManager:    txManager,
		sessionRepo:  sessionRepo,
		responseRepo: responseRepo,
		questionRepo: questionRepo,
		scoring:      scoring,
		stateCache:   newSessionStateCache(cacheClient, stateTTL),
		now:          time.Now,
	}
}

func (s *responseService) Submit(ctx context.Context, sessionID string, req dto.SubmitResponseRequest, userID, anonToken string) (*dto.SubmitResponseResponse, error) {
	// An empty answer is legal: the client submits one when its per-question
	// timer runs out, and it grades incorrect like any other wrong answer.
	if err := validation.ValidateResponseTime(int64(req.ResponseTimeMs)); err != nil {
		return nil, err
	}
	if req.QuestionID == "" {
		return nil, domain.NewMissingFieldError("question_id")
	}

	var (
		isCorrect bool
		completed bool
		expired   bool
		session   *domain.TestSession
	)

	// The session row is locked for the whole submit so two concurrent
	// submissions cannot both pass the sequence check; the unique response
	// constraint is the second line of defense.
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		session, err = s.sessionRepo.GetSessionForUpdate(txCtx, sessionID)
		if err != nil {
			return fmt.Errorf("failed to lock session: %w", err)
		}
		if session == nil {
			return domain.NewSessionNotFoundError(sessionID)
		}
		if !session.OwnedBy(userID, anonToken) {
			return domain.NewAuthorizationError("You do not have access to this session")
		}
		if session.Status.IsTerminal() {
			return domain.NewSessionTerminalError(sessionID, session.Status)
		}
		if session.Expired(s.now()) {
			// Completing the session must commit even though the submit is
			// rejected, so no error is returned from inside the transaction.
			expired = true
			if err := s.sessionRepo.UpdateStatus(txCtx, sessionID, domain.SessionCompleted); err != nil {
				return fmt.Errorf("failed to complete expired session: %w", err)
			}
			return nil
		}

		currentID, ok := session.CurrentQuestionID()
		if !ok {
			return domain.NewSessionTerminalError(sessionID, session.Status)
		}
		if req.QuestionID != currentID {
			// A question before the cursor was already answered; resubmitting
			// it is a conflict, not a sequencing mistake.
			for _, answered := range session.QuestionIDs[:session.CurrentIndex] {
				if answered == req.QuestionID {
					return domain.NewDuplicateResponseError(sessionID, req.QuestionID)
				}
			}
			return domain.NewOutOfSequenceError(req.QuestionID)
		}

		question, err := s.questionRepo.GetQuestionByID(txCtx, currentID)
		if err != nil {
			return fmt.Errorf("failed to load question: %w", err)
		}
		if question == nil {
			return domain.NewQuestionNotFoundError(currentID)
		}

		isCorrect = question.IsCorrect(req.Answer)
		response := &domain.Response{
			SessionID:      sessionID,
			QuestionID:     currentID,
			Answer:         req.Answer,
			IsCorrect:      isCorrect,
			ResponseTimeMs: req.ResponseTimeMs,
			Behavior:       req.BehaviorData,
		}
		if err := s.responseRepo.CreateResponse(txCtx, response); err != nil {
			return err
		}

		session.CurrentIndex++
		if session.CurrentIndex >= session.TotalQuestions() {
			completed = true
			session.Status = domain.SessionCompleted
			endedAt := s.now()
			session.EndedAt = &endedAt
		} else if session.Status == domain.SessionStarted {
			session.Status = domain.SessionInProgress
		}
		if err := s.sessionRepo.AdvanceSession(txCtx, session); err != nil {
			return err
		}

		if delta, ok := behaviorCountersFrom(req.BehaviorData); ok {
			if err := s.sessionRepo.AccumulateBehavior(txCtx, sessionID, delta); err != nil {
				return fmt.Errorf("failed to accumulate behavior counters: %w", err)
			}
		}
		return nil
	})

	if expired && err == nil {
		s.stateCache.invalidate(ctx, sessionID)
		if _, scoreErr := s.scoring.ComputeResult(ctx, sessionID); scoreErr != nil {
			logger.Get().Error("failed to score expired session",
				zap.String("session_id", sessionID), zap.Error(scoreErr))
		}
		return nil, domain.NewSessionTerminalError(sessionID, domain.SessionCompleted)
	}
	if err != nil {
		return nil, err
	}

	s.stateCache.invalidate(ctx, sessionID)

	// Usage stats are advisory; a failure here never fails the submit.
	if err := s.questionRepo.RecordUsage(ctx, req.QuestionID, req.ResponseTimeMs, isCorrect); err != nil {
		logger.Get().Warn("failed to record question usage",
			zap.String("question_id", req.QuestionID), zap.Error(err))
	}

	resp := &dto.SubmitResponseResponse{
		IsCorrect: isCorrect,
		Completed: completed,
	}
	if completed {
		if _, err := s.scoring.ComputeResult(ctx, sessionID); err != nil {
			return nil, fmt.Errorf("failed to compute result: %w", err)
		}
		return resp, nil
	}

	nextID, ok := session.CurrentQuestionID()
	if ok {
		next, err := s.questionRepo.GetQuestionByID(ctx, nextID)
		if err != nil {
			return nil, fmt.Errorf("failed to load next question: %w", err)
		}
		resp.NextQuestion = dto.ToQuestionResponse(next)
	}
	progress := session.ProgressOf()
	resp.Progress = &progress
	return resp, nil
}

// behaviorCountersFrom extracts the session-level counters from a submit's
// free-form behavior payload. JSON numbers arrive as float64.
func behaviorCountersFrom(data map[string]interface{}) (domain.BehaviorCounters, bool) {
	if len(data) == 0 {
		return domain.BehaviorCounters{}, false
	}
	var delta domain.BehaviorCounters
	found := false
	if v, ok := data["tab_switches"].(float64); ok {
		delta.TabSwitches = int(v)
		found = true
	}
	if v, ok := data["devtools_opened"].(bool); ok {
		delta.DevToolsOpened = v
		found = true
	}
	if v, ok := data["copy_paste_count"].(float64); ok {
		delta.CopyPasteCount = int(v)
		found = true
	}
	return delta, found
}
