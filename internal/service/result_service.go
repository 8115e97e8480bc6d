package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mindmetric/internal/cache"
	"mindmetric/internal/domain"
	"mindmetric/internal/dto"
	"mindmetric/internal/logger"

	"go.uber.org/zap"
)

// ResultService exposes computed score reports.
type ResultService interface {
	// GetSessionResult returns the full report for a completed session,
	// computing it first when the session completed by timeout.
	GetSessionResult(ctx context.Context, sessionID, userID, anonToken string) (*dto.SessionResultResponse, error)

	// GetHistory returns the caller's completed sessions with their results,
	// newest first.
	GetHistory(ctx context.Context, userID string, p dto.Pagination) (*dto.HistoryResponse, error)
}

type resultService struct {
	sessionRepo domain.SessionRepository
	resultRepo  domain.ResultRepository
	scoring     ScoringService
	cache       domain.Cache
	resultTTL   time.Duration
	stateCache  *sessionStateCache
	now         func() time.Time
}

// NewResultService creates a new ResultService
func NewResultService(
	sessionRepo domain.SessionRepository,
	resultRepo domain.ResultRepository,
	scoring ScoringService,
	cacheClient domain.Cache,
	resultTTL, stateTTL time.Duration,
) ResultService {
	return &resultService{
		sessionRepo: sessionRepo,
		resultRepo:  resultRepo,
		scoring:     scoring,
		cache:       cacheClient,
		resultTTL:   resultTTL,
		stateCache:  newSessionStateCache(cacheClient, stateTTL),
		now:         time.Now,
	}
}

func (s *resultService) GetSessionResult(ctx context.Context, sessionID, userID, anonToken string) (*dto.SessionResultResponse, error) {
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

	if !session.Status.IsTerminal() && session.Expired(s.now()) {
		if err := s.sessionRepo.UpdateStatus(ctx, sessionID, domain.SessionCompleted); err != nil {
			return nil, fmt.Errorf("failed to complete expired session: %w", err)
		}
		session.Status = domain.SessionCompleted
		s.stateCache.invalidate(ctx, sessionID)
	}
	switch session.Status {
	case domain.SessionCompleted:
	case domain.SessionAbandoned, domain.SessionInvalid:
		return nil, domain.NewError(domain.CodeResultNotFound,
			fmt.Sprintf("Session %s was %s and has no result", sessionID, session.Status), nil)
	default:
		return nil, domain.NewError(domain.CodeIncompleteSession,
			fmt.Sprintf("Session %s is still %s", sessionID, session.Status), nil)
	}

	result, err := s.loadResult(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	timing, err := s.scoring.AnalyzeTiming(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sessionBody := dto.ToSessionResponse(session)
	sessionBody.AnonToken = "" // only ever returned at session start
	resultBody := dto.ToResultResponse(result)
	return &dto.SessionResultResponse{
		Session:        sessionBody,
		Result:         resultBody,
		Timing:         timing,
		TotalQuestions: result.TotalQuestions,
		ValidityFlags:  resultBody.ValidityFlags,
	}, nil
}

// loadResult reads the result through the cache. Results are immutable once
// written, so the cached copy never needs invalidation.
func (s *resultService) loadResult(ctx context.Context, sessionID string) (*domain.TestResult, error) {
	key := cache.SessionResultKey(sessionID)
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key); err == nil {
			var cached domain.TestResult
			if jsonErr := json.Unmarshal([]byte(raw), &cached); jsonErr == nil {
				return &cached, nil
			}
		} else if !errors.Is(err, domain.ErrCacheMiss) {
			logger.Get().Warn("result cache read failed",
				zap.String("session_id", sessionID), zap.Error(err))
		}
	}

	result, err := s.resultRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load result: %w", err)
	}
	if result == nil {
		// Timeout completions may not have been scored yet.
		result, err = s.scoring.ComputeResult(ctx, sessionID)
		if err != nil {
			return nil, err
		}
	}

	if s.cache != nil {
		if raw, jsonErr := json.Marshal(result); jsonErr == nil {
			if err := s.cache.Set(ctx, key, string(raw), s.resultTTL); err != nil {
				logger.Get().Warn("result cache write failed",
					zap.String("session_id", sessionID), zap.Error(err))
			}
		}
	}
	return result, nil
}

func (s *resultService) GetHistory(ctx context.Context, userID string, p dto.Pagination) (*dto.HistoryResponse, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 || p.Limit > 100 {
		p.Limit = 20
	}

	sessions, total, err := s.sessionRepo.ListCompletedByUser(ctx, userID, p.Offset(), p.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	items := make([]dto.HistoryItem, 0, len(sessions))
	for _, session := range sessions {
		item := dto.HistoryItem{Session: dto.ToSessionResponse(session)}
		item.Session.AnonToken = ""
		result, err := s.resultRepo.GetBySessionID(ctx, session.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load result for session %s: %w", session.ID, err)
		}
		item.Result = dto.ToResultResponse(result)
		items = append(items, item)
	}

	return &dto.HistoryResponse{
		Items:      items,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalCount: total,
	}, nil
}
