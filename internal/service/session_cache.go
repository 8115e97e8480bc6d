package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"mindmetric/internal/cache"
	"mindmetric/internal/domain"
	"mindmetric/internal/logger"

	"go.uber.org/zap"
)

// cachedSessionState is the redis mirror of a session's live state. It is
// advisory: every mutation invalidates the key instead of patching it, and
// readers fall through to the database on a miss.
type cachedSessionState struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id,omitempty"`
	AnonToken     string `json:"anon_token,omitempty"`
	Status        string `json:"status"`
	CurrentIndex  int    `json:"current_index"`
	Total         int    `json:"total"`
	TimeLimitSec  int    `json:"time_limit_sec"`
	StartedAtUnix int64  `json:"started_at_unix"`
}

// sessionStateCache wraps the domain cache port for session snapshots.
type sessionStateCache struct {
	cache domain.Cache
	ttl   time.Duration
}

func newSessionStateCache(c domain.Cache, ttl time.Duration) *sessionStateCache {
	return &sessionStateCache{cache: c, ttl: ttl}
}

// get returns the cached state or nil on miss. Cache errors are logged and
// treated as misses.
func (c *sessionStateCache) get(ctx context.Context, sessionID string) *cachedSessionState {
	if c == nil || c.cache == nil {
		return nil
	}
	raw, err := c.cache.Get(ctx, cache.SessionStateKey(sessionID))
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			logger.Get().Warn("session state cache read failed",
				zap.String("session_id", sessionID), zap.Error(err))
		}
		return nil
	}
	var state cachedSessionState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		logger.Get().Warn("session state cache payload corrupt",
			zap.String("session_id", sessionID), zap.Error(err))
		return nil
	}
	return &state
}

func (c *sessionStateCache) put(ctx context.Context, s *domain.TestSession) {
	if c == nil || c.cache == nil || s == nil {
		return
	}
	state := cachedSessionState{
		ID:            s.ID,
		UserID:        s.UserID,
		AnonToken:     s.AnonToken,
		Status:        string(s.Status),
		CurrentIndex:  s.CurrentIndex,
		Total:         s.TotalQuestions(),
		TimeLimitSec:  s.TimeLimitSec,
		StartedAtUnix: s.StartedAt.Unix(),
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, cache.SessionStateKey(s.ID), string(raw), c.ttl); err != nil {
		logger.Get().Warn("session state cache write failed",
			zap.String("session_id", s.ID), zap.Error(err))
	}
}

func (c *sessionStateCache) invalidate(ctx context.Context, sessionID string) {
	if c == nil || c.cache == nil {
		return
	}
	if err := c.cache.Delete(ctx, cache.SessionStateKey(sessionID)); err != nil {
		logger.Get().Warn("session state cache invalidation failed",
			zap.String("session_id", sessionID), zap.Error(err))
	}
}
