package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hrygo/slotdesk/plugin/ai/agent"
	"github.com/hrygo/slotdesk/plugin/ai/cache"
	"github.com/hrygo/slotdesk/store"
)

const (
	cachePrefix = "session:"
	cacheTTL    = 30 * time.Minute
)

// sessionStore implements SessionService with SQL persistence and caching.
type sessionStore struct {
	store *store.Store
	cache cache.CacheService
}

// NewSessionStore creates a new session store with database and cache.
// cache may be nil.
func NewSessionStore(st *store.Store, cache cache.CacheService) SessionService {
	return &sessionStore{
		store: st,
		cache: cache,
	}
}

// SaveState saves the conversation state.
func (s *sessionStore) SaveState(ctx context.Context, sessionID string, state *agent.SessionState) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if _, err := s.store.UpsertConversationSession(ctx, &store.ConversationSession{
		ID:    sessionID,
		State: string(data),
	}); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}

	s.updateCache(ctx, sessionID, data)
	return nil
}

// LoadState loads the conversation state.
func (s *sessionStore) LoadState(ctx context.Context, sessionID string) (*agent.SessionState, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}
	if cached := s.loadFromCache(ctx, sessionID); cached != nil {
		return cached, nil
	}

	row, err := s.store.GetConversationSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	if row == nil {
		return nil, nil
	}

	var state agent.SessionState
	if err := json.Unmarshal([]byte(row.State), &state); err != nil {
		// A corrupt row restarts the conversation instead of failing every turn.
		slog.Warn("failed to unmarshal session state", "session_id", sessionID, "error", err)
		return agent.NewSessionState(), nil
	}

	s.updateCache(ctx, sessionID, []byte(row.State))
	return &state, nil
}

// DeleteSession deletes a session.
func (s *sessionStore) DeleteSession(ctx context.Context, sessionID string) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	if _, err := s.store.DeleteConversationSessions(ctx, &store.DeleteConversationSession{ID: &sessionID}); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	s.invalidateCache(ctx, sessionID)
	return nil
}

// CleanupExpired removes sessions older than retentionDays.
func (s *sessionStore) CleanupExpired(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays).Unix()
	deleted, err := s.store.DeleteConversationSessions(ctx, &store.DeleteConversationSession{UpdatedBefore: &cutoff})
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired sessions: %w", err)
	}
	if deleted > 0 && s.cache != nil {
		// Rows are gone; cached copies would resurrect them.
		if err := s.cache.Invalidate(ctx, cachePrefix+"*"); err != nil {
			slog.Warn("failed to invalidate cache", "error", err)
		}
	}
	return deleted, nil
}

func (s *sessionStore) updateCache(ctx context.Context, sessionID string, data []byte) {
	if s.cache == nil {
		return
	}
	key := cachePrefix + sessionID
	if err := s.cache.Set(ctx, key, data, cacheTTL); err != nil {
		slog.Warn("failed to update cache", "key", key, "error", err)
	}
}

func (s *sessionStore) loadFromCache(ctx context.Context, sessionID string) *agent.SessionState {
	if s.cache == nil {
		return nil
	}
	key := cachePrefix + sessionID
	data, ok := s.cache.Get(ctx, key)
	if !ok {
		return nil
	}
	var state agent.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		slog.Warn("failed to unmarshal cached state", "key", key, "error", err)
		return nil
	}
	return &state
}

func (s *sessionStore) invalidateCache(ctx context.Context, sessionID string) {
	if s.cache == nil {
		return
	}
	key := cachePrefix + sessionID
	if err := s.cache.Invalidate(ctx, key); err != nil {
		slog.Warn("failed to invalidate cache", "key", key, "error", err)
	}
}

// Ensure sessionStore implements SessionService
var _ SessionService = (*sessionStore)(nil)
