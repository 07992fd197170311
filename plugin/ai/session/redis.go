package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hrygo/slotdesk/plugin/ai/agent"
)

const (
	redisKeyPrefix  = "slotdesk:session:"
	defaultRedisTTL = 24 * time.Hour
)

// redisStore implements SessionService on Redis. Idle sessions expire
// through key TTLs, which every read and write refreshes.
type redisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed session service.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) SessionService {
	if ttl <= 0 {
		ttl = defaultRedisTTL
	}
	return &redisStore{client: client, ttl: ttl}
}

func (s *redisStore) key(sessionID string) string {
	return redisKeyPrefix + sessionID
}

// SaveState implements SessionService.
func (s *redisStore) SaveState(ctx context.Context, sessionID string, state *agent.SessionState) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	val, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sessionID), val, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// LoadState implements SessionService.
func (s *redisStore) LoadState(ctx context.Context, sessionID string) (*agent.SessionState, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}
	key := s.key(sessionID)
	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	var state agent.SessionState
	if err := json.Unmarshal(val, &state); err != nil {
		slog.Warn("failed to unmarshal session state", "session_id", sessionID, "error", err)
		return agent.NewSessionState(), nil
	}

	if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
		slog.Warn("failed to refresh session ttl", "session_id", sessionID, "error", err)
	}
	return &state, nil
}

// DeleteSession implements SessionService.
func (s *redisStore) DeleteSession(ctx context.Context, sessionID string) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// CleanupExpired implements SessionService. Redis expires keys itself.
func (s *redisStore) CleanupExpired(context.Context, int) (int64, error) {
	return 0, nil
}

var _ SessionService = (*redisStore)(nil)
