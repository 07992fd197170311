package session

import (
	"context"
	"sync"
	"time"

	"github.com/hrygo/slotdesk/plugin/ai/agent"
)

type memoryEntry struct {
	state     *agent.SessionState
	updatedAt time.Time
}

// memoryStore implements SessionService in process memory.
type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	now      func() time.Time
}

// NewMemoryStore creates an in-memory session service.
func NewMemoryStore() SessionService {
	return &memoryStore{
		sessions: make(map[string]memoryEntry),
		now:      time.Now,
	}
}

func (s *memoryStore) SaveState(_ context.Context, sessionID string, state *agent.SessionState) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = memoryEntry{state: state.Clone(), updatedAt: s.now()}
	return nil
}

func (s *memoryStore) LoadState(_ context.Context, sessionID string) (*agent.SessionState, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return entry.state.Clone(), nil
}

func (s *memoryStore) DeleteSession(_ context.Context, sessionID string) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func (s *memoryStore) CleanupExpired(_ context.Context, retentionDays int) (int64, error) {
	cutoff := s.now().AddDate(0, 0, -retentionDays)
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for id, entry := range s.sessions {
		if entry.updatedAt.Before(cutoff) {
			delete(s.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

var _ SessionService = (*memoryStore)(nil)
