package session

import (
	"context"
	"fmt"

	"github.com/hrygo/slotdesk/plugin/ai/agent"
)

const (
	// MaxHistoryPerSession is the maximum number of utterances kept in a session.
	// This implements a sliding window to prevent unbounded growth.
	MaxHistoryPerSession = 20
)

// SessionRecovery loads sessions for a turn and persists the result.
type SessionRecovery struct {
	sessionSvc SessionService
}

// NewSessionRecovery creates a new session recovery handler.
func NewSessionRecovery(sessionSvc SessionService) *SessionRecovery {
	return &SessionRecovery{
		sessionSvc: sessionSvc,
	}
}

// RecoverSession returns the stored state, or a fresh one for an unknown session.
func (r *SessionRecovery) RecoverSession(ctx context.Context, sessionID string) (*agent.SessionState, error) {
	existing, err := r.sessionSvc.LoadState(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if existing != nil {
		return existing, nil
	}
	return agent.NewSessionState(), nil
}

// PersistSession trims the history window and saves the state.
func (r *SessionRecovery) PersistSession(ctx context.Context, sessionID string, state *agent.SessionState) error {
	if len(state.History) > MaxHistoryPerSession {
		state.History = append([]string(nil), state.History[len(state.History)-MaxHistoryPerSession:]...)
	}
	return r.sessionSvc.SaveState(ctx, sessionID, state)
}
