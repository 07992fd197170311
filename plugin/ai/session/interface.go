// Package session persists the dialogue state of server-held conversations.
package session

import (
	"context"
	"errors"

	"github.com/hrygo/slotdesk/plugin/ai/agent"
)

// ErrInvalidSessionID is returned for empty or oversized conversation IDs.
var ErrInvalidSessionID = errors.New("invalid session id")

// MaxSessionIDLength bounds conversation IDs accepted from clients.
const MaxSessionIDLength = 128

// SessionService defines the session persistence service interface.
type SessionService interface {
	// SaveState stores the state under sessionID, replacing any previous value.
	SaveState(ctx context.Context, sessionID string, state *agent.SessionState) error

	// LoadState returns the stored state, or nil without error for an unknown session.
	LoadState(ctx context.Context, sessionID string) (*agent.SessionState, error)

	// DeleteSession removes the session. Deleting an unknown session is not an error.
	DeleteSession(ctx context.Context, sessionID string) error

	// CleanupExpired removes sessions idle for more than retentionDays and
	// returns how many were removed.
	CleanupExpired(ctx context.Context, retentionDays int) (int64, error)
}

func validateSessionID(sessionID string) error {
	if sessionID == "" || len(sessionID) > MaxSessionIDLength {
		return ErrInvalidSessionID
	}
	return nil
}
