package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// ConversationSession is the persisted dialogue state of one conversation.
// State holds the JSON encoding of the session.
type ConversationSession struct {
	ID        string
	State     string
	CreatedTs int64
	UpdatedTs int64
}

type FindConversationSession struct {
	ID            *string
	UpdatedBefore *int64
	Limit         *int
}

// DeleteConversationSession removes by ID, by age, or both.
type DeleteConversationSession struct {
	ID            *string
	UpdatedBefore *int64
}

func (s *Store) UpsertConversationSession(ctx context.Context, upsert *ConversationSession) (*ConversationSession, error) {
	if upsert.ID == "" {
		return nil, errors.New("conversation session id is required")
	}
	now := time.Now().Unix()
	if upsert.CreatedTs == 0 {
		upsert.CreatedTs = now
	}
	upsert.UpdatedTs = now
	return s.driver.UpsertConversationSession(ctx, upsert)
}

// GetConversationSession returns nil without error when the session does not exist.
func (s *Store) GetConversationSession(ctx context.Context, id string) (*ConversationSession, error) {
	limit := 1
	list, err := s.driver.ListConversationSessions(ctx, &FindConversationSession{ID: &id, Limit: &limit})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) ListConversationSessions(ctx context.Context, find *FindConversationSession) ([]*ConversationSession, error) {
	return s.driver.ListConversationSessions(ctx, find)
}

func (s *Store) DeleteConversationSessions(ctx context.Context, delete *DeleteConversationSession) (int64, error) {
	if delete.ID == nil && delete.UpdatedBefore == nil {
		return 0, errors.New("refusing to delete all conversation sessions")
	}
	return s.driver.DeleteConversationSessions(ctx, delete)
}
