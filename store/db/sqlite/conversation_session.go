package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/hrygo/slotdesk/store"
)

func (d *DB) UpsertConversationSession(ctx context.Context, upsert *store.ConversationSession) (*store.ConversationSession, error) {
	stmt := `INSERT INTO conversation_session (id, state, created_ts, updated_ts)
		VALUES (` + placeholders(4) + `)
		ON CONFLICT (id) DO UPDATE SET
			state = excluded.state,
			updated_ts = excluded.updated_ts
		RETURNING created_ts`
	if err := d.db.QueryRowContext(ctx, stmt, upsert.ID, upsert.State, upsert.CreatedTs, upsert.UpdatedTs).Scan(&upsert.CreatedTs); err != nil {
		return nil, fmt.Errorf("failed to upsert conversation session: %w", err)
	}
	return upsert, nil
}

func (d *DB) ListConversationSessions(ctx context.Context, find *store.FindConversationSession) ([]*store.ConversationSession, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UpdatedBefore; v != nil {
		where, args = append(where, "updated_ts < "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `SELECT id, state, created_ts, updated_ts FROM conversation_session
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY updated_ts DESC`
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation sessions: %w", err)
	}
	defer rows.Close()

	list := make([]*store.ConversationSession, 0)
	for rows.Next() {
		var session store.ConversationSession
		if err := rows.Scan(&session.ID, &session.State, &session.CreatedTs, &session.UpdatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan conversation session: %w", err)
		}
		list = append(list, &session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversation sessions: %w", err)
	}
	return list, nil
}

func (d *DB) DeleteConversationSessions(ctx context.Context, delete *store.DeleteConversationSession) (int64, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := delete.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := delete.UpdatedBefore; v != nil {
		where, args = append(where, "updated_ts < "+placeholder(len(args)+1)), append(args, *v)
	}

	result, err := d.db.ExecContext(ctx, "DELETE FROM conversation_session WHERE "+strings.Join(where, " AND "), args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete conversation sessions: %w", err)
	}
	return result.RowsAffected()
}
