package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/hrygo/slotdesk/store"
)

// bookingLockKey serializes booking inserts across connections.
const bookingLockKey = 7340021

func (d *DB) CreateBooking(ctx context.Context, create *store.Booking) (*store.Booking, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", bookingLockKey); err != nil {
		return nil, fmt.Errorf("failed to lock bookings: %w", err)
	}

	fields := []string{"uid", "summary", "start_ts", "end_ts", "timezone", "created_ts"}
	args := []any{create.UID, create.Summary, create.StartTs, create.EndTs, create.Timezone, create.CreatedTs}
	stmt := `INSERT INTO booking (` + strings.Join(fields, ", ") + `)
		SELECT ` + placeholders(len(args)) + `
		WHERE NOT EXISTS (
			SELECT 1 FROM booking WHERE start_ts < $7 AND end_ts > $8
		)
		RETURNING id`
	args = append(args, create.EndTs, create.StartTs)

	if err := tx.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrBookingConflict
		}
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit booking: %w", err)
	}
	return create, nil
}

func (d *DB) ListBookings(ctx context.Context, find *store.FindBooking) ([]*store.Booking, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "booking.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "booking.uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.StartBefore; v != nil {
		where, args = append(where, "booking.start_ts < "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.EndAfter; v != nil {
		where, args = append(where, "booking.end_ts > "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT id, uid, summary, start_ts, end_ts, timezone, created_ts
		FROM booking
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY booking.start_ts ASC`
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Booking, 0)
	for rows.Next() {
		var booking store.Booking
		if err := rows.Scan(
			&booking.ID,
			&booking.UID,
			&booking.Summary,
			&booking.StartTs,
			&booking.EndTs,
			&booking.Timezone,
			&booking.CreatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		list = append(list, &booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return list, nil
}

func (d *DB) DeleteBooking(ctx context.Context, delete *store.DeleteBooking) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM booking WHERE id = $1", delete.ID); err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	return nil
}
