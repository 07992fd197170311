package store

import (
	"context"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"
)

// ErrBookingConflict is returned when a booking overlaps an existing one.
var ErrBookingConflict = errors.New("booking overlaps an existing booking")

// Booking is a confirmed appointment. Times are unix seconds, the interval is [StartTs, EndTs).
type Booking struct {
	ID        int32
	UID       string
	Summary   string
	StartTs   int64
	EndTs     int64
	Timezone  string
	CreatedTs int64
}

// FindBooking is the find condition for booking.
type FindBooking struct {
	ID  *int32
	UID *string

	// Overlap window: bookings with start_ts < StartBefore and end_ts > EndAfter.
	StartBefore *int64
	EndAfter    *int64

	Limit *int
}

// DeleteBooking is the delete request for booking.
type DeleteBooking struct {
	ID int32
}

// CreateBooking stores a booking, generating its UID when empty.
func (s *Store) CreateBooking(ctx context.Context, create *Booking) (*Booking, error) {
	if create.EndTs <= create.StartTs {
		return nil, errors.Errorf("invalid booking interval [%d, %d)", create.StartTs, create.EndTs)
	}
	if create.UID == "" {
		create.UID = shortuuid.New()
	}
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	return s.driver.CreateBooking(ctx, create)
}

func (s *Store) ListBookings(ctx context.Context, find *FindBooking) ([]*Booking, error) {
	return s.driver.ListBookings(ctx, find)
}

// ListOverlappingBookings returns bookings intersecting [start, end).
func (s *Store) ListOverlappingBookings(ctx context.Context, start, end time.Time) ([]*Booking, error) {
	startBefore, endAfter := end.Unix(), start.Unix()
	return s.driver.ListBookings(ctx, &FindBooking{
		StartBefore: &startBefore,
		EndAfter:    &endAfter,
	})
}

func (s *Store) DeleteBooking(ctx context.Context, delete *DeleteBooking) error {
	return s.driver.DeleteBooking(ctx, delete)
}
