package calendar

import (
	"context"
	"errors"
	"fmt"

	"github.com/hrygo/slotdesk/plugin/ai/aitime"
	"github.com/hrygo/slotdesk/store"
)

// BookingSummary is the title given to every created appointment.
const BookingSummary = "Booked Appointment"

// StoreCalendar keeps bookings in the SQL store.
type StoreCalendar struct {
	store *store.Store
}

// NewStoreCalendar creates a calendar over st.
func NewStoreCalendar(st *store.Store) *StoreCalendar {
	return &StoreCalendar{store: st}
}

// CheckAvailability implements Calendar.
func (c *StoreCalendar) CheckAvailability(ctx context.Context, slot aitime.Slot) (bool, error) {
	if err := slot.Validate(); err != nil {
		return false, ErrMalformedSlot
	}
	list, err := c.store.ListOverlappingBookings(ctx, slot.Start, slot.End)
	if err != nil {
		return false, fmt.Errorf("failed to query bookings: %w", err)
	}
	return len(list) == 0, nil
}

// BookAppointment implements Calendar. A slot taken in the meantime
// reports false without error.
func (c *StoreCalendar) BookAppointment(ctx context.Context, slot aitime.Slot) (bool, error) {
	if err := slot.Validate(); err != nil {
		return false, ErrMalformedSlot
	}
	_, err := c.store.CreateBooking(ctx, &store.Booking{
		Summary:  BookingSummary,
		StartTs:  slot.Start.Unix(),
		EndTs:    slot.End.Unix(),
		Timezone: slot.Timezone,
	})
	if errors.Is(err, store.ErrBookingConflict) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create booking: %w", err)
	}
	return true, nil
}

var _ Calendar = (*StoreCalendar)(nil)
