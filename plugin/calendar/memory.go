package calendar

import (
	"context"
	"sync"

	"github.com/hrygo/slotdesk/plugin/ai/aitime"
)

// MemoryCalendar keeps bookings in process memory.
type MemoryCalendar struct {
	mu       sync.RWMutex
	bookings []aitime.Slot
}

// NewMemoryCalendar creates a calendar pre-populated with busy slots.
func NewMemoryCalendar(busy ...aitime.Slot) *MemoryCalendar {
	return &MemoryCalendar{bookings: append([]aitime.Slot(nil), busy...)}
}

// CheckAvailability implements Calendar.
func (c *MemoryCalendar) CheckAvailability(_ context.Context, slot aitime.Slot) (bool, error) {
	if err := slot.Validate(); err != nil {
		return false, ErrMalformedSlot
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.conflicts(slot), nil
}

// BookAppointment implements Calendar.
func (c *MemoryCalendar) BookAppointment(_ context.Context, slot aitime.Slot) (bool, error) {
	if err := slot.Validate(); err != nil {
		return false, ErrMalformedSlot
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conflicts(slot) {
		return false, nil
	}
	c.bookings = append(c.bookings, slot)
	return true, nil
}

// Bookings returns a copy of every stored slot.
func (c *MemoryCalendar) Bookings() []aitime.Slot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]aitime.Slot(nil), c.bookings...)
}

func (c *MemoryCalendar) conflicts(slot aitime.Slot) bool {
	for _, b := range c.bookings {
		if overlaps(b, slot) {
			return true
		}
	}
	return false
}

var _ Calendar = (*MemoryCalendar)(nil)
