// Package calendar provides the free/busy and booking backends the
// scheduling agent talks to.
package calendar

import (
	"context"
	"errors"

	"github.com/hrygo/slotdesk/plugin/ai/aitime"
)

// ErrMalformedSlot is returned for slots that fail validation.
// Implementations answer such slots as unavailable and not booked.
var ErrMalformedSlot = errors.New("malformed slot")

// Calendar is the collaborator contract of the dialogue agent.
type Calendar interface {
	// CheckAvailability reports whether no existing event overlaps slot.
	CheckAvailability(ctx context.Context, slot aitime.Slot) (bool, error)
	// BookAppointment reports whether an event for slot was durably created.
	BookAppointment(ctx context.Context, slot aitime.Slot) (bool, error)
}

// overlaps reports whether [s1, e1) and [s2, e2) intersect.
func overlaps(a, b aitime.Slot) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}
