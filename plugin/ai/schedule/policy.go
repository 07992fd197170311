// Package schedule provides business-hour policy and alternative-time
// suggestions for the scheduling agent.
package schedule

import (
	"time"

	"github.com/hrygo/slotdesk/plugin/ai/aitime"
)

// Business hour defaults, local to the slot's timezone.
const (
	DefaultOpenHour  = 9
	DefaultCloseHour = 18
)

// BusinessHours is the [OpenHour, CloseHour) window evaluated on the start hour.
type BusinessHours struct {
	OpenHour  int
	CloseHour int
}

// DefaultBusinessHours returns the 09:00-18:00 window.
func DefaultBusinessHours() BusinessHours {
	return BusinessHours{OpenHour: DefaultOpenHour, CloseHour: DefaultCloseHour}
}

// Contains reports whether slot starts within business hours.
// A malformed slot is reported as inside; this predicate is advisory only.
func (b BusinessHours) Contains(slot aitime.Slot) bool {
	if slot.Start.IsZero() {
		return true
	}
	loc, err := time.LoadLocation(slot.Timezone)
	if err != nil || slot.Timezone == "" {
		return true
	}
	return b.ContainsHour(slot.Start.In(loc).Hour())
}

// ContainsHour reports whether hour lies in the window.
func (b BusinessHours) ContainsHour(hour int) bool {
	return hour >= b.OpenHour && hour < b.CloseHour
}

// LastStartHour is the latest hour a suggestion may start at.
func (b BusinessHours) LastStartHour() int {
	return b.CloseHour - 1
}

// preferredSuggestionHours are the morning and afternoon hours offered on
// another day.
var preferredSuggestionHours = []int{10, 14}

// SuggestionHours returns the preferred next-day hours clamped into the
// window, without duplicates.
func (b BusinessHours) SuggestionHours() []int {
	out := make([]int, 0, len(preferredSuggestionHours))
	for _, h := range preferredSuggestionHours {
		h = max(b.OpenHour, min(h, b.LastStartHour()))
		if len(out) > 0 && out[len(out)-1] == h {
			continue
		}
		out = append(out, h)
	}
	return out
}
