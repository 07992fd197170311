package schedule

import (
	"strings"
	"time"
)

const (
	clockLayout    = "3:04 PM"
	friendlyLayout = "Monday, January 2 at 3:04 PM"
)

// FormatFriendly renders t as "Friday, October 23 at 2:00 PM".
func FormatFriendly(t time.Time) string {
	return t.Format(friendlyLayout)
}

// FormatDay renders t as "Friday at 2:00 PM".
func FormatDay(t time.Time) string {
	return t.Weekday().String() + " at " + t.Format(clockLayout)
}

// FormatChoices joins candidate times, naming the day once when all fall on
// the same date: "Tuesday at 10:00 AM or 2:00 PM".
func FormatChoices(times []time.Time) string {
	if len(times) == 0 {
		return ""
	}
	parts := make([]string, 0, len(times))
	parts = append(parts, FormatDay(times[0]))
	for _, t := range times[1:] {
		if sameDay(t, times[0]) {
			parts = append(parts, t.Format(clockLayout))
		} else {
			parts = append(parts, FormatDay(t))
		}
	}
	return strings.Join(parts, " or ")
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
