package agent

import (
	"fmt"
	"time"

	"github.com/hrygo/slotdesk/plugin/ai/schedule"
)

const (
	msgGreeting        = "Okay, let's start over. What would you like to book or check?"
	msgCancelled       = "Okay, I've cancelled that. Let me know if you need anything else."
	msgCapabilities    = "I can check your availability or book an appointment. Try \"Am I free tomorrow afternoon?\" or \"Book a meeting Friday at 2 PM\"."
	msgNeedDateTime    = "Please specify a date and time (e.g., 'Friday 2 PM')."
	msgRetryTime       = "I couldn't understand that time. Try something like 'Friday 2 PM' or 'tomorrow at 10 AM'."
	msgDeclined        = "No problem. What other time works for you?"
	msgBookingFailed   = "Sorry, I couldn't book that slot. Please suggest another time."
	msgLostPending     = "Sorry, I lost track of the slot we were discussing. Let's start again."
	msgApology         = "Sorry, something went wrong on my side. Let's start over."
	msgEmptyUtterance  = "I didn't catch that. What would you like to schedule?"
	msgYesNo           = "Please answer yes or no."
	msgDefaultQuestion = "Would you like me to book it? (yes/no)"
)

func askTimeFor(day string) string {
	return fmt.Sprintf("What time on %s? (e.g., '3 PM')", day)
}

func availablePrompt(intent Intent, start time.Time) string {
	if intent == IntentBook {
		return fmt.Sprintf("%s is available. Shall I book it? (yes/no)", schedule.FormatFriendly(start))
	}
	return fmt.Sprintf("You're free on %s. %s", schedule.FormatFriendly(start), msgDefaultQuestion)
}

func bookedMessage(start time.Time) string {
	return fmt.Sprintf("Your appointment is booked for %s.", schedule.FormatFriendly(start))
}

func outsideHoursMessage(hours schedule.BusinessHours, suggestion string) string {
	return fmt.Sprintf("That's outside business hours (%s to %s). How about %s?",
		hourLabel(hours.OpenHour), hourLabel(hours.CloseHour), suggestion)
}

func busyMessage(suggestion string) string {
	return fmt.Sprintf("That time is already taken. How about %s?", suggestion)
}

func uncheckedMessage(suggestion string) string {
	return fmt.Sprintf("I couldn't confirm that time is free. How about %s?", suggestion)
}

func hourLabel(hour int) string {
	return time.Date(2000, 1, 1, hour%24, 0, 0, 0, time.UTC).Format("3 PM")
}
