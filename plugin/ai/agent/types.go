// Package agent implements the scheduling dialogue: intent classification,
// per-turn state transitions, and the responses sent back to the user.
package agent

import (
	"fmt"
	"strings"

	"github.com/hrygo/slotdesk/plugin/ai/aitime"
)

// Intent is the coarse user goal for a turn.
type Intent int

const (
	// IntentUnknown is for utterances with no scheduling vocabulary.
	IntentUnknown Intent = iota
	// IntentBook is for booking requests.
	IntentBook
	// IntentCheckAvailability is for free/busy questions.
	IntentCheckAvailability
)

// String returns the wire name of the intent.
func (i Intent) String() string {
	switch i {
	case IntentBook:
		return "book"
	case IntentCheckAvailability:
		return "check_availability"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (i Intent) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *Intent) UnmarshalText(b []byte) error {
	intent, err := ParseIntent(string(b))
	if err != nil {
		return err
	}
	*i = intent
	return nil
}

// ParseIntent converts a wire name into an Intent.
func ParseIntent(s string) (Intent, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "book":
		return IntentBook, nil
	case "check_availability":
		return IntentCheckAvailability, nil
	case "unknown", "":
		return IntentUnknown, nil
	}
	return IntentUnknown, fmt.Errorf("unknown intent %q", s)
}

// DialogueState marks which missing piece the next turn is expected to supply.
type DialogueState int

const (
	// StateNone means no turn is pending; the next turn is dispatched by intent.
	StateNone DialogueState = iota
	// StateAwaitingTimeRange waits for a time to check.
	StateAwaitingTimeRange
	// StateAwaitingBookingTime waits for a time to book.
	StateAwaitingBookingTime
	// StateAwaitingConfirmation waits for yes/no on a pending booking.
	StateAwaitingConfirmation
)

// String returns the wire name of the state.
func (s DialogueState) String() string {
	switch s {
	case StateAwaitingTimeRange:
		return "awaiting_time_range"
	case StateAwaitingBookingTime:
		return "awaiting_booking_time"
	case StateAwaitingConfirmation:
		return "awaiting_confirmation"
	default:
		return ""
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s DialogueState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. The short markers
// ("time_range", "booking_time", "confirmation") are accepted as aliases.
func (s *DialogueState) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "", "none":
		*s = StateNone
	case "awaiting_time_range", "time_range":
		*s = StateAwaitingTimeRange
	case "awaiting_booking_time", "booking_time":
		*s = StateAwaitingBookingTime
	case "awaiting_confirmation", "confirmation":
		*s = StateAwaitingConfirmation
	default:
		return fmt.Errorf("unknown dialogue state %q", string(b))
	}
	return nil
}

// ConversationContext holds in-progress data for one conversation.
// It is cleared wholesale on every terminal transition.
type ConversationContext struct {
	// PendingDate is a day phrase waiting for a time, e.g. "Monday".
	PendingDate           string        `json:"pending_date,omitempty"`
	PendingBooking        *aitime.Slot  `json:"pending_booking,omitempty"`
	SuggestedAlternatives []aitime.Slot `json:"suggested_alternatives,omitempty"`
	LastBooked            *aitime.Slot  `json:"last_booked,omitempty"`
	// LastPrompt is the last question asked, repeated on an unclear answer.
	LastPrompt string `json:"last_prompt,omitempty"`
}

// SessionState is everything carried between turns of one conversation.
// The transport round-trips it verbatim.
type SessionState struct {
	Intent     Intent              `json:"intent"`
	WaitingFor DialogueState       `json:"waiting_for"`
	Context    ConversationContext `json:"context"`
	History    []string            `json:"history,omitempty"`
	Completed  bool                `json:"completed"`
	// Timezone overrides the agent default when set.
	Timezone string `json:"timezone,omitempty"`
}

// NewSessionState returns a fresh session.
func NewSessionState() *SessionState {
	return &SessionState{}
}

// Clone returns a deep copy.
func (s *SessionState) Clone() *SessionState {
	if s == nil {
		return NewSessionState()
	}
	c := *s
	c.History = append([]string(nil), s.History...)
	c.Context.SuggestedAlternatives = append([]aitime.Slot(nil), s.Context.SuggestedAlternatives...)
	if s.Context.PendingBooking != nil {
		slot := *s.Context.PendingBooking
		c.Context.PendingBooking = &slot
	}
	if s.Context.LastBooked != nil {
		slot := *s.Context.LastBooked
		c.Context.LastBooked = &slot
	}
	return &c
}

// Reset clears all progress and marks the session completed.
// The timezone preference survives.
func (s *SessionState) Reset() {
	*s = SessionState{Completed: true, Timezone: s.Timezone}
}

// RecentHistory returns up to n of the most recent utterances before the current one.
func (s *SessionState) RecentHistory(n int) []string {
	h := s.History
	if len(h) > 0 {
		h = h[:len(h)-1]
	}
	if len(h) > n {
		h = h[len(h)-n:]
	}
	return h
}
