// Package aitime normalizes free-text scheduling phrases into concrete time slots.
package aitime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrParseFailure is returned when no resolution attempt produced a time.
var ErrParseFailure = errors.New("unable to resolve date and time")

// TimeService defines the time normalization interface consumed by the dialogue agent.
type TimeService interface {
	// Normalize resolves input into a slot localized to timezone.
	// Supports: "Friday 2 PM", "tomorrow afternoon", "2026-10-23 14:00", "next monday 9:30am for 1 hour"
	Normalize(ctx context.Context, input string, timezone string) (Slot, error)
}

// Slot is a concrete appointment window.
// Start and End always carry the location named by Timezone.
type Slot struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Timezone string    `json:"timezone"`
}

// Validate reports whether the slot is well formed.
func (s Slot) Validate() error {
	if s.Start.IsZero() || s.End.IsZero() {
		return fmt.Errorf("slot has empty bounds")
	}
	if !s.End.After(s.Start) {
		return fmt.Errorf("slot end %s is not after start %s", s.End.Format(time.RFC3339), s.Start.Format(time.RFC3339))
	}
	if _, err := time.LoadLocation(s.Timezone); err != nil || s.Timezone == "" {
		return fmt.Errorf("slot timezone %q is invalid", s.Timezone)
	}
	return nil
}

// Duration returns the length of the slot.
func (s Slot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Local returns start and end converted into the slot's own zone.
func (s Slot) Local() (time.Time, time.Time, error) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return s.Start.In(loc), s.End.In(loc), nil
}

// Shift returns the slot moved so that it begins at start, keeping its duration.
func (s Slot) Shift(start time.Time) Slot {
	return Slot{Start: start, End: start.Add(s.Duration()), Timezone: s.Timezone}
}

// UnmarshalJSON restores the IANA location on start and end, which
// RFC3339 offsets alone cannot carry across a round trip.
func (s *Slot) UnmarshalJSON(data []byte) error {
	type raw Slot
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	*s = Slot(r)
	if loc, err := time.LoadLocation(s.Timezone); err == nil && s.Timezone != "" {
		s.Start = s.Start.In(loc)
		s.End = s.End.In(loc)
	}
	return nil
}

// ParseError describes a failed normalization.
type ParseError struct {
	Input    string
	Attempts []string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v: %q (tried %d variants)", ErrParseFailure, e.Input, len(e.Attempts))
}

func (e *ParseError) Unwrap() error {
	return ErrParseFailure
}
