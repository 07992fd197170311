package schedule

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hrygo/slotdesk/plugin/ai/aitime"
)

// Suggester defaults.
const (
	DefaultProbeSteps    = 8
	DefaultProbeInterval = 30 * time.Minute
	MaxSuggestions       = 2

	// FallbackText is the fallback offer under default business hours.
	FallbackText = "tomorrow at 10:00 AM or 2:00 PM"
)

// AvailabilityChecker answers free/busy queries for candidate slots.
type AvailabilityChecker interface {
	CheckAvailability(ctx context.Context, slot aitime.Slot) (bool, error)
}

// Suggestion is a human-readable set of candidate times.
type Suggestion struct {
	Text         string        `json:"text"`
	Alternatives []aitime.Slot `json:"alternatives,omitempty"`
}

// Suggester proposes alternative times for a rejected slot.
// With a checker it only proposes times the calendar reports free.
type Suggester struct {
	hours         BusinessHours
	checker       AvailabilityChecker
	probeSteps    int
	probeInterval time.Duration
	now           func() time.Time
}

// SuggesterOption configures a Suggester.
type SuggesterOption func(*Suggester)

// WithProbeSteps sets how many half-hour increments are probed.
func WithProbeSteps(n int) SuggesterOption {
	return func(s *Suggester) {
		if n > 0 {
			s.probeSteps = n
		}
	}
}

// WithSuggesterClock overrides the current-time source.
func WithSuggesterClock(now func() time.Time) SuggesterOption {
	return func(s *Suggester) { s.now = now }
}

// NewSuggester creates a Suggester. checker may be nil.
func NewSuggester(hours BusinessHours, checker AvailabilityChecker, opts ...SuggesterOption) *Suggester {
	s := &Suggester{
		hours:         hours,
		checker:       checker,
		probeSteps:    DefaultProbeSteps,
		probeInterval: DefaultProbeInterval,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Suggest returns one or two candidate times for slot.
func (s *Suggester) Suggest(ctx context.Context, slot aitime.Slot) Suggestion {
	start, _, err := slot.Local()
	if err != nil || slot.Start.IsZero() {
		return s.fallback(slot)
	}
	slot = slot.Shift(start)

	if !s.hours.ContainsHour(start.Hour()) {
		return s.suggestNextDay(ctx, slot)
	}
	if s.checker == nil {
		return s.suggestLater(slot)
	}
	if free := s.probe(ctx, slot, start); len(free) > 0 {
		return newSuggestion(free)
	}
	return s.fallback(slot)
}

// suggestNextDay offers the following day's morning and afternoon slots.
func (s *Suggester) suggestNextDay(ctx context.Context, slot aitime.Slot) Suggestion {
	next := slot.Start.AddDate(0, 0, 1)
	var candidates []aitime.Slot
	for _, hour := range s.hours.SuggestionHours() {
		at := time.Date(next.Year(), next.Month(), next.Day(), hour, 0, 0, 0, next.Location())
		candidates = append(candidates, slot.Shift(at))
	}
	if s.checker == nil {
		return newSuggestion(candidates)
	}

	var free []aitime.Slot
	for _, c := range candidates {
		if s.isFree(ctx, c) {
			free = append(free, c)
		}
	}
	if len(free) == 0 {
		free = s.probe(ctx, candidates[0], candidates[0].Start)
	}
	if len(free) == 0 {
		return s.fallback(slot)
	}
	return newSuggestion(free)
}

// suggestLater offers start+1h and start+2h clamped to the last business hour.
func (s *Suggester) suggestLater(slot aitime.Slot) Suggestion {
	start := slot.Start
	last := time.Date(start.Year(), start.Month(), start.Day(), s.hours.LastStartHour(), 0, 0, 0, start.Location())

	var out []aitime.Slot
	for _, offset := range []time.Duration{time.Hour, 2 * time.Hour} {
		at := start.Add(offset)
		if at.After(last) {
			at = last
		}
		if len(out) > 0 && out[len(out)-1].Start.Equal(at) {
			continue
		}
		out = append(out, slot.Shift(at))
	}
	return newSuggestion(out)
}

// probe walks half-hour increments after from and collects free candidates
// inside business hours. Every step counts against the budget.
func (s *Suggester) probe(ctx context.Context, slot aitime.Slot, from time.Time) []aitime.Slot {
	var free []aitime.Slot
	for step := 1; step <= s.probeSteps && len(free) < MaxSuggestions; step++ {
		at := from.Add(time.Duration(step) * s.probeInterval)
		if !s.hours.ContainsHour(at.Hour()) {
			continue
		}
		candidate := slot.Shift(at)
		if s.isFree(ctx, candidate) {
			free = append(free, candidate)
		}
	}
	return free
}

// isFree treats a failed check as busy.
func (s *Suggester) isFree(ctx context.Context, slot aitime.Slot) bool {
	ok, err := s.checker.CheckAvailability(ctx, slot)
	if err != nil {
		slog.Warn("availability probe failed", "start", slot.Start, "error", err)
		return false
	}
	return ok
}

// fallback offers tomorrow's suggestion hours without checking them.
func (s *Suggester) fallback(slot aitime.Slot) Suggestion {
	hours := s.hours.SuggestionHours()
	clocks := make([]string, len(hours))
	for i, hour := range hours {
		clocks[i] = time.Date(2000, 1, 1, hour, 0, 0, 0, time.UTC).Format(clockLayout)
	}
	text := "tomorrow at " + strings.Join(clocks, " or ")

	loc, err := time.LoadLocation(slot.Timezone)
	if err != nil || slot.Timezone == "" {
		return Suggestion{Text: text}
	}
	duration := slot.Duration()
	if duration <= 0 {
		duration = aitime.DefaultDuration
	}
	tomorrow := s.now().In(loc).AddDate(0, 0, 1)
	alts := make([]aitime.Slot, 0, len(hours))
	for _, hour := range hours {
		at := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), hour, 0, 0, 0, loc)
		alts = append(alts, aitime.Slot{Start: at, End: at.Add(duration), Timezone: slot.Timezone})
	}
	return Suggestion{Text: text, Alternatives: alts}
}

func newSuggestion(slots []aitime.Slot) Suggestion {
	times := make([]time.Time, len(slots))
	for i, s := range slots {
		times[i] = s.Start
	}
	return Suggestion{Text: FormatChoices(times), Alternatives: slots}
}

var (
	ordinals = map[string]int{
		"first": 0, "1st": 0, "former": 0,
		"second": 1, "2nd": 1, "latter": 1,
	}
	ordinalPattern = regexp.MustCompile(`(?i)\b(first|1st|former|second|2nd|latter|last)\b`)
	bareHourRegexp = regexp.MustCompile(`^\s*(\d{1,2})\s*$`)
)

// MatchAlternative picks the offered alternative a reply refers to, by
// ordinal ("the second one") or by clock time ("10 AM", "14:00", "2").
func MatchAlternative(reply string, alternatives []aitime.Slot) (aitime.Slot, bool) {
	if len(alternatives) == 0 {
		return aitime.Slot{}, false
	}

	if m := ordinalPattern.FindStringSubmatch(reply); m != nil {
		word := strings.ToLower(m[1])
		if word == "last" {
			return alternatives[len(alternatives)-1], true
		}
		if idx := ordinals[word]; idx < len(alternatives) {
			return alternatives[idx], true
		}
	}

	if hour, minute, ok := aitime.ParseClock(aitime.NormalizeTimeTokens(reply)); ok {
		day := aitime.DateFragment(reply)
		for _, alt := range alternatives {
			start, _, err := alt.Local()
			if err != nil {
				continue
			}
			if start.Hour() != hour || start.Minute() != minute {
				continue
			}
			if day != "" && !strings.EqualFold(day, start.Weekday().String()) &&
				!strings.HasPrefix(strings.ToLower(start.Weekday().String()), strings.ToLower(day)) {
				continue
			}
			return alt, true
		}
		return aitime.Slot{}, false
	}

	if m := bareHourRegexp.FindStringSubmatch(reply); m != nil {
		n, _ := strconv.Atoi(m[1])
		for _, alt := range alternatives {
			start, _, err := alt.Local()
			if err == nil && start.Hour()%12 == n%12 && start.Minute() == 0 {
				return alt, true
			}
		}
	}
	return aitime.Slot{}, false
}
