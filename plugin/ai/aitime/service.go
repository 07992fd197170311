package aitime

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Service implements TimeService with a staged cleanup pipeline followed by
// a chain of resolvers tried against several text variants.
type Service struct {
	defaultTimezone *time.Location
	defaultDuration time.Duration
	now             func() time.Time
	pipeline        Pipeline
	resolvers       []Resolver
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the current-time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithDefaultDuration overrides the slot length used when none is stated.
func WithDefaultDuration(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.defaultDuration = d
		}
	}
}

// WithResolvers replaces the resolver chain.
func WithResolvers(resolvers ...Resolver) Option {
	return func(s *Service) { s.resolvers = resolvers }
}

// NewService creates a new time service.
func NewService(defaultTimezone string, opts ...Option) *Service {
	loc, err := time.LoadLocation(defaultTimezone)
	if err != nil || defaultTimezone == "" {
		loc = time.UTC
	}
	s := &Service{
		defaultTimezone: loc,
		defaultDuration: DefaultDuration,
		now:             time.Now,
		pipeline:        DefaultPipeline(),
		resolvers:       []Resolver{RuleResolver{}, NewWhenResolver()},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Normalize implements TimeService.
func (s *Service) Normalize(_ context.Context, input string, timezone string) (Slot, error) {
	return s.NormalizeAt(input, timezone, s.now())
}

// NormalizeAt resolves input relative to now.
func (s *Service) NormalizeAt(input string, timezone string, now time.Time) (Slot, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil || timezone == "" {
		loc = s.defaultTimezone
	}
	now = now.In(loc)

	cleaned := s.pipeline.Apply(input)
	var candidates []string
	if cleaned != "" {
		candidates = append(candidates, cleaned, cleaned+" "+strconv.Itoa(now.Year()))
	}
	attempts := dedupe(append(candidates, strings.TrimSpace(input)))
	timeOnly := !HasDateMarker(input)

	for _, text := range attempts {
		for _, r := range s.resolvers {
			t, err := r.Resolve(text, now)
			if err != nil {
				continue
			}
			t = s.fixYear(t, now)
			start := t.In(loc)
			// A time of day that has already passed means tomorrow.
			if timeOnly && start.Before(now) {
				start = start.AddDate(0, 0, 1)
			}
			return Slot{
				Start:    start,
				End:      start.Add(InferDuration(input, s.defaultDuration)),
				Timezone: loc.String(),
			}, nil
		}
	}

	slog.Debug("time normalization failed", "input", input, "attempts", attempts)
	return Slot{}, &ParseError{Input: input, Attempts: attempts}
}

// fixYear substitutes the current year for one no caller would mean.
func (s *Service) fixYear(t, now time.Time) time.Time {
	if t.Year() >= now.Year()-1 && t.Year() <= now.Year()+10 {
		return t
	}
	return time.Date(now.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, t.Location())
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

var _ TimeService = (*Service)(nil)
