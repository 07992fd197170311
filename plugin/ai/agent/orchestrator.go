package agent

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"runtime/debug"
	"strings"

	"github.com/hrygo/slotdesk/plugin/ai/aitime"
	"github.com/hrygo/slotdesk/plugin/ai/schedule"
	"github.com/hrygo/slotdesk/plugin/calendar"
)

// DefaultTimezone is used when neither the session nor the options name one.
const DefaultTimezone = "Asia/Kolkata"

// TurnResult is the reply to one user utterance.
type TurnResult struct {
	Response string        `json:"response"`
	Session  *SessionState `json:"state"`
}

// turn is the mutable working copy handed to a handler.
type turn struct {
	utterance string
	session   *SessionState
}

type handler func(ctx context.Context, t *turn) (string, error)

type handlerKey struct {
	state  DialogueState
	intent Intent
}

// Orchestrator runs one conversation turn at a time. It keeps no
// per-conversation state; every turn is a function of utterance and session.
type Orchestrator struct {
	calendar   calendar.Calendar
	times      aitime.TimeService
	classifier Classifier
	hours      schedule.BusinessHours
	suggester  *schedule.Suggester
	timezone   string
	handlers   map[handlerKey]handler
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClassifier replaces the rule-based intent classifier.
func WithClassifier(c Classifier) Option {
	return func(o *Orchestrator) { o.classifier = c }
}

// WithBusinessHours overrides the business-hour window.
func WithBusinessHours(h schedule.BusinessHours) Option {
	return func(o *Orchestrator) { o.hours = h }
}

// WithTimezone sets the default IANA zone for sessions that carry none.
func WithTimezone(tz string) Option {
	return func(o *Orchestrator) {
		if tz != "" {
			o.timezone = tz
		}
	}
}

// WithSuggester replaces the alternative suggester.
func WithSuggester(s *schedule.Suggester) Option {
	return func(o *Orchestrator) { o.suggester = s }
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(cal calendar.Calendar, times aitime.TimeService, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		calendar:   cal,
		times:      times,
		classifier: NewRuleIntentClassifier(),
		hours:      schedule.DefaultBusinessHours(),
		timezone:   DefaultTimezone,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.suggester == nil {
		o.suggester = schedule.NewSuggester(o.hours, cal)
	}
	o.handlers = map[handlerKey]handler{
		{StateNone, IntentBook}:                           o.handleFresh,
		{StateNone, IntentCheckAvailability}:              o.handleFresh,
		{StateNone, IntentUnknown}:                        o.handleUnknown,
		{StateAwaitingTimeRange, IntentCheckAvailability}: o.handleAwaitingTime,
		{StateAwaitingBookingTime, IntentBook}:            o.handleAwaitingTime,
		{StateAwaitingConfirmation, IntentBook}:           o.handleConfirmation,
	}
	return o
}

var (
	resetPattern    = regexp.MustCompile(`(?i)\b(?:start over|reset|begin again|restart)\b`)
	cancelPattern   = regexp.MustCompile(`(?i)\b(?:cancel|stop|never ?mind|forget it)\b`)
	sameTimePattern = regexp.MustCompile(`(?i)\bsame time\b`)
)

// HandleTurn applies one utterance to prior and returns the reply and the
// next session. prior is not modified; nil starts a fresh session.
func (o *Orchestrator) HandleTurn(ctx context.Context, utterance string, prior *SessionState) (result TurnResult) {
	session := prior.Clone()
	if session.Completed && session.WaitingFor == StateNone {
		session = o.reinitialize(session)
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("dialogue turn panicked",
				"panic", r,
				"state", session.WaitingFor,
				"stack", string(debug.Stack()))
			result = o.failSafe(session)
		}
	}()

	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return TurnResult{Response: msgEmptyUtterance, Session: session}
	}
	session.History = append(session.History, utterance)

	switch {
	case resetPattern.MatchString(utterance):
		session.Reset()
		return TurnResult{Response: msgGreeting, Session: session}
	case isCancel(utterance):
		session.Reset()
		return TurnResult{Response: msgCancelled, Session: session}
	}

	intent := o.classifier.Classify(ctx, utterance, session.WaitingFor, session.RecentHistory(HistoryWindow))
	session.Intent = intent

	h, ok := o.handlers[handlerKey{session.WaitingFor, intent}]
	if !ok {
		h = o.handleUnknown
	}
	slog.Debug("dispatching dialogue turn", "state", session.WaitingFor, "intent", intent)

	t := &turn{utterance: utterance, session: session}
	response, err := h(ctx, t)
	if err != nil {
		slog.Error("dialogue turn failed", "state", session.WaitingFor, "intent", intent, "error", err)
		return o.failSafe(session)
	}
	return TurnResult{Response: response, Session: t.session}
}

// reinitialize starts a fresh session after a completed one, carrying
// the last booking forward for "same time" references.
func (o *Orchestrator) reinitialize(s *SessionState) *SessionState {
	fresh := &SessionState{Timezone: s.Timezone}
	fresh.Context.LastBooked = s.Context.LastBooked
	return fresh
}

func (o *Orchestrator) failSafe(s *SessionState) TurnResult {
	s.Reset()
	return TurnResult{Response: msgApology, Session: s}
}

func (o *Orchestrator) zone(s *SessionState) string {
	if s.Timezone != "" {
		return s.Timezone
	}
	return o.timezone
}

// handleUnknown answers with a capability summary and completes the session.
func (o *Orchestrator) handleUnknown(_ context.Context, t *turn) (string, error) {
	t.session.Context = ConversationContext{LastBooked: t.session.Context.LastBooked}
	t.session.WaitingFor = StateNone
	t.session.Completed = true
	return msgCapabilities, nil
}

// handleFresh dispatches a new request by intent.
func (o *Orchestrator) handleFresh(ctx context.Context, t *turn) (string, error) {
	s := t.session
	s.Completed = false

	text, sameTime := o.applySameTime(t.utterance, s)
	if !sameTime && aitime.NeedsTime(t.utterance) {
		return o.askForTime(s, aitime.DateFragment(t.utterance)), nil
	}

	res, err := o.resolve(ctx, text, s, sameTime)
	if err != nil {
		return "", err
	}
	if res.Kind == ResultParseFailure {
		s.WaitingFor = StateNone
		s.Context.LastPrompt = msgNeedDateTime
		return msgNeedDateTime, nil
	}
	return o.respond(s, res), nil
}

// handleAwaitingTime completes a partially specified request.
func (o *Orchestrator) handleAwaitingTime(ctx context.Context, t *turn) (string, error) {
	s := t.session

	if alt, ok := schedule.MatchAlternative(t.utterance, s.Context.SuggestedAlternatives); ok {
		return o.respond(s, o.evaluate(ctx, alt)), nil
	}

	text, sameTime := o.applySameTime(t.utterance, s)
	if !sameTime {
		if aitime.NeedsTime(t.utterance) {
			return o.askForTime(s, aitime.DateFragment(t.utterance)), nil
		}
		if s.Context.PendingDate != "" && !aitime.HasDateMarker(t.utterance) {
			reply := t.utterance
			if aitime.IsBareNumber(reply) {
				clock, ok := aitime.BareHour(reply)
				if !ok {
					s.Context.LastPrompt = msgRetryTime
					return msgRetryTime, nil
				}
				reply = clock
			}
			text = s.Context.PendingDate + " " + reply
		}
	}

	res, err := o.resolve(ctx, text, s, sameTime)
	if err != nil {
		return "", err
	}
	if res.Kind == ResultParseFailure {
		s.Context.LastPrompt = msgRetryTime
		return msgRetryTime, nil
	}
	return o.respond(s, res), nil
}

// handleConfirmation settles a pending booking.
func (o *Orchestrator) handleConfirmation(ctx context.Context, t *turn) (string, error) {
	s := t.session
	pending := s.Context.PendingBooking
	if pending == nil {
		s.Reset()
		return msgLostPending, nil
	}

	switch {
	case isAffirmative(t.utterance):
		ok, err := o.calendar.BookAppointment(ctx, *pending)
		if err != nil || !ok {
			slog.Warn("booking failed", "start", pending.Start, "booked", ok, "error", err)
			s.Context.PendingBooking = nil
			s.WaitingFor = StateAwaitingTimeRange
			s.Context.LastPrompt = msgBookingFailed
			return msgBookingFailed, nil
		}
		booked := *pending
		s.Reset()
		s.Context.LastBooked = &booked
		return bookedMessage(booked.Start), nil

	case isNegative(t.utterance):
		s.Context.PendingBooking = nil
		s.WaitingFor = StateAwaitingTimeRange
		s.Context.LastPrompt = msgDeclined
		return msgDeclined, nil
	}

	res, err := o.resolve(ctx, t.utterance, s, false)
	if err != nil {
		return "", err
	}
	if res.Kind != ResultParseFailure {
		return o.respond(s, res), nil
	}
	prompt := s.Context.LastPrompt
	if prompt == "" {
		prompt = msgDefaultQuestion
	}
	return msgYesNo + " " + prompt, nil
}

func (o *Orchestrator) askForTime(s *SessionState, day string) string {
	s.Context.PendingDate = day
	s.Context.PendingBooking = nil
	s.Context.SuggestedAlternatives = nil
	if s.Intent == IntentBook {
		s.WaitingFor = StateAwaitingBookingTime
	} else {
		s.WaitingFor = StateAwaitingTimeRange
	}
	prompt := askTimeFor(day)
	s.Context.LastPrompt = prompt
	return prompt
}

// applySameTime rewrites "same time <day>" using the last booking's clock time.
func (o *Orchestrator) applySameTime(utterance string, s *SessionState) (string, bool) {
	last := s.Context.LastBooked
	if last == nil || !sameTimePattern.MatchString(utterance) {
		return utterance, false
	}
	start, _, err := last.Local()
	if err != nil {
		return utterance, false
	}
	day := aitime.DateFragment(utterance)
	if day == "" {
		day = "tomorrow"
	}
	return fmt.Sprintf("%s %s", day, start.Format("3:04 PM")), true
}

// resolve normalizes text and vets the slot. A "same time" request keeps
// the length of the last booking.
func (o *Orchestrator) resolve(ctx context.Context, text string, s *SessionState, sameTime bool) (SlotResult, error) {
	slot, err := o.times.Normalize(ctx, text, o.zone(s))
	if err != nil {
		if !isParseFailure(err) {
			return SlotResult{}, err
		}
		return SlotResult{Kind: ResultParseFailure, Err: err}, nil
	}
	if sameTime && s.Context.LastBooked != nil {
		slot.End = slot.Start.Add(s.Context.LastBooked.Duration())
	}
	return o.evaluate(ctx, slot), nil
}

// evaluate applies the business-hour policy and the availability check.
// A failed check is treated as unavailable.
func (o *Orchestrator) evaluate(ctx context.Context, slot aitime.Slot) SlotResult {
	if !o.hours.Contains(slot) {
		return SlotResult{Kind: ResultPolicyBlocked, Slot: slot, Suggestion: o.suggester.Suggest(ctx, slot)}
	}
	free, err := o.calendar.CheckAvailability(ctx, slot)
	if err != nil {
		slog.Warn("availability check failed, treating slot as busy", "start", slot.Start, "error", err)
		return SlotResult{Kind: ResultCollaboratorError, Slot: slot, Suggestion: o.suggester.Suggest(ctx, slot), Err: err}
	}
	if !free {
		return SlotResult{Kind: ResultUnavailable, Slot: slot, Suggestion: o.suggester.Suggest(ctx, slot)}
	}
	return SlotResult{Kind: ResultOK, Slot: slot}
}

// respond maps a vetted slot onto the next state and reply text.
func (o *Orchestrator) respond(s *SessionState, res SlotResult) string {
	s.Context.PendingDate = ""
	s.Completed = false

	var prompt string
	switch res.Kind {
	case ResultOK:
		slot := res.Slot
		s.Context.PendingBooking = &slot
		s.Context.SuggestedAlternatives = nil
		s.WaitingFor = StateAwaitingConfirmation
		prompt = availablePrompt(s.Intent, slot.Start)
	case ResultPolicyBlocked:
		prompt = o.offerAlternatives(s, res, outsideHoursMessage(o.hours, res.Suggestion.Text))
	case ResultUnavailable:
		prompt = o.offerAlternatives(s, res, busyMessage(res.Suggestion.Text))
	case ResultCollaboratorError:
		prompt = o.offerAlternatives(s, res, uncheckedMessage(res.Suggestion.Text))
	case ResultParseFailure:
		s.WaitingFor = StateNone
		prompt = msgNeedDateTime
	}
	s.Context.LastPrompt = prompt
	return prompt
}

func (o *Orchestrator) offerAlternatives(s *SessionState, res SlotResult, prompt string) string {
	s.Context.PendingBooking = nil
	s.Context.SuggestedAlternatives = res.Suggestion.Alternatives
	s.WaitingFor = StateAwaitingTimeRange
	return prompt
}
