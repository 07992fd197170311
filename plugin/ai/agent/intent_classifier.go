package agent

import (
	"context"
	"regexp"
	"strings"
)

// HistoryWindow is how many earlier utterances the rule classifier scans.
const HistoryWindow = 3

// Classifier maps an utterance, given the dialogue state, to an Intent.
type Classifier interface {
	Classify(ctx context.Context, utterance string, state DialogueState, history []string) Intent
}

var (
	bookPattern         = regexp.MustCompile(`(?i)\b(?:book|schedule|appointment|meeting|reserve)\b`)
	availabilityPattern = regexp.MustCompile(`(?i)\b(?:free|available|availability|open)\b`)
	dayPattern          = regexp.MustCompile(`(?i)\b(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday|today|tomorrow)\b`)
)

// RuleIntentClassifier classifies by vocabulary. The dialogue state, when
// set, decides the intent outright.
type RuleIntentClassifier struct{}

// NewRuleIntentClassifier creates a new RuleIntentClassifier.
func NewRuleIntentClassifier() *RuleIntentClassifier {
	return &RuleIntentClassifier{}
}

// Classify implements Classifier.
func (c *RuleIntentClassifier) Classify(_ context.Context, utterance string, state DialogueState, history []string) Intent {
	if intent, ok := contextIntent(state); ok {
		return intent
	}

	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}
	text := strings.Join(append(append([]string(nil), history...), utterance), " ")

	switch {
	case bookPattern.MatchString(text):
		return IntentBook
	case availabilityPattern.MatchString(text):
		return IntentCheckAvailability
	case dayPattern.MatchString(text):
		return IntentCheckAvailability
	}
	return IntentUnknown
}

// contextIntent returns the intent implied by a waiting state.
func contextIntent(state DialogueState) (Intent, bool) {
	switch state {
	case StateAwaitingTimeRange:
		return IntentCheckAvailability, true
	case StateAwaitingBookingTime, StateAwaitingConfirmation:
		return IntentBook, true
	}
	return IntentUnknown, false
}

var _ Classifier = (*RuleIntentClassifier)(nil)
