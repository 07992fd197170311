package agent

import (
	"errors"
	"strings"
	"unicode"

	"github.com/hrygo/slotdesk/plugin/ai/aitime"
)

var (
	affirmatives = map[string]bool{"yes": true, "y": true, "yeah": true, "yep": true, "sure": true, "ok": true, "okay": true, "confirm": true}
	negatives    = map[string]bool{"no": true, "n": true, "nope": true, "nah": true, "cancel": true}

	// cancelFillers may surround a cancel phrase without adding a request.
	cancelFillers = map[string]bool{
		"please": true, "ok": true, "okay": true, "oh": true, "just": true, "no": true,
		"actually": true, "wait": true, "i": true, "i'd": true, "like": true, "want": true,
		"to": true, "can": true, "you": true, "we": true, "let's": true, "all": true,
		"everything": true, "that": true, "this": true, "it": true, "the": true, "my": true,
		"booking": true, "appointment": true, "meeting": true, "request": true,
	}
)

// firstWord returns the lower-cased leading word with punctuation removed.
func firstWord(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '!' || r == '?' || r == '\t'
	})
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func isAffirmative(s string) bool {
	return affirmatives[firstWord(s)]
}

func isNegative(s string) bool {
	return negatives[firstWord(s)]
}

// isCancel reports whether s asks to cancel and nothing else.
func isCancel(s string) bool {
	if !cancelPattern.MatchString(s) {
		return false
	}
	rest := cancelPattern.ReplaceAllString(strings.ToLower(s), " ")
	words := strings.FieldsFunc(rest, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	for _, w := range words {
		if !cancelFillers[w] {
			return false
		}
	}
	return true
}

func isParseFailure(err error) bool {
	return errors.Is(err, aitime.ErrParseFailure)
}
