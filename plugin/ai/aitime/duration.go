package aitime

import (
	"regexp"
	"strconv"
	"time"
)

// DefaultDuration is used when the text names no length.
const DefaultDuration = 30 * time.Minute

var (
	hoursPattern    = regexp.MustCompile(`(?i)\b(\d+)\s*(?:hours?|hrs?)\b`)
	minutesPattern  = regexp.MustCompile(`(?i)\b(\d+)\s*(?:minutes?|mins?)\b`)
	halfHourPattern = regexp.MustCompile(`(?i)\bhalf (?:an )?hour\b`)
	oneHourPattern  = regexp.MustCompile(`(?i)\b(?:an|one) hour\b`)
)

// InferDuration reads an explicit length from text. Minutes take precedence
// over hours; zero lengths fall back to def.
func InferDuration(text string, def time.Duration) time.Duration {
	if m := minutesPattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return time.Duration(n) * time.Minute
		}
	}
	if halfHourPattern.MatchString(text) {
		return 30 * time.Minute
	}
	if m := hoursPattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return time.Duration(n) * time.Hour
		}
	}
	if oneHourPattern.MatchString(text) {
		return time.Hour
	}
	return def
}
