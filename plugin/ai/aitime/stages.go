package aitime

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Stage is one named text transform of the normalization pipeline.
// Every stage must be idempotent on its own output.
type Stage struct {
	Name  string
	Apply func(text string) string
}

// Pipeline applies stages in order.
type Pipeline []Stage

// Apply runs text through every stage.
func (p Pipeline) Apply(text string) string {
	for _, stage := range p {
		text = stage.Apply(text)
	}
	return text
}

// DefaultPipeline returns the standard normalization stages.
func DefaultPipeline() Pipeline {
	return Pipeline{
		{Name: "strip_conversational", Apply: StripConversational},
		{Name: "substitute_vague_term", Apply: SubstituteVagueTerm},
		{Name: "normalize_time_tokens", Apply: NormalizeTimeTokens},
		{Name: "inject_default_time", Apply: InjectDefaultTime},
	}
}

var (
	fillerPattern = regexp.MustCompile(`(?i)\b(?:yes|yeah|please|book|schedule|appointment|meeting|call|wanna|want to|can you|could you|i'd like|i want|i need|let's|set up|for|at|on|by|me|an|the|my)\b`)

	// Duration phrases are removed from the resolver input; the numbers in
	// them would otherwise be read as clock times.
	durationPhrasePattern = regexp.MustCompile(`(?i)\b(?:half an hour|half hour|an hour|one hour|\d+\s*(?:hours?|hrs?|minutes?|mins?))\b`)

	punctuationPattern = regexp.MustCompile(`[?!,;]+|\.(\s|$)`)
	spacePattern       = regexp.MustCompile(`\s+`)

	meridiemPattern = regexp.MustCompile(`(?i)(\d)\s*([ap])\.?m\b\.?`)
	colonPattern    = regexp.MustCompile(`(\d{1,2})\s+:\s*(\d{2})\b|(\d{1,2}):\s+(\d{2})\b`)

	// Time marker: am/pm, H:MM, or an hour/minute word.
	timeMarkerPattern = regexp.MustCompile(`(?i)\b(?:am|pm)\b|\d:\d{2}|\bhours?\b|\bminutes?\b`)
	clockPattern      = regexp.MustCompile(`(?i)\b(?:am|pm)\b|\d:\d{2}`)
	bareNumberPattern = regexp.MustCompile(`(?i)^(?:(?:at|around|about)\s+)?(\d{1,3})(?:\s*o'?\s*clock)?\s*[.!?]*$`)
)

const weekdayAlternation = `monday|mon|tuesday|tues|tue|wednesday|wed|thursday|thurs|thur|thu|friday|fri|saturday|sat|sunday|sun`

const monthAlternation = `january|jan|february|feb|march|mar|april|apr|may|june|jun|july|jul|august|aug|september|sept|sep|october|oct|november|nov|december|dec`

var (
	isoDatePattern     = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})`)
	dayAfterPattern    = regexp.MustCompile(`(?i)\bday after tomorrow\b`)
	relativeDayPattern = regexp.MustCompile(`(?i)\b(today|tomorrow|tonight)\b`)
	weekdayPattern     = regexp.MustCompile(`(?i)\b(?:(next|this|coming)\s+)?(` + weekdayAlternation + `)\b`)
	monthDayPattern    = regexp.MustCompile(`(?i)\b(` + monthAlternation + `)\.?\s+(\d{1,2})(?:st|nd|rd|th)?\b(?:,?\s+(\d{4})\b)?`)
	dayMonthPattern    = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?(` + monthAlternation + `)\b(?:,?\s+(\d{4})\b)?`)
	numericDatePattern = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{4}|\d{2}))?\b`)
)

// datePatterns lists every date marker, longest phrases first.
var datePatterns = []*regexp.Regexp{
	isoDatePattern,
	dayAfterPattern,
	relativeDayPattern,
	monthDayPattern,
	dayMonthPattern,
	numericDatePattern,
	weekdayPattern,
}

// vagueTerms are checked in order; only the first match is substituted.
var vagueTerms = []struct {
	pattern  *regexp.Regexp
	concrete string
}{
	{regexp.MustCompile(`(?i)\btonight\b`), "today 7:00 PM"},
	{regexp.MustCompile(`(?i)\bmorning\b`), "10:00 AM"},
	{regexp.MustCompile(`(?i)\bafternoon\b`), "2:00 PM"},
	{regexp.MustCompile(`(?i)\bevening\b`), "5:00 PM"},
	{regexp.MustCompile(`(?i)\bnight\b`), "7:00 PM"},
	{regexp.MustCompile(`(?i)\bnoon\b`), "12:00 PM"},
	{regexp.MustCompile(`(?i)\bmidnight\b`), "12:00 AM"},
}

// StripConversational removes filler words, prepositions, duration phrases
// and stray punctuation. Case is preserved so ISO timestamps survive.
func StripConversational(text string) string {
	text = durationPhrasePattern.ReplaceAllString(text, " ")
	text = fillerPattern.ReplaceAllString(text, " ")
	text = punctuationPattern.ReplaceAllString(text, " ")
	return collapseSpaces(text)
}

// SubstituteVagueTerm replaces the first vague period word with a clock time.
// When the text already names a clock time the period word is dropped instead.
func SubstituteVagueTerm(text string) string {
	for _, term := range vagueTerms {
		loc := term.pattern.FindStringIndex(text)
		if loc == nil {
			continue
		}
		replacement := term.concrete
		if clockPattern.MatchString(text) {
			replacement = ""
			if strings.HasPrefix(term.concrete, "today") && !HasDateMarker(text[:loc[0]]+text[loc[1]:]) {
				replacement = "today"
			}
		}
		return collapseSpaces(text[:loc[0]] + replacement + text[loc[1]:])
	}
	return text
}

// NormalizeTimeTokens separates am/pm from digits and tightens H:MM spacing.
func NormalizeTimeTokens(text string) string {
	text = meridiemPattern.ReplaceAllStringFunc(text, func(m string) string {
		sub := meridiemPattern.FindStringSubmatch(m)
		return sub[1] + " " + strings.ToLower(sub[2]) + "m"
	})
	text = colonPattern.ReplaceAllString(text, "$1$3:$2$4")
	return collapseSpaces(text)
}

// InjectDefaultTime appends 10:00 AM to a bare date and prefixes "today"
// to a bare time.
func InjectDefaultTime(text string) string {
	hasDate := HasDateMarker(text)
	hasTime := HasTimeMarker(text)
	switch {
	case hasDate && !hasTime:
		return text + " 10:00 AM"
	case hasTime && !hasDate:
		return "today " + text
	}
	return text
}

// HasDateMarker reports whether text names a day or calendar date.
func HasDateMarker(text string) bool {
	for _, p := range datePatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// HasTimeMarker reports whether text carries an explicit time of day.
func HasTimeMarker(text string) bool {
	return timeMarkerPattern.MatchString(text)
}

// NeedsTime reports whether text names a day but, after cleanup, no time of day.
func NeedsTime(text string) bool {
	cleaned := NormalizeTimeTokens(SubstituteVagueTerm(StripConversational(text)))
	return HasDateMarker(cleaned) && !HasTimeMarker(cleaned)
}

// IsBareNumber reports whether text is only a number, optionally led by
// "at" or followed by "o'clock".
func IsBareNumber(text string) bool {
	return bareNumberPattern.MatchString(strings.TrimSpace(text))
}

// BareHour reads a bare number as a clock time. Hours 1 to 6 are taken as
// afternoon, 7 to 11 as morning, 12 as noon and 13 to 23 as 24-hour.
func BareHour(text string) (string, bool) {
	m := bareNumberPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return "", false
	}
	hour, err := strconv.Atoi(m[1])
	if err != nil || hour < 1 || hour > 23 {
		return "", false
	}
	switch {
	case hour <= 6:
		return fmt.Sprintf("%d:00 PM", hour), true
	case hour <= 11:
		return fmt.Sprintf("%d:00 AM", hour), true
	case hour == 12:
		return "12:00 PM", true
	}
	return fmt.Sprintf("%d:00 PM", hour-12), true
}

// DateFragment returns the first day or date phrase found in text, or "".
func DateFragment(text string) string {
	best := []int(nil)
	for _, p := range datePatterns {
		loc := p.FindStringIndex(text)
		if loc == nil {
			continue
		}
		if best == nil || loc[0] < best[0] || (loc[0] == best[0] && loc[1] > best[1]) {
			best = loc
		}
	}
	if best == nil {
		return ""
	}
	return strings.TrimSpace(text[best[0]:best[1]])
}

func collapseSpaces(text string) string {
	return strings.TrimSpace(spacePattern.ReplaceAllString(text, " "))
}
