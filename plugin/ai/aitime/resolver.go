package aitime

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var (
	clock12Pattern = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
	clock24Pattern = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)\b`)

	errNoClock = errors.New("no time of day")
	errNoMatch = errors.New("no date or time expression")
)

// Resolver turns cleaned text into an instant. now carries the target location.
type Resolver interface {
	Resolve(text string, now time.Time) (time.Time, error)
}

// standardLayouts are tried before any phrase matching.
var standardLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tues": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thurs": time.Thursday, "thur": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

// RuleResolver resolves weekday, relative-day, calendar-date and clock
// phrases, preferring future dates relative to now.
type RuleResolver struct{}

// dateMatch is a resolved calendar day plus how it was expressed.
type dateMatch struct {
	year     int
	month    time.Month
	day      int
	weekday  bool
	yearless bool
}

// Resolve implements Resolver.
func (RuleResolver) Resolve(text string, now time.Time) (time.Time, error) {
	text = strings.TrimSpace(text)
	loc := now.Location()

	if t, err := time.Parse(time.RFC3339, text); err == nil {
		return t, nil
	}
	for _, layout := range standardLayouts {
		if t, err := time.ParseInLocation(layout, text, loc); err == nil {
			return t, nil
		}
	}

	hour, minute, ok := ParseClock(text)
	if !ok {
		if HasDateMarker(text) {
			return time.Time{}, errNoClock
		}
		return time.Time{}, errNoMatch
	}

	d, found, err := parseDate(text, now)
	if err != nil {
		return time.Time{}, err
	}
	if !found {
		d = dateMatch{year: now.Year(), month: now.Month(), day: now.Day()}
	}

	result := time.Date(d.year, d.month, d.day, hour, minute, 0, 0, loc)
	if result.Month() != d.month {
		return time.Time{}, fmt.Errorf("day %d out of range for %s", d.day, d.month)
	}
	switch {
	case d.weekday && !result.After(now):
		result = result.AddDate(0, 0, 7)
	case d.yearless && result.Before(startOfDay(now)):
		result = result.AddDate(1, 0, 0)
	}
	return result, nil
}

// ParseClock finds the first 12-hour or 24-hour clock expression.
func ParseClock(text string) (hour, minute int, ok bool) {
	if m := clock12Pattern.FindStringSubmatch(text); m != nil {
		hour, _ = strconv.Atoi(m[1])
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if hour < 1 || hour > 12 || minute > 59 {
			return 0, 0, false
		}
		pm := strings.EqualFold(m[3], "pm")
		switch {
		case pm && hour != 12:
			hour += 12
		case !pm && hour == 12:
			hour = 0
		}
		return hour, minute, true
	}
	if m := clock24Pattern.FindStringSubmatch(text); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		return hour, minute, true
	}
	return 0, 0, false
}

// parseDate finds the first date expression. Weekdays resolve to the next
// occurrence on or after today; the caller rolls a same-day weekday that
// has already passed.
func parseDate(text string, now time.Time) (dateMatch, bool, error) {
	today := startOfDay(now)
	fromOffset := func(days int) dateMatch {
		t := today.AddDate(0, 0, days)
		return dateMatch{year: t.Year(), month: t.Month(), day: t.Day()}
	}

	if m := isoDatePattern.FindStringSubmatch(text); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		if mo < 1 || mo > 12 {
			return dateMatch{}, false, fmt.Errorf("invalid month %d", mo)
		}
		return dateMatch{year: y, month: time.Month(mo), day: d}, true, nil
	}
	if dayAfterPattern.MatchString(text) {
		return fromOffset(2), true, nil
	}
	if m := relativeDayPattern.FindStringSubmatch(text); m != nil {
		if strings.EqualFold(m[1], "tomorrow") {
			return fromOffset(1), true, nil
		}
		return fromOffset(0), true, nil
	}
	if m := monthDayPattern.FindStringSubmatch(text); m != nil {
		return calendarDate(m[1], m[2], m[3], now)
	}
	if m := dayMonthPattern.FindStringSubmatch(text); m != nil {
		return calendarDate(m[2], m[1], m[3], now)
	}
	if m := numericDatePattern.FindStringSubmatch(text); m != nil {
		mo, _ := strconv.Atoi(m[1])
		if mo < 1 || mo > 12 {
			return dateMatch{}, false, fmt.Errorf("invalid month %d", mo)
		}
		d, _ := strconv.Atoi(m[2])
		dm := dateMatch{year: now.Year(), month: time.Month(mo), day: d, yearless: m[3] == ""}
		if m[3] != "" {
			dm.year = expandYear(m[3])
		}
		return dm, true, nil
	}
	if m := weekdayPattern.FindStringSubmatch(text); m != nil {
		target := weekdays[strings.ToLower(m[2])]
		days := (int(target) - int(today.Weekday()) + 7) % 7
		if days == 0 && m[1] != "" && strings.EqualFold(m[1], "next") {
			days = 7
		}
		dm := fromOffset(days)
		dm.weekday = days == 0
		return dm, true, nil
	}
	return dateMatch{}, false, nil
}

func calendarDate(monthName, day, year string, now time.Time) (dateMatch, bool, error) {
	mo, ok := months[strings.ToLower(monthName)[:3]]
	if !ok {
		return dateMatch{}, false, fmt.Errorf("unknown month %q", monthName)
	}
	d, _ := strconv.Atoi(day)
	dm := dateMatch{year: now.Year(), month: mo, day: d, yearless: year == ""}
	if year != "" {
		dm.year, _ = strconv.Atoi(year)
	}
	return dm, true, nil
}

func expandYear(s string) int {
	y, _ := strconv.Atoi(s)
	if len(s) == 2 {
		y += 2000
	}
	return y
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// WhenResolver is the broad natural-language fallback backed by olebedev/when.
type WhenResolver struct {
	parser *when.Parser
}

// NewWhenResolver creates a WhenResolver with the English and common rule sets.
func NewWhenResolver() *WhenResolver {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &WhenResolver{parser: w}
}

// Resolve implements Resolver.
func (r *WhenResolver) Resolve(text string, now time.Time) (time.Time, error) {
	res, err := r.parser.Parse(text, now)
	if err != nil {
		return time.Time{}, err
	}
	if res == nil {
		return time.Time{}, errNoMatch
	}
	t := res.Time.In(now.Location())
	if t.Before(now) && weekdayPattern.MatchString(res.Text) {
		t = t.AddDate(0, 0, 7)
	}
	return t, nil
}
