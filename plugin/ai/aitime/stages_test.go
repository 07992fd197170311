package aitime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripConversational(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Can you book meeting on Friday at 2pm please?", "Friday 2pm"},
		{"schedule call by tomorrow 10 am for 2 hours", "tomorrow 10 am"},
		{"2026-10-23T14:00:00+05:30", "2026-10-23T14:00:00+05:30"},
		{"Friday 2pm", "Friday 2pm"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, StripConversational(tt.input))
		})
	}
}

func TestSubstituteVagueTerm(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"tomorrow morning", "tomorrow 10:00 AM"},
		{"Friday afternoon", "Friday 2:00 PM"},
		{"tonight", "today 7:00 PM"},
		{"midnight", "12:00 AM"},
		// Fixed term order decides, not position in the text.
		{"night or evening", "night or 5:00 PM"},
		{"Friday morning 9 am", "Friday 9 am"},
		{"Friday 2 pm", "Friday 2 pm"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, SubstituteVagueTerm(tt.input))
		})
	}
}

func TestNormalizeTimeTokens(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"3pm", "3 pm"},
		{"10:30AM", "10:30 am"},
		{"4 P.M.", "4 pm"},
		{"14 : 30", "14:30"},
		{"3 pm", "3 pm"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := NormalizeTimeTokens(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, NormalizeTimeTokens(got))
		})
	}
}

func TestInjectDefaultTime(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Monday", "Monday 10:00 AM"},
		{"tomorrow", "tomorrow 10:00 AM"},
		{"Oct 23", "Oct 23 10:00 AM"},
		{"3 pm", "today 3 pm"},
		{"Monday 3 pm", "Monday 3 pm"},
		{"hello", "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := InjectDefaultTime(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, InjectDefaultTime(got))
		})
	}
}

func TestDateFragment(t *testing.T) {
	assert.Equal(t, "Monday", DateFragment("Monday"))
	assert.Equal(t, "next Friday", DateFragment("what about next Friday"))
	assert.Equal(t, "tomorrow", DateFragment("is tomorrow free"))
	assert.Equal(t, "Oct 23", DateFragment("Oct 23 works"))
	assert.Equal(t, "", DateFragment("book something"))
}

func TestMarkers(t *testing.T) {
	assert.True(t, HasDateMarker("see you Friday"))
	assert.True(t, HasDateMarker("2026-10-23"))
	assert.False(t, HasDateMarker("3 pm"))
	assert.True(t, HasTimeMarker("3 pm"))
	assert.True(t, HasTimeMarker("14:30"))
	assert.False(t, HasTimeMarker("Friday"))
}

func TestNeedsTime(t *testing.T) {
	assert.True(t, NeedsTime("Monday"))
	assert.True(t, NeedsTime("book a meeting tomorrow for 2 hours"))
	assert.False(t, NeedsTime("tomorrow afternoon"))
	assert.False(t, NeedsTime("tonight"))
	assert.False(t, NeedsTime("Friday 2 PM"))
	assert.False(t, NeedsTime("book something"))
}

func TestBareHour(t *testing.T) {
	tests := []struct {
		input  string
		want   string
		ok     bool
		number bool
	}{
		{"3", "3:00 PM", true, true},
		{"at 3", "3:00 PM", true, true},
		{"3 o'clock", "3:00 PM", true, true},
		{"9", "9:00 AM", true, true},
		{"12", "12:00 PM", true, true},
		{"15", "3:00 PM", true, true},
		{"0", "", false, true},
		{"25", "", false, true},
		{"3 PM", "", false, false},
		{"Monday", "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := BareHour(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.number, IsBareNumber(tt.input))
		})
	}
}
