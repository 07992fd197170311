package aitime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlot_Validate(t *testing.T) {
	loc, err := time.LoadLocation(testZone)
	require.NoError(t, err)
	start := time.Date(2026, 10, 23, 14, 0, 0, 0, loc)

	tests := []struct {
		name    string
		slot    Slot
		wantErr bool
	}{
		{"valid", Slot{Start: start, End: start.Add(30 * time.Minute), Timezone: testZone}, false},
		{"empty", Slot{}, true},
		{"end before start", Slot{Start: start, End: start.Add(-time.Minute), Timezone: testZone}, true},
		{"zero length", Slot{Start: start, End: start, Timezone: testZone}, true},
		{"bad zone", Slot{Start: start, End: start.Add(time.Minute), Timezone: "Nowhere/Land"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.slot.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSlot_UnmarshalRestoresLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	start := time.Date(2026, 10, 23, 14, 0, 0, 0, loc)
	in := Slot{Start: start, End: start.Add(time.Hour), Timezone: "America/New_York"}

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out Slot
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "America/New_York", out.Start.Location().String())
	assert.True(t, in.Start.Equal(out.Start))
	assert.Equal(t, time.Hour, out.Duration())
}

func TestSlot_Shift(t *testing.T) {
	start := time.Date(2026, 10, 23, 14, 0, 0, 0, time.UTC)
	s := Slot{Start: start, End: start.Add(45 * time.Minute), Timezone: "UTC"}

	moved := s.Shift(start.Add(2 * time.Hour))
	assert.Equal(t, 16, moved.Start.Hour())
	assert.Equal(t, 45*time.Minute, moved.Duration())
	assert.Equal(t, "UTC", moved.Timezone)
}
