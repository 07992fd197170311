package agent

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/slotdesk/plugin/ai/aitime"
)

func TestDialogueState_Text(t *testing.T) {
	tests := []struct {
		in      string
		want    DialogueState
		wantErr bool
	}{
		{"", StateNone, false},
		{"none", StateNone, false},
		{"awaiting_time_range", StateAwaitingTimeRange, false},
		{"time_range", StateAwaitingTimeRange, false},
		{"booking_time", StateAwaitingBookingTime, false},
		{"awaiting_confirmation", StateAwaitingConfirmation, false},
		{"dancing", StateNone, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var s DialogueState
			err := s.UnmarshalText([]byte(tt.in))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, s)
		})
	}
}

func TestSessionState_JSON(t *testing.T) {
	loc, _ := time.LoadLocation("Asia/Kolkata")
	start := time.Date(2026, 10, 23, 14, 0, 0, 0, loc)
	slot := aitime.Slot{Start: start, End: start.Add(30 * time.Minute), Timezone: "Asia/Kolkata"}

	in := &SessionState{
		Intent:     IntentBook,
		WaitingFor: StateAwaitingConfirmation,
		Context:    ConversationContext{PendingBooking: &slot, LastPrompt: "Book it?"},
		History:    []string{"book Friday 2 PM"},
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"waiting_for":"awaiting_confirmation"`)
	assert.Contains(t, string(data), `"intent":"book"`)

	var out SessionState
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in.WaitingFor, out.WaitingFor)
	assert.Equal(t, in.Intent, out.Intent)
	require.NotNil(t, out.Context.PendingBooking)
	assert.True(t, slot.Start.Equal(out.Context.PendingBooking.Start))

	assert.Error(t, json.Unmarshal([]byte(`{"waiting_for":"bogus"}`), &out))
}

func TestSessionState_RecentHistory(t *testing.T) {
	s := &SessionState{History: []string{"a", "b", "c", "d", "e"}}
	assert.Equal(t, []string{"b", "c", "d"}, s.RecentHistory(3))
	assert.Empty(t, (&SessionState{History: []string{"only"}}).RecentHistory(3))
}
