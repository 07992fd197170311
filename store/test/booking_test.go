package test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/slotdesk/store"
)

func TestBookingStore(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	start := time.Date(2026, 10, 23, 14, 0, 0, 0, time.UTC)
	booking, err := ts.CreateBooking(ctx, &store.Booking{
		Summary:  "Booked Appointment",
		StartTs:  start.Unix(),
		EndTs:    start.Add(30 * time.Minute).Unix(),
		Timezone: "Asia/Kolkata",
	})
	require.NoError(t, err)
	assert.NotZero(t, booking.ID)
	assert.NotEmpty(t, booking.UID)

	list, err := ts.ListBookings(ctx, &store.FindBooking{UID: &booking.UID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, booking.StartTs, list[0].StartTs)
	assert.Equal(t, "Asia/Kolkata", list[0].Timezone)

	require.NoError(t, ts.DeleteBooking(ctx, &store.DeleteBooking{ID: booking.ID}))
	list, err = ts.ListBookings(ctx, &store.FindBooking{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestBookingOverlap(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	start := time.Date(2026, 10, 23, 14, 0, 0, 0, time.UTC)
	_, err := ts.CreateBooking(ctx, &store.Booking{StartTs: start.Unix(), EndTs: start.Add(time.Hour).Unix()})
	require.NoError(t, err)

	tests := []struct {
		name     string
		start    time.Time
		end      time.Time
		overlaps bool
	}{
		{"same interval", start, start.Add(time.Hour), true},
		{"inside", start.Add(15 * time.Minute), start.Add(45 * time.Minute), true},
		{"straddles start", start.Add(-30 * time.Minute), start.Add(30 * time.Minute), true},
		{"ends at start", start.Add(-30 * time.Minute), start, false},
		{"starts at end", start.Add(time.Hour), start.Add(90 * time.Minute), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := ts.ListOverlappingBookings(ctx, tt.start, tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.overlaps, len(list) > 0)
		})
	}

	_, err = ts.CreateBooking(ctx, &store.Booking{StartTs: start.Add(30 * time.Minute).Unix(), EndTs: start.Add(90 * time.Minute).Unix()})
	assert.ErrorIs(t, err, store.ErrBookingConflict)

	_, err = ts.CreateBooking(ctx, &store.Booking{StartTs: start.Add(time.Hour).Unix(), EndTs: start.Add(90 * time.Minute).Unix()})
	assert.NoError(t, err)
}

func TestBookingRejectsEmptyInterval(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	now := time.Now().Unix()
	_, err := ts.CreateBooking(ctx, &store.Booking{StartTs: now, EndTs: now})
	assert.Error(t, err)
}

func TestBookingConcurrentInsertsBookOnce(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	start := time.Date(2026, 10, 23, 10, 0, 0, 0, time.UTC)
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ts.CreateBooking(ctx, &store.Booking{StartTs: start.Unix(), EndTs: start.Add(30 * time.Minute).Unix()})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, succeeded)
}
