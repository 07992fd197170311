package calendar

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/hrygo/slotdesk/plugin/ai/aitime"
)

// GoogleConfig configures the Google Calendar backend.
type GoogleConfig struct {
	// CredentialsBase64 is a base64-encoded service account JSON key.
	CredentialsBase64 string
	CalendarID        string
}

// GoogleCalendar talks to one Google calendar through a service account.
type GoogleCalendar struct {
	service    *gcal.Service
	calendarID string
}

// NewGoogleCalendar authenticates with the service account key in cfg.
func NewGoogleCalendar(ctx context.Context, cfg GoogleConfig) (*GoogleCalendar, error) {
	if cfg.CalendarID == "" {
		return nil, fmt.Errorf("calendar id is required")
	}
	raw, err := base64.StdEncoding.DecodeString(cfg.CredentialsBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode credentials: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, raw, gcal.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	return NewGoogleCalendarWithOptions(ctx, cfg.CalendarID, option.WithCredentials(creds))
}

// NewGoogleCalendarWithOptions builds the client from explicit API options.
func NewGoogleCalendarWithOptions(ctx context.Context, calendarID string, opts ...option.ClientOption) (*GoogleCalendar, error) {
	service, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &GoogleCalendar{service: service, calendarID: calendarID}, nil
}

// CheckAvailability implements Calendar. The slot is free when the
// free/busy query returns no busy interval for the calendar.
func (c *GoogleCalendar) CheckAvailability(ctx context.Context, slot aitime.Slot) (bool, error) {
	if err := slot.Validate(); err != nil {
		return false, ErrMalformedSlot
	}

	resp, err := c.service.Freebusy.Query(&gcal.FreeBusyRequest{
		TimeMin: slot.Start.UTC().Format(time.RFC3339),
		TimeMax: slot.End.UTC().Format(time.RFC3339),
		Items:   []*gcal.FreeBusyRequestItem{{Id: c.calendarID}},
	}).Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("free/busy query failed: %w", err)
	}

	cal, ok := resp.Calendars[c.calendarID]
	if !ok {
		return false, fmt.Errorf("calendar %s missing from free/busy response", c.calendarID)
	}
	if len(cal.Errors) > 0 {
		return false, fmt.Errorf("free/busy error for %s: %s", c.calendarID, cal.Errors[0].Reason)
	}
	return len(cal.Busy) == 0, nil
}

// BookAppointment implements Calendar.
func (c *GoogleCalendar) BookAppointment(ctx context.Context, slot aitime.Slot) (bool, error) {
	if err := slot.Validate(); err != nil {
		return false, ErrMalformedSlot
	}

	event := &gcal.Event{
		Summary: BookingSummary,
		Start:   &gcal.EventDateTime{DateTime: slot.Start.Format(time.RFC3339), TimeZone: slot.Timezone},
		End:     &gcal.EventDateTime{DateTime: slot.End.Format(time.RFC3339), TimeZone: slot.Timezone},
	}
	created, err := c.service.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("event insert failed: %w", err)
	}
	slog.Info("calendar event created", "event_id", created.Id, "start", event.Start.DateTime)
	return true, nil
}

var _ Calendar = (*GoogleCalendar)(nil)
