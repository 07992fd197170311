package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/slotdesk/internal/profile"
	"github.com/hrygo/slotdesk/plugin/ai/agent"
	"github.com/hrygo/slotdesk/plugin/calendar"
	storetest "github.com/hrygo/slotdesk/store/test"
)

func testProfile(t *testing.T, calendarBackend, sessionBackend string) *profile.Profile {
	t.Helper()
	p := &profile.Profile{
		Mode:            "dev",
		Data:            t.TempDir(),
		CalendarBackend: calendarBackend,
		SessionBackend:  sessionBackend,
	}
	require.NoError(t, p.Validate())
	return p
}

func TestNewCalendar(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewTestingStore(ctx, t)

	cal, err := NewCalendar(ctx, testProfile(t, "memory", "memory"), st)
	require.NoError(t, err)
	assert.IsType(t, &calendar.MemoryCalendar{}, cal)

	cal, err = NewCalendar(ctx, testProfile(t, "store", "memory"), st)
	require.NoError(t, err)
	assert.IsType(t, &calendar.StoreCalendar{}, cal)

	p := testProfile(t, "memory", "memory")
	p.CalendarBackend = "outlook"
	_, err = NewCalendar(ctx, p, st)
	assert.Error(t, err)

	p.CalendarBackend = "google"
	p.GoogleCredentialsBase64 = "not base64!"
	p.GoogleCalendarID = "primary"
	_, err = NewCalendar(ctx, p, st)
	assert.Error(t, err)
}

func TestNewSessionService(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewTestingStore(ctx, t)

	for _, backend := range []string{"memory", "store"} {
		t.Run(backend, func(t *testing.T) {
			svc, closer, err := NewSessionService(ctx, testProfile(t, "memory", backend), st)
			require.NoError(t, err)
			require.NotNil(t, closer)
			defer closer()

			require.NoError(t, svc.SaveState(ctx, "s1", agent.NewSessionState()))
			got, err := svc.LoadState(ctx, "s1")
			require.NoError(t, err)
			assert.NotNil(t, got)
		})
	}

	t.Run("unreachable redis", func(t *testing.T) {
		p := testProfile(t, "memory", "memory")
		p.SessionBackend = "redis"
		p.RedisAddr = "127.0.0.1:1"
		_, closer, err := NewSessionService(ctx, p, st)
		require.Error(t, err)
		assert.NoError(t, closer())
	})
}

func TestServerRoutes(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewTestingStore(ctx, t)
	s, err := NewServer(ctx, testProfile(t, "store", "store"), st)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations/web-1/turns", strings.NewReader(`{"user_input":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result agent.TurnResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.NotEmpty(t, result.Response)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/conversations/web-1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
