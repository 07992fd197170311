package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/slotdesk/plugin/ai/agent"
	"github.com/hrygo/slotdesk/plugin/ai/aitime"
	"github.com/hrygo/slotdesk/plugin/ai/session"
	"github.com/hrygo/slotdesk/plugin/calendar"
	apierrors "github.com/hrygo/slotdesk/server/internal/errors"
	slotmiddleware "github.com/hrygo/slotdesk/server/middleware"
)

// echoTurns appends the utterance to the history and echoes it back.
type echoTurns struct {
	mu      sync.Mutex
	calls   int
	gate    chan struct{}
	entered chan struct{}
}

func (e *echoTurns) HandleTurn(_ context.Context, utterance string, prior *agent.SessionState) agent.TurnResult {
	if e.entered != nil {
		e.entered <- struct{}{}
	}
	if e.gate != nil {
		<-e.gate
	}
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	next := prior.Clone()
	next.History = append(next.History, utterance)
	return agent.TurnResult{Response: "echo: " + utterance, Session: next}
}

func newTestServer(t *testing.T, turns TurnHandler, limiter *slotmiddleware.RateLimiter) (*echo.Echo, *APIV1Service) {
	t.Helper()
	e := echo.New()
	svc := NewAPIV1Service(turns, session.NewMemoryStore(), limiter)
	svc.RegisterRoutes(e)
	return e, svc
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apierrors.APIError {
	t.Helper()
	var body apierrors.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestChat(t *testing.T) {
	e, _ := newTestServer(t, &echoTurns{}, nil)

	tests := []struct {
		name        string
		body        string
		wantStatus  int
		wantCode    apierrors.ErrorCode
		wantHistory []string
	}{
		{
			name:        "absent state starts fresh",
			body:        `{"user_input":"hello"}`,
			wantStatus:  http.StatusOK,
			wantHistory: []string{"hello"},
		},
		{
			name:        "null state starts fresh",
			body:        `{"user_input":"hello","state":null}`,
			wantStatus:  http.StatusOK,
			wantHistory: []string{"hello"},
		},
		{
			name:        "prior state is continued",
			body:        `{"user_input":"yes","state":{"waiting_for":"awaiting_confirmation","history":["book 3pm"]}}`,
			wantStatus:  http.StatusOK,
			wantHistory: []string{"book 3pm", "yes"},
		},
		{
			name:       "malformed state",
			body:       `{"user_input":"yes","state":{"waiting_for":"dancing"}}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   apierrors.ErrCodeInvalidArgument,
		},
		{
			name:       "body is not json",
			body:       `user_input=hi`,
			wantStatus: http.StatusBadRequest,
			wantCode:   apierrors.ErrCodeInvalidArgument,
		},
		{
			name:       "input too long",
			body:       `{"user_input":"` + strings.Repeat("a", MaxUserInputLength+1) + `"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   apierrors.ErrCodeInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(e, http.MethodPost, "/api/v1/chat", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
				return
			}
			var result agent.TurnResult
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
			require.NotNil(t, result.Session)
			assert.Equal(t, tt.wantHistory, result.Session.History)
			assert.True(t, strings.HasPrefix(result.Response, "echo: "))
		})
	}
}

func TestConversationLifecycle(t *testing.T) {
	e, _ := newTestServer(t, &echoTurns{}, nil)

	rec := doJSON(e, http.MethodGet, "/api/v1/conversations/c1", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apierrors.ErrCodeNotFound, decodeError(t, rec).Code)

	for _, utterance := range []string{"first", "second"} {
		rec = doJSON(e, http.MethodPost, "/api/v1/conversations/c1/turns", `{"user_input":"`+utterance+`"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec = doJSON(e, http.MethodGet, "/api/v1/conversations/c1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var conv ConversationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conv))
	assert.Equal(t, "c1", conv.ID)
	assert.Equal(t, []string{"first", "second"}, conv.State.History)

	rec = doJSON(e, http.MethodDelete, "/api/v1/conversations/c1", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/v1/conversations/c1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConversationRejectsInvalidID(t *testing.T) {
	e, _ := newTestServer(t, &echoTurns{}, nil)
	long := strings.Repeat("x", session.MaxSessionIDLength+1)

	rec := doJSON(e, http.MethodPost, "/api/v1/conversations/"+long+"/turns", `{"user_input":"hi"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apierrors.ErrCodeInvalidArgument, decodeError(t, rec).Code)
}

func TestConversationTurnsAreSerialized(t *testing.T) {
	turns := &echoTurns{gate: make(chan struct{}), entered: make(chan struct{}, 2)}
	e, svc := newTestServer(t, turns, nil)
	svc.turnWait = 50 * time.Millisecond

	var wg sync.WaitGroup
	var first *httptest.ResponseRecorder
	wg.Add(1)
	go func() {
		defer wg.Done()
		first = doJSON(e, http.MethodPost, "/api/v1/conversations/busy/turns", `{"user_input":"one"}`)
	}()
	<-turns.entered

	// The first turn holds the conversation; the second gives up waiting.
	rec := doJSON(e, http.MethodPost, "/api/v1/conversations/busy/turns", `{"user_input":"two"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apierrors.ErrCodeConversationBusy, decodeError(t, rec).Code)

	// Other conversations are not blocked.
	other := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		other <- doJSON(e, http.MethodPost, "/api/v1/conversations/other/turns", `{"user_input":"x"}`)
	}()
	<-turns.entered
	close(turns.gate)
	assert.Equal(t, http.StatusOK, (<-other).Code)

	wg.Wait()
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, 0, svc.locks.size())
}

func TestConversationLocksAcquireRelease(t *testing.T) {
	locks := newConversationLocks()
	release, err := locks.acquire(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, 1, locks.size())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = locks.acquire(ctx, "a")
	require.Error(t, err)
	assert.Equal(t, 1, locks.size())

	release()
	assert.Equal(t, 0, locks.size())

	release, err = locks.acquire(context.Background(), "a")
	require.NoError(t, err)
	release()
}

func TestRateLimitRejects(t *testing.T) {
	e, _ := newTestServer(t, &echoTurns{}, slotmiddleware.NewRateLimiter(1, 1))

	rec := doJSON(e, http.MethodPost, "/api/v1/chat", `{"user_input":"hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodPost, "/api/v1/chat", `{"user_input":"hi"}`)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, apierrors.ErrCodeRateLimitExceeded, decodeError(t, rec).Code)
}

func TestStatsCountsRequests(t *testing.T) {
	e, _ := newTestServer(t, &echoTurns{}, nil)
	doJSON(e, http.MethodPost, "/api/v1/chat", `{"user_input":"hi"}`)
	doJSON(e, http.MethodPost, "/api/v1/chat", `not json`)

	rec := doJSON(e, http.MethodGet, "/api/v1/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Endpoints []struct {
			Endpoint string `json:"endpoint"`
			Requests int64  `json:"requests"`
			Failures int64  `json:"failures"`
		} `json:"endpoints"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	var found bool
	for _, ep := range body.Endpoints {
		if ep.Endpoint == "POST /api/v1/chat" {
			found = true
			assert.Equal(t, int64(2), ep.Requests)
			assert.Equal(t, int64(1), ep.Failures)
		}
	}
	assert.True(t, found)
}

func TestUnknownRouteRendersAPIError(t *testing.T) {
	e, _ := newTestServer(t, &echoTurns{}, nil)
	rec := doJSON(e, http.MethodGet, "/api/v1/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apierrors.ErrCodeNotFound, decodeError(t, rec).Code)
}

// TestChatBookingFlow drives the real dialogue over the stateless endpoint.
func TestChatBookingFlow(t *testing.T) {
	const zone = "Asia/Kolkata"
	loc, err := time.LoadLocation(zone)
	require.NoError(t, err)
	now := time.Date(2026, 10, 21, 11, 0, 0, 0, loc)

	cal := calendar.NewMemoryCalendar()
	orch := agent.NewOrchestrator(cal,
		aitime.NewService(zone, aitime.WithClock(func() time.Time { return now })),
		agent.WithTimezone(zone))
	e, _ := newTestServer(t, orch, nil)

	var state json.RawMessage
	send := func(input string) agent.TurnResult {
		body, err := json.Marshal(ChatRequest{UserInput: input, State: state})
		require.NoError(t, err)
		rec := doJSON(e, http.MethodPost, "/api/v1/chat", string(body))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var raw struct {
			State json.RawMessage `json:"state"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
		state = raw.State

		var result agent.TurnResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		return result
	}

	first := send("book Friday at 2pm")
	require.Equal(t, agent.StateAwaitingConfirmation, first.Session.WaitingFor, first.Response)

	second := send("yes")
	assert.True(t, second.Session.Completed, second.Response)
	require.Len(t, cal.Bookings(), 1)
	assert.Equal(t, time.Date(2026, 10, 23, 14, 0, 0, 0, loc), cal.Bookings()[0].Start.In(loc))
}
