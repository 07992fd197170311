package v1

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/slotdesk/plugin/ai/agent"
	apierrors "github.com/hrygo/slotdesk/server/internal/errors"
	"github.com/hrygo/slotdesk/server/internal/observability"
)

// ChatRequest carries one utterance and, for client-held conversations,
// the state returned by the previous turn.
type ChatRequest struct {
	UserInput string          `json:"user_input"`
	State     json.RawMessage `json:"state,omitempty"`
}

// Chat runs a turn on a client-held conversation. The client sends back
// the state it received; an absent or null state starts a new conversation.
func (s *APIV1Service) Chat(c echo.Context) error {
	var req ChatRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	if err := validateUserInput(req.UserInput); err != nil {
		return err
	}

	var prior *agent.SessionState
	if raw := bytes.TrimSpace(req.State); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		prior = agent.NewSessionState()
		if err := json.Unmarshal(raw, prior); err != nil {
			return apierrors.InvalidArgument("malformed state: " + err.Error())
		}
	}

	result := s.Turns.HandleTurn(c.Request().Context(), req.UserInput, prior)
	logTurn(c, result)
	return c.JSON(http.StatusOK, result)
}

func decodeJSON(c echo.Context, dst any) error {
	dec := json.NewDecoder(c.Request().Body)
	if err := dec.Decode(dst); err != nil {
		return apierrors.InvalidArgument("request body must be a JSON object: " + err.Error())
	}
	return nil
}

func validateUserInput(input string) error {
	if len(input) > MaxUserInputLength {
		return apierrors.InvalidArgument("user_input is too long")
	}
	return nil
}

func logTurn(c echo.Context, result agent.TurnResult) {
	reqCtx, ok := observability.FromContext(c.Request().Context())
	if !ok || result.Session == nil {
		return
	}
	reqCtx.Debug("turn handled",
		slog.String(observability.LogFieldWaitingFor, result.Session.WaitingFor.String()),
		slog.Bool("completed", result.Session.Completed))
}
