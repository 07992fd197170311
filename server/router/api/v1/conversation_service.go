package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/slotdesk/plugin/ai/agent"
	"github.com/hrygo/slotdesk/plugin/ai/session"
	apierrors "github.com/hrygo/slotdesk/server/internal/errors"
)

// TurnRequest is one utterance for a server-held conversation.
type TurnRequest struct {
	UserInput string `json:"user_input"`
}

// ConversationResponse is the stored state of a conversation.
type ConversationResponse struct {
	ID    string              `json:"id"`
	State *agent.SessionState `json:"state"`
}

// CreateTurn runs a turn on a server-held conversation. Turns of the same
// conversation run one at a time; a turn waits for the previous one.
func (s *APIV1Service) CreateTurn(c echo.Context) error {
	id := c.Param("id")
	var req TurnRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	if err := validateUserInput(req.UserInput); err != nil {
		return err
	}

	ctx := c.Request().Context()
	waitCtx, cancel := context.WithTimeout(ctx, s.turnWait)
	defer cancel()
	release, err := s.locks.acquire(waitCtx, id)
	if err != nil {
		if ctx.Err() != nil {
			return apierrors.Internal("request canceled", ctx.Err())
		}
		return apierrors.ConversationBusy(id, err)
	}
	defer release()

	prior, err := s.recovery.RecoverSession(ctx, id)
	if err != nil {
		return sessionError(err)
	}
	result := s.Turns.HandleTurn(ctx, req.UserInput, prior)
	if err := s.recovery.PersistSession(ctx, id, result.Session); err != nil {
		return sessionError(err)
	}

	logTurn(c, result)
	return c.JSON(http.StatusOK, result)
}

// GetConversation returns the stored state.
func (s *APIV1Service) GetConversation(c echo.Context) error {
	id := c.Param("id")
	state, err := s.Sessions.LoadState(c.Request().Context(), id)
	if err != nil {
		return sessionError(err)
	}
	if state == nil {
		return apierrors.NotFound("conversation not found")
	}
	return c.JSON(http.StatusOK, ConversationResponse{ID: id, State: state})
}

// DeleteConversation forgets a conversation.
func (s *APIV1Service) DeleteConversation(c echo.Context) error {
	if err := s.Sessions.DeleteSession(c.Request().Context(), c.Param("id")); err != nil {
		return sessionError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func sessionError(err error) error {
	if errors.Is(err, session.ErrInvalidSessionID) {
		return apierrors.InvalidArgument("invalid conversation id")
	}
	return apierrors.Internal("session storage failed", err)
}
