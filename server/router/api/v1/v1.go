package v1

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/slotdesk/plugin/ai/agent"
	"github.com/hrygo/slotdesk/plugin/ai/session"
	apierrors "github.com/hrygo/slotdesk/server/internal/errors"
	"github.com/hrygo/slotdesk/server/internal/observability"
	slotmiddleware "github.com/hrygo/slotdesk/server/middleware"
)

const (
	// MaxUserInputLength bounds a single utterance.
	MaxUserInputLength = 2000
	// DefaultTurnWait is how long a turn waits for another turn of the same conversation.
	DefaultTurnWait = 10 * time.Second
)

// TurnHandler runs one dialogue turn. Implemented by *agent.Orchestrator.
type TurnHandler interface {
	HandleTurn(ctx context.Context, utterance string, prior *agent.SessionState) agent.TurnResult
}

type APIV1Service struct {
	Turns    TurnHandler
	Sessions session.SessionService
	Limiter  *slotmiddleware.RateLimiter
	Metrics  *observability.Metrics

	recovery *session.SessionRecovery
	locks    *conversationLocks
	turnWait time.Duration
}

func NewAPIV1Service(turns TurnHandler, sessions session.SessionService, limiter *slotmiddleware.RateLimiter) *APIV1Service {
	return &APIV1Service{
		Turns:    turns,
		Sessions: sessions,
		Limiter:  limiter,
		Metrics:  observability.NewMetrics(),
		recovery: session.NewSessionRecovery(sessions),
		locks:    newConversationLocks(),
		turnWait: DefaultTurnWait,
	}
}

// RegisterRoutes mounts the JSON API on echoServer.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	echoServer.HTTPErrorHandler = errorHandler

	api := echoServer.Group("/api/v1", middleware.CORS(), s.requestLogger)
	if s.Limiter != nil {
		api.Use(slotmiddleware.RateLimit(s.Limiter))
	}

	api.POST("/chat", s.Chat)
	api.POST("/conversations/:id/turns", s.CreateTurn)
	api.GET("/conversations/:id", s.GetConversation)
	api.DELETE("/conversations/:id", s.DeleteConversation)
	api.GET("/stats", s.GetStats)
}

// GetStats returns request counters per endpoint.
func (s *APIV1Service) GetStats(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"endpoints": s.Metrics.Snapshot()})
}

// requestLogger attaches a RequestContext and records one log line and metric per request.
func (s *APIV1Service) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		reqCtx := observability.NewRequestContext(slog.Default(), c.Request().Method+" "+c.Path())
		reqCtx.ConversationID = c.Param("id")
		c.SetRequest(c.Request().WithContext(observability.WithRequestContext(c.Request().Context(), reqCtx)))
		c.Response().Header().Set(echo.HeaderXRequestID, reqCtx.RequestID)

		err := next(c)

		attrs := []slog.Attr{slog.Int64(observability.LogFieldDuration, reqCtx.DurationMs())}
		if err != nil {
			apiErr := apierrors.From(err)
			attrs = append(attrs, slog.String(observability.LogFieldErrorCode, string(apiErr.Code)))
			if apiErr.Code == apierrors.ErrCodeInternal {
				reqCtx.Error("request failed", err, attrs...)
			} else {
				reqCtx.Warn("request rejected", attrs...)
			}
		} else {
			reqCtx.Info("request completed", attrs...)
		}
		s.Metrics.Record(reqCtx.Endpoint, time.Since(reqCtx.StartTime), err != nil)
		return err
	}
}

// errorHandler renders every error as {"code","message"}.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *apierrors.APIError
	if he, ok := err.(*echo.HTTPError); ok {
		apiErr = fromHTTPError(he)
	} else {
		apiErr = apierrors.From(err)
	}

	body := apierrors.APIError{Code: apiErr.Code, Message: apiErr.Message}
	if apiErr.Code == apierrors.ErrCodeInternal {
		body.Message = "internal error"
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(apiErr.HTTPStatus())
		return
	}
	if writeErr := c.JSON(apiErr.HTTPStatus(), body); writeErr != nil {
		slog.Error("failed to write error response", "error", writeErr)
	}
}

func fromHTTPError(he *echo.HTTPError) *apierrors.APIError {
	msg := http.StatusText(he.Code)
	if s, ok := he.Message.(string); ok {
		msg = s
	}
	switch {
	case he.Code == http.StatusNotFound || he.Code == http.StatusMethodNotAllowed:
		return apierrors.NotFound(msg)
	case he.Code == http.StatusTooManyRequests:
		return apierrors.RateLimitExceeded(msg)
	case he.Code >= 400 && he.Code < 500:
		return apierrors.InvalidArgument(msg)
	default:
		return apierrors.Internal(msg, he)
	}
}
