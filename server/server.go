package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/hrygo/slotdesk/internal/profile"
	"github.com/hrygo/slotdesk/plugin/ai/session"
	slotmiddleware "github.com/hrygo/slotdesk/server/middleware"
	apiv1 "github.com/hrygo/slotdesk/server/router/api/v1"
	"github.com/hrygo/slotdesk/store"
)

const limiterIdle = 10 * time.Minute

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer    *echo.Echo
	limiter       *slotmiddleware.RateLimiter
	cleanup       *session.SessionCleanupJob
	closeSessions func() error
	stopBg        context.CancelFunc
}

func NewServer(ctx context.Context, prof *profile.Profile, st *store.Store) (*Server, error) {
	s := &Server{
		Profile: prof,
		Store:   st,
	}

	echoServer := echo.New()
	echoServer.Debug = prof.IsDev()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(middleware.Recover())
	echoServer.Use(middleware.BodyLimit("64K"))
	s.echoServer = echoServer

	cal, err := NewCalendar(ctx, prof, st)
	if err != nil {
		return nil, err
	}
	sessions, closeSessions, err := NewSessionService(ctx, prof, st)
	if err != nil {
		return nil, err
	}
	s.closeSessions = closeSessions
	s.cleanup = session.NewSessionCleanupJob(sessions, session.CleanupConfig{RetentionDays: prof.SessionRetentionDays})
	s.limiter = slotmiddleware.NewRateLimiter(prof.RateLimitRPS, prof.RateLimitBurst)

	// Register healthz endpoint.
	echoServer.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})

	apiV1Service := apiv1.NewAPIV1Service(NewOrchestrator(prof, cal), sessions, s.limiter)
	apiV1Service.RegisterRoutes(echoServer)

	return s, nil
}

// Handler exposes the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}

func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrap(err, "failed to listen")
	}
	s.echoServer.Listener = listener

	bgCtx, cancel := context.WithCancel(context.Background())
	s.stopBg = cancel
	s.cleanup.Start(bgCtx)
	go s.pruneLimiter(bgCtx)

	go func() {
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start echo server", "error", err)
		}
	}()
	slog.Info("server started", "address", listener.Addr().String(), "mode", s.Profile.Mode)
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	slog.Info("server shutting down")

	// Shutdown echo server.
	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	if s.stopBg != nil {
		s.stopBg()
	}
	s.cleanup.Stop()

	if err := s.closeSessions(); err != nil {
		slog.Error("failed to close session backend", slog.String("error", err.Error()))
	}

	// Close database connection.
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", slog.String("error", err.Error()))
	}

	slog.Info("server stopped properly")
}

func (s *Server) pruneLimiter(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.limiter.Prune(limiterIdle); n > 0 {
				slog.Debug("pruned idle rate limit buckets", "count", n)
			}
		}
	}
}
