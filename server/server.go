// Package server assembles the HTTP serving layer: echo, middleware,
// health and metrics endpoints, and the versioned API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/repcircle/repcircle/internal/profile"
	apiv1 "github.com/repcircle/repcircle/server/router/api/v1"
	"github.com/repcircle/repcircle/store"
)

// devSessionSecret signs tokens when no secret is configured outside
// prod. Prod refuses to start without an explicit secret.
const devSessionSecret = "repcircle-dev-secret"

type Server struct {
	Secret  string
	Profile *profile.Profile
	Store   *store.Store

	echoServer   *echo.Echo
	apiV1Service *apiv1.APIV1Service
}

func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	secret := profile.SessionSecret
	if secret == "" {
		if profile.Mode == "prod" {
			return nil, errors.New("session secret is required in prod mode")
		}
		slog.Warn("no session secret configured, using the built-in dev secret")
		secret = devSessionSecret
	}

	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true

	echoServer.Use(middleware.Recover())
	echoServer.Use(middleware.CORS())
	echoServer.Use(requestLogger())

	server := &Server{
		Secret:     secret,
		Profile:    profile,
		Store:      store,
		echoServer: echoServer,
	}

	echoServer.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})

	apiV1Service := apiv1.NewAPIV1Service(secret, profile, store)
	apiV1Service.Register(echoServer)
	server.apiV1Service = apiV1Service

	echoServer.GET("/metrics", echo.WrapHandler(apiV1Service.Exporter.GetHandler()))

	return server, nil
}

// Start begins serving in the background; startup failures other than
// a clean close are logged, not returned.
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	go func() {
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start echo server", "error", err)
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}

	slog.Info("repcircle stopped properly")
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				slog.Warn("request failed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latencyMs", v.Latency.Milliseconds(),
					"error", v.Error,
				)
				return nil
			}
			slog.Debug("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latencyMs", v.Latency.Milliseconds(),
			)
			return nil
		},
	})
}
