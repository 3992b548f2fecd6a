// Package server is the HTTP face of a shellbus hub: the websocket endpoint
// relays connect to, plus catalog, metrics and health endpoints.
package server

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nfrund/shellbus/internal/hub"
	appmiddleware "github.com/nfrund/shellbus/internal/middleware"
	"github.com/nfrund/shellbus/internal/topicmgr"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	E *echo.Echo

	hub      *hub.Hub
	catalog  *topicmgr.Manager
	gatherer prometheus.Gatherer
	validate *validator.Validate
	origins  []string
	buffer   int
	rate     float64
	logger   *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithOriginPatterns restricts websocket upgrades to the given host
// patterns. Without patterns only same-origin requests are accepted.
func WithOriginPatterns(patterns ...string) Option {
	return func(s *Server) {
		s.origins = patterns
	}
}

// WithSendBuffer sets how many frames may be queued per client before the
// client is considered slow and disconnected.
func WithSendBuffer(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.buffer = n
		}
	}
}

// WithConnectRate limits websocket upgrades per client IP and second.
func WithConnectRate(perSecond float64) Option {
	return func(s *Server) {
		if perSecond > 0 {
			s.rate = perSecond
		}
	}
}

// New creates a new Server routing through h. gatherer serves /metrics and
// may be nil.
func New(h *hub.Hub, catalog *topicmgr.Manager, gatherer prometheus.Gatherer, opts ...Option) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	s := &Server{
		E:        e,
		hub:      h,
		catalog:  catalog,
		gatherer: gatherer,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		buffer:   256,
		rate:     appmiddleware.DefaultConnectRate,
		logger:   slog.Default().With("component", "server"),
	}
	for _, opt := range opts {
		opt(s)
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(appmiddleware.Logger(s.logger))

	setupErrorHandling(e)
	s.RegisterRoutes()
	return s
}

// setupErrorHandling logs unhandled errors with a stack trace and keeps
// echo's HTTP errors as they are.
func setupErrorHandling(e *echo.Echo) {
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		var he *echo.HTTPError
		if errors.As(err, &he) {
			if he.Code >= http.StatusInternalServerError {
				slog.Error("HTTP error", "path", c.Path(), "status", he.Code, "error", he.Message)
			}
			_ = c.JSON(he.Code, map[string]any{"error": he.Message})
			return
		}

		appmiddleware.FromContext(c.Request().Context()).Error("Internal Server Error (Unhandled)",
			"path", c.Path(),
			"error", err.Error(),
			"stack_trace", string(debug.Stack()),
		)
		_ = c.JSON(http.StatusInternalServerError, map[string]any{"error": http.StatusText(http.StatusInternalServerError)})
	}
}
