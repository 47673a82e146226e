// Package server exposes the assistant over HTTP: the JSON chat endpoint and
// the server-rendered chat widget.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	hxhttp "maragu.dev/gomponents-htmx/http"

	"github.com/diogo/nutribuddy/internal/logging"
	"github.com/diogo/nutribuddy/internal/models"
)

const (
	// DefaultRateLimit is the number of replies allowed per minute per IP
	DefaultRateLimit = 20
	// DefaultReplyTimeout bounds a single reply
	DefaultReplyTimeout = 60 * time.Second
	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout = 10 * time.Second

	bodyLimit = "64K"
)

// Replier produces the reply to a chat message
type Replier interface {
	Reply(ctx context.Context, message string) string
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	E *echo.Echo

	replier      Replier
	logger       *zap.Logger
	rateLimit    int
	replyTimeout time.Duration
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the logger for requests and errors
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		s.logger = logging.OrNop(logger)
	}
}

// WithRateLimit sets the per-IP limit in requests per minute; zero disables it
func WithRateLimit(perMinute int) Option {
	return func(s *Server) {
		s.rateLimit = perMinute
	}
}

// WithReplyTimeout bounds how long a reply may take
func WithReplyTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		if timeout > 0 {
			s.replyTimeout = timeout
		}
	}
}

// New creates a Server answering through replier.
func New(replier Replier, opts ...Option) *Server {
	s := &Server{
		replier:      replier,
		logger:       zap.NewNop(),
		rateLimit:    DefaultRateLimit,
		replyTimeout: DefaultReplyTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.errorHandler

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.Recover())
	e.Use(s.requestLogger())
	e.Use(middleware.BodyLimit(bodyLimit))

	s.E = e
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	var limited []echo.MiddlewareFunc
	if s.rateLimit > 0 {
		limited = append(limited, rateLimiter(s.rateLimit))
	}

	s.E.GET("/", s.handleIndex)
	s.E.GET(models.EndpointHealth, s.handleHealth)

	s.E.POST(models.EndpointChat, s.handleChat, limited...)

	s.E.POST(models.EndpointTurn, s.handleTurn)
	s.E.POST(models.EndpointReply, s.handleReply, limited...)
}

// errorHandler logs unexpected errors. Widget requests are answered with the
// fallback bubble, everything else goes through echo's default handler.
func (s *Server) errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	he, ok := err.(*echo.HTTPError)
	if ok {
		code = he.Code
	}
	if !ok || code >= 500 {
		s.logger.Error("request failed",
			zap.Error(err),
			zap.String("path", c.Path()),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)))
	}

	if !hxhttp.IsRequest(c.Request().Header) || c.Response().Committed {
		s.E.DefaultHTTPErrorHandler(err, c)
		return
	}
	if err := renderFallback(c, code); err != nil {
		s.logger.Warn("render fallback", zap.Error(err))
	}
}
