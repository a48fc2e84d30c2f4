// Package transport serves MCP sessions over streamable HTTP.
//
// Every request to the session endpoint gets its own server instance and
// adapter, bound to dependencies built once by a Bootstrap. Session ids are
// issued and checked by one process-wide SessionIDs, so a client keeps its
// id across requests even though no server state survives between them.
package transport

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/stroppy-io/corpus-mcp/internal/registry"
)

// probeBody answers a bare GET on the session endpoint.
const probeBody = "corpus-mcp is running. Send MCP JSON-RPC requests with POST."

// Options configures a Server.
type Options struct {
	// Path is the session endpoint, e.g. "/mcp".
	Path       string
	Policy     OriginPolicy
	SessionIDs *SessionIDs
	Bootstrap  *Bootstrap
	Log        *zap.Logger
}

// Server is the HTTP surface.
type Server struct {
	echo *echo.Echo
	opts Options
	log  *zap.Logger
}

// New builds the echo application and its routes.
func New(opts Options) *Server {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{echo: e, opts: opts, log: log}

	e.Use(middleware.Recover())
	e.Use(requestLogger(log))
	e.Use(opts.Policy.Middleware())

	e.GET("/", health)
	e.GET("/healthz", health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.POST(opts.Path, s.handleSession, RepairAccept())
	e.GET(opts.Path, s.handleSession, RepairAccept())
	e.DELETE(opts.Path, s.handleSession)
	e.OPTIONS(opts.Path, preflight)

	return s
}

// Handler exposes the application for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.log.Info("Listening", zap.String("addr", addr), zap.String("path", s.opts.Path))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"service": registry.Name,
	})
}

// handleSession serves one request on a fresh session.
func (s *Server) handleSession(c echo.Context) error {
	r := c.Request()
	sessionID := r.Header.Get(server.HeaderKeySessionID)

	if r.Method == http.MethodGet && sessionID == "" {
		return c.String(http.StatusOK, probeBody)
	}
	if r.Method == http.MethodDelete && sessionID != "" {
		if _, err := s.opts.SessionIDs.Validate(sessionID); err != nil {
			return c.String(http.StatusNotFound, "Invalid session ID")
		}
	}

	deps, err := s.opts.Bootstrap.Ready(r.Context())
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "Service unavailable")
	}

	sess := newSession(deps, s.opts.SessionIDs, s.opts.Path, s.log)
	closeCtx := context.WithoutCancel(r.Context())
	stop := context.AfterFunc(r.Context(), func() { sess.Close(closeCtx) })
	defer func() {
		stop()
		sess.Close(closeCtx)
	}()

	sess.ServeHTTP(c.Response(), r)
	return nil
}

func requestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("session", c.Request().Header.Get(server.HeaderKeySessionID)),
			}
			if v.Error != nil {
				log.Error("Request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			log.Debug("Request completed", fields...)
			return nil
		},
	})
}
