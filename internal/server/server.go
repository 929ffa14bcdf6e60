package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/reputebot/reputebot/internal/config"
	apperrors "github.com/reputebot/reputebot/internal/errors"
	"github.com/reputebot/reputebot/internal/observability"
	"github.com/reputebot/reputebot/internal/server/handlers"
	servermw "github.com/reputebot/reputebot/internal/server/middleware"
)

// Server is the bot's status HTTP server.
type Server struct {
	router *chi.Mux
	server *http.Server
	cfg    config.ServerConfig
	queue  handlers.QueueSource
}

// Option customizes a Server.
type Option func(*Server)

// WithQueue serves /queue/stats from source.
func WithQueue(source handlers.QueueSource) Option {
	return func(s *Server) {
		s.queue = source
	}
}

// New builds the router for cfg. Zero timeouts fall back to defaults.
func New(cfg config.ServerConfig, opts ...Option) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(servermw.RequestID)
	r.Use(servermw.RequestMetrics)
	r.Use(servermw.Recovery)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		HandleError(w, req, apperrors.NewNotFoundError("The requested resource was not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		HandleError(w, req, apperrors.NewMethodNotAllowedError("The requested method is not allowed for this resource"))
	})

	s := &Server{router: r, cfg: withServerDefaults(cfg)}
	for _, opt := range opts {
		opt(s)
	}

	handlers.SetErrorResponder(HandleError)
	s.registerRoutes()
	return s
}

func withServerDefaults(cfg config.ServerConfig) config.ServerConfig {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 120 * time.Second
	}
	return cfg
}

// Addr returns host:port.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

// Start serves until Shutdown. A clean shutdown returns nil.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.Addr(),
		Handler:           s.router,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
	}

	if observability.ServerLogger != nil {
		observability.ServerLogger.Info("Starting status server", zap.String("addr", s.Addr()))
	}

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("status server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	if observability.ServerLogger != nil {
		observability.ServerLogger.Info("Shutting down status server")
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Port returns the configured port.
func (s *Server) Port() int {
	return s.cfg.Port
}
