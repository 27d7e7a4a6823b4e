package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hongminglow/reward-auth/internal/config"
	"github.com/hongminglow/reward-auth/internal/http/handlers"
	"github.com/hongminglow/reward-auth/internal/middleware"
)

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Auth      handlers.Authenticator
	Tokens    middleware.TokenParser
	Forwarder handlers.Forwarder
	// Store is pinged by /health when set.
	Store    handlers.Pinger
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, deps Deps) *Server {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           Handler(cfg, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.DownstreamTimeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return &Server{inner: httpServer}
}

// Handler builds the routed and decorated handler.
func Handler(cfg config.Config, deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	handlers.NewHealthHandler(time.Now(), deps.Store).Register(mux)
	handlers.NewAuthHandler(deps.Auth, logger).Register(mux)
	handlers.NewProxyHandler(deps.Forwarder, deps.Tokens, logger).Register(mux)
	if deps.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	return middleware.RequestID(middleware.Logging(logger, middleware.CORS(cfg.CORSOrigins, mux)))
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
