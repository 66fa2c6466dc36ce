package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/githubixx/homeshop-go/internal/infrastructure/config"
)

// Server represents the HTTP server
type Server struct {
	config *config.ServerConfig
	logger *slog.Logger
	server *http.Server
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.ServerConfig, logger *slog.Logger, router http.Handler) *Server {
	return &Server{
		config: cfg,
		logger: logger,
		server: &http.Server{
			Addr:           fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:        router,
			ReadTimeout:    cfg.ReadTimeout,
			WriteTimeout:   cfg.WriteTimeout,
			MaxHeaderBytes: cfg.MaxHeaderBytes,
		},
	}
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server",
		slog.String("addr", s.server.Addr),
		slog.Bool("tls", s.config.TLS.Enabled),
	)

	if s.config.TLS.Enabled {
		return s.server.ListenAndServeTLS(s.config.TLS.CertFile, s.config.TLS.KeyFile)
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// RouterDeps are the collaborators NewRouter wires into routes.
type RouterDeps struct {
	Handler  *Handler
	Auth     *config.AuthConfig
	Server   *config.ServerConfig
	Logger   *slog.Logger
	Requests RequestObserver
	Metrics  http.Handler
}

// NewRouter configures all HTTP routes
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(RecoveryMiddleware(d.Logger))
	r.Use(RequestIDMiddleware())
	r.Use(LoggingMiddleware(d.Logger))
	if d.Requests != nil {
		r.Use(MetricsMiddleware(d.Requests))
	}
	r.Use(SecurityHeadersMiddleware())
	r.Use(CORSMiddleware(d.Server.CORSOrigins))

	// Health checks and scrapes skip auth and compression.
	r.Get("/healthz", d.Handler.Health)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(CompressionMiddleware())
		r.Use(AuthMiddleware(d.Auth))

		r.Get("/dashboard", d.Handler.Dashboard)
		r.Get("/trends", d.Handler.Trends)
		r.Get("/channels", d.Handler.Channels)
		r.Get("/alerts", d.Handler.Alerts)

		r.Group(func(r chi.Router) {
			r.Use(RequireAdminMiddleware())
			r.Post("/alerts", d.Handler.AlertCreate)
			r.Patch("/alerts/{id}", d.Handler.AlertUpdate)
			r.Delete("/alerts/{id}", d.Handler.AlertDelete)
			r.Post("/alerts/{id}/toggle", d.Handler.AlertToggle)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method Not Allowed")
	})

	return r
}
