// Package server exposes the assistant over an HTTP JSON API built on chi,
// with rate limiting, Prometheus metrics, and graceful shutdown.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"assistant-api/internal/ai"
	"assistant-api/internal/analytics"
	"assistant-api/internal/config"
	"assistant-api/internal/database"
	"assistant-api/internal/logger"
	"assistant-api/internal/memory"
	"assistant-api/internal/profile"
)

// Server is the HTTP front end of the assistant.
type Server struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     database.Store
	memory    *memory.Service
	profiles  *profile.Service
	analytics *analytics.Service
	ai        ai.Client

	httpServer *http.Server
}

// New wires the HTTP server over the assistant services. Analytics and
// export routes are only mounted when their feature flags are enabled.
func New(
	cfg *config.Config,
	log *slog.Logger,
	store database.Store,
	mem *memory.Service,
	profiles *profile.Service,
	analyticsSvc *analytics.Service,
	client ai.Client,
) *Server {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Server{
		cfg:       cfg,
		logger:    log.With("component", "server"),
		store:     store,
		memory:    mem,
		profiles:  profiles,
		analytics: analyticsSvc,
		ai:        client,
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      s.routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(logger.Middleware(s.logger))
	r.Use(metricsMiddleware)
	r.Use(rateLimitMiddleware(s.cfg.RateLimit))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", s.handleChat)

		r.Get("/profile", s.handleGetProfile)
		r.Post("/profile", s.handleSaveProfile)
		r.Delete("/profile", s.handleDeleteProfile)

		r.Get("/conversations", s.handleConversations)
		r.Delete("/conversations", s.handleDeleteConversations)

		r.Get("/stats", s.handleStats)

		if s.cfg.Features.EnableAnalytics {
			r.Get("/analytics/statistics", s.handleStatistics)
			r.Get("/analytics/insights", s.handleInsights)
		}

		if s.cfg.Features.EnableExport {
			r.Get("/export/conversations", s.handleExportConversations)
			r.Get("/export/profile", s.handleExportProfile)
			r.Get("/export/stats", s.handleExportStats)
		}
	})

	return r
}

// Handler exposes the configured router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully
// within the configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoContext(ctx, "HTTP server listening", "addr", s.cfg.Server.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	s.logger.InfoContext(shutdownCtx, "Shutting down HTTP server")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}

	return <-errCh
}

// requestIDMiddleware tags every request with an id, echoed in the
// X-Request-ID response header for log correlation.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}
