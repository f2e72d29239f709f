// Package web provides the HTTP API of the cleaning service.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/JonMunkholm/cleanse/internal/config"
	"github.com/JonMunkholm/cleanse/internal/core"
	"github.com/JonMunkholm/cleanse/internal/metrics"
	"github.com/JonMunkholm/cleanse/internal/profile"
	mw "github.com/JonMunkholm/cleanse/internal/web/middleware"
)

// Server is the HTTP server for the cleaning API.
type Server struct {
	cfg     *config.Config
	base    profile.Profile
	cleaner *core.Cleaner
	limiter *core.CleanLimiter
	metrics *metrics.Recorder

	router       *chi.Mux
	server       *http.Server
	rateLimiters []*mw.RateLimiter
	logger       *slog.Logger
}

// NewServer creates a Server. The base profile is loaded from
// cfg.Clean.ProfilePath (if set) and CLEANSE_* variables; request
// parameters are applied on top of it.
func NewServer(cfg *config.Config, rec *metrics.Recorder) (*Server, error) {
	base, err := profile.Load(cfg.Clean.ProfilePath, nil)
	if err != nil {
		return nil, err
	}
	if _, err := base.Config(); err != nil {
		return nil, err
	}
	if rec == nil {
		rec = metrics.NewRecorder()
	}

	s := &Server{
		cfg:     cfg,
		base:    *base,
		cleaner: core.NewCleaner(core.WithLogger(slog.Default().With("component", "cleaner"))),
		limiter: core.NewCleanLimiter(cfg.Clean.MaxConcurrent, cfg.Clean.MaxWaitTime),
		metrics: rec,
		router:  chi.NewRouter(),
		logger:  slog.Default(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders)
	if s.cfg.Rate.Enabled {
		s.router.Use(s.newRateLimiter(s.cfg.Rate.RequestsPerMinute).Handler)
	}

	if len(s.cfg.Security.CORSOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.Security.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-Id"},
			ExposedHeaders: []string{mw.RunIDHeader, "Retry-After"},
			MaxAge:         300,
		}))
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", s.metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(&s.cfg.Security))
		if s.cfg.Rate.Enabled {
			r.Use(s.newRateLimiter(s.cfg.Rate.CleanLimit).Handler)
		}

		r.Post("/clean", s.handleClean)
		r.Post("/validate", s.handleValidate)
	})
}

// newRateLimiter returns a per-IP limiter of perMinute requests that is
// stopped by Shutdown.
func (s *Server) newRateLimiter(perMinute int) *mw.RateLimiter {
	rl := mw.NewRateLimiter(perMinute, time.Minute)
	s.rateLimiters = append(s.rateLimiters, rl)
	return rl
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	s.logger.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown stops accepting connections, then waits for in-flight cleaning
// runs to finish or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, rl := range s.rateLimiters {
		rl.Stop()
	}
	if s.server == nil {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	return s.limiter.WaitForDrain(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}
