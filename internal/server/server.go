// Package server exposes plan generation and service health over HTTP.
package server

import (
	"context"
	"net/http"

	"yoga-guide/internal/common/logger"
	"yoga-guide/internal/models"
	"yoga-guide/internal/plan"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PlanBuilder produces a plan for every request; see plan.Pipeline.
type PlanBuilder interface {
	BuildPlan(ctx context.Context, profile models.UserProfile) plan.Result
	Models() []string
}

// CredentialChecker reports whether the generation service can be called at all.
type CredentialChecker interface {
	HasAPIKey() bool
}

type StatsReader interface {
	Stats(ctx context.Context, modelIDs []string) ([]plan.ModelStats, error)
}

// CheckFunc is a named readiness check.
type CheckFunc func(ctx context.Context) error

type Option func(*Server)

// WithStats enables ledger counters on /api/models.
func WithStats(stats StatsReader) Option {
	return func(s *Server) { s.stats = stats }
}

func WithReadinessCheck(name string, fn CheckFunc) Option {
	return func(s *Server) {
		s.checks = append(s.checks, readinessCheck{name: name, fn: fn})
	}
}

// WithMetricsHandler replaces the default promhttp handler on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

type readinessCheck struct {
	name string
	fn   CheckFunc
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	plans   PlanBuilder
	creds   CredentialChecker
	stats   StatsReader
	checks  []readinessCheck
	metrics http.Handler
	log     logger.Logger
	router  chi.Router
}

// New creates a Server with all routes configured.
func New(plans PlanBuilder, creds CredentialChecker, log logger.Logger, opts ...Option) *Server {
	s := &Server{
		plans:   plans,
		creds:   creds,
		log:     log,
		metrics: promhttp.Handler(),
		router:  chi.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestID)
	s.router.Use(RequestLogging(s.log))
	s.router.Use(RequestMetrics)
	s.router.Use(middleware.Recoverer)
	s.router.Use(CORS)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/generate-plan", s.handleGeneratePlan)
		r.Get("/models", s.handleModels)
	})

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/ready", s.handleReady)
	s.router.Handle("/metrics", s.metrics)
}
