package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/me/goplan/internal/calsync"
	"github.com/me/goplan/internal/config"
	"github.com/me/goplan/internal/planner"
	"github.com/me/goplan/internal/store"
	"github.com/me/goplan/pkg/model"
)

// Server is the goplan REST API server.
type Server struct {
	router     chi.Router
	logger     *slog.Logger
	config     config.ServerConfig
	startTime  time.Time
	store      store.Store
	planner    *planner.Service
	module     model.Module     // active module for POST /scheduler/run
	syncer     *calsync.Service // optional; nil when no feed is configured
	runLimiter *rate.Limiter
}

// Option configures optional Server dependencies.
type Option func(*Server)

// WithSyncService wires the calendar feed sync used by /sync/feed.
func WithSyncService(svc *calsync.Service) Option {
	return func(s *Server) {
		s.syncer = svc
	}
}

// WithRunLimiter overrides the rate limiter guarding the run endpoints.
func WithRunLimiter(l *rate.Limiter) Option {
	return func(s *Server) {
		s.runLimiter = l
	}
}

// New creates a new Server with all routes registered. module selects the
// engine behind POST /scheduler/run.
func New(cfg config.ServerConfig, st store.Store, svc *planner.Service, module model.Module, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.With("component", "server"),
		config:    cfg,
		startTime: time.Now(),
		store:     st,
		planner:   svc,
		module:    module,
		// Solver runs are expensive; allow one per second with a small burst.
		runLimiter: rate.NewLimiter(rate.Every(time.Second), 2),
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

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", s.handleListTasks)
			r.Post("/", s.handleCreateTask)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetTask)
				r.Put("/", s.handleUpdateTask)
				r.Delete("/", s.handleDeleteTask)
			})
		})

		r.Route("/meetings", func(r chi.Router) {
			r.Get("/", s.handleListMeetings)
			r.Post("/", s.handleCreateMeeting)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetMeeting)
				r.Delete("/", s.handleDeleteMeeting)
			})
		})

		r.Route("/scheduler", func(r chi.Router) {
			r.With(s.limitRuns).Post("/run", s.handleRunSchedule)
			r.With(s.limitRuns).Post("/run-swo", s.handleRunSWOSchedule)
			r.Get("/snapshots/latest", s.handleLatestSnapshot)
		})

		r.Post("/sync/feed", s.handleSyncFeed)
	})
}

// limitRuns applies the run-endpoint rate limiter.
func (s *Server) limitRuns(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.runLimiter.Allow() {
			reqID := RequestIDFromContext(r.Context())
			respondError(w, reqID, http.StatusTooManyRequests,
				&model.APIError{Code: model.ErrRateLimited, Message: "scheduler runs are rate limited"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
