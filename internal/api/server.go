// Package api exposes the task service over HTTP.
package api

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bhavanagoud111/The-Robot-driver/internal/engine"
	"github.com/bhavanagoud111/The-Robot-driver/internal/idempotency"
)

type Options struct {
	AuthToken          string
	IdempotencyTTL     time.Duration
	IdempotencyLockTTL time.Duration
	ArtifactBaseURL    string
	ArtifactHandler    http.Handler
	Logger             *log.Logger
}

type Server struct {
	engine          *engine.Engine
	idempotency     *idempotency.Store
	authToken       string
	idempotencyTTL  time.Duration
	idempotencyLock time.Duration
	artifactBase    string
	artifactHandler http.Handler
	logger          *log.Logger
}

func NewServer(eng *engine.Engine, idem *idempotency.Store, opts Options) *Server {
	if opts.IdempotencyTTL <= 0 {
		opts.IdempotencyTTL = 24 * time.Hour
	}
	if opts.IdempotencyLockTTL <= 0 {
		opts.IdempotencyLockTTL = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Server{
		engine:          eng,
		idempotency:     idem,
		authToken:       opts.AuthToken,
		idempotencyTTL:  opts.IdempotencyTTL,
		idempotencyLock: opts.IdempotencyLockTTL,
		artifactBase:    opts.ArtifactBaseURL,
		artifactHandler: opts.ArtifactHandler,
		logger:          opts.Logger,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)

	r.Route("/v1", func(r chi.Router) {
		r.With(s.withAuth).Post("/tasks", s.handleCreateTask)
		r.Get("/tasks", s.handleListTasks)
		r.Get("/tasks/{taskID}", s.handleGetTask)
		r.Get("/metrics", s.handleMetrics)
	})

	if s.artifactHandler != nil && s.artifactBase != "" {
		r.Handle(s.artifactBase+"/*", s.artifactHandler)
	}
	return r
}
