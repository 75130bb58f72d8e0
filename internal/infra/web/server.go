// Package web exposes the observer/caller HTTP API over the job core.
package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"motion-dashboard/internal/usecase"
)

type Server struct {
	trackerUC *usecase.JobTrackerUseCase
	log       *zerolog.Logger
}

func NewServer(trackerUC *usecase.JobTrackerUseCase, logger *zerolog.Logger) *Server {
	sl := logger.With().Str("component", "WebServer").Logger()
	return &Server{trackerUC: trackerUC, log: &sl}
}

// Router builds the chi router for the API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/jobs", func(r chi.Router) {
		r.Post("/", s.createJob)
		r.Get("/", s.listJobs)
		r.Get("/summary", s.summary)
		r.Get("/{id}", s.getJob)
		r.Post("/{id}/retry", s.retryJob)
		r.Delete("/{id}", s.removeJob)
	})

	return r
}
