package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ResearchDigest/internal/domain"
	"ResearchDigest/internal/metrics"
	"ResearchDigest/internal/ports"
	"ResearchDigest/internal/usecase"
)

// Runner triggers a pipeline run on demand.
type Runner interface {
	Run(ctx context.Context, params usecase.RunParams) (domain.PipelineRun, error)
}

// Server exposes the on-demand trigger and statistics over HTTP.
type Server struct {
	runner  Runner
	store   ports.FeaturedStore
	metrics *metrics.Metrics
	logger  *slog.Logger

	defaultLookbackDays int
	persistFeatured     bool

	http *http.Server
}

// Options configures the HTTP surface.
type Options struct {
	Addr                string
	Runner              Runner
	Store               ports.FeaturedStore
	Metrics             *metrics.Metrics
	Logger              *slog.Logger
	DefaultLookbackDays int
	PersistFeatured     bool
}

// New assembles the router and the underlying http.Server.
func New(opts Options) *Server {
	s := &Server{
		runner:              opts.Runner,
		store:               opts.Store,
		metrics:             opts.Metrics,
		logger:              opts.Logger,
		defaultLookbackDays: opts.DefaultLookbackDays,
		persistFeatured:     opts.PersistFeatured,
	}
	if s.defaultLookbackDays < 1 {
		s.defaultLookbackDays = 7
	}

	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Routes builds the chi router. Exposed separately so tests can drive
// the handlers without binding a socket.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/api/run", s.handleRun)
	r.Get("/api/statistics", s.handleStatistics)

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))
	}

	return r
}

// ListenAndServe blocks until the server exits.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

type runRequest struct {
	LookbackDays int    `json:"lookback_days"`
	Topic        string `json:"topic"`
}

type runResponse struct {
	ID                   string   `json:"id"`
	Success              bool     `json:"success"`
	NewsCount            int      `json:"news_count"`
	PapersSelectedCount  int      `json:"papers_selected_count"`
	SelectionMethod      string   `json:"selection_method"`
	ExecutionTimeSeconds float64  `json:"execution_time_seconds"`
	Errors               []string `json:"errors,omitempty"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	req := runRequest{LookbackDays: s.defaultLookbackDays}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if req.LookbackDays == 0 {
		req.LookbackDays = s.defaultLookbackDays
	}

	run, err := s.runner.Run(r.Context(), usecase.RunParams{
		LookbackDays:    req.LookbackDays,
		Topic:           req.Topic,
		PersistFeatured: s.persistFeatured,
	})
	switch {
	case errors.Is(err, domain.ErrBusy):
		writeError(w, http.StatusConflict, "a pipeline run is already in progress")
		return
	case domain.IsInvalidArgument(err):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.logger.Error("run trigger failed", "error", err)
		writeError(w, http.StatusInternalServerError, "pipeline run failed")
		return
	}

	if s.metrics != nil {
		s.metrics.RecordRun(run)
	}

	writeJSON(w, http.StatusOK, runResponse{
		ID:                   run.ID,
		Success:              run.Success,
		NewsCount:            run.NewsCount,
		PapersSelectedCount:  run.PapersSelectedCount,
		SelectionMethod:      string(run.Papers.Method),
		ExecutionTimeSeconds: run.ExecutionTimeSeconds,
		Errors:               run.Errors,
	})
}

type statisticsResponse struct {
	TotalRuns      int `json:"total_runs"`
	SuccessfulRuns int `json:"successful_runs"`
	TotalItems     int `json:"total_items"`
	TotalFeatured  int `json:"total_featured"`
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Statistics(r.Context())
	if err != nil {
		s.logger.Error("statistics query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "statistics unavailable")
		return
	}

	writeJSON(w, http.StatusOK, statisticsResponse{
		TotalRuns:      stats.TotalRuns,
		SuccessfulRuns: stats.SuccessfulRuns,
		TotalItems:     stats.TotalItems,
		TotalFeatured:  stats.TotalFeatured,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
