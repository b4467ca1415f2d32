// Package server exposes scoring, tips and challenge sessions over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/dshills/ecoscore/internal/logging"
	"github.com/dshills/ecoscore/internal/metrics"
	"github.com/dshills/ecoscore/internal/policy"
	"github.com/dshills/ecoscore/internal/session"
	"github.com/dshills/ecoscore/internal/tips"
)

// shutdownTimeout bounds how long in-flight requests may run after the
// serve context is canceled.
const shutdownTimeout = 10 * time.Second

// Config wires a Server to its collaborators. Policy and Store are required.
type Config struct {
	Policy  *policy.Policy
	Store   session.Store
	Tips    *tips.Generator
	Metrics *metrics.Metrics
	// Gatherer backs GET /metrics; nil uses the default registry.
	Gatherer       prometheus.Gatherer
	Logger         *slog.Logger
	AllowedOrigins []string
	Now            func() time.Time
}

// Server is the HTTP front end for one active policy.
type Server struct {
	policy   *policy.Policy
	store    session.Store
	tips     *tips.Generator
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	log      *slog.Logger
	origins  []string
	now      func() time.Time
}

// New validates cfg and returns a Server.
func New(cfg Config) (*Server, error) {
	if cfg.Policy == nil {
		return nil, errors.New("server.New: policy is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("server.New: session store is required")
	}
	s := &Server{
		policy:   cfg.Policy,
		store:    cfg.Store,
		tips:     cfg.Tips,
		metrics:  cfg.Metrics,
		gatherer: cfg.Gatherer,
		log:      cfg.Logger,
		origins:  cfg.AllowedOrigins,
		now:      cfg.Now,
	}
	if s.gatherer == nil {
		s.gatherer = prometheus.DefaultGatherer
	}
	if s.log == nil {
		s.log = logging.Discard()
	}
	if len(s.origins) == 0 {
		s.origins = []string{"*"}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Handler returns the routed handler with CORS and request logging applied.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/policy", s.handlePolicy).Methods(http.MethodGet)
	v1.HandleFunc("/evaluate", s.handleEvaluate).Methods(http.MethodPost)
	v1.HandleFunc("/sessions", s.handleCreateSession).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{id}", s.handleGetSession).Methods(http.MethodGet)
	v1.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods(http.MethodDelete)
	v1.HandleFunc("/sessions/{id}/acknowledge", s.handleAcknowledge).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{id}/reset", s.handleReset).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{id}/history", s.handleSaveHistory).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	c := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(r)
}

// ListenAndServe serves on addr until ctx is canceled, then drains
// in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", "addr", addr, "policy", s.policy.Name)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
