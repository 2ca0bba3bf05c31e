// Package http exposes citydir services over HTTP and provides an HTTP
// client implementation of citydir.EntryService.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/fwojciec/citydir"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// maxBodyBytes caps the size of mutation request bodies.
const maxBodyBytes = 1 << 20

// Ensure Server implements http.Handler.
var _ http.Handler = (*Server)(nil)

// Server serves the directory API.
type Server struct {
	entries  citydir.EntryService
	logger   *slog.Logger
	origins  []string
	limiter  *ClientLimiter
	registry *prometheus.Registry
	metrics  *Metrics

	handler http.Handler
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the logger used for request logs and internal errors.
// Defaults to a logger that discards everything.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCORSOrigins allows browser front ends served from the given origins.
// Without origins no CORS headers are written.
func WithCORSOrigins(origins ...string) ServerOption {
	return func(s *Server) {
		s.origins = origins
	}
}

// WithRateLimit limits mutations to rps requests per second per client.
// A non-positive rps disables the limit.
func WithRateLimit(rps float64, burst int) ServerOption {
	return func(s *Server) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = NewClientLimiter(rps, burst)
	}
}

// WithRegistry sets the Prometheus registry that server metrics are
// registered with and that /metrics exposes.
func WithRegistry(reg *prometheus.Registry) ServerOption {
	return func(s *Server) {
		s.registry = reg
	}
}

// NewServer creates a new Server backed by entries.
func NewServer(entries citydir.EntryService, opts ...ServerOption) *Server {
	s := &Server{
		entries: entries,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	s.metrics = NewMetrics(s.registry)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/categories", s.handleListCategories)
		r.Route("/entries", func(r chi.Router) {
			r.Get("/", s.handleListEntries)
			r.Get("/{id}", s.handleGetEntry)

			r.Group(func(r chi.Router) {
				r.Use(s.limitMutations)
				r.Post("/", s.handleCreateEntry)
				r.Patch("/{id}", s.handleUpdateEntry)
				r.Delete("/{id}", s.handleDeleteEntry)
			})
		})
	})

	s.handler = r
	if len(s.origins) > 0 {
		s.handler = cors.New(cors.Options{
			AllowedOrigins: s.origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "If-None-Match"},
			ExposedHeaders: []string{"ETag"},
		}).Handler(r)
	}

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// instrument logs one line per request and records request metrics
// labeled by the matched route pattern.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		begin := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		elapsed := time.Since(begin)

		s.metrics.ObserveRequest(r.Method, route, status, elapsed)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", elapsed,
		)
	})
}
