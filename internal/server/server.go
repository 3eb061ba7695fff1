package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/riskline/mlship/internal/inference"
	"github.com/riskline/mlship/internal/metrics"
)

// Server wires the inference store, configuration, and instrumentation
// into an http.Handler and manages the listener lifecycle.
type Server struct {
	cfg     Config
	store   *inference.Store
	log     zerolog.Logger
	metrics *metrics.Metrics
	router  *mux.Router
}

// New assembles a server around an opened inference store. A fresh
// Prometheus registry is created per server so repeated construction
// (as in tests) never collides on collector registration.
func New(cfg Config, store *inference.Store, log zerolog.Logger) *Server {
	registry := prometheus.NewRegistry()

	s := &Server{
		cfg:     cfg,
		store:   store,
		log:     log,
		metrics: metrics.New(registry),
	}

	r := mux.NewRouter()

	// Middleware order: logging sees every request including rate-limited
	// ones; metrics and CORS run inside it; the rate limiter guards the
	// handlers last so rejected requests are still logged and counted.
	r.Use(loggingMiddleware(log))
	r.Use(metricsMiddleware(s.metrics))
	r.Use(corsMiddleware(cfg.CORS))
	if cfg.RateLimit.RequestsPerSecond > 0 {
		r.Use(newRateLimiter(cfg.RateLimit).middleware)
	}

	r.HandleFunc("/", s.handleHome).Methods(http.MethodGet)
	r.HandleFunc("/predict", s.handlePredict).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	s.router = r
	return s
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until the context is cancelled, then drains in-flight
// requests within the configured shutdown timeout. The returned error
// is nil on clean shutdown.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Bind,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Timeouts.Read,
		WriteTimeout: s.cfg.Timeouts.Write,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("bind", s.cfg.Bind).Str("model_dir", s.store.Dir()).Msg("serving")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		// ListenAndServe never returns nil; a bind failure lands here.
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeouts.Shutdown)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	// Collect the ListenAndServe result; ErrServerClosed is the clean
	// shutdown signal, not a failure.
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
