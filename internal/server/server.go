// Package server exposes the layout pipeline over HTTP.
//
// # Endpoints
//
//	GET  /healthz                  liveness probe
//	GET  /v1/breakpoints?width=W   breakpoint table, and the entry for W
//	POST /v1/layout                pack items, respond with a layout document
//
// A layout request carries items with an explicit ratio or pixel size and
// optional packing overrides:
//
//	{
//	  "width": 1024,
//	  "items": [{"id": "a", "ratio": 1.5}, {"id": "b", "width": 800, "height": 600}],
//	  "max_per_row": 4
//	}
//
// The response is a gallery document (see the gallery package) unless
// "format" asks for svg, html or png. Every request is a full, independent
// layout pass; the server holds no per-client state.
//
// Errors are JSON objects with the machine-readable code, a message and the
// request ID. Codes map to status codes via errors.HTTPStatus.
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/justified/pkg/cache"
	"github.com/matzehuels/justified/pkg/config"
	"github.com/matzehuels/justified/pkg/pipeline"
)

// maxBodyBytes bounds the size of a request body.
const maxBodyBytes = 8 << 20

// Server serves layout requests.
type Server struct {
	runner    *pipeline.Runner
	cfg       config.Config
	logger    *log.Logger
	responses cache.Cache
	router    chi.Router
}

// Option configures a [Server].
type Option func(*Server)

// WithResponseCache caches encoded responses, keyed by the request body.
func WithResponseCache(c cache.Cache) Option {
	return func(s *Server) { s.responses = c }
}

// New creates a server that runs layouts with runner. Limits and defaults
// come from cfg.
func New(runner *pipeline.Runner, cfg config.Config, logger *log.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		runner: runner,
		cfg:    cfg,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	if timeout := s.cfg.Server.RequestTimeout.Std(); timeout > 0 {
		r.Use(middleware.Timeout(timeout))
	}

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/breakpoints", s.handleBreakpoints)
		r.Post("/layout", s.handleLayout)
	})
	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(s.handleMethodNotAllowed)

	return r
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully, giving in-flight requests a few seconds to finish.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
