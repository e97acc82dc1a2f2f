// Package server exposes codegraphd over HTTP: a streaming ingest endpoint,
// a graph delete endpoint, a retrieval query endpoint, health/readiness
// checks, and a Prometheus metrics handler. Routing and middleware follow
// the same chi-based shape used across the rest of the stack.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bismuthai/codegraph/internal/config"
	"github.com/bismuthai/codegraph/pkg/ingest"
	"github.com/bismuthai/codegraph/pkg/kgraph"
	"github.com/bismuthai/codegraph/pkg/retrieval"
	"github.com/bismuthai/codegraph/pkg/searchindex"
)

// Server is codegraphd's HTTP API.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger
	router *chi.Mux
	http   *http.Server

	graphs   *kgraph.Store
	search   *searchindex.Store
	pipeline *ingest.Pipeline
	engine   *retrieval.Engine
}

// Deps holds the collaborators Server dispatches requests to.
type Deps struct {
	Graphs   *kgraph.Store
	Search   *searchindex.Store
	Pipeline *ingest.Pipeline
	Engine   *retrieval.Engine
}

// New builds a Server ready to Start.
func New(cfg *config.Config, logger *slog.Logger, deps Deps) *Server {
	s := &Server{
		cfg:      cfg,
		logger:   logger,
		router:   chi.NewRouter(),
		graphs:   deps.Graphs,
		search:   deps.Search,
		pipeline: deps.Pipeline,
		engine:   deps.Engine,
	}
	s.setupMiddleware()
	s.registerRoutes()
	return s
}

// setupMiddleware configures the request middleware chain: RequestID ->
// RealIP -> Logger -> Recoverer -> Timeout.
func (s *Server) setupMiddleware() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.RequestLogger(&slogLogFormatter{logger: s.logger}))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(chimiddleware.Timeout(120 * time.Second))
}

func (s *Server) registerRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/ready", s.handleReady)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api/codegraph", func(r chi.Router) {
		r.Post("/", s.handleIngest)
		r.Delete("/{graph_id}", s.handleDelete)
		r.Post("/{graph_id}/query", s.handleQuery)
	})
}

// Router exposes the chi router for tests.
func (s *Server) Router() *chi.Mux { return s.router }

// Start runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	s.logger.Info("starting codegraphd server", slog.String("address", addr))

	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server listen error: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.Server.ShutdownTimeout)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

type slogLogFormatter struct {
	logger *slog.Logger
}

func (f *slogLogFormatter) NewLogEntry(r *http.Request) chimiddleware.LogEntry {
	return &slogLogEntry{logger: f.logger, r: r}
}

type slogLogEntry struct {
	logger *slog.Logger
	r      *http.Request
}

func (e *slogLogEntry) Write(status, bytes int, header http.Header, elapsed time.Duration, extra interface{}) {
	e.logger.Info("request completed",
		slog.String("method", e.r.Method),
		slog.String("path", e.r.URL.Path),
		slog.Int("status", status),
		slog.Int("bytes", bytes),
		slog.Duration("elapsed", elapsed),
		slog.String("request_id", chimiddleware.GetReqID(e.r.Context())),
	)
}

func (e *slogLogEntry) Panic(v interface{}, stack []byte) {
	e.logger.Error("request panic",
		slog.Any("panic", v),
		slog.String("request_id", chimiddleware.GetReqID(e.r.Context())),
	)
}
