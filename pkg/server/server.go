// Package server exposes stored diagrams over HTTP.
//
// # Routes
//
//	GET    /healthz
//	GET    /diagrams                          list summaries
//	POST   /diagrams                          create, returns the new id
//	GET    /diagrams/{id}                     definition (JSON)
//	PUT    /diagrams/{id}                     create or replace
//	DELETE /diagrams/{id}
//	GET    /diagrams/{id}/layout              layout document
//	GET    /diagrams/{id}/render.{format}     svg, png, pdf, dot or json
//
// Layout and render accept the query parameters strategy, width, height,
// categories, select, hover, renderer, animate, interactive, legend and
// detail. Every response is a stateless snapshot: interaction state lives in
// the client, which passes select and hover back as query parameters.
//
// Request bodies may be JSON, YAML or TOML, chosen by Content-Type.
// Errors are returned as {"code": "...", "error": "..."} with a status
// derived from the error code.
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/matzehuels/nodeflow/pkg/pipeline"
	"github.com/matzehuels/nodeflow/pkg/store"
)

// Defaults for [Config].
const (
	DefaultAddr           = "127.0.0.1:8080"
	DefaultRate           = 20.0
	DefaultBurst          = 40
	DefaultRequestTimeout = 60 * time.Second
	DefaultMaxBodyBytes   = 1 << 20
	shutdownTimeout       = 10 * time.Second
)

// Config configures a [Server].
type Config struct {
	Addr   string
	Store  store.Store
	Runner *pipeline.Runner
	Logger *log.Logger

	// Rate is the sustained request rate in requests per second. Negative
	// disables rate limiting; zero uses DefaultRate.
	Rate  float64
	Burst int

	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

// Server is the HTTP service.
type Server struct {
	cfg     Config
	router  chi.Router
	limiter *rate.Limiter
	logger  *log.Logger
}

// New builds a server. Store and Runner default to an in-memory store and
// an uncached runner.
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if cfg.Store == nil {
		cfg.Store = store.NewMemoryStore()
	}
	if cfg.Runner == nil {
		cfg.Runner = pipeline.NewRunner(nil, nil, cfg.Logger)
	}
	if cfg.Rate == 0 {
		cfg.Rate = DefaultRate
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultBurst
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	s := &Server{cfg: cfg, logger: cfg.Logger}
	if cfg.Rate > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst)
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.cfg.RequestTimeout))

	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Route("/diagrams", func(r chi.Router) {
			r.Get("/", s.handleList)
			r.Post("/", s.handleCreate)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGet)
				r.Put("/", s.handlePut)
				r.Delete("/", s.handleDelete)
				r.Get("/layout", s.handleLayout)
				r.Get("/render.{format}", s.handleRender)
			})
		})
	})
	return r
}

// Run serves on cfg.Addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info("listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	<-errc
	s.logger.Info("server stopped")
	return err
}
