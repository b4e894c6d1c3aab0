// Package httpserver serves the gate over HTTP: routing decisions,
// star lifecycle, audit queries, health, and metrics.
package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/atomic"

	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/gate"
)

// Config holds the server's listen and shutdown settings.
type Config struct {
	ListenAddr      string
	RoutesPath      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Log             *slog.Logger
}

func (c *Config) defaults() {
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 30 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	if c.Log == nil {
		c.Log = slog.Default()
	}
}

// Server is the HTTP front of a Gate.
type Server struct {
	cfg     Config
	gate    *gate.Gate
	log     *slog.Logger
	isReady atomic.Bool
	srv     *http.Server
}

// New builds a Server around the gate. The machine allowlist is
// checked once here: an unauthorized machine gets a server that
// refuses every API call rather than no server at all, so the denial
// is observable.
func New(cfg Config, g *gate.Gate) *Server {
	cfg.defaults()
	s := &Server{
		cfg:  cfg,
		gate: g,
		log:  cfg.Log,
	}
	s.isReady.Store(true)

	s.srv = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

func (s *Server) router() http.Handler {
	mux := chi.NewRouter()
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Recoverer)
	mux.Use(s.requestLogger)

	mux.Route("/api", func(r chi.Router) {
		r.Use(s.requireAuthorizedMachine)

		r.Post("/gate/route", s.handleRoute)
		r.Get("/gate/operations", s.handleOperations)

		r.Post("/stars", s.handleRequestStar)
		r.Get("/stars", s.handleListStars)
		r.Get("/stars/{id}", s.handleGetStar)
		r.Post("/stars/{id}/challenges/{cid}", s.handleCompleteChallenge)
		r.Get("/stars/{id}/verify", s.handleVerifyStar)
		r.Post("/stars/{id}/consume", s.handleConsumeStar)
		r.Post("/stars/{id}/revoke", s.handleRevokeStar)

		r.Get("/audit", s.handleAudit)
	})

	mux.Get("/livez", s.handleLivez)
	mux.Get("/readyz", s.handleReadyz)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// requestLogger emits one structured line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}

// requireAuthorizedMachine refuses API calls on machines outside the
// allowlist. Health and metrics stay reachable either way.
func (s *Server) requireAuthorizedMachine(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ok, _ := gate.MachineAuthorized(); !ok {
			writeError(w, http.StatusForbidden, "machine_not_authorized", "this machine is not on the gate allowlist")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleLivez(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	if !s.isReady.Load() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// SetReady flips the readiness probe, for drain before shutdown.
func (s *Server) SetReady(ready bool) { s.isReady.Store(ready) }

// Handler exposes the routing tree for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Run serves until ctx is cancelled, then drains and shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("gate server listening", "addr", s.cfg.ListenAddr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.isReady.Store(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.log.Info("shutting down")
	return s.srv.Shutdown(shutdownCtx)
}
