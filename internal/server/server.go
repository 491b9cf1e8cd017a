// Package server exposes the operational HTTP endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/peerly/peerly/internal/logging"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatusFunc reports extra fields for the health response
type StatusFunc func() map[string]any

// Server serves /health and /metrics
type Server struct {
	addr   string
	logger *logging.Logger
	status StatusFunc
	http   *http.Server
	bound  net.Addr
}

// New creates a server listening on addr
func New(addr string, status StatusFunc, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.Default
	}
	return &Server{
		addr:   addr,
		logger: logger,
		status: status,
	}
}

// Handler returns the chi router with all routes mounted
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{"status": "ok"}
		if s.status != nil {
			for k, v := range s.status() {
				body[k] = v
			}
		}
		writeJSON(w, http.StatusOK, body)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Start listens on the configured address and serves in the background.
// It returns once the listener is bound.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.bound = ln.Addr()
	s.http = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Ops server stopped: %v", err)
		}
	}()

	s.logger.Info("Ops server listening on %s", ln.Addr())
	return nil
}

// Addr returns the bound address once Start has succeeded
func (s *Server) Addr() string {
	if s.bound == nil {
		return s.addr
	}
	return s.bound.String()
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
