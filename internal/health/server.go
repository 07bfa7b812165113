// Package health exposes a lightweight HTTP health endpoint for container probes.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jisjis-ai/telbotfun/internal/logging"
)

const (
	storePingTimeout  = 2 * time.Second
	readHeaderTimeout = 2 * time.Second
)

// StoreChecker is the subset of store behavior the probe needs.
type StoreChecker interface {
	Ping(ctx context.Context) error
}

// SessionCounter reports how many conversational sessions are in flight.
type SessionCounter interface {
	Active() int
}

// Server hosts the health endpoint and owns the underlying HTTP server.
type Server struct {
	server   *http.Server
	logger   *logrus.Entry
	store    StoreChecker
	sessions SessionCounter
}

type response struct {
	Status   string `json:"status"`
	Store    string `json:"store,omitempty"`
	Sessions int    `json:"sessions"`
}

// NewServer constructs a health server that exposes GET /healthz on the
// provided port. sessions may be nil.
func NewServer(port int, store StoreChecker, sessions SessionCounter, logger *logrus.Entry) *Server {
	if logger == nil {
		logger = logging.Logger()
	}

	srv := &Server{
		logger:   logger,
		store:    store,
		sessions: sessions,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", srv.handleHealth)

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return srv
}

// ListenAndServe starts the health server and blocks until shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.WithFields(logging.Fields{
		"event": "health_listen",
		"addr":  s.server.Addr,
	}).Info("starting health server")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("health server listen: %w", err)
	}

	s.logger.WithField("event", "health_stopped").Info("health server stopped")
	return nil
}

// Shutdown gracefully stops the health server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}

	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := response{Status: "ok"}

	if s.sessions != nil {
		resp.Sessions = s.sessions.Active()
	}

	if s.store == nil {
		resp.Status = "degraded"
		resp.Store = "error"
		s.logger.WithField("event", "health_store_missing").Warn("store checker is not configured for health endpoint")
	} else {
		pingCtx, cancel := context.WithTimeout(r.Context(), storePingTimeout)
		err := s.store.Ping(pingCtx)
		cancel()

		if err != nil {
			resp.Status = "degraded"
			resp.Store = "error"
			s.logger.WithField("event", "health_store_error").WithError(err).Warn("store ping failed during health check")
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.WithField("event", "health_write_error").WithError(err).Error("failed to encode health response")
	}
}
