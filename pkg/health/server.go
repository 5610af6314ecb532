// Package health serves the process liveness endpoint.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Server reports process liveness: uptime, live session count, and the size
// of the allow-list.
type Server struct {
	httpServer   *http.Server
	startedAt    time.Time
	sessionCount func() int
	allowedUsers int
	logger       *zap.Logger
}

// NewServer creates a Server listening on port. sessionCount is polled on
// every /health request.
func NewServer(port int, sessionCount func() int, allowedUsers int, logger *zap.Logger) *Server {
	s := &Server{
		startedAt:    time.Now(),
		sessionCount: sessionCount,
		allowedUsers: allowedUsers,
		logger:       logger,
	}

	r := chi.NewRouter()
	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleRoot)

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
	}
	return s
}

// Start serves until Shutdown is called. A clean shutdown returns nil.
func (s *Server) Start() error {
	s.logger.Info("health check server listening", zap.String("addr", s.httpServer.Addr))

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"status":       "ok",
		"uptime":       time.Since(s.startedAt).Seconds(),
		"sessions":     s.sessionCount(),
		"allowedUsers": s.allowedUsers,
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Clawbot Telegram bot is running!")
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode JSON response", zap.Error(err))
	}
}
