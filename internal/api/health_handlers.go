package api

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/vytor/flashgenius/internal/logger"
)

const healthCheckTimeout = 2 * time.Second

func (s *Server) uptime() float64 {
	if s.StartedAt.IsZero() {
		return 0
	}
	return time.Since(s.StartedAt).Seconds()
}

// handleHealth is the liveness summary; it never touches dependencies.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":      "OK",
		"timestamp":   time.Now().UTC(),
		"uptime":      s.uptime(),
		"environment": s.Environment,
		"version":     s.Version,
	})
}

// handleHealthDetailed reports dependency state. A database failure marks
// the service DEGRADED with 503.
func (s *Server) handleHealthDetailed(w http.ResponseWriter, r *http.Request) {
	status, code := "OK", http.StatusOK
	database := "connected"
	if err := s.checkDatabase(r.Context()); err != nil {
		logger.FromContext(r.Context()).Warn("health check failed - database: %v", err)
		database = "error"
		status, code = "DEGRADED", http.StatusServiceUnavailable
	}

	ai := "not_configured"
	if s.ChatService != nil && s.ChatService.Available() {
		ai = "configured"
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	const mb = 1024 * 1024

	writeJSON(w, r, code, map[string]any{
		"status":      status,
		"timestamp":   time.Now().UTC(),
		"uptime":      s.uptime(),
		"environment": s.Environment,
		"version":     s.Version,
		"services": map[string]any{
			"database": database,
			"ai":       ai,
			"memory": map[string]float64{
				"used":  float64(mem.HeapAlloc) / mb,
				"total": float64(mem.HeapSys) / mb,
				"sys":   float64(mem.Sys) / mb,
			},
			"goroutines": runtime.NumGoroutine(),
		},
	})
}

// handleReady is the readiness probe: 200 when the database answers, 503 otherwise.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.checkDatabase(r.Context()); err != nil {
		logger.FromContext(r.Context()).Warn("readiness check failed - database: %v", err)
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]any{
			"status":    "not_ready",
			"timestamp": time.Now().UTC(),
			"error":     "database not ready",
		})
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":    "ready",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":    "alive",
		"timestamp": time.Now().UTC(),
		"uptime":    s.uptime(),
	})
}

// checkDatabase pings the database with a short deadline.
func (s *Server) checkDatabase(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	return s.DB.PingContext(ctx)
}
