package server

import (
	"net/http"
	"runtime"
	"time"
)

type healthResponse struct {
	Status    string `json:"status"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
	Store     string `json:"store"`
	Sessions  int    `json:"sessions"`
	Backend   string `json:"backend"`
}

// handleHealth reports liveness of the server and its session store. The
// backend is only named, never contacted.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	health := healthResponse{
		Status:    "healthy",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Store:     "ok",
	}
	if s.client != nil {
		health.Backend = s.client.BaseURL
	}

	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Error("health: store ping failed", "error", err)
		health.Status = "unhealthy"
		health.Store = "unavailable"
		respondError(w, reqID, http.StatusServiceUnavailable, health, "session store unavailable")
		return
	}
	if n, err := s.store.CountSessions(r.Context()); err == nil {
		health.Sessions = n
	}
	respondOK(w, reqID, health)
}
