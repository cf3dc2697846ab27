package api

import (
	"context"
	"net/http"
	"time"

	"github.com/vojaudio/voj-server/internal/http/response"
)

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

// DetailedHealthResponse contains per-component health check data.
type DetailedHealthResponse struct {
	Status     string                     `json:"status"`
	Version    string                     `json:"version"`
	Uptime     string                     `json:"uptime"`
	Components map[string]ComponentHealth `json:"components"`
}

// handleHealthCheck is the cheap liveness probe.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{
		"status": "healthy",
	}, s.logger)
}

// handleDetailedHealth checks each backing component individually.
func (s *Server) handleDetailedHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	components := map[string]ComponentHealth{
		"database": s.checkDatabase(ctx),
		"storage":  s.checkStorage(ctx),
	}

	overall := "healthy"
	for _, c := range components {
		if c.Status != "healthy" {
			overall = "unhealthy"
			break
		}
	}

	resp := DetailedHealthResponse{
		Status:     overall,
		Version:    s.version,
		Uptime:     time.Since(s.startedAt).Round(time.Second).String(),
		Components: components,
	}

	if overall != "healthy" {
		response.JSON(w, http.StatusServiceUnavailable, resp, s.logger)
		return
	}
	response.Success(w, resp, s.logger)
}

// checkDatabase verifies BadgerDB is accessible.
func (s *Server) checkDatabase(ctx context.Context) ComponentHealth {
	if s.store == nil {
		return ComponentHealth{Status: "degraded", Message: "database not configured"}
	}

	start := time.Now()
	err := s.store.Health(ctx)
	latency := time.Since(start)

	if err != nil {
		return ComponentHealth{
			Status:  "unhealthy",
			Latency: latency.String(),
			Message: "database read failed",
		}
	}
	return ComponentHealth{Status: "healthy", Latency: latency.String()}
}

// checkStorage verifies the audio store answers object queries.
func (s *Server) checkStorage(ctx context.Context) ComponentHealth {
	if s.storage == nil {
		return ComponentHealth{Status: "degraded", Message: "storage not configured"}
	}

	start := time.Now()
	// An existence probe on a key that never exists still exercises the
	// backend round trip.
	_, err := s.storage.Exists(ctx, ".healthcheck")
	latency := time.Since(start)

	if err != nil {
		return ComponentHealth{
			Status:  "unhealthy",
			Latency: latency.String(),
			Message: "storage probe failed",
		}
	}
	return ComponentHealth{Status: "healthy", Latency: latency.String()}
}
