// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package api

import (
	"net/http"
	"time"
)

// circuitState is implemented by backends guarded by a circuit breaker.
type circuitState interface {
	State() string
}

// HealthStatus is the body of GET /api/v1/health.
type HealthStatus struct {
	Status         string  `json:"status"`
	Version        string  `json:"version"`
	UptimeSeconds  float64 `json:"uptime_seconds"`
	Sessions       int     `json:"sessions"`
	BackendCircuit string  `json:"backend_circuit,omitempty"`
}

// HealthLive reports that the process is serving requests.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, map[string]interface{}{
		"status":         "alive",
		"uptime_seconds": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady fails while the backend circuit breaker is open, since no map
// could be loaded.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	state := h.circuit()
	if h.backend == nil || state == "open" {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeUnavailable, "Map backend unavailable", nil)
		return
	}
	respondSuccess(w, r, map[string]interface{}{
		"status":          "ready",
		"backend_circuit": state,
	})
}

// Health returns the combined service status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	state := h.circuit()
	status := "healthy"
	if state == "open" {
		status = "degraded"
	}

	sessions := 0
	if h.hub != nil {
		sessions = h.hub.GetClientCount()
	}

	respondSuccess(w, r, HealthStatus{
		Status:         status,
		Version:        h.version,
		UptimeSeconds:  time.Since(h.startTime).Seconds(),
		Sessions:       sessions,
		BackendCircuit: state,
	})
}

func (h *Handler) circuit() string {
	if cs, ok := h.backend.(circuitState); ok {
		return cs.State()
	}
	return ""
}
