// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the viewport engine:
// - Coordinate corruption containment
// - Gesture throughput
// - Persistence calls, rollbacks and circuit breaker state
// - Sessions and WebSocket connections
// - HTTP API requests

var (
	// Coordinate Sanity Guard
	CoordinateCorruptions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mapforge_coordinate_corruptions_total",
			Help: "Total number of world coordinates rejected or recovered by the sanity guard",
		},
		[]string{"phase"}, // "drag", "load", "commit", "create"
	)

	// Interaction
	GesturesStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mapforge_gestures_started_total",
			Help: "Total number of pointer gestures started",
		},
		[]string{"kind"}, // "pan", "node_drag", "overlay_drag", "place"
	)

	GesturesPreempted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mapforge_gestures_preempted_total",
			Help: "Total number of gestures resolved by a new pointer-down before pointer-up",
		},
	)

	// Persistence
	PersistenceRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mapforge_persistence_requests_total",
			Help: "Total number of persistence calls issued by the mutation pipeline",
		},
		[]string{"operation", "result"}, // result: "success", "failure", "aborted"
	)

	PersistenceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mapforge_persistence_duration_seconds",
			Help:    "Duration of persistence calls in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	PersistenceCoalesced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mapforge_persistence_coalesced_total",
			Help: "Total number of pending saves replaced by a newer save for the same entity",
		},
		[]string{"operation"},
	)

	Rollbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mapforge_rollbacks_total",
			Help: "Total number of optimistic local updates rolled back after a failed save",
		},
		[]string{"entity"}, // "node", "overlay"
	)

	TimelineSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mapforge_timeline_saves_total",
			Help: "Total number of debounced timeline current-time saves",
		},
		[]string{"result"},
	)

	// Sessions
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mapforge_active_sessions",
			Help: "Current number of open map-view sessions",
		},
	)

	SessionEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mapforge_session_events_total",
			Help: "Total number of client events processed by session loops",
		},
		[]string{"type"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSMessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_dropped_total",
			Help: "Total number of outbound messages dropped because the client buffer was full",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// API Request Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of API requests currently being processed",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordPersistence records the outcome and latency of one persistence call.
func RecordPersistence(operation string, duration time.Duration, err error) {
	PersistenceDuration.WithLabelValues(operation).Observe(duration.Seconds())
	result := "success"
	if err != nil {
		result = "failure"
	}
	PersistenceRequests.WithLabelValues(operation, result).Inc()
}

// RecordAbortedSave records a save the sanity guard refused to send.
func RecordAbortedSave(operation string) {
	PersistenceRequests.WithLabelValues(operation, "aborted").Inc()
}

// TrackSession adjusts the open-session gauge.
func TrackSession(open bool) {
	if open {
		ActiveSessions.Inc()
	} else {
		ActiveSessions.Dec()
	}
}

// RecordAPIRequest records one finished HTTP request.
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(start bool) {
	if start {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
