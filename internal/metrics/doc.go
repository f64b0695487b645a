// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

/*
Package metrics provides Prometheus metrics for the Mapforge engine.

Metrics are registered with the default registry through promauto and exposed
at /metrics by the api package:

	curl http://localhost:3858/metrics

# Available Metrics

Guard:
  - mapforge_coordinate_corruptions_total{phase}: drag, load, commit, create

Interaction:
  - mapforge_gestures_started_total{kind}: pan, node_drag, overlay_drag, place
  - mapforge_gestures_preempted_total

Persistence:
  - mapforge_persistence_requests_total{operation,result}
  - mapforge_persistence_duration_seconds{operation}
  - mapforge_persistence_coalesced_total{operation}
  - mapforge_rollbacks_total{entity}
  - mapforge_timeline_saves_total{result}
  - circuit_breaker_state{name}, circuit_breaker_requests_total, circuit_breaker_state_transitions_total

Sessions:
  - mapforge_active_sessions, mapforge_session_events_total{type}
  - websocket_connections, websocket_messages_sent_total,
    websocket_messages_dropped_total, websocket_errors_total{error_type}
*/
package metrics
