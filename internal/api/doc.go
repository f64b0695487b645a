// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

/*
Package api provides the HTTP surface of the map viewport service.

Routes:

	GET /api/v1/health/live           liveness probe
	GET /api/v1/health/ready          readiness; 503 while the backend circuit is open
	GET /api/v1/health                combined status
	GET /api/v1/sessions              connected map sessions
	GET /api/v1/maps/{mapID}/session  WebSocket upgrade into a map session
	GET /metrics                      Prometheus exposition

Opening a session loads the map before the upgrade, so a missing map answers
404 and an unavailable backend answers 502 as ordinary JSON responses. After
the upgrade the connection speaks the protocol documented in package
websocket.

JSON responses use models.APIResponse:

	{"status": "success", "data": {...}, "metadata": {"timestamp": "...", "request_id": "..."}}

Middleware Stack:

  - middleware.RequestID: X-Request-ID and logging context
  - chi Recoverer and RealIP
  - go-chi/cors with configured origins
  - go-chi/httprate per client IP (health endpoints have their own limit)
  - middleware.PrometheusMetrics
*/
package api
