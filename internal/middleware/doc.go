// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

/*
Package middleware provides HTTP middleware shared by the API router.

Key Components:

  - RequestID: accepts or generates X-Request-ID and seeds the logging context
  - PrometheusMetrics: request count, latency and in-flight gauge per chi route

Both are chi-compatible (func(http.Handler) http.Handler):

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)

Routes are labeled by their chi pattern ("/api/v1/maps/{mapID}/session"),
not the raw path, so map ids do not explode metric cardinality.

The metrics response writer forwards http.Hijacker so WebSocket upgrades
work behind it.
*/
package middleware
