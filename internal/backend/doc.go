// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

/*
Package backend connects the engine to the map server that stores nodes,
overlay images and timeline settings.

Three implementations satisfy Backend:

  - Client: the REST client (JSON via goccy/go-json, optional x/time/rate limiter)
  - BreakerClient: wraps any Backend in a sony/gobreaker circuit breaker
  - Memory: in-process storage with failure injection for tests and replay

Production wiring:

	client := backend.NewClient(&cfg.Backend)
	svc := backend.NewBreakerClient("map-backend", client, cfg.Backend.Breaker)

Non-2xx responses become *StatusError; a 404 matches ErrNotFound with
errors.Is. While the breaker is open every call fails with ErrCircuitOpen.
No call is retried: the caller decides whether to roll back.
*/
package backend
