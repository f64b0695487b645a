// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

/*
Command mapforge runs the campaign-map session server and its replay tool.

	mapforge serve                 # supervised HTTP + WebSocket server
	mapforge replay drag.toml      # headless gesture script
	mapforge replay drag.toml --json

Both commands read the same configuration (see internal/config): --config,
then $CONFIG_PATH, then config.yaml or /etc/mapforge/config.yaml, with
environment variables on top.

serve builds the REST client for the map backend behind a circuit breaker,
the session hub and the chi router, and runs the hub and the HTTP server in
separate layers of a suture supervisor tree until SIGINT or SIGTERM.
*/
package main
