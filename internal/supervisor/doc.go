// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

/*
Package supervisor provides process supervision for Mapforge using suture v4.

The tree separates the long-running services into two layers:

	RootSupervisor ("mapforge")
	├── SessionSupervisor ("session-layer")
	│   └── WebSocketHubService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A crashed service is restarted with exponential backoff. Each layer counts
failures independently, so a restart storm in the hub does not take the HTTP
listener down with it.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddSessionService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	return tree.Serve(ctx)

# Logging

Supervisor events (service start, failure, backoff, restart) are emitted
through sutureslog into the slog bridge of the logging package, so they land
in the same zerolog stream as the rest of the process.
*/
package supervisor
