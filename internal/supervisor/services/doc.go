// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

/*
Package services provides suture.Service wrappers for Mapforge components.

Each wrapper translates a component lifecycle into suture's context-aware
Serve pattern:

	type Service interface {
	    Serve(ctx context.Context) error
	}

HTTPServerService wraps *http.Server. It runs ListenAndServe in a goroutine
and calls Shutdown with a bounded timeout when the context is canceled.

WebSocketHubService wraps websocket.Hub, whose RunWithContext already follows
the Serve contract. On shutdown the hub closes every session and sends each
client a normal-closure frame.

# Error Handling

Return values determine supervisor behavior:

	nil         -> service stopped cleanly, will not restart
	error       -> service crashed, supervisor will restart
	ctx.Err()   -> shutdown requested, normal termination

All services implement fmt.Stringer; suture uses the name in its log events.
*/
package services
