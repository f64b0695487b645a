// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

/*
Package websocket carries map sessions over WebSocket connections.

Each connection drives exactly one session.Session. The Client runs three
goroutines:

  - the session event loop
  - readPump: decodes client messages and hands them to the session
  - writePump: writes session frames and notices, plus keepalive pings

The Hub tracks connected clients for observability and closes every
session when its context is canceled. Closing a session closes its outbound
channel; writePump then sends a normal close frame and both pumps unwind.

Wire format:

Client to server messages are session.ClientMessage JSON objects:

	{"type": "pointer_down", "x": 412, "y": 300}
	{"type": "wheel", "x": 400, "y": 300, "delta_y": -120, "ctrl": true}
	{"type": "set_timeline", "time": 1250}

Server to client messages are session.Envelope JSON objects with type
"frame", "notice", "error" or "pong". A {"type": "ping"} from the client is
answered with a pong by the connection and never reaches the session.

Thread Safety:

Hub methods are safe for concurrent use. RunWithContext must be running
for Register to succeed.
*/
package websocket
