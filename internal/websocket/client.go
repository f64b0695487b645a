// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package websocket

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/mapforge/internal/logging"
	"github.com/tomtom215/mapforge/internal/metrics"
	"github.com/tomtom215/mapforge/internal/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Message types handled by the connection itself rather than the session.
const (
	MessageTypePing = "ping"
	MessageTypePong = "pong"
)

// clientIDCounter generates unique, monotonically increasing IDs for clients.
var clientIDCounter atomic.Uint64

// Client connects one websocket to one map session.
type Client struct {
	id          uint64
	hub         *Hub
	conn        *websocket.Conn
	session     *session.Session
	pong        chan struct{}
	connectedAt time.Time
}

// NewClient creates a Client for an upgraded connection and a loaded session.
func NewClient(hub *Hub, conn *websocket.Conn, s *session.Session) *Client {
	return &Client{
		id:          clientIDCounter.Add(1),
		hub:         hub,
		conn:        conn,
		session:     s,
		pong:        make(chan struct{}, 1),
		connectedAt: time.Now(),
	}
}

// ID returns the client's unique identifier.
func (c *Client) ID() uint64 {
	return c.id
}

// Session returns the session driven by this connection.
func (c *Client) Session() *session.Session {
	return c.session
}

// Start runs the session loop and both pumps.
func (c *Client) Start() {
	go func() {
		if err := c.session.Run(context.Background()); err != nil {
			logging.Error().Err(err).Str("session_id", c.session.ID()).Msg("session loop failed")
		}
	}()
	go c.writePump()
	go c.readPump()
}

// readPump forwards client messages to the session until the connection drops.
func (c *Client) readPump() {
	defer func() {
		c.session.Close()
		c.hub.unregisterClient(c)
		_ = c.conn.Close() // Explicitly ignore error - best-effort cleanup
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				metrics.WSErrors.WithLabelValues("read").Inc()
				logging.Error().Err(err).Msg("unexpected websocket close error")
			}
			return
		}

		var msg session.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			metrics.WSErrors.WithLabelValues("decode").Inc()
			logging.Debug().Err(err).Uint64("client_id", c.id).Msg("dropping undecodable websocket message")
			continue
		}

		if msg.Type == MessageTypePing {
			select {
			case c.pong <- struct{}{}:
			default:
			}
			continue
		}

		switch err := c.session.Send(msg); {
		case errors.Is(err, session.ErrClosed):
			return
		case errors.Is(err, session.ErrBacklog):
			metrics.WSErrors.WithLabelValues("backlog").Inc()
			logging.Warn().Uint64("client_id", c.id).Str("type", msg.Type).Msg("session backlog full, dropping client message")
		}
	}
}

// writePump writes session envelopes to the connection until the session ends.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // Explicitly ignore error - best-effort cleanup
	}()

	out := c.session.Outbound()
	for {
		select {
		case env, ok := <-out:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}

			if !ok {
				// The session loop exited
				if err := c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")); err != nil {
					logging.Debug().Err(err).Msg("failed to write close message")
				}
				return
			}

			if err := c.writeJSON(env); err != nil {
				metrics.WSErrors.WithLabelValues("write").Inc()
				logging.Error().Err(err).Msg("failed to write JSON message")
				return
			}
			metrics.WSMessagesSent.Inc()

		case <-c.pong:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.writeJSON(session.Envelope{Type: MessageTypePong}); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline for ping")
				return
			}

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) writeJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}
