// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package websocket

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/mapforge/internal/logging"
	"github.com/tomtom215/mapforge/internal/metrics"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled indicates the parent context was canceled.
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline indicates the context deadline was exceeded.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// ConnectionInfo describes one connected session.
type ConnectionInfo struct {
	ClientID    uint64    `json:"client_id"`
	SessionID   string    `json:"session_id"`
	MapID       int64     `json:"map_id"`
	ConnectedAt time.Time `json:"connected_at"`
}

// Hub tracks connected session clients and closes them on shutdown.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	doneOnce   sync.Once
	mu         sync.RWMutex
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Register hands a client to the hub. It returns false once the hub has
// stopped, in which case the caller must close the connection.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) unregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// RunWithContext serves registrations until ctx is canceled, then closes
// every session. It is designed for use with suture supervision.
//
// Lifecycle events are handled before shutdown is observed again so a client
// is never left registered after the hub returns.
func (h *Hub) RunWithContext(ctx context.Context) error {
	defer h.doneOnce.Do(func() { close(h.done) })

	for {
		// Priority 1: Check for shutdown (highest priority, non-blocking)
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		// Priority 2: Lifecycle events or shutdown (blocking)
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			metrics.WSConnections.Inc()
			logging.Info().
				Uint64("client_id", client.id).
				Str("session_id", client.session.ID()).
				Int64("map_id", client.session.MapID()).
				Int("total_clients", total).
				Msg("websocket client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client]
			delete(h.clients, client)
			total := len(h.clients)
			h.mu.Unlock()
			if ok {
				metrics.WSConnections.Dec()
				logging.Info().Uint64("client_id", client.id).Int("total_clients", total).Msg("websocket client disconnected")
			}
		}
	}
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Connections lists connected sessions in connection order.
func (h *Hub) Connections() []ConnectionInfo {
	clients := h.sortedClients()
	out := make([]ConnectionInfo, 0, len(clients))
	for _, c := range clients {
		out = append(out, ConnectionInfo{
			ClientID:    c.id,
			SessionID:   c.session.ID(),
			MapID:       c.session.MapID(),
			ConnectedAt: c.connectedAt,
		})
	}
	return out
}

func (h *Hub) sortedClients() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}

// logGracefulShutdown closes every session and logs the shutdown. ctx.Err()
// is not logged as an error because cancellation is the expected path.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.closeAllClients()

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		return ShutdownReasonContextCanceled
	}
}

// closeAllClients ends every session in ID order. Each writePump then sends
// a close frame and the read side unwinds on its own.
func (h *Hub) closeAllClients() int {
	clients := h.sortedClients()
	for _, client := range clients {
		client.session.Close()
	}

	h.mu.Lock()
	for _, client := range clients {
		delete(h.clients, client)
	}
	h.mu.Unlock()
	metrics.WSConnections.Sub(float64(len(clients)))
	return len(clients)
}
