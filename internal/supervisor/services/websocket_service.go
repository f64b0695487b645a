// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package services

import (
	"context"

	"github.com/tomtom215/mapforge/internal/logging"
)

// ContextHub is satisfied by *websocket.Hub. The interface keeps this package
// free of a websocket import.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
	GetClientCount() int
}

// WebSocketHubService runs the session hub under supervision.
type WebSocketHubService struct {
	hub  ContextHub
	name string
}

// NewWebSocketHubService wraps hub.
func NewWebSocketHubService(hub ContextHub) *WebSocketHubService {
	return &WebSocketHubService{
		hub:  hub,
		name: "websocket-hub",
	}
}

// Serve implements suture.Service by delegating to RunWithContext. The hub
// closes every session before returning ctx.Err().
func (w *WebSocketHubService) Serve(ctx context.Context) error {
	err := w.hub.RunWithContext(ctx)
	if ctx.Err() == nil && err != nil {
		logging.Error().Err(err).Str("service", w.name).
			Int("clients", w.hub.GetClientCount()).
			Msg("Session hub exited unexpectedly")
	}
	return err
}

// String implements fmt.Stringer; suture names the service with it.
func (w *WebSocketHubService) String() string {
	return w.name
}
