// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package api

import (
	"time"

	"github.com/tomtom215/mapforge/internal/backend"
	"github.com/tomtom215/mapforge/internal/guard"
	"github.com/tomtom215/mapforge/internal/session"
	ws "github.com/tomtom215/mapforge/internal/websocket"
)

// HandlerConfig wires a Handler to its collaborators.
type HandlerConfig struct {
	Backend backend.Backend
	Hub     *ws.Hub
	Guard   *guard.Guard
	Session session.Config
	Version string

	// AllowOrigin decides WebSocket origins. Nil rejects every browser origin.
	AllowOrigin func(origin string) bool
}

// Handler serves the HTTP endpoints.
type Handler struct {
	backend     backend.Backend
	hub         *ws.Hub
	guard       *guard.Guard
	sessionCfg  session.Config
	version     string
	allowOrigin func(string) bool
	startTime   time.Time
}

// NewHandler creates a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Guard == nil {
		cfg.Guard = guard.New(guard.DefaultConfig())
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	return &Handler{
		backend:     cfg.Backend,
		hub:         cfg.Hub,
		guard:       cfg.Guard,
		sessionCfg:  cfg.Session,
		version:     cfg.Version,
		allowOrigin: cfg.AllowOrigin,
		startTime:   time.Now(),
	}
}
