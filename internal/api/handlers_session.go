// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/mapforge/internal/backend"
	"github.com/tomtom215/mapforge/internal/logging"
	"github.com/tomtom215/mapforge/internal/session"
	"github.com/tomtom215/mapforge/internal/validation"
	ws "github.com/tomtom215/mapforge/internal/websocket"
)

// MapSessionRequest holds the path parameters of a session request.
type MapSessionRequest struct {
	MapID int64 `json:"map_id" validate:"required,gt=0"`
}

// Sessions lists connected map sessions.
func (h *Handler) Sessions(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		respondSuccess(w, r, []ws.ConnectionInfo{})
		return
	}
	respondSuccess(w, r, h.hub.Connections())
}

// MapSession loads a map and upgrades the request into a session WebSocket.
func (h *Handler) MapSession(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil || h.backend == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeUnavailable, "Session service unavailable", nil)
		return
	}

	req, apiErr := parseMapSessionRequest(r)
	if apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr.ToAPIError())
		return
	}

	if !h.checkWebSocketOrigin(r) {
		respondError(w, r, http.StatusForbidden, ErrCodeForbidden, "Origin not allowed", nil)
		return
	}

	s := session.New(req.MapID, h.backend, h.guard, h.sessionCfg)
	if err := s.Load(r.Context()); err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, ErrCodeNotFound, fmt.Sprintf("map %d not found", req.MapID), nil)
			return
		}
		respondError(w, r, http.StatusBadGateway, ErrCodeUpstream, backend.UserMessage(err), err)
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("WebSocket upgrade error")
		return
	}

	client := ws.NewClient(h.hub, conn, s)
	if !h.hub.Register(client) {
		_ = conn.Close()
		return
	}
	logging.Ctx(r.Context()).Debug().Str("session_id", s.ID()).Int64("map_id", req.MapID).Msg("Session opened")
	client.Start()
}

func parseMapSessionRequest(r *http.Request) (MapSessionRequest, *validation.Error) {
	var req MapSessionRequest
	raw := chi.URLParam(r, "mapID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return req, &validation.Error{Fields: []validation.FieldError{{
			Field:   "map_id",
			Tag:     "numeric",
			Value:   raw,
			Message: "map_id must be an integer",
		}}}
	}
	req.MapID = id

	if err := validation.ValidateStruct(&req); err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			return req, verr
		}
		return req, &validation.Error{Fields: []validation.FieldError{{Field: "map_id", Message: err.Error()}}}
	}
	return req, nil
}

// getUpgrader creates a WebSocket upgrader with origin checking and timeouts.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin accepts non-browser clients without an Origin header
// and browser origins allowed by configuration.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if h.allowOrigin != nil && h.allowOrigin(origin) {
		return true
	}
	logging.Warn().Str("origin", origin).Msg("WebSocket connection rejected: origin not allowed")
	return false
}
