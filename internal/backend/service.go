// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/tomtom215/mapforge/internal/models"
)

var (
	// ErrNotFound is matched by StatusError for HTTP 404 and returned by the
	// in-memory backend for unknown ids.
	ErrNotFound = errors.New("not found")

	// ErrCircuitOpen is returned while the circuit breaker rejects requests.
	ErrCircuitOpen = errors.New("map backend circuit open")
)

// EventService stores map nodes ("events" on the backend).
type EventService interface {
	ListEvents(ctx context.Context, mapID int64) ([]models.EventRecord, error)
	CreateEvent(ctx context.Context, draft models.NodeDraft) (models.EventRecord, error)
	UpdateEvent(ctx context.Context, eventID int64, update models.NodeUpdate) error
}

// OverlayService stores the timeline image aligned over a map.
type OverlayService interface {
	GetOverlay(ctx context.Context, mapID int64) (models.OverlayRecord, error)
	UpdateOverlay(ctx context.Context, imageID int64, update models.OverlayUpdate) error
}

// TimelineService stores per-map timeline settings.
type TimelineService interface {
	GetTimeline(ctx context.Context, mapID int64) (models.TimelineSettings, error)
	SaveCurrentTime(ctx context.Context, mapID, current int64) error
}

// Backend is the full set of map services a session needs.
type Backend interface {
	EventService
	OverlayService
	TimelineService
}

// StatusError is returned for non-2xx responses. Message is the backend's
// error text and is safe to show to users.
type StatusError struct {
	Op      string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: HTTP %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.Code, e.Message)
}

// Is matches ErrNotFound for 404 responses.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == http.StatusNotFound
}

// UserMessage extracts a short message suitable for a notice.
func UserMessage(err error) string {
	var se *StatusError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &se) && se.Message != "":
		return se.Message
	case errors.Is(err, ErrCircuitOpen):
		return "map server unavailable, try again shortly"
	case errors.Is(err, context.DeadlineExceeded):
		return "map server timed out"
	default:
		return err.Error()
	}
}
