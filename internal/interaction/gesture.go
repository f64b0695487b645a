// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package interaction

import (
	"github.com/tomtom215/mapforge/internal/models"
	"github.com/tomtom215/mapforge/internal/viewport"
)

// GestureKind identifies the active drag gesture.
type GestureKind int

const (
	GestureNone GestureKind = iota
	GesturePanning
	GestureDraggingNode
	GestureDraggingOverlay
)

func (k GestureKind) String() string {
	switch k {
	case GestureNone:
		return "none"
	case GesturePanning:
		return "pan"
	case GestureDraggingNode:
		return "node_drag"
	case GestureDraggingOverlay:
		return "overlay_drag"
	default:
		return "unknown"
	}
}

// Gesture is the state captured at pointer-down. Only the fields of the
// active kind are meaningful.
type Gesture struct {
	Kind GestureKind

	// StartMouse is the screen point move deltas are measured from. It is the
	// pointer-down point until a zoom re-anchors the gesture at the pointer.
	StartMouse viewport.Point

	// Panning
	StartCamera viewport.Point

	// DraggingNode. StartNode is the position at pointer-down and the rollback
	// target; AnchorNode pairs with StartMouse.
	NodeID     int64
	StartNode  viewport.Point
	AnchorNode viewport.Point
	LastGood   viewport.Point

	// DraggingOverlay. StartOverlay is the placement at pointer-down;
	// AnchorOverlay pairs with StartMouse.
	OverlayID     int64
	StartOverlay  models.OverlayUpdate
	AnchorOverlay models.OverlayUpdate
}

// Active reports whether a gesture is in progress.
func (g Gesture) Active() bool {
	return g.Kind != GestureNone
}

// Mode is the interaction mode of the session.
type Mode int

const (
	ModeView Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "view"
}

// ParseMode converts "view" or "edit". Anything else is view.
func ParseMode(s string) Mode {
	if s == "edit" {
		return ModeEdit
	}
	return ModeView
}

// Modifiers are the keyboard modifiers held during a pointer or wheel event.
type Modifiers struct {
	Ctrl  bool `json:"ctrl"`
	Shift bool `json:"shift"`
	Alt   bool `json:"alt"`
	Meta  bool `json:"meta"`
}

// Any reports whether any modifier is held.
func (m Modifiers) Any() bool {
	return m.Ctrl || m.Shift || m.Alt || m.Meta
}

// KeyEscape is the key name that cancels node placement and alignment.
const KeyEscape = "Escape"
