// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package models

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/mapforge/internal/viewport"
)

// Default node dimensions in world pixels.
const (
	DefaultNodeWidth  = 32
	DefaultNodeHeight = 32
)

// TimeWindow bounds when a node is visible on the timeline. Both ends are inclusive.
type TimeWindow struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Contains reports whether t lies within the window.
func (w TimeWindow) Contains(t int64) bool {
	return w.Start <= t && t <= w.End
}

// Node is a placed map element in world pixel coordinates.
type Node struct {
	ID       int64
	MapID    int64
	Position viewport.Point
	Width    float64
	Height   float64
	Kind     Kind
	Window   *TimeWindow
}

// Clone returns a copy that shares no pointers with n.
func (n Node) Clone() Node {
	if n.Window != nil {
		w := *n.Window
		n.Window = &w
	}
	return n
}

// LegacyFrame is the world size that legacy percentage coordinates refer to.
type LegacyFrame struct {
	Width  float64
	Height float64
}

// DefaultLegacyFrame maps 100% to 1000 world pixels on both axes.
var DefaultLegacyFrame = LegacyFrame{Width: 1000, Height: 1000}

// EventRecord is a node as stored by the map backend's event service.
//
// Older records only carry X and Y as percentages of the map; newer ones
// carry absolute XPixel and YPixel. VisibleFrom and VisibleTo must be set
// together to form a window.
type EventRecord struct {
	ID          int64           `json:"id"`
	MapID       int64           `json:"map_id"`
	Title       string          `json:"title,omitempty"`
	XPixel      *float64        `json:"x_pixel,omitempty"`
	YPixel      *float64        `json:"y_pixel,omitempty"`
	X           *float64        `json:"x,omitempty"`
	Y           *float64        `json:"y,omitempty"`
	Width       float64         `json:"width,omitempty"`
	Height      float64         `json:"height,omitempty"`
	NodeType    string          `json:"node_type"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	VisibleFrom *int64          `json:"visible_from,omitempty"`
	VisibleTo   *int64          `json:"visible_to,omitempty"`
}

// ErrNoPosition is returned for records with neither pixel nor legacy coordinates.
var ErrNoPosition = errors.New("event record has no position")

// WorldPosition returns the record position in world pixels, converting
// legacy percentages through frame when pixel fields are absent.
func (r *EventRecord) WorldPosition(frame LegacyFrame) (viewport.Point, error) {
	if r.XPixel != nil && r.YPixel != nil {
		return viewport.Point{X: *r.XPixel, Y: *r.YPixel}, nil
	}
	if r.X != nil && r.Y != nil {
		return viewport.Point{
			X: *r.X / 100 * frame.Width,
			Y: *r.Y / 100 * frame.Height,
		}, nil
	}
	return viewport.Point{}, fmt.Errorf("event %d: %w", r.ID, ErrNoPosition)
}

// DecodeNode converts a wire record into a Node. An unrecognized node_type
// decodes as Info and is reported through the returned ErrUnknownKind so the
// caller can log it; the node is still usable.
func DecodeNode(r *EventRecord, frame LegacyFrame) (Node, error) {
	pos, err := r.WorldPosition(frame)
	if err != nil {
		return Node{}, err
	}

	node := Node{
		ID:       r.ID,
		MapID:    r.MapID,
		Position: pos,
		Width:    r.Width,
		Height:   r.Height,
	}
	if node.Width <= 0 {
		node.Width = DefaultNodeWidth
	}
	if node.Height <= 0 {
		node.Height = DefaultNodeHeight
	}
	if r.VisibleFrom != nil && r.VisibleTo != nil {
		node.Window = &TimeWindow{Start: *r.VisibleFrom, End: *r.VisibleTo}
	}

	kind, kindErr := DecodeKind(r.NodeType, r.Metadata)
	switch {
	case errors.Is(kindErr, ErrUnknownKind):
		node.Kind = Info{Title: r.Title}
		return node, kindErr
	case kindErr != nil:
		return Node{}, fmt.Errorf("event %d: %w", r.ID, kindErr)
	}
	if info, ok := kind.(Info); ok && info.Title == "" {
		kind = Info{Title: r.Title}
	}
	node.Kind = kind
	return node, nil
}

// NodeUpdate is the body of a position update. Positions are whole pixels.
type NodeUpdate struct {
	XPixel int `json:"x_pixel"`
	YPixel int `json:"y_pixel"`
}

// NewNodeUpdate rounds a world position to whole pixels.
func NewNodeUpdate(p viewport.Point) NodeUpdate {
	r := p.Round()
	return NodeUpdate{XPixel: int(r.X), YPixel: int(r.Y)}
}

// Point returns the update as a world point.
func (u NodeUpdate) Point() viewport.Point {
	return viewport.Point{X: float64(u.XPixel), Y: float64(u.YPixel)}
}

// NodeDraft is the body of a node creation request.
type NodeDraft struct {
	MapID    int64           `json:"map_id" validate:"required,gt=0"`
	Title    string          `json:"title" validate:"max=200"`
	XPixel   int             `json:"x_pixel"`
	YPixel   int             `json:"y_pixel"`
	Width    float64         `json:"width" validate:"gt=0"`
	Height   float64         `json:"height" validate:"gt=0"`
	NodeType string          `json:"node_type" validate:"required,oneof=info npc item map_link background_map"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// NewDraft builds the default draft for a click at world position p: an
// untitled Info node of the default size.
func NewDraft(mapID int64, p viewport.Point) NodeDraft {
	u := NewNodeUpdate(p)
	return NodeDraft{
		MapID:    mapID,
		XPixel:   u.XPixel,
		YPixel:   u.YPixel,
		Width:    DefaultNodeWidth,
		Height:   DefaultNodeHeight,
		NodeType: string(KindInfo),
	}
}
