// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package session

import (
	"github.com/goccy/go-json"

	"github.com/tomtom215/mapforge/internal/interaction"
	"github.com/tomtom215/mapforge/internal/models"
	"github.com/tomtom215/mapforge/internal/timeline"
	"github.com/tomtom215/mapforge/internal/viewport"
)

// Frame is the full render state sent after every change.
type Frame struct {
	Camera   viewport.Camera `json:"camera"`
	Viewport viewport.Size   `json:"viewport"`
	Ready    bool            `json:"ready"`
	Nodes    []FrameNode     `json:"nodes"`
	Overlay  *FrameOverlay   `json:"overlay,omitempty"`

	Gesture        string `json:"gesture"`
	DraggingNodeID int64  `json:"dragging_node_id,omitempty"`

	Mode       string          `json:"mode"`
	AddingNode bool            `json:"adding_node"`
	Aligning   bool            `json:"aligning"`
	Timeline   timeline.Window `json:"timeline"`
}

// FrameNode is one node that passes the timeline filter. Screen is the
// projected center; Width and Height are in screen pixels. OnScreen is false
// when the node lies entirely outside the viewport, so renderers can skip it.
type FrameNode struct {
	ID       int64           `json:"id"`
	Kind     string          `json:"kind"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
	World    viewport.Point  `json:"world"`
	Screen   viewport.Point  `json:"screen"`
	Width    float64         `json:"width"`
	Height   float64         `json:"height"`
	OnScreen bool            `json:"on_screen"`
}

// FrameOverlay is the overlay image while alignment mode is active.
type FrameOverlay struct {
	ID        int64          `json:"id"`
	GridX     float64        `json:"grid_x"`
	GridY     float64        `json:"grid_y"`
	Scale     float64        `json:"scale"`
	ScreenMin viewport.Point `json:"screen_min"`
	ScreenMax viewport.Point `json:"screen_max"`
}

func (s *Session) buildFrame() Frame {
	m := s.machine
	cam := m.Camera()
	size := m.Size()
	g := m.Gesture()

	f := Frame{
		Camera:     cam,
		Viewport:   size,
		Ready:      size.Ready(),
		Gesture:    g.Kind.String(),
		Mode:       m.Mode().String(),
		AddingNode: m.AddingNode(),
		Aligning:   m.Aligning(),
		Timeline:   m.Timeline(),
	}
	if g.Kind == interaction.GestureDraggingNode {
		f.DraggingNodeID = g.NodeID
	}

	visible := m.VisibleNodes()
	view := newViewRect(cam, size)
	f.Nodes = make([]FrameNode, 0, len(visible))
	for i := range visible {
		fn := frameNode(&visible[i], cam.Zoom, m.Project(visible[i].Position))
		fn.OnScreen = view.overlaps(&visible[i])
		f.Nodes = append(f.Nodes, fn)
	}

	if o, ok := m.Overlay(); ok {
		minPt, maxPt, _ := m.OverlayScreenRect()
		f.Overlay = &FrameOverlay{
			ID:        o.ID,
			GridX:     o.GridX,
			GridY:     o.GridY,
			Scale:     o.Scale,
			ScreenMin: minPt,
			ScreenMax: maxPt,
		}
	}
	return f
}

func frameNode(n *models.Node, zoom float64, screen viewport.Point) FrameNode {
	fn := FrameNode{
		ID:     n.ID,
		World:  n.Position,
		Screen: screen,
		Width:  n.Width * zoom,
		Height: n.Height * zoom,
	}
	if n.Kind != nil {
		if name, meta, err := models.EncodeKind(n.Kind); err == nil {
			fn.Kind = name
			fn.Metadata = meta
		}
	}
	return fn
}

// viewRect is the world area shown on screen. It is empty before layout.
type viewRect struct {
	min, max viewport.Point
	ready    bool
}

func newViewRect(cam viewport.Camera, size viewport.Size) viewRect {
	minPt, maxPt := viewport.VisibleWorldRect(cam, size)
	return viewRect{min: minPt, max: maxPt, ready: size.Ready()}
}

// overlaps reports whether any part of the node box centered on its
// position is inside the view.
func (v viewRect) overlaps(n *models.Node) bool {
	if !v.ready {
		return false
	}
	hw, hh := n.Width/2, n.Height/2
	return n.Position.X+hw >= v.min.X && n.Position.X-hw <= v.max.X &&
		n.Position.Y+hh >= v.min.Y && n.Position.Y-hh <= v.max.Y
}
