// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package interaction

import (
	"github.com/tomtom215/mapforge/internal/guard"
	"github.com/tomtom215/mapforge/internal/logging"
	"github.com/tomtom215/mapforge/internal/metrics"
	"github.com/tomtom215/mapforge/internal/models"
	"github.com/tomtom215/mapforge/internal/scene"
	"github.com/tomtom215/mapforge/internal/timeline"
	"github.com/tomtom215/mapforge/internal/viewport"
)

// Committer receives the results of finished gestures. Calls are made on the
// goroutine driving the Machine and must not block.
type Committer interface {
	// CommitNodePosition persists a dragged node. from is the position at
	// pointer-down and is restored if the save fails.
	CommitNodePosition(nodeID int64, from, to viewport.Point)

	// CommitOverlay persists the overlay placement. restore is the placement
	// captured when alignment mode was entered.
	CommitOverlay(overlay models.OverlayImage, restore models.OverlayUpdate)

	// CreateNode places a new node at a world position.
	CreateNode(world viewport.Point)
}

// Machine is the interaction state of one map view: camera, viewport size,
// nodes, the single active gesture and the mode flags.
//
// Machine is not safe for concurrent use. A session drives it from its event
// loop and every method returns whether visible state changed.
type Machine struct {
	cfg    Config
	camera *viewport.CameraModel
	size   viewport.Size
	nodes  *scene.NodeSet
	guard  *guard.Guard
	commit Committer

	mode      Mode
	adding    bool
	alignment bool
	overlay   *models.OverlayImage
	restore   models.OverlayUpdate
	timeline  timeline.Window
	gesture   Gesture
	lastMouse viewport.Point

	// exitPending defers leaving alignment until the overlay drag ends.
	exitPending bool
}

// NewMachine creates an idle machine in view mode with no nodes. A nil guard
// uses the default threshold.
func NewMachine(cfg Config, g *guard.Guard, commit Committer) *Machine {
	cfg = cfg.withDefaults()
	if g == nil {
		g = guard.New(guard.DefaultConfig())
	}
	return &Machine{
		cfg:    cfg,
		camera: viewport.NewCameraModel(cfg.Home, cfg.Limits),
		nodes:  scene.NewNodeSet(cfg.CellSize),
		guard:  g,
		commit: commit,
	}
}

// Nodes returns the node set. Callers on the loop goroutine may mutate it.
func (m *Machine) Nodes() *scene.NodeSet { return m.nodes }

// Camera returns the current camera.
func (m *Machine) Camera() viewport.Camera { return m.camera.Camera() }

// Size returns the last reported viewport size.
func (m *Machine) Size() viewport.Size { return m.size }

// Gesture returns the active gesture.
func (m *Machine) Gesture() Gesture { return m.gesture }

// Mode returns the interaction mode.
func (m *Machine) Mode() Mode { return m.mode }

// AddingNode reports whether the next click places a node.
func (m *Machine) AddingNode() bool { return m.adding }

// Aligning reports whether overlay alignment mode is active.
func (m *Machine) Aligning() bool { return m.alignment }

// Timeline returns the scrubber state.
func (m *Machine) Timeline() timeline.Window { return m.timeline }

// Config returns the effective configuration.
func (m *Machine) Config() Config { return m.cfg }

// Overlay returns the overlay image while alignment mode is active.
func (m *Machine) Overlay() (models.OverlayImage, bool) {
	if !m.alignment || m.overlay == nil {
		return models.OverlayImage{}, false
	}
	return *m.overlay, true
}

// Project returns the screen position of a world point, or the configured
// fallback before layout.
func (m *Machine) Project(world viewport.Point) viewport.Point {
	return viewport.WorldToScreenOr(world, m.camera.Camera(), m.size, m.cfg.Fallback)
}

// VisibleNodes returns the nodes that pass the timeline filter, in list order.
func (m *Machine) VisibleNodes() []models.Node {
	return timeline.VisibleNodes(m.nodes.All(), m.timeline.Enabled, m.timeline.Current)
}

// Resize records the hosting surface size.
func (m *Machine) Resize(size viewport.Size) bool {
	if size == m.size {
		return false
	}
	m.size = size
	return true
}

// PointerDown starts a gesture or places a node. A gesture still active from
// a missed pointer-up is finished first as if it had been released.
func (m *Machine) PointerDown(p viewport.Point) bool {
	if !p.IsFinite() {
		return false
	}
	if m.gesture.Active() {
		metrics.GesturesPreempted.Inc()
		logging.Debug().Str("gesture", m.gesture.Kind.String()).Msg("Resolving lingering gesture")
		m.finish()
	}
	m.lastMouse = p

	if m.adding {
		return m.place(p)
	}

	if m.alignment && m.hitOverlay(p) {
		m.gesture = Gesture{
			Kind:          GestureDraggingOverlay,
			StartMouse:    p,
			OverlayID:     m.overlay.ID,
			StartOverlay:  m.overlay.Placement(),
			AnchorOverlay: m.overlay.Placement(),
		}
	} else if id, pos, ok := m.hitNode(p); ok {
		m.gesture = Gesture{
			Kind:       GestureDraggingNode,
			StartMouse: p,
			NodeID:     id,
			StartNode:  pos,
			AnchorNode: pos,
			LastGood:   pos,
		}
	} else {
		m.gesture = Gesture{
			Kind:        GesturePanning,
			StartMouse:  p,
			StartCamera: m.camera.Camera().Position(),
		}
	}

	metrics.GesturesStarted.WithLabelValues(m.gesture.Kind.String()).Inc()
	return true
}

// PointerMove updates the active gesture.
func (m *Machine) PointerMove(p viewport.Point) bool {
	if !p.IsFinite() {
		return false
	}
	m.lastMouse = p

	delta := p.Sub(m.gesture.StartMouse)
	switch m.gesture.Kind {
	case GesturePanning:
		before := m.camera.Camera()
		m.camera.PanFrom(m.gesture.StartCamera, delta.X, delta.Y)
		return m.camera.Camera() != before

	case GestureDraggingNode:
		target := m.gesture.AnchorNode.Add(viewport.ScreenDeltaToWorld(delta, m.camera.Camera().Zoom))
		next, ok := m.guard.Drag(target, m.gesture.LastGood)
		if !ok {
			return false
		}
		m.gesture.LastGood = next
		return m.nodes.SetPosition(m.gesture.NodeID, next)

	case GestureDraggingOverlay:
		if !m.alignment || m.overlay == nil {
			return false
		}
		world := viewport.ScreenDeltaToWorld(delta, m.camera.Camera().Zoom)
		placement := m.gesture.AnchorOverlay
		placement.PositionX += world.X / m.cfg.GridUnitPixels
		placement.PositionY += world.Y / m.cfg.GridUnitPixels
		*m.overlay = m.overlay.WithPlacement(placement)
		return true
	}
	return false
}

// PointerUp applies the final pointer position and finishes the gesture.
func (m *Machine) PointerUp(p viewport.Point) bool {
	if !m.gesture.Active() {
		return false
	}
	m.PointerMove(p)
	m.finish()
	return true
}

func (m *Machine) finish() {
	g := m.gesture
	m.gesture = Gesture{}

	switch g.Kind {
	case GestureDraggingNode:
		current, ok := m.nodes.Position(g.NodeID)
		if !ok {
			return
		}
		final := current.Round()
		m.nodes.SetPosition(g.NodeID, final)
		if final != g.StartNode && m.commit != nil {
			m.commit.CommitNodePosition(g.NodeID, g.StartNode, final)
		}

	case GestureDraggingOverlay:
		if m.alignment && m.overlay != nil && m.overlay.ID == g.OverlayID &&
			m.overlay.Placement() != g.StartOverlay && m.commit != nil {
			m.commit.CommitOverlay(*m.overlay, m.restore)
		}
		if m.exitPending {
			m.exitPending = false
			m.alignment = false
		}
	}
}

// Wheel zooms the camera at p or, with a modifier held during alignment,
// scales the overlay and saves it.
func (m *Machine) Wheel(p viewport.Point, deltaY float64, mods Modifiers) bool {
	if deltaY == 0 || !p.IsFinite() {
		return false
	}

	if mods.Any() && m.alignment && m.overlay != nil {
		factor := m.cfg.Limits.ZoomInFactor
		if deltaY > 0 {
			factor = m.cfg.Limits.ZoomOutFactor
		}
		placement := m.overlay.Placement()
		placement.Scale = m.cfg.clampOverlayScale(placement.Scale * factor)
		if placement == m.overlay.Placement() {
			return false
		}
		*m.overlay = m.overlay.WithPlacement(placement)
		if m.gesture.Kind == GestureDraggingOverlay {
			m.gesture.AnchorOverlay.Scale = placement.Scale
		} else if m.commit != nil {
			m.commit.CommitOverlay(*m.overlay, m.restore)
		}
		return true
	}

	before := m.camera.Camera()
	m.camera.Wheel(p, deltaY, m.size)
	m.reanchor()
	return m.camera.Camera() != before
}

// reanchor restarts the active gesture from the current pointer so a camera
// change in the middle of a drag does not make the camera or the dragged
// object jump on the next move.
func (m *Machine) reanchor() {
	switch m.gesture.Kind {
	case GesturePanning:
		m.gesture.StartCamera = m.camera.Camera().Position()
	case GestureDraggingNode:
		m.gesture.AnchorNode = m.gesture.LastGood
	case GestureDraggingOverlay:
		if m.overlay == nil {
			return
		}
		m.gesture.AnchorOverlay = m.overlay.Placement()
	default:
		return
	}
	m.gesture.StartMouse = m.lastMouse
}

// Key handles a key press. Escape cancels node placement and leaves
// alignment mode; it does not abort a drag.
func (m *Machine) Key(key string) bool {
	if key != KeyEscape {
		return false
	}
	changed := m.adding || m.alignment
	m.adding = false
	m.ExitAlignment()
	return changed
}

// SetMode switches between view and edit. Leaving edit cancels node placement.
func (m *Machine) SetMode(mode Mode) bool {
	if mode == m.mode {
		return false
	}
	m.mode = mode
	if mode != ModeEdit {
		m.adding = false
	}
	return true
}

// SetAddingNode arms or disarms node placement. It can only be armed in edit mode.
func (m *Machine) SetAddingNode(on bool) bool {
	if on && m.mode != ModeEdit {
		return false
	}
	if on == m.adding {
		return false
	}
	m.adding = on
	return true
}

// SetOverlayImage stores the overlay image used by alignment mode. An image
// without a natural size gets Config.OverlaySize so it can still be grabbed.
func (m *Machine) SetOverlayImage(o models.OverlayImage) {
	o.Scale = m.cfg.clampOverlayScale(o.Scale)
	if o.PixelWidth <= 0 || o.PixelHeight <= 0 {
		logging.Warn().
			Int64("overlay_id", o.ID).
			Float64("width", m.cfg.OverlaySize.Width).
			Float64("height", m.cfg.OverlaySize.Height).
			Msg("Overlay image has no size, using default")
		o.PixelWidth, o.PixelHeight = m.cfg.OverlaySize.Width, m.cfg.OverlaySize.Height
	}
	if m.overlay != nil && m.alignment && m.overlay.ID == o.ID {
		*m.overlay = o
		return
	}
	m.overlay = &o
}

// HasOverlayImage reports whether an overlay image is available for alignment.
func (m *Machine) HasOverlayImage() bool {
	return m.overlay != nil
}

// EnterAlignment activates alignment mode on the stored overlay image and
// captures its placement as the restore point for failed saves. Entering
// while an exit is still waiting on an overlay drag cancels the exit.
func (m *Machine) EnterAlignment() bool {
	if m.exitPending {
		m.exitPending = false
		return true
	}
	if m.overlay == nil || m.alignment {
		return false
	}
	m.alignment = true
	m.restore = m.overlay.Placement()
	return true
}

// ExitAlignment leaves alignment mode. During an overlay drag the exit waits
// for pointer-up so the drag is saved first.
func (m *Machine) ExitAlignment() bool {
	if !m.alignment || m.exitPending {
		return false
	}
	if m.gesture.Kind == GestureDraggingOverlay {
		m.exitPending = true
		return true
	}
	m.alignment = false
	return true
}

// OverlayPlacement returns the current placement of overlay id.
func (m *Machine) OverlayPlacement(id int64) (models.OverlayUpdate, bool) {
	if m.overlay == nil || m.overlay.ID != id {
		return models.OverlayUpdate{}, false
	}
	return m.overlay.Placement(), true
}

// RestoreOverlay moves overlay id back to placement.
func (m *Machine) RestoreOverlay(id int64, placement models.OverlayUpdate) bool {
	if m.overlay == nil || m.overlay.ID != id {
		return false
	}
	*m.overlay = m.overlay.WithPlacement(placement)
	return true
}

// SetTimelineWindow replaces the scrubber state.
func (m *Machine) SetTimelineWindow(w timeline.Window) {
	m.timeline = w
}

// SetTimeline moves the scrubber. It reports whether the current time changed.
func (m *Machine) SetTimeline(t int64) bool {
	return m.timeline.Set(t)
}

// SetTimelineEnabled turns the timeline filter on or off.
func (m *Machine) SetTimelineEnabled(on bool) bool {
	if m.timeline.Enabled == on {
		return false
	}
	m.timeline.Enabled = on
	return true
}

// FocusNode centers the camera on node id.
func (m *Machine) FocusNode(id int64) bool {
	p, ok := m.nodes.Position(id)
	if !ok {
		return false
	}
	m.camera.CenterOn(p)
	return true
}

// ResetCamera returns the camera to the home position and zoom.
func (m *Machine) ResetCamera() bool {
	before := m.camera.Camera()
	m.camera.Reset()
	m.reanchor()
	return m.camera.Camera() != before
}

func (m *Machine) place(p viewport.Point) bool {
	if !m.size.Ready() {
		logging.Debug().Msg("Ignoring node placement before layout")
		return false
	}
	world := viewport.ScreenToWorld(p, m.camera.Camera(), m.size)
	if m.guard.Create(world) != nil {
		return false
	}
	m.adding = false
	metrics.GesturesStarted.WithLabelValues("place").Inc()
	if m.commit != nil {
		m.commit.CreateNode(world)
	}
	return true
}

// hitNode returns the first visible node in list order whose screen position
// is within HitRadius of p. Nodes can only be grabbed in edit mode.
func (m *Machine) hitNode(p viewport.Point) (int64, viewport.Point, bool) {
	if m.mode != ModeEdit || !m.size.Ready() {
		return 0, viewport.Point{}, false
	}
	cam := m.camera.Camera()
	world := viewport.ScreenToWorld(p, cam, m.size)
	radiusWorld := m.cfg.HitRadius / cam.Zoom

	for _, n := range m.nodes.Candidates(world, radiusWorld) {
		if !timeline.Visible(&n, m.timeline.Enabled, m.timeline.Current) {
			continue
		}
		if viewport.WorldToScreen(n.Position, cam, m.size).DistanceTo(p) <= m.cfg.HitRadius {
			return n.ID, n.Position, true
		}
	}
	return 0, viewport.Point{}, false
}

// OverlayScreenRect returns the overlay's on-screen rectangle.
func (m *Machine) OverlayScreenRect() (minPt, maxPt viewport.Point, ok bool) {
	if m.overlay == nil || !m.size.Ready() {
		return viewport.Point{}, viewport.Point{}, false
	}
	o := m.overlay
	cam := m.camera.Camera()
	origin := viewport.Point{X: o.GridX * m.cfg.GridUnitPixels, Y: o.GridY * m.cfg.GridUnitPixels}
	extent := viewport.Point{X: o.PixelWidth * o.Scale, Y: o.PixelHeight * o.Scale}
	return viewport.WorldToScreen(origin, cam, m.size), viewport.WorldToScreen(origin.Add(extent), cam, m.size), true
}

func (m *Machine) hitOverlay(p viewport.Point) bool {
	minPt, maxPt, ok := m.OverlayScreenRect()
	if !ok {
		return false
	}
	return p.X >= minPt.X && p.X <= maxPt.X && p.Y >= minPt.Y && p.Y <= maxPt.Y
}
