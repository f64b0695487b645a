// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package viewport

// Limits bounds the camera zoom and defines the wheel step factors.
type Limits struct {
	// MinZoom is the smallest zoom factor. Default: 0.1
	MinZoom float64

	// MaxZoom is the largest zoom factor. Default: 5.0
	MaxZoom float64

	// ZoomInFactor multiplies the zoom per wheel tick toward the user. Default: 1.1
	ZoomInFactor float64

	// ZoomOutFactor multiplies the zoom per wheel tick away from the user. Default: 0.9
	ZoomOutFactor float64
}

// DefaultLimits returns the standard zoom bounds and wheel factors.
func DefaultLimits() Limits {
	return Limits{
		MinZoom:       0.1,
		MaxZoom:       5.0,
		ZoomInFactor:  1.1,
		ZoomOutFactor: 0.9,
	}
}

// Clamp forces zoom into [MinZoom, MaxZoom]. Non-finite input clamps to MinZoom.
func (l Limits) Clamp(zoom float64) float64 {
	if !isFinite(zoom) || zoom < l.MinZoom {
		return l.MinZoom
	}
	if zoom > l.MaxZoom {
		return l.MaxZoom
	}
	return zoom
}

// CameraModel owns the camera of one map-viewing session.
type CameraModel struct {
	cam    Camera
	home   Camera
	limits Limits
}

// NewCameraModel creates a camera at home. Zero limits fall back to DefaultLimits.
func NewCameraModel(home Camera, limits Limits) *CameraModel {
	if limits.MinZoom <= 0 || limits.MaxZoom < limits.MinZoom {
		limits = DefaultLimits()
	}
	if limits.ZoomInFactor <= 1 {
		limits.ZoomInFactor = DefaultLimits().ZoomInFactor
	}
	if limits.ZoomOutFactor <= 0 || limits.ZoomOutFactor >= 1 {
		limits.ZoomOutFactor = DefaultLimits().ZoomOutFactor
	}
	if !isFinite(home.X) || !isFinite(home.Y) {
		home.X, home.Y = 0, 0
	}
	home.Zoom = limits.Clamp(home.Zoom)
	return &CameraModel{cam: home, home: home, limits: limits}
}

// Camera returns the current camera.
func (m *CameraModel) Camera() Camera {
	return m.cam
}

// Limits returns the zoom limits in effect.
func (m *CameraModel) Limits() Limits {
	return m.limits
}

// Pan moves the camera by a screen-space drag delta. Dragging right moves the
// camera left in world space, so the content follows the pointer.
func (m *CameraModel) Pan(dxScreen, dyScreen float64) {
	m.PanFrom(m.cam.Position(), dxScreen, dyScreen)
}

// PanFrom places the camera at anchor displaced by a screen-space delta. Pan
// gestures call this with the camera captured at pointer-down on every move so
// rounding does not accumulate.
func (m *CameraModel) PanFrom(anchor Point, dxScreen, dyScreen float64) {
	d := ScreenDeltaToWorld(Point{X: dxScreen, Y: dyScreen}, m.cam.Zoom)
	m.SetPosition(anchor.Sub(d))
}

// SetPosition moves the camera center. Non-finite positions are ignored.
func (m *CameraModel) SetPosition(p Point) {
	if !p.IsFinite() {
		return
	}
	m.cam.X, m.cam.Y = p.X, p.Y
}

// ZoomTowardPoint applies newZoom (clamped) keeping the world point under the
// screen point fixed. With a viewport that is not laid out only the zoom changes.
func (m *CameraModel) ZoomTowardPoint(screen Point, newZoom float64, vp Size) {
	newZoom = m.limits.Clamp(newZoom)
	if !vp.Ready() || !screen.IsFinite() {
		m.cam.Zoom = newZoom
		return
	}

	anchor := ScreenToWorld(screen, m.cam, vp)
	m.cam.Zoom = newZoom

	offset := ScreenDeltaToWorld(screen.Sub(vp.Center()), newZoom)
	m.SetPosition(anchor.Sub(offset))
}

// Wheel applies one wheel tick anchored at screen. A positive deltaY scrolls
// away from the user and zooms out; zero is a no-op.
func (m *CameraModel) Wheel(screen Point, deltaY float64, vp Size) {
	switch {
	case deltaY > 0:
		m.ZoomTowardPoint(screen, m.cam.Zoom*m.limits.ZoomOutFactor, vp)
	case deltaY < 0:
		m.ZoomTowardPoint(screen, m.cam.Zoom*m.limits.ZoomInFactor, vp)
	}
}

// CenterOn moves the camera so the world point is at the viewport center.
func (m *CameraModel) CenterOn(world Point) {
	m.SetPosition(world)
}

// Reset returns the camera to the position and zoom it was created with.
func (m *CameraModel) Reset() {
	m.cam = m.home
}
