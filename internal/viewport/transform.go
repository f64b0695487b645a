// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package viewport

import "math"

// Point is a 2D coordinate in either world or screen space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p+q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p-q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Scale returns p with both axes multiplied by f.
func (p Point) Scale(f float64) Point {
	return Point{X: p.X * f, Y: p.Y * f}
}

// Round returns p rounded to whole pixels.
func (p Point) Round() Point {
	return Point{X: math.Round(p.X), Y: math.Round(p.Y)}
}

// IsFinite reports whether neither axis is NaN or infinite.
func (p Point) IsFinite() bool {
	return isFinite(p.X) && isFinite(p.Y)
}

// DistanceTo returns the euclidean distance between p and q.
func (p Point) DistanceTo(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Size is the viewport rectangle read from the hosting surface.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Ready reports whether the surface has been laid out.
func (s Size) Ready() bool {
	return s.Width > 0 && s.Height > 0 && isFinite(s.Width) && isFinite(s.Height)
}

// Center returns the screen-space center of the viewport.
func (s Size) Center() Point {
	return Point{X: s.Width / 2, Y: s.Height / 2}
}

// Camera is the world point centered in the viewport plus the zoom factor.
type Camera struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// Position returns the camera center as a world point.
func (c Camera) Position() Point {
	return Point{X: c.X, Y: c.Y}
}

// DefaultFallback returns the screen point WorldToScreen reports while the
// viewport is not ready.
func DefaultFallback() Point {
	return Point{X: 400, Y: 300}
}

// WorldToScreen projects a world point into screen space. Before layout it
// returns DefaultFallback.
func WorldToScreen(world Point, cam Camera, vp Size) Point {
	return WorldToScreenOr(world, cam, vp, DefaultFallback())
}

// WorldToScreenOr is WorldToScreen with a caller-chosen pre-layout point.
func WorldToScreenOr(world Point, cam Camera, vp Size, fallback Point) Point {
	if !vp.Ready() {
		return fallback
	}
	return Point{
		X: vp.Width/2 + (world.X-cam.X)*cam.Zoom,
		Y: vp.Height/2 + (world.Y-cam.Y)*cam.Zoom,
	}
}

// ScreenToWorld is the inverse of WorldToScreen. It returns the origin when the
// viewport is not ready or the camera has no usable zoom.
func ScreenToWorld(screen Point, cam Camera, vp Size) Point {
	if !vp.Ready() || cam.Zoom <= 0 || !isFinite(cam.Zoom) {
		return Point{}
	}
	return Point{
		X: cam.X + (screen.X-vp.Width/2)/cam.Zoom,
		Y: cam.Y + (screen.Y-vp.Height/2)/cam.Zoom,
	}
}

// ScreenDeltaToWorld converts a screen-space displacement into world units.
func ScreenDeltaToWorld(delta Point, zoom float64) Point {
	if zoom <= 0 || !isFinite(zoom) {
		return Point{}
	}
	return Point{X: delta.X / zoom, Y: delta.Y / zoom}
}

// VisibleWorldRect returns the world-space corners of the area shown on screen.
// Both corners are the origin while the viewport is not ready.
func VisibleWorldRect(cam Camera, vp Size) (minPt, maxPt Point) {
	if !vp.Ready() {
		return Point{}, Point{}
	}
	return ScreenToWorld(Point{}, cam, vp), ScreenToWorld(Point{X: vp.Width, Y: vp.Height}, cam, vp)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
