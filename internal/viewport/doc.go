// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

// Package viewport implements the camera and coordinate transforms of a map view.
//
// World space is the unbounded 2D pixel coordinate system nodes are stored in.
// Screen space is pixel coordinates inside the hosting surface (the viewport).
// The camera names the world point shown at the center of the viewport plus a
// zoom factor:
//
//	screenX = viewport.Width/2  + (worldX - camera.X) * camera.Zoom
//	screenY = viewport.Height/2 + (worldY - camera.Y) * camera.Zoom
//
// # Layout Not Ready
//
// Before the hosting surface has been laid out its size is (0,0). The
// transforms never divide by or scale against a degenerate viewport; they
// return a fallback point (world to screen, see WorldToScreenOr) or the origin
// (screen to world) instead. Callers must check Size.Ready before hit-testing
// against the result.
//
// # Camera Model
//
// CameraModel owns the mutable camera of one map-viewing session:
//
//	cam := viewport.NewCameraModel(viewport.Camera{X: 500, Y: 500, Zoom: 1}, viewport.DefaultLimits())
//	cam.Pan(50, 0)                                   // drag right moves the camera left
//	cam.ZoomTowardPoint(viewport.Point{X: 100, Y: 80}, 2, size) // anchored at the pointer
//	cam.Wheel(viewport.Point{X: 100, Y: 80}, -120, size)        // one wheel tick in
//
// Zoom is always clamped into [Limits.MinZoom, Limits.MaxZoom] and camera
// coordinates are always finite; writes carrying NaN or Inf are ignored.
//
// The transform functions are pure and safe for concurrent use. CameraModel is
// not synchronized; it is owned by the session event loop.
package viewport
