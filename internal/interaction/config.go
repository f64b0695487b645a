// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package interaction

import (
	"math"

	"github.com/tomtom215/mapforge/internal/spatial"
	"github.com/tomtom215/mapforge/internal/viewport"
)

// Config tunes hit testing and overlay alignment.
type Config struct {
	// Home is the camera a new session starts with and ResetCamera returns to.
	Home viewport.Camera

	// Limits bounds camera zoom and sets wheel factors.
	Limits viewport.Limits

	// HitRadius is the screen distance in pixels within which a pointer-down
	// grabs a node. Default: 20
	HitRadius float64

	// CellSize is the spatial index cell edge in world pixels. Default: 256
	CellSize float64

	// GridUnitPixels converts overlay grid units into world pixels. Default: 50
	GridUnitPixels float64

	// OverlayMinScale and OverlayMaxScale bound the overlay scale. Default: 0.05, 5
	OverlayMinScale float64
	OverlayMaxScale float64

	// OverlaySize is the natural image size assumed for an overlay stored
	// without width and height. Default: 1000x1000
	OverlaySize viewport.Size

	// Fallback is the screen point reported for world points before layout.
	// Default: 400,300
	Fallback viewport.Point
}

// DefaultConfig returns the standard interaction settings.
func DefaultConfig() Config {
	return Config{
		Home:            viewport.Camera{X: 500, Y: 500, Zoom: 1},
		Limits:          viewport.DefaultLimits(),
		HitRadius:       20,
		CellSize:        spatial.DefaultCellSize,
		GridUnitPixels:  50,
		OverlayMinScale: 0.05,
		OverlayMaxScale: 5,
		OverlaySize:     viewport.Size{Width: 1000, Height: 1000},
		Fallback:        viewport.DefaultFallback(),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Home.Zoom <= 0 {
		c.Home = d.Home
	}
	if c.Limits.MinZoom <= 0 {
		c.Limits = d.Limits
	}
	if c.HitRadius <= 0 {
		c.HitRadius = d.HitRadius
	}
	if c.CellSize <= 0 {
		c.CellSize = d.CellSize
	}
	if c.GridUnitPixels <= 0 {
		c.GridUnitPixels = d.GridUnitPixels
	}
	if c.OverlayMinScale <= 0 || c.OverlayMaxScale < c.OverlayMinScale {
		c.OverlayMinScale, c.OverlayMaxScale = d.OverlayMinScale, d.OverlayMaxScale
	}
	if !c.OverlaySize.Ready() {
		c.OverlaySize = d.OverlaySize
	}
	if c.Fallback == (viewport.Point{}) || !c.Fallback.IsFinite() {
		c.Fallback = d.Fallback
	}
	return c
}

func (c Config) clampOverlayScale(s float64) float64 {
	if s < c.OverlayMinScale || math.IsNaN(s) {
		return c.OverlayMinScale
	}
	if s > c.OverlayMaxScale {
		return c.OverlayMaxScale
	}
	return s
}
