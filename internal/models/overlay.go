// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package models

// OverlayImage is a timeline image aligned over the map grid during alignment mode.
// GridX and GridY are in grid units; PixelWidth and PixelHeight are the
// natural image size used for hit tests.
type OverlayImage struct {
	ID          int64   `json:"id"`
	MapID       int64   `json:"map_id"`
	GridX       float64 `json:"grid_x"`
	GridY       float64 `json:"grid_y"`
	Scale       float64 `json:"scale"`
	PixelWidth  float64 `json:"pixel_width"`
	PixelHeight float64 `json:"pixel_height"`
}

// Placement returns the mutable part of the overlay.
func (o OverlayImage) Placement() OverlayUpdate {
	return OverlayUpdate{PositionX: o.GridX, PositionY: o.GridY, Scale: o.Scale}
}

// WithPlacement returns o moved and scaled to u.
func (o OverlayImage) WithPlacement(u OverlayUpdate) OverlayImage {
	o.GridX, o.GridY, o.Scale = u.PositionX, u.PositionY, u.Scale
	return o
}

// OverlayRecord is the overlay as returned by the backend.
type OverlayRecord struct {
	ID        int64   `json:"id"`
	MapID     int64   `json:"map_id"`
	PositionX float64 `json:"position_x"`
	PositionY float64 `json:"position_y"`
	Scale     float64 `json:"scale"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
}

// Overlay converts the record. A missing scale becomes 1.
func (r *OverlayRecord) Overlay() OverlayImage {
	scale := r.Scale
	if scale <= 0 {
		scale = 1
	}
	return OverlayImage{
		ID:          r.ID,
		MapID:       r.MapID,
		GridX:       r.PositionX,
		GridY:       r.PositionY,
		Scale:       scale,
		PixelWidth:  r.Width,
		PixelHeight: r.Height,
	}
}

// OverlayUpdate is the body of an overlay placement save.
type OverlayUpdate struct {
	PositionX float64 `json:"position_x"`
	PositionY float64 `json:"position_y"`
	Scale     float64 `json:"scale"`
}

// TimelineSettings is the per-map timeline state persisted by the backend.
type TimelineSettings struct {
	MapID       int64 `json:"map_id"`
	Enabled     bool  `json:"enabled"`
	CurrentTime int64 `json:"current_time"`
	MinTime     int64 `json:"min_time"`
	MaxTime     int64 `json:"max_time"`
}
