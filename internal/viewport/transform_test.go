// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package viewport

import (
	"math"
	"testing"
)

const tolerance = 1e-9

func approxEqual(a, b Point) bool {
	return math.Abs(a.X-b.X) < tolerance && math.Abs(a.Y-b.Y) < tolerance
}

func TestWorldToScreen_CameraCenterProjectsToViewportCenter(t *testing.T) {
	t.Parallel()

	cam := Camera{X: 500, Y: 500, Zoom: 1}
	vp := Size{Width: 800, Height: 600}

	got := WorldToScreen(Point{X: 500, Y: 500}, cam, vp)
	if got != (Point{X: 400, Y: 300}) {
		t.Errorf("WorldToScreen() = %+v, want {400 300}", got)
	}
}

func TestWorldToScreen_AppliesZoom(t *testing.T) {
	t.Parallel()

	cam := Camera{X: 0, Y: 0, Zoom: 2}
	vp := Size{Width: 200, Height: 100}

	got := WorldToScreen(Point{X: 10, Y: -5}, cam, vp)
	want := Point{X: 120, Y: 40}
	if got != want {
		t.Errorf("WorldToScreen() = %+v, want %+v", got, want)
	}
}

func TestTransforms_LayoutNotReady(t *testing.T) {
	t.Parallel()

	cam := Camera{X: 500, Y: 500, Zoom: 1}
	tests := []struct {
		name string
		vp   Size
	}{
		{"zero", Size{}},
		{"zero width", Size{Width: 0, Height: 600}},
		{"zero height", Size{Width: 800, Height: 0}},
		{"negative", Size{Width: -1, Height: 600}},
		{"nan", Size{Width: math.NaN(), Height: 600}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.vp.Ready() {
				t.Fatalf("Ready() = true for %+v", tt.vp)
			}
			if got := WorldToScreen(Point{X: 1, Y: 2}, cam, tt.vp); got != DefaultFallback() {
				t.Errorf("WorldToScreen() = %+v, want fallback %+v", got, DefaultFallback())
			}
			if got := WorldToScreenOr(Point{X: 1, Y: 2}, cam, tt.vp, Point{X: 7, Y: 9}); got != (Point{X: 7, Y: 9}) {
				t.Errorf("WorldToScreenOr() = %+v, want {7 9}", got)
			}
			if got := ScreenToWorld(Point{X: 1, Y: 2}, cam, tt.vp); got != (Point{}) {
				t.Errorf("ScreenToWorld() = %+v, want origin", got)
			}
		})
	}
}

func TestScreenToWorld_RoundTrip(t *testing.T) {
	t.Parallel()

	cameras := []Camera{
		{X: 0, Y: 0, Zoom: 1},
		{X: 500, Y: 500, Zoom: 0.1},
		{X: -9000, Y: 7321.5, Zoom: 5},
		{X: 12.25, Y: -3.75, Zoom: 0.73},
	}
	sizes := []Size{{800, 600}, {1, 1}, {1920, 1080}, {333.3, 177.7}}
	points := []Point{{0, 0}, {500, 500}, {-10000, 10000}, {3.14159, -2.71828}}

	for _, cam := range cameras {
		for _, vp := range sizes {
			for _, p := range points {
				got := ScreenToWorld(WorldToScreen(p, cam, vp), cam, vp)
				if math.Abs(got.X-p.X) > 1e-6 || math.Abs(got.Y-p.Y) > 1e-6 {
					t.Errorf("round trip cam=%+v vp=%+v: got %+v, want %+v", cam, vp, got, p)
				}
			}
		}
	}
}

func TestScreenToWorld_ZeroZoom(t *testing.T) {
	t.Parallel()

	got := ScreenToWorld(Point{X: 10, Y: 10}, Camera{Zoom: 0}, Size{Width: 100, Height: 100})
	if got != (Point{}) {
		t.Errorf("ScreenToWorld() with zero zoom = %+v, want origin", got)
	}
}

func TestVisibleWorldRect(t *testing.T) {
	t.Parallel()

	minPt, maxPt := VisibleWorldRect(Camera{X: 500, Y: 500, Zoom: 2}, Size{Width: 800, Height: 600})
	if !approxEqual(minPt, Point{X: 300, Y: 350}) {
		t.Errorf("min = %+v, want {300 350}", minPt)
	}
	if !approxEqual(maxPt, Point{X: 700, Y: 650}) {
		t.Errorf("max = %+v, want {700 650}", maxPt)
	}
}

func TestPoint_Helpers(t *testing.T) {
	t.Parallel()

	p := Point{X: 1.4, Y: -2.6}
	if got := p.Round(); got != (Point{X: 1, Y: -3}) {
		t.Errorf("Round() = %+v", got)
	}
	if (Point{X: math.Inf(1)}).IsFinite() {
		t.Error("IsFinite() = true for +Inf")
	}
	if got := (Point{X: 3, Y: 4}).DistanceTo(Point{}); got != 5 {
		t.Errorf("DistanceTo() = %v, want 5", got)
	}
}
