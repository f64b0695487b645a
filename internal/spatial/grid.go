// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

// Package spatial provides a uniform hash grid over world pixel space.
package spatial

import (
	"math"
	"sync"

	"github.com/tomtom215/mapforge/internal/viewport"
)

// DefaultCellSize is the cell edge length in world pixels.
const DefaultCellSize = 256.0

// Grid divides world space into square cells so hit tests only look at
// entries near the query instead of scanning every node.
//
// Time Complexity:
//   - Insert: O(1)
//   - QueryRect: O(c + k) for c cells covered and k entries found
type Grid struct {
	mu       sync.RWMutex
	cellSize float64
	cells    map[cellKey]map[int64]struct{}
	entries  map[int64]cellKey
}

type cellKey struct {
	X, Y int64
}

// NewGrid creates an empty grid. A non-positive cellSize uses DefaultCellSize.
func NewGrid(cellSize float64) *Grid {
	if cellSize <= 0 || math.IsNaN(cellSize) || math.IsInf(cellSize, 0) {
		cellSize = DefaultCellSize
	}
	return &Grid{
		cellSize: cellSize,
		cells:    make(map[cellKey]map[int64]struct{}),
		entries:  make(map[int64]cellKey),
	}
}

func (g *Grid) keyFor(p viewport.Point) cellKey {
	return cellKey{
		X: int64(math.Floor(p.X / g.cellSize)),
		Y: int64(math.Floor(p.Y / g.cellSize)),
	}
}

// Insert places id at p, moving it if already present. Non-finite points are ignored.
func (g *Grid) Insert(id int64, p viewport.Point) {
	if !p.IsFinite() {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	key := g.keyFor(p)
	if old, ok := g.entries[id]; ok {
		if old == key {
			return
		}
		g.removeUnlocked(id, old)
	}

	cell, ok := g.cells[key]
	if !ok {
		cell = make(map[int64]struct{}, 4)
		g.cells[key] = cell
	}
	cell[id] = struct{}{}
	g.entries[id] = key
}

func (g *Grid) removeUnlocked(id int64, key cellKey) {
	delete(g.entries, id)
	if cell, ok := g.cells[key]; ok {
		delete(cell, id)
		if len(cell) == 0 {
			delete(g.cells, key)
		}
	}
}

// QueryRect returns the ids stored in every cell overlapping the rectangle
// [minPt, maxPt]. The result is a superset of the entries inside it and is
// in no particular order.
func (g *Grid) QueryRect(minPt, maxPt viewport.Point) []int64 {
	if !minPt.IsFinite() || !maxPt.IsFinite() {
		return nil
	}
	if minPt.X > maxPt.X {
		minPt.X, maxPt.X = maxPt.X, minPt.X
	}
	if minPt.Y > maxPt.Y {
		minPt.Y, maxPt.Y = maxPt.Y, minPt.Y
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	lo, hi := g.keyFor(minPt), g.keyFor(maxPt)

	// A huge rectangle covers more cells than exist; scan the cells instead.
	span := float64(hi.X-lo.X+1) * float64(hi.Y-lo.Y+1)
	var out []int64
	if span > float64(len(g.cells)) {
		for key, cell := range g.cells {
			if key.X < lo.X || key.X > hi.X || key.Y < lo.Y || key.Y > hi.Y {
				continue
			}
			for id := range cell {
				out = append(out, id)
			}
		}
		return out
	}

	for x := lo.X; x <= hi.X; x++ {
		for y := lo.Y; y <= hi.Y; y++ {
			for id := range g.cells[cellKey{X: x, Y: y}] {
				out = append(out, id)
			}
		}
	}
	return out
}

// QueryRadius returns ids in cells overlapping the square around center.
func (g *Grid) QueryRadius(center viewport.Point, radius float64) []int64 {
	r := viewport.Point{X: radius, Y: radius}
	return g.QueryRect(center.Sub(r), center.Add(r))
}

// Len returns the number of entries.
func (g *Grid) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.entries)
}

// Clear removes all entries.
func (g *Grid) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cells = make(map[cellKey]map[int64]struct{})
	g.entries = make(map[int64]cellKey)
}
