// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package scene

import (
	"slices"

	"github.com/tomtom215/mapforge/internal/models"
	"github.com/tomtom215/mapforge/internal/spatial"
	"github.com/tomtom215/mapforge/internal/viewport"
)

// NodeSet holds the nodes of an open map in list order with a spatial index
// for hit testing. List order is load order followed by creation order and
// decides which node wins when several are under the pointer.
//
// NodeSet is not synchronized; it belongs to the session event loop.
type NodeSet struct {
	nodes []models.Node
	index map[int64]int
	grid  *spatial.Grid
}

// NewNodeSet creates an empty set indexed with the given grid cell size.
func NewNodeSet(cellSize float64) *NodeSet {
	return &NodeSet{
		index: make(map[int64]int),
		grid:  spatial.NewGrid(cellSize),
	}
}

// Len returns the number of nodes.
func (s *NodeSet) Len() int {
	return len(s.nodes)
}

// Append adds n at the end of the list. A node whose id is already present
// replaces the existing entry in place.
func (s *NodeSet) Append(n models.Node) {
	n = n.Clone()
	if i, ok := s.index[n.ID]; ok {
		s.nodes[i] = n
	} else {
		s.index[n.ID] = len(s.nodes)
		s.nodes = append(s.nodes, n)
	}
	s.grid.Insert(n.ID, n.Position)
}

// Position returns the current position of node id.
func (s *NodeSet) Position(id int64) (viewport.Point, bool) {
	i, ok := s.index[id]
	if !ok {
		return viewport.Point{}, false
	}
	return s.nodes[i].Position, true
}

// SetPosition moves node id. It reports false for unknown ids.
func (s *NodeSet) SetPosition(id int64, p viewport.Point) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.nodes[i].Position = p
	s.grid.Insert(id, p)
	return true
}

// All returns copies of every node in list order.
func (s *NodeSet) All() []models.Node {
	out := make([]models.Node, len(s.nodes))
	for i := range s.nodes {
		out[i] = s.nodes[i].Clone()
	}
	return out
}

// Candidates returns the nodes whose position may lie within radius of
// world point p, in list order.
func (s *NodeSet) Candidates(p viewport.Point, radius float64) []models.Node {
	ids := s.grid.QueryRadius(p, radius)
	if len(ids) == 0 {
		return nil
	}

	positions := make([]int, 0, len(ids))
	for _, id := range ids {
		if i, ok := s.index[id]; ok {
			positions = append(positions, i)
		}
	}
	slices.Sort(positions)

	out := make([]models.Node, len(positions))
	for j, i := range positions {
		out[j] = s.nodes[i].Clone()
	}
	return out
}

// Reset replaces the content of the set.
func (s *NodeSet) Reset(nodes []models.Node) {
	s.nodes = s.nodes[:0]
	clear(s.index)
	s.grid.Clear()
	for i := range nodes {
		s.Append(nodes[i])
	}
}
