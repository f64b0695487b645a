// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package timeline

import (
	"github.com/tomtom215/mapforge/internal/models"
)

// VisibleNodes returns the nodes shown at time current, in input order.
// With the timeline disabled every node is returned. Nodes without a window
// are always visible; windows are inclusive at both ends. The input slice
// is not modified.
func VisibleNodes(nodes []models.Node, enabled bool, current int64) []models.Node {
	out := make([]models.Node, 0, len(nodes))
	for i := range nodes {
		if Visible(&nodes[i], enabled, current) {
			out = append(out, nodes[i])
		}
	}
	return out
}

// Visible reports whether a single node passes the filter.
func Visible(n *models.Node, enabled bool, current int64) bool {
	return !enabled || n.Window == nil || n.Window.Contains(current)
}

// Window is the scrubber state of one open map.
type Window struct {
	Enabled bool  `json:"enabled"`
	Current int64 `json:"current"`
	Min     int64 `json:"min"`
	Max     int64 `json:"max"`
}

// WindowFromSettings builds a Window from persisted settings, normalizing the
// bounds and clamping the current time.
func WindowFromSettings(s models.TimelineSettings) Window {
	w := Window{Enabled: s.Enabled, Min: s.MinTime, Max: s.MaxTime}
	if w.Max < w.Min {
		w.Min, w.Max = w.Max, w.Min
	}
	w.Set(s.CurrentTime)
	return w
}

// Set moves the current time, clamped into [Min, Max]. It reports whether
// the stored value changed.
func (w *Window) Set(t int64) bool {
	if t < w.Min {
		t = w.Min
	}
	if t > w.Max {
		t = w.Max
	}
	if t == w.Current {
		return false
	}
	w.Current = t
	return true
}
