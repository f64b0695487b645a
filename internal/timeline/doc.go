// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

// Package timeline filters map nodes by the scrubber's current time and
// persists the scrubber position.
//
// VisibleNodes is pure: it never reorders or mutates its input, and applying
// it twice gives the same result as applying it once. A node being dragged is
// filtered like any other node.
//
// Saver debounces scrubber writes so dragging the scrubber produces one save
// per pause instead of one per step. It runs independently of node saves.
package timeline
