// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

/*
Package mutation persists node and overlay changes made by gestures and
reconciles local state when the backend rejects them.

Local state is updated optimistically by the interaction machine before the
pipeline sees a change. The pipeline then:

  - Drag commit: sends the rounded position. On failure the node returns to
    the drag's start position, unless it has been moved again since.
  - Overlay commit: sends grid position and scale. On failure the overlay
    returns to the placement captured when alignment mode began.
  - Create: sends a default Info draft. The node only appears locally once
    the backend returns the stored record; a failure adds nothing.

Every failure produces a Notice. Nothing is retried.

# Ordering

Saves for the same node (or overlay) never overlap. While one is in flight,
further commits for that entity collapse into a single pending save holding
the newest position, sent when the in-flight save resolves. Saves for
different entities run concurrently.

Positions that fail the coordinate guard are never sent; the save is
dropped and counted as aborted.
*/
package mutation
