// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

/*
Package interaction routes pointer, wheel and key input of one map view to the
camera, the nodes and the overlay image.

# Gestures

At most one gesture is active at a time:

	None ──pointer-down──▶ Panning | DraggingNode | DraggingOverlay ──pointer-up──▶ None

Pointer-down resolves in this order:

 1. Node placement armed (edit mode): the click creates a node at the world
    point under the pointer and disarms placement.
 2. Alignment mode and the pointer is over the overlay image: DraggingOverlay.
 3. Edit mode and a visible node within HitRadius screen pixels: DraggingNode.
    The first match in list order wins, even when a later node is closer.
 4. Otherwise: Panning.

A pointer-down that arrives while a gesture is still active (the pointer-up
was lost) finishes that gesture first, exactly as a pointer-up would.

Moves are always computed from an anchor, never accumulated, so a long drag
does not drift. The anchor is the pointer-down state until the camera zooms
mid-gesture; then the gesture re-anchors at the current pointer so neither
the camera nor the dragged object jumps. Node drags pass through the coordinate guard and
a rejected step leaves the node at its last good position.

# Release

Releasing a node drag rounds the position to whole pixels and hands it to the
Committer together with the pointer-down position for rollback. Releasing an
overlay drag hands the new placement plus the placement captured when
alignment began. Nothing is committed for a drag that did not move.

# Keys and Modes

Escape disarms placement and leaves alignment mode but never aborts a drag.
Switching to view mode disarms placement. Leaving alignment mode during an
overlay drag waits for pointer-up: the drag is saved, then alignment ends.
*/
package interaction
