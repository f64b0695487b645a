// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

/*
Package replay runs scripted gesture sequences against a live session backed by
an in-memory map server, so interaction bugs can be reproduced headlessly.

A script is TOML. Nodes, the overlay and the timeline seed the backend; steps
are session messages in order, plus two pseudo steps: sync waits for pending
saves, and fail makes the next backend call of an operation return an error.

	name = "drag with failing save"

	[[node]]
	id = 1
	x = 500.0
	y = 500.0

	[[step]]
	type = "resize"
	width = 800.0
	height = 600.0

	[[step]]
	type = "set_mode"
	mode = "edit"

	[[step]]
	type = "fail"
	op = "update_event"

	[[step]]
	type = "pointer_down"
	x = 400.0
	y = 300.0

	[[step]]
	type = "pointer_up"
	x = 450.0
	y = 300.0

Run returns the final frame, the writes the backend accepted, and every notice
and error envelope the session emitted.
*/
package replay
