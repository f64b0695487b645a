// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

/*
Package models defines the data structures shared by the Mapforge engine.

The package has two layers:

  - Wire records (EventRecord, OverlayRecord, TimelineSettings, NodeUpdate,
    OverlayUpdate, NodeDraft) mirror the map backend's REST payloads.
  - Domain types (Node, Kind, OverlayImage, TimeWindow) are what the viewport
    engine operates on.

Records are converted to domain types exactly once, at the load boundary:

	node, err := models.DecodeNode(record, models.DefaultLegacyFrame)

DecodeNode resolves the node kind into one of the Kind variants (Info, NPC,
Item, MapLink, BackgroundMap) and converts legacy percentage coordinates into
absolute world pixels, so the rest of the engine never sees either encoding.
Decoding does not check coordinate sanity; that is the guard package's job.

APIResponse and APIError form the JSON envelope used by the HTTP API.
*/
package models
