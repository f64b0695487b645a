// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

// Package session hosts one open map view.
//
// A Session owns the interaction machine, the mutation pipeline and the
// timeline saver of a single map and drives them from one event loop
// goroutine. Client input arrives as ClientMessage values through Send;
// rendered state leaves as Envelope values on Outbound.
//
// # Lifecycle
//
//	s := session.New(mapID, backend, g, cfg)
//	if err := s.Load(ctx); err != nil { ... }   // events, overlay and timeline in parallel
//	go s.Run(ctx)                                 // first frame is emitted immediately
//	s.Send(session.ClientMessage{Type: session.MsgResize, Width: 800, Height: 600})
//	for env := range s.Outbound() { ... }
//
// # Threading
//
// The machine and node set are only touched by the loop. Backend saves run on
// worker goroutines; their completions are posted back to the loop and take
// priority over queued client input, so a rollback is always rendered before
// the next gesture is processed. After the loop exits, late completions run
// inline under a mutex and their notices are discarded.
package session
