// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

// Package guard detects corrupted world coordinates before they reach state or storage.
//
// A coordinate is corrupted when either axis is NaN, infinite, or has an
// absolute value above Config.Threshold (10,000 pixels by default). What
// happens next depends on where the coordinate was observed:
//
//   - PhaseDrag: the update is dropped and the last good position kept.
//   - PhaseLoad: a recovery point near (500,500) with uniform jitter is substituted.
//   - PhaseCommit, PhaseCreate: ErrCorrupted is returned and nothing is written.
//
// Every corruption is logged at warn level and counted in
// mapforge_coordinate_corruptions_total{phase}. None of them is fatal.
package guard
