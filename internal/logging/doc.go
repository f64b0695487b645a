// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

// Package logging provides centralized zerolog-based structured logging for Mapforge.
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("map_id", "12").Msg("Session opened")
//	logging.Ctx(ctx).Warn().Float64("x", x).Msg("Coordinate corruption")
//
// Always terminate log chains with .Msg() or .Send().
//
// # Outputs
//
// JSON (default) or console format to stderr, or a size-rotated file via
// lumberjack when Config.File.Path is set.
//
// # Context
//
// Correlation, request and session ids stored in a context are attached to
// every entry logged through Ctx. NewSlogLogger bridges to slog for the
// suture supervisor event hook.
package logging
