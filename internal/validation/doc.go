// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared process-wide. It reports field names
// by their json tag and adds one custom tag:
//
//   - finite: a float field must not be NaN or infinite
//
// Used for websocket client messages, node drafts and configuration:
//
//	type PointerMessage struct {
//	    X float64 `json:"x" validate:"finite"`
//	    Y float64 `json:"y" validate:"finite"`
//	}
//
// ValidateStruct returns *Error, which converts to the API error envelope
// with ToAPIError.
package validation
