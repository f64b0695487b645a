// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package models

import (
	"time"
)

// APIResponse is the envelope for every JSON body served by the HTTP API.
//
// Status is "success" with Data populated, or "error" with Error populated:
//
//	{"status": "error", "error": {"code": "NOT_FOUND", "message": "map 12 not found"},
//	 "metadata": {"timestamp": "2026-01-04T12:00:00Z"}}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// APIError carries a machine-readable code and a human-readable message.
//
// Codes used by the API:
//   - VALIDATION_ERROR: malformed path or query parameter
//   - NOT_FOUND: map or route does not exist
//   - UPSTREAM_ERROR: the map backend failed or its circuit is open
//   - RATE_LIMIT_EXCEEDED: too many requests from one client
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
