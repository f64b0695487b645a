// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package backend

import (
	"strconv"

	"github.com/tomtom215/mapforge/internal/viewport"
)

func itoa(i int) string { return strconv.Itoa(i) }

func pointOf(x, y float64) viewport.Point { return viewport.Point{X: x, Y: y} }
