// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package session

import (
	"github.com/tomtom215/mapforge/internal/interaction"
	"github.com/tomtom215/mapforge/internal/models"
	"github.com/tomtom215/mapforge/internal/mutation"
	"github.com/tomtom215/mapforge/internal/viewport"
)

// machineStore exposes the machine's state to the mutation pipeline.
type machineStore struct {
	m *interaction.Machine
}

var _ mutation.Store = machineStore{}

func (s machineStore) NodePosition(id int64) (viewport.Point, bool) {
	return s.m.Nodes().Position(id)
}

func (s machineStore) SetNodePosition(id int64, p viewport.Point) bool {
	return s.m.Nodes().SetPosition(id, p)
}

func (s machineStore) AppendNode(n models.Node) {
	s.m.Nodes().Append(n)
}

func (s machineStore) OverlayPlacement(id int64) (models.OverlayUpdate, bool) {
	return s.m.OverlayPlacement(id)
}

func (s machineStore) RestoreOverlay(id int64, placement models.OverlayUpdate) bool {
	return s.m.RestoreOverlay(id, placement)
}
