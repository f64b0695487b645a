// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package scene

import (
	"errors"

	"github.com/tomtom215/mapforge/internal/guard"
	"github.com/tomtom215/mapforge/internal/logging"
	"github.com/tomtom215/mapforge/internal/models"
)

// LoadReport counts what happened while decoding records.
type LoadReport struct {
	Loaded      int
	Recovered   int
	UnknownKind int
	Skipped     int
}

// DecodeRecords converts backend records into nodes. Corrupted positions are
// replaced by the guard's recovery point, unknown kinds load as Info, and
// records without any position are skipped. Loading never fails.
func DecodeRecords(records []models.EventRecord, frame models.LegacyFrame, g *guard.Guard) ([]models.Node, LoadReport) {
	var report LoadReport
	nodes := make([]models.Node, 0, len(records))

	for i := range records {
		rec := &records[i]
		node, err := models.DecodeNode(rec, frame)
		switch {
		case errors.Is(err, models.ErrUnknownKind):
			report.UnknownKind++
			logging.Warn().Int64("node_id", rec.ID).Str("node_type", rec.NodeType).Msg("Unknown node kind, loading as info")
		case err != nil:
			report.Skipped++
			logging.Warn().Err(err).Int64("node_id", rec.ID).Msg("Skipping undecodable node")
			continue
		}

		if p, recovered := g.Load(node.Position); recovered {
			node.Position = p
			report.Recovered++
		}
		nodes = append(nodes, node)
	}

	report.Loaded = len(nodes)
	return nodes, report
}
