// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package session

import (
	"errors"

	"github.com/tomtom215/mapforge/internal/interaction"
	"github.com/tomtom215/mapforge/internal/metrics"
	"github.com/tomtom215/mapforge/internal/mutation"
	"github.com/tomtom215/mapforge/internal/validation"
	"github.com/tomtom215/mapforge/internal/viewport"
)

// handle applies one message on the loop. It reports whether a frame should
// be emitted.
func (s *Session) handle(msg *ClientMessage) bool {
	if msg.call != nil {
		msg.call()
		return false
	}

	if err := validation.ValidateStruct(msg); err != nil {
		metrics.SessionEvents.WithLabelValues("invalid").Inc()
		data := ErrorData{Message: "invalid message"}
		var verr *validation.Error
		if errors.As(err, &verr) {
			data.Details = verr.Fields
		}
		s.logger.Debug().Err(err).Str("type", msg.Type).Msg("Rejected client message")
		s.emit(Envelope{Type: EnvelopeError, Data: data})
		return false
	}
	metrics.SessionEvents.WithLabelValues(msg.Type).Inc()

	m := s.machine
	switch msg.Type {
	case MsgResize:
		return m.Resize(viewport.Size{Width: msg.Width, Height: msg.Height})
	case MsgPointerDown:
		return m.PointerDown(msg.point())
	case MsgPointerMove:
		return m.PointerMove(msg.point())
	case MsgPointerUp:
		return m.PointerUp(msg.point())
	case MsgWheel:
		return m.Wheel(msg.point(), msg.DeltaY, msg.modifiers())
	case MsgKey:
		return m.Key(msg.Key)
	case MsgSetMode:
		return m.SetMode(interaction.ParseMode(msg.Mode))
	case MsgSetAdding:
		return m.SetAddingNode(*msg.Enabled)
	case MsgEnterAlignment:
		if !m.HasOverlayImage() {
			s.notify(mutation.Notice{Level: "warn", Op: MsgEnterAlignment, Message: "This map has no timeline image to align"})
			return false
		}
		return m.EnterAlignment()
	case MsgExitAlignment:
		return m.ExitAlignment()
	case MsgSetTimeline:
		if !m.SetTimeline(msg.Time) {
			return false
		}
		s.saver.Schedule(m.Timeline().Current)
		return true
	case MsgToggleTimeline:
		return m.SetTimelineEnabled(*msg.Enabled)
	case MsgFocusNode:
		return m.FocusNode(msg.NodeID)
	case MsgResetCamera:
		return m.ResetCamera()
	}
	return false
}
