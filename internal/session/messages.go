// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package session

import (
	"github.com/tomtom215/mapforge/internal/interaction"
	"github.com/tomtom215/mapforge/internal/viewport"
)

// Client message types.
const (
	MsgResize         = "resize"
	MsgPointerDown    = "pointer_down"
	MsgPointerMove    = "pointer_move"
	MsgPointerUp      = "pointer_up"
	MsgWheel          = "wheel"
	MsgKey            = "key"
	MsgSetMode        = "set_mode"
	MsgSetAdding      = "set_adding"
	MsgEnterAlignment = "enter_alignment"
	MsgExitAlignment  = "exit_alignment"
	MsgSetTimeline    = "set_timeline"
	MsgToggleTimeline = "toggle_timeline"
	MsgFocusNode      = "focus_node"
	MsgResetCamera    = "reset_camera"
)

// Server envelope types.
const (
	EnvelopeFrame  = "frame"
	EnvelopeNotice = "notice"
	EnvelopeError  = "error"
)

// ClientMessage is one input event from the hosting surface. Only the fields
// relevant to Type are read.
type ClientMessage struct {
	Type string `json:"type" validate:"required,oneof=resize pointer_down pointer_move pointer_up wheel key set_mode set_adding enter_alignment exit_alignment set_timeline toggle_timeline focus_node reset_camera"`

	X      float64 `json:"x,omitempty" validate:"finite"`
	Y      float64 `json:"y,omitempty" validate:"finite"`
	Width  float64 `json:"width,omitempty" validate:"finite,gte=0"`
	Height float64 `json:"height,omitempty" validate:"finite,gte=0"`
	DeltaY float64 `json:"delta_y,omitempty" validate:"finite"`

	Ctrl  bool `json:"ctrl,omitempty"`
	Shift bool `json:"shift,omitempty"`
	Alt   bool `json:"alt,omitempty"`
	Meta  bool `json:"meta,omitempty"`

	Key     string `json:"key,omitempty" validate:"max=32"`
	Mode    string `json:"mode,omitempty" validate:"required_if=Type set_mode,omitempty,oneof=view edit"`
	Enabled *bool  `json:"enabled,omitempty" validate:"required_if=Type set_adding,required_if=Type toggle_timeline"`
	Time    int64  `json:"time,omitempty"`
	NodeID  int64  `json:"node_id,omitempty" validate:"required_if=Type focus_node"`

	call func()
}

func (m *ClientMessage) point() viewport.Point {
	return viewport.Point{X: m.X, Y: m.Y}
}

func (m *ClientMessage) modifiers() interaction.Modifiers {
	return interaction.Modifiers{Ctrl: m.Ctrl, Shift: m.Shift, Alt: m.Alt, Meta: m.Meta}
}

// Envelope is one message sent to the client.
type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// ErrorData is the payload of an error envelope.
type ErrorData struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}
