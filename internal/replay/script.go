// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package replay

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-json"

	"github.com/tomtom215/mapforge/internal/backend"
	"github.com/tomtom215/mapforge/internal/models"
	"github.com/tomtom215/mapforge/internal/session"
)

// Pseudo steps that drive the runner instead of the session.
const (
	StepSync = "sync"
	StepFail = "fail"
)

// ErrEmptyScript is returned for a script without steps.
var ErrEmptyScript = errors.New("replay script has no steps")

// Script is a scripted session: the map the backend starts with and the input
// events fed to the session in order.
type Script struct {
	Name     string    `toml:"name"`
	MapID    int64     `toml:"map_id"`
	Nodes    []Node    `toml:"node"`
	Overlay  *Overlay  `toml:"overlay"`
	Timeline *Timeline `toml:"timeline"`
	Steps    []Step    `toml:"step"`
}

// Node seeds one backend record with X/Y in world pixels or LegacyX/LegacyY
// in percent. Values are stored as given, so a script can seed corrupted
// coordinates to reproduce load recovery.
type Node struct {
	ID          int64    `toml:"id"`
	Kind        string   `toml:"kind"`
	Title       string   `toml:"title"`
	X           *float64 `toml:"x"`
	Y           *float64 `toml:"y"`
	LegacyX     *float64 `toml:"legacy_x"`
	LegacyY     *float64 `toml:"legacy_y"`
	Width       float64  `toml:"width"`
	Height      float64  `toml:"height"`
	VisibleFrom *int64   `toml:"visible_from"`
	VisibleTo   *int64   `toml:"visible_to"`
	Metadata    string   `toml:"metadata"`
}

// Overlay seeds the background image placement.
type Overlay struct {
	ID     int64   `toml:"id"`
	GridX  float64 `toml:"grid_x"`
	GridY  float64 `toml:"grid_y"`
	Scale  float64 `toml:"scale"`
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
}

// Timeline seeds the timeline settings.
type Timeline struct {
	Enabled bool  `toml:"enabled"`
	Current int64 `toml:"current"`
	Min     int64 `toml:"min"`
	Max     int64 `toml:"max"`
}

// Step is one session message, or a sync or fail pseudo step.
type Step struct {
	Type string `toml:"type"`

	X      float64 `toml:"x"`
	Y      float64 `toml:"y"`
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
	DeltaY float64 `toml:"delta_y"`

	Ctrl  bool `toml:"ctrl"`
	Shift bool `toml:"shift"`
	Alt   bool `toml:"alt"`
	Meta  bool `toml:"meta"`

	Key     string `toml:"key"`
	Mode    string `toml:"mode"`
	Enabled *bool  `toml:"enabled"`
	Time    int64  `toml:"time"`
	NodeID  int64  `toml:"node_id"`

	// Op and FailMessage configure a fail step: the next backend call of Op
	// returns an error with FailMessage.
	Op          string `toml:"op"`
	FailMessage string `toml:"message"`
}

// Message converts a session step into the message the session receives.
func (s *Step) Message() session.ClientMessage {
	return session.ClientMessage{
		Type:    s.Type,
		X:       s.X,
		Y:       s.Y,
		Width:   s.Width,
		Height:  s.Height,
		DeltaY:  s.DeltaY,
		Ctrl:    s.Ctrl,
		Shift:   s.Shift,
		Alt:     s.Alt,
		Meta:    s.Meta,
		Key:     s.Key,
		Mode:    s.Mode,
		Enabled: s.Enabled,
		Time:    s.Time,
		NodeID:  s.NodeID,
	}
}

var failOps = map[string]bool{
	backend.OpListEvents:      true,
	backend.OpCreateEvent:     true,
	backend.OpUpdateEvent:     true,
	backend.OpGetOverlay:      true,
	backend.OpUpdateOverlay:   true,
	backend.OpGetTimeline:     true,
	backend.OpSaveCurrentTime: true,
}

// Parse decodes a script. Unknown keys are rejected so typos in a script do
// not silently change what it reproduces.
func Parse(r io.Reader) (*Script, error) {
	var sc Script
	md, err := toml.NewDecoder(r).Decode(&sc)
	if err != nil {
		return nil, fmt.Errorf("decode replay script: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys in replay script: %s", strings.Join(keys, ", "))
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// ParseFile decodes the script at path.
func ParseFile(path string) (*Script, error) {
	var sc Script
	md, err := toml.DecodeFile(path, &sc)
	if err != nil {
		return nil, fmt.Errorf("decode replay script %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown keys in replay script %s: %v", path, undecoded)
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("replay script %s: %w", path, err)
	}
	return &sc, nil
}

// Validate checks seed records and pseudo steps. Session steps are validated
// by the session itself, and invalid ones show up as error envelopes in the
// result.
func (sc *Script) Validate() error {
	if sc.MapID == 0 {
		sc.MapID = 1
	}
	if len(sc.Steps) == 0 {
		return ErrEmptyScript
	}
	for i := range sc.Nodes {
		n := &sc.Nodes[i]
		if n.Kind == "" {
			n.Kind = string(models.KindInfo)
		}
		hasPixel := n.X != nil && n.Y != nil
		hasLegacy := n.LegacyX != nil && n.LegacyY != nil
		if !hasPixel && !hasLegacy {
			return fmt.Errorf("node %d: needs x/y or legacy_x/legacy_y", i)
		}
	}
	for i := range sc.Steps {
		st := &sc.Steps[i]
		switch st.Type {
		case StepSync:
		case StepFail:
			if !failOps[st.Op] {
				return fmt.Errorf("step %d: unknown fail op %q", i, st.Op)
			}
		case "":
			return fmt.Errorf("step %d: missing type", i)
		}
	}
	return nil
}

// seed loads the script's records into a memory backend.
func (sc *Script) seed(mem *backend.Memory) error {
	for i := range sc.Nodes {
		n := &sc.Nodes[i]
		rec := models.EventRecord{
			ID:          n.ID,
			MapID:       sc.MapID,
			Title:       n.Title,
			XPixel:      n.X,
			YPixel:      n.Y,
			X:           n.LegacyX,
			Y:           n.LegacyY,
			Width:       n.Width,
			Height:      n.Height,
			NodeType:    n.Kind,
			VisibleFrom: n.VisibleFrom,
			VisibleTo:   n.VisibleTo,
		}
		if n.Metadata != "" {
			if !json.Valid([]byte(n.Metadata)) {
				return fmt.Errorf("node %d: metadata is not valid JSON", i)
			}
			rec.Metadata = []byte(n.Metadata)
		}
		mem.AddEvent(rec)
	}
	if o := sc.Overlay; o != nil {
		mem.SetOverlay(models.OverlayRecord{
			ID:        o.ID,
			MapID:     sc.MapID,
			PositionX: o.GridX,
			PositionY: o.GridY,
			Scale:     o.Scale,
			Width:     o.Width,
			Height:    o.Height,
		})
	}
	if tl := sc.Timeline; tl != nil {
		mem.SetTimeline(models.TimelineSettings{
			MapID:       sc.MapID,
			Enabled:     tl.Enabled,
			CurrentTime: tl.Current,
			MinTime:     tl.Min,
			MaxTime:     tl.Max,
		})
	}
	return nil
}
