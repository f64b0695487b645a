// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package replay

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/mapforge/internal/backend"
	"github.com/tomtom215/mapforge/internal/viewport"
)

const dragScript = `
name = "drag right"
map_id = 1

[[node]]
id = 1
kind = "npc"
x = 500.0
y = 500.0

[[step]]
type = "resize"
width = 800.0
height = 600.0

[[step]]
type = "set_mode"
mode = "edit"

[[step]]
type = "pointer_down"
x = 400.0
y = 300.0

[[step]]
type = "pointer_move"
x = 450.0
y = 300.0

[[step]]
type = "pointer_up"
x = 450.0
y = 300.0
`

func mustParse(t *testing.T, src string) *Script {
	t.Helper()
	sc, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return sc
}

func runScript(t *testing.T, sc *Script) *Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := Run(ctx, sc, DefaultConfig())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return res
}

func TestRun_DragPersistsFinalPosition(t *testing.T) {
	t.Parallel()

	res := runScript(t, mustParse(t, dragScript))

	if res.Name != "drag right" {
		t.Errorf("Name = %q", res.Name)
	}
	if len(res.Frame.Nodes) != 1 {
		t.Fatalf("nodes = %+v, want 1", res.Frame.Nodes)
	}
	n := res.Frame.Nodes[0]
	if n.World != (viewport.Point{X: 550, Y: 500}) {
		t.Errorf("world = %+v, want {550 500}", n.World)
	}
	if n.Screen != (viewport.Point{X: 450, Y: 300}) {
		t.Errorf("screen = %+v, want {450 300}", n.Screen)
	}
	if n.Kind != "npc" {
		t.Errorf("kind = %q, want npc", n.Kind)
	}
	if len(res.Calls) != 1 || res.Calls[0].Op != backend.OpUpdateEvent {
		t.Fatalf("calls = %+v, want one update", res.Calls)
	}
	if u := res.Calls[0].Update; u.XPixel != 550 || u.YPixel != 500 {
		t.Errorf("update = %+v, want {550 500}", u)
	}
	if res.Frames == 0 {
		t.Error("no frames observed")
	}
}

func TestRun_FailedSaveRollsBack(t *testing.T) {
	t.Parallel()

	src := strings.Replace(dragScript, `[[step]]
type = "pointer_down"`, `[[step]]
type = "fail"
op = "update_event"
message = "database unavailable"

[[step]]
type = "pointer_down"`, 1)
	res := runScript(t, mustParse(t, src))

	if got := res.Frame.Nodes[0].World; got != (viewport.Point{X: 500, Y: 500}) {
		t.Errorf("world = %+v, want rolled back to {500 500}", got)
	}
	if len(res.Notice) != 1 || res.Notice[0].Level != "error" || res.Notice[0].EntityID != 1 {
		t.Errorf("notices = %+v, want one error notice for node 1", res.Notice)
	}
	for _, c := range res.Calls {
		if c.Op == backend.OpUpdateEvent {
			t.Errorf("unexpected successful update %+v", c)
		}
	}
}

func TestRun_RecoversCorruptedNode(t *testing.T) {
	t.Parallel()

	res := runScript(t, mustParse(t, `
[[node]]
id = 3
x = 20000.0
y = 500.0

[[step]]
type = "resize"
width = 800.0
height = 600.0
`))

	if res.Report.Recovered != 1 {
		t.Errorf("Recovered = %d, want 1", res.Report.Recovered)
	}
	w := res.Frame.Nodes[0].World
	if w.X < 400 || w.X > 600 || w.Y < 400 || w.Y > 600 {
		t.Errorf("recovered position %+v outside [400,600]", w)
	}
	if len(res.Calls) != 0 {
		t.Errorf("calls = %+v, want none", res.Calls)
	}
}

func TestRun_TimelineFiltersAndSaves(t *testing.T) {
	t.Parallel()

	res := runScript(t, mustParse(t, `
[timeline]
enabled = true
current = 10
min = 0
max = 100

[[node]]
id = 1
x = 100.0
y = 100.0
visible_from = 0
visible_to = 60

[[node]]
id = 2
x = 200.0
y = 200.0
visible_from = 70
visible_to = 100

[[step]]
type = "resize"
width = 800.0
height = 600.0

[[step]]
type = "set_timeline"
time = 50
`))

	if len(res.Frame.Nodes) != 1 || res.Frame.Nodes[0].ID != 1 {
		t.Errorf("visible nodes = %+v, want only node 1", res.Frame.Nodes)
	}
	var saved []int64
	for _, c := range res.Calls {
		if c.Op == backend.OpSaveCurrentTime {
			saved = append(saved, c.Time)
		}
	}
	if len(saved) != 1 || saved[0] != 50 {
		t.Errorf("timeline saves = %v, want [50]", saved)
	}
}

func TestRun_RecordsInvalidMessages(t *testing.T) {
	t.Parallel()

	res := runScript(t, mustParse(t, `
[[step]]
type = "set_mode"

[[step]]
type = "sync"
`))

	if len(res.Errors) != 1 || !strings.HasPrefix(res.Errors[0], "invalid message") {
		t.Errorf("errors = %v, want one invalid message", res.Errors)
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{"no steps", `name = "x"`, "no steps"},
		{"unknown key", "colour = 1\n[[step]]\ntype = \"sync\"", "unknown keys"},
		{"bad fail op", "[[step]]\ntype = \"fail\"\nop = \"drop_table\"", "unknown fail op"},
		{"missing type", "[[step]]\nx = 1.0", "missing type"},
		{"node without position", "[[node]]\nid = 1\n[[step]]\ntype = \"sync\"", "needs x/y"},
		{"bad toml", "[[step", "decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(strings.NewReader(tt.src))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}

	if _, err := Parse(strings.NewReader(`name = "x"`)); !errors.Is(err, ErrEmptyScript) {
		t.Errorf("Parse() error = %v, want ErrEmptyScript", err)
	}
}

func TestParseFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "drag.toml")
	if err := os.WriteFile(path, []byte(dragScript), 0o600); err != nil {
		t.Fatal(err)
	}
	sc, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if sc.MapID != 1 || len(sc.Steps) != 5 || sc.Nodes[0].Kind != "npc" {
		t.Errorf("script = %+v", sc)
	}

	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("ParseFile() on a missing file should fail")
	}
}

func TestRun_BadMetadata(t *testing.T) {
	t.Parallel()

	sc := mustParse(t, "[[node]]\nx = 1.0\ny = 1.0\nmetadata = \"{oops\"\n[[step]]\ntype = \"sync\"")
	if _, err := Run(context.Background(), sc, DefaultConfig()); err == nil {
		t.Error("Run() with invalid metadata should fail")
	}
}
