// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/mapforge/internal/backend"
	"github.com/tomtom215/mapforge/internal/replay"
)

const script = `
name = "drag right"

[[node]]
id = 1
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
type = "pointer_up"
x = 450.0
y = 300.0
`

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestReplayCommand_Text(t *testing.T) {
	cfgPath := writeTemp(t, "config.yaml", "logging:\n  level: error\n")
	scriptPath := writeTemp(t, "drag.toml", script)

	out, err := execute(t, "replay", scriptPath, "--config", cfgPath)
	if err != nil {
		t.Fatalf("replay error = %v\n%s", err, out)
	}
	for _, want := range []string{"drag right", "update_event", "event 1 -> (550, 500)", "550, 500"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestReplayCommand_JSON(t *testing.T) {
	cfgPath := writeTemp(t, "config.yaml", "logging:\n  level: error\n")
	scriptPath := writeTemp(t, "drag.toml", script)

	out, err := execute(t, "replay", scriptPath, "--json", "--config", cfgPath)
	if err != nil {
		t.Fatalf("replay error = %v\n%s", err, out)
	}
	var res replay.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(res.Calls) != 1 || res.Calls[0].Op != backend.OpUpdateEvent {
		t.Errorf("calls = %+v", res.Calls)
	}
}

func TestReplayCommand_Errors(t *testing.T) {
	cfgPath := writeTemp(t, "config.yaml", "logging:\n  level: error\n")

	if _, err := execute(t, "replay"); err == nil {
		t.Error("replay without a script should fail")
	}
	if _, err := execute(t, "replay", filepath.Join(t.TempDir(), "missing.toml"), "--config", cfgPath); err == nil {
		t.Error("replay with a missing script should fail")
	}
	badCfg := writeTemp(t, "bad.yaml", "guard:\n  threshold: 0\n")
	if _, err := execute(t, "replay", writeTemp(t, "s.toml", script), "--config", badCfg); err == nil {
		t.Error("replay with an invalid config should fail")
	}
}

func TestVersionFlag(t *testing.T) {
	out, err := execute(t, "--version")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "mapforge "+version {
		t.Errorf("version output = %q", out)
	}
}
