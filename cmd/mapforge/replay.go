// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/mapforge/internal/backend"
	"github.com/tomtom215/mapforge/internal/config"
	"github.com/tomtom215/mapforge/internal/logging"
	"github.com/tomtom215/mapforge/internal/replay"
)

func replayCmd(load func() (*config.Config, error)) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "replay <script.toml>",
		Short: "Run a scripted gesture sequence headlessly",
		Long: `Feed a TOML gesture script to a session backed by an in-memory map server
and print the final camera, nodes and the writes the server received.

  mapforge replay drag.toml
  mapforge replay drag.toml --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := replayConfig(load)
			if err != nil {
				return err
			}
			sc, err := replay.ParseFile(args[0])
			if err != nil {
				return err
			}
			res, err := replay.Run(cmd.Context(), sc, cfg)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

// replayConfig runs scripts with the same engine settings the server uses.
func replayConfig(load func() (*config.Config, error)) (replay.Config, error) {
	rc := replay.DefaultConfig()
	cfg, err := load()
	if err != nil {
		return rc, fmt.Errorf("load configuration: %w", err)
	}
	logging.Init(cfg.LoggingConfig())
	rc.Session = cfg.SessionConfig()
	rc.Guard = cfg.Guard
	return rc, nil
}

func writeJSON(w io.Writer, res *replay.Result) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printResult(w io.Writer, res *replay.Result) {
	name := res.Name
	if name == "" {
		name = "replay"
	}
	fmt.Fprintf(w, "%s %s\n\n", brand.Sprint("mapforge"), name)

	r := res.Report
	info.Fprintf(w, "  loaded %d", r.Loaded)
	fmt.Fprintf(w, "  recovered %d  unknown kind %d  skipped %d\n", r.Recovered, r.UnknownKind, r.Skipped)

	f := res.Frame
	fmt.Fprintf(w, "  camera (%s, %s) zoom %s  viewport %sx%s  mode %s  gesture %s\n",
		num(f.Camera.X), num(f.Camera.Y), num(f.Camera.Zoom),
		num(f.Viewport.Width), num(f.Viewport.Height), f.Mode, f.Gesture)
	if f.Timeline.Enabled {
		fmt.Fprintf(w, "  timeline %d in [%d, %d]\n", f.Timeline.Current, f.Timeline.Min, f.Timeline.Max)
	}
	if o := f.Overlay; o != nil {
		fmt.Fprintf(w, "  overlay %d grid (%s, %s) scale %s\n", o.ID, num(o.GridX), num(o.GridY), num(o.Scale))
	}
	fmt.Fprintln(w)

	rows := make([][]string, 0, len(f.Nodes))
	for _, n := range f.Nodes {
		rows = append(rows, []string{
			strconv.FormatInt(n.ID, 10), n.Kind,
			num(n.World.X) + ", " + num(n.World.Y),
			num(n.Screen.X) + ", " + num(n.Screen.Y),
		})
	}
	table(w, []string{"ID", "KIND", "WORLD", "SCREEN"}, rows)
	if len(rows) > 0 {
		fmt.Fprintln(w)
	}

	if len(res.Calls) == 0 {
		subtle.Fprintln(w, "  no writes")
	}
	for _, c := range res.Calls {
		good.Fprintf(w, "  %-18s", c.Op)
		fmt.Fprintln(w, describeCall(c))
	}
	for _, n := range res.Notice {
		c := warn
		if n.Level == "error" {
			c = bad
		}
		c.Fprintf(w, "  %s %s: %s\n", n.Level, n.Op, n.Message)
	}
	for _, e := range res.Errors {
		bad.Fprintf(w, "  rejected: %s\n", e)
	}
	subtle.Fprintf(w, "\n  %d frames emitted\n", res.Frames)
}

func describeCall(c backend.Call) string {
	switch c.Op {
	case backend.OpUpdateEvent:
		return fmt.Sprintf("event %d -> (%v, %v)", c.ID, c.Update.XPixel, c.Update.YPixel)
	case backend.OpCreateEvent:
		return fmt.Sprintf("event %d %s at (%v, %v)", c.ID, c.Draft.NodeType, c.Draft.XPixel, c.Draft.YPixel)
	case backend.OpUpdateOverlay:
		return fmt.Sprintf("overlay %d grid (%s, %s) scale %s",
			c.ID, num(c.Overlay.PositionX), num(c.Overlay.PositionY), num(c.Overlay.Scale))
	case backend.OpSaveCurrentTime:
		return fmt.Sprintf("map %d current time %d", c.ID, c.Time)
	default:
		return strconv.FormatInt(c.ID, 10)
	}
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
