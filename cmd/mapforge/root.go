// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package main

import (
	"github.com/spf13/cobra"

	"github.com/tomtom215/mapforge/internal/config"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "mapforge",
		Short: "Campaign map viewport and node interaction engine",
		Long: brand.Sprint("mapforge") + " serves interactive campaign-map sessions over WebSocket\n" +
			subtle.Sprint("Camera, drag gestures, overlay alignment and timeline filtering with optimistic saves"),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetVersionTemplate("mapforge {{ .Version }}\n")
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file (default: $CONFIG_PATH, ./config.yaml, /etc/mapforge/config.yaml)")

	load := func() (*config.Config, error) {
		if configPath != "" {
			return config.LoadFile(configPath)
		}
		return config.Load()
	}

	root.AddCommand(
		serveCmd(load),
		replayCmd(load),
	)
	return root
}
