// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/mapforge/internal/api"
	"github.com/tomtom215/mapforge/internal/backend"
	"github.com/tomtom215/mapforge/internal/config"
	"github.com/tomtom215/mapforge/internal/guard"
	"github.com/tomtom215/mapforge/internal/logging"
	"github.com/tomtom215/mapforge/internal/supervisor"
	"github.com/tomtom215/mapforge/internal/supervisor/services"
	"github.com/tomtom215/mapforge/internal/websocket"
)

func serveCmd(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the supervised session server",
		Long: `Start the HTTP server and the session hub under a suture supervisor tree.

  mapforge serve
  mapforge serve --config /etc/mapforge/config.yaml
  MAPFORGE_BACKEND_URL=https://campaign.example.com mapforge serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	logging.Init(cfg.LoggingConfig())
	logging.Info().
		Str("version", version).
		Str("addr", cfg.Server.Addr()).
		Str("backend", cfg.Backend.URL).
		Str("environment", cfg.Server.Environment).
		Msg("Starting Mapforge with supervisor tree")

	client := backend.NewClient(&cfg.Backend)
	mapBackend := backend.NewBreakerClient("map-backend", client, cfg.Backend.Breaker)

	warnInsecureSettings(cfg)

	hub := websocket.NewHub()
	handler := api.NewHandler(api.HandlerConfig{
		Backend: mapBackend,
		Hub:     hub,
		Guard:   guard.New(cfg.Guard),
		Session: cfg.SessionConfig(),
		Version: version,
	})

	mwConfig := api.DefaultChiMiddlewareConfig()
	mwConfig.CORSAllowedOrigins = cfg.Security.CORSOrigins
	mwConfig.RateLimitRequests = cfg.Security.RateLimitReqs
	mwConfig.RateLimitWindow = cfg.Security.RateLimitWindow
	mwConfig.RateLimitDisabled = cfg.Security.RateLimitDisabled
	router := api.NewRouter(handler, mwConfig)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       2 * time.Minute,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), cfg.TreeConfig())
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}
	tree.AddSessionService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	err = tree.Serve(ctx)

	if report, reportErr := tree.UnstoppedServiceReport(); reportErr == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within the shutdown timeout")
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree stopped with error")
		return err
	}
	logging.Info().Msg("Mapforge stopped")
	return nil
}

func warnInsecureSettings(cfg *config.Config) {
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}
	for _, o := range cfg.Security.CORSOrigins {
		if o == "*" {
			logging.Warn().Msg("CORS and WebSocket origins accept any site (CORS_ORIGINS=*); set explicit origins outside development")
			break
		}
	}
}
