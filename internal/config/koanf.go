// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/mapforge/internal/backend"
	"github.com/tomtom215/mapforge/internal/guard"
	"github.com/tomtom215/mapforge/internal/interaction"
	"github.com/tomtom215/mapforge/internal/models"
	"github.com/tomtom215/mapforge/internal/timeline"
	"github.com/tomtom215/mapforge/internal/viewport"
)

// DefaultConfigPaths lists the config file locations in priority order.
// The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/mapforge/config.yaml",
	"/etc/mapforge/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	interact := interaction.DefaultConfig()
	limits := viewport.DefaultLimits()

	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8420,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Backend: backend.Config{
			URL:       "http://localhost:3000",
			Timeout:   10 * time.Second,
			RateLimit: 20,
			RateBurst: 10,
			Breaker:   backend.DefaultBreakerConfig(),
		},
		Viewport: ViewportConfig{
			HomeX:         interact.Home.X,
			HomeY:         interact.Home.Y,
			HomeZoom:      interact.Home.Zoom,
			MinZoom:       limits.MinZoom,
			MaxZoom:       limits.MaxZoom,
			ZoomInFactor:  limits.ZoomInFactor,
			ZoomOutFactor: limits.ZoomOutFactor,
			HitRadius:     interact.HitRadius,
			CellSize:      interact.CellSize,
			FallbackX:     interact.Fallback.X,
			FallbackY:     interact.Fallback.Y,
		},
		Guard: guard.DefaultConfig(),
		Overlay: OverlayConfig{
			GridUnitPixels: interact.GridUnitPixels,
			MinScale:       interact.OverlayMinScale,
			MaxScale:       interact.OverlayMaxScale,
		},
		Timeline: TimelineConfig{
			Debounce: timeline.DefaultDebounce,
		},
		Session: SessionConfig{
			SaveTimeout:   15 * time.Second,
			LoadTimeout:   30 * time.Second,
			InboundQueue:  256,
			OutboundQueue: 256,
			LegacyWidth:   models.DefaultLegacyFrame.Width,
			LegacyHeight:  models.DefaultLegacyFrame.Height,
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:          "info",
			Format:         "json",
			FileMaxSizeMB:  100,
			FileMaxBackups: 5,
			FileMaxAgeDays: 14,
		},
	}
}

// Load builds the configuration in three layers: struct defaults, then an
// optional YAML file, then mapped environment variables. The result is
// validated before it is returned.
func Load() (*Config, error) {
	return LoadFile(findConfigFile())
}

// LoadFile is Load with an explicit config file. An empty path skips the file
// layer.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// MAPFORGE_BACKEND_URL -> backend.url
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated environment values.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings lists the accepted environment variables. Unlisted variables are
// ignored so unrelated environment does not leak into the config.
var envMappings = map[string]string{
	"http_host":                    "server.host",
	"http_port":                    "server.port",
	"http_read_timeout":            "server.read_timeout",
	"http_write_timeout":           "server.write_timeout",
	"http_shutdown_timeout":        "server.shutdown_timeout",
	"environment":                  "server.environment",
	"mapforge_backend_url":         "backend.url",
	"mapforge_backend_timeout":     "backend.timeout",
	"backend_rate_limit":           "backend.rate_limit",
	"backend_rate_burst":           "backend.rate_burst",
	"breaker_max_requests":         "backend.breaker.max_requests",
	"breaker_interval":             "backend.breaker.interval",
	"breaker_timeout":              "backend.breaker.timeout",
	"breaker_min_requests":         "backend.breaker.min_requests",
	"breaker_failure_ratio":        "backend.breaker.failure_ratio",
	"viewport_home_x":              "viewport.home_x",
	"viewport_home_y":              "viewport.home_y",
	"viewport_home_zoom":           "viewport.home_zoom",
	"viewport_min_zoom":            "viewport.min_zoom",
	"viewport_max_zoom":            "viewport.max_zoom",
	"viewport_zoom_in_factor":      "viewport.zoom_in_factor",
	"viewport_zoom_out_factor":     "viewport.zoom_out_factor",
	"viewport_hit_radius":          "viewport.hit_radius",
	"viewport_cell_size":           "viewport.cell_size",
	"guard_threshold":              "guard.threshold",
	"guard_recovery_center_x":      "guard.recovery_center_x",
	"guard_recovery_center_y":      "guard.recovery_center_y",
	"guard_recovery_jitter":        "guard.recovery_jitter",
	"overlay_grid_unit_pixels":     "overlay.grid_unit_pixels",
	"overlay_min_scale":            "overlay.min_scale",
	"overlay_max_scale":            "overlay.max_scale",
	"timeline_debounce":            "timeline.debounce",
	"session_save_timeout":         "session.save_timeout",
	"session_load_timeout":         "session.load_timeout",
	"session_inbound_queue":        "session.inbound_queue",
	"session_outbound_queue":       "session.outbound_queue",
	"cors_origins":                 "security.cors_origins",
	"rate_limit_requests":          "security.rate_limit_requests",
	"rate_limit_window":            "security.rate_limit_window",
	"disable_rate_limit":           "security.rate_limit_disabled",
	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"log_level":                    "logging.level",
	"log_format":                   "logging.format",
	"log_caller":                   "logging.caller",
	"log_file":                     "logging.file_path",
	"log_file_max_size_mb":         "logging.file_max_size_mb",
	"log_file_max_backups":         "logging.file_max_backups",
	"log_file_max_age_days":        "logging.file_max_age_days",
	"log_file_compress":            "logging.file_compress",
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// WatchConfigFile calls callback whenever the file at path changes. The caller
// owns synchronization of any configuration it reloads.
func WatchConfigFile(path string, callback func()) error {
	return file.Provider(path).Watch(func(_ interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
