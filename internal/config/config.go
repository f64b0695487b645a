// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package config

import (
	"net"
	"strconv"
	"time"

	"github.com/tomtom215/mapforge/internal/backend"
	"github.com/tomtom215/mapforge/internal/guard"
	"github.com/tomtom215/mapforge/internal/interaction"
	"github.com/tomtom215/mapforge/internal/logging"
	"github.com/tomtom215/mapforge/internal/models"
	"github.com/tomtom215/mapforge/internal/session"
	"github.com/tomtom215/mapforge/internal/supervisor"
	"github.com/tomtom215/mapforge/internal/viewport"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Backend    backend.Config   `koanf:"backend"`
	Viewport   ViewportConfig   `koanf:"viewport"`
	Guard      guard.Config     `koanf:"guard"`
	Overlay    OverlayConfig    `koanf:"overlay"`
	Timeline   TimelineConfig   `koanf:"timeline"`
	Session    SessionConfig    `koanf:"session"`
	Security   SecurityConfig   `koanf:"security"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment" validate:"oneof=development production"`
}

// ViewportConfig holds camera and hit-test settings.
type ViewportConfig struct {
	HomeX    float64 `koanf:"home_x"`
	HomeY    float64 `koanf:"home_y"`
	HomeZoom float64 `koanf:"home_zoom" validate:"gt=0"`

	MinZoom       float64 `koanf:"min_zoom" validate:"gt=0"`
	MaxZoom       float64 `koanf:"max_zoom" validate:"gtfield=MinZoom"`
	ZoomInFactor  float64 `koanf:"zoom_in_factor" validate:"gt=1"`
	ZoomOutFactor float64 `koanf:"zoom_out_factor" validate:"gt=0,lt=1"`

	// HitRadius is in screen pixels.
	HitRadius float64 `koanf:"hit_radius" validate:"gt=0"`

	// CellSize is the spatial index cell edge in world pixels.
	CellSize float64 `koanf:"cell_size" validate:"gt=0"`

	// FallbackX and FallbackY are returned by world-to-screen before layout.
	FallbackX float64 `koanf:"fallback_x"`
	FallbackY float64 `koanf:"fallback_y"`
}

// OverlayConfig holds background-overlay alignment settings.
type OverlayConfig struct {
	GridUnitPixels float64 `koanf:"grid_unit_pixels" validate:"gt=0"`
	MinScale       float64 `koanf:"min_scale" validate:"gt=0"`
	MaxScale       float64 `koanf:"max_scale" validate:"gtfield=MinScale"`
}

// TimelineConfig holds timeline persistence settings.
type TimelineConfig struct {
	Debounce time.Duration `koanf:"debounce" validate:"gt=0"`
}

// SessionConfig holds per-connection session settings.
type SessionConfig struct {
	SaveTimeout   time.Duration `koanf:"save_timeout" validate:"gt=0"`
	LoadTimeout   time.Duration `koanf:"load_timeout" validate:"gt=0"`
	InboundQueue  int           `koanf:"inbound_queue" validate:"gt=0"`
	OutboundQueue int           `koanf:"outbound_queue" validate:"gt=0"`

	// LegacyWidth and LegacyHeight are the world size that 100% maps to in
	// percent-encoded records.
	LegacyWidth  float64 `koanf:"legacy_width" validate:"gt=0"`
	LegacyHeight float64 `koanf:"legacy_height" validate:"gt=0"`
}

// SecurityConfig holds CORS and rate limiting settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_requests" validate:"gte=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// SupervisorConfig holds suture tree settings.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold" validate:"gte=0"`
	FailureDecay     float64       `koanf:"failure_decay" validate:"gte=0"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`

	// FilePath enables size-rotated file output.
	FilePath       string `koanf:"file_path"`
	FileMaxSizeMB  int    `koanf:"file_max_size_mb" validate:"gte=0"`
	FileMaxBackups int    `koanf:"file_max_backups" validate:"gte=0"`
	FileMaxAgeDays int    `koanf:"file_max_age_days" validate:"gte=0"`
	FileCompress   bool   `koanf:"file_compress"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// IsProduction reports whether the server runs in production mode.
func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}

// FallbackPoint returns the pre-layout screen point.
func (v ViewportConfig) FallbackPoint() viewport.Point {
	return viewport.Point{X: v.FallbackX, Y: v.FallbackY}
}

// InteractionConfig assembles the interaction settings from the viewport and
// overlay sections.
func (c *Config) InteractionConfig() interaction.Config {
	return interaction.Config{
		Home: viewport.Camera{X: c.Viewport.HomeX, Y: c.Viewport.HomeY, Zoom: c.Viewport.HomeZoom},
		Limits: viewport.Limits{
			MinZoom:       c.Viewport.MinZoom,
			MaxZoom:       c.Viewport.MaxZoom,
			ZoomInFactor:  c.Viewport.ZoomInFactor,
			ZoomOutFactor: c.Viewport.ZoomOutFactor,
		},
		HitRadius:       c.Viewport.HitRadius,
		CellSize:        c.Viewport.CellSize,
		GridUnitPixels:  c.Overlay.GridUnitPixels,
		OverlayMinScale: c.Overlay.MinScale,
		OverlayMaxScale: c.Overlay.MaxScale,
		Fallback:        c.Viewport.FallbackPoint(),
	}
}

// SessionConfig returns the per-session settings.
func (c *Config) SessionConfig() session.Config {
	return session.Config{
		Interaction:      c.InteractionConfig(),
		LegacyFrame:      models.LegacyFrame{Width: c.Session.LegacyWidth, Height: c.Session.LegacyHeight},
		TimelineDebounce: c.Timeline.Debounce,
		SaveTimeout:      c.Session.SaveTimeout,
		LoadTimeout:      c.Session.LoadTimeout,
		InboundQueue:     c.Session.InboundQueue,
		OutboundQueue:    c.Session.OutboundQueue,
	}
}

// LoggingConfig returns the logger settings. Output stays nil so the logger
// picks its default writer.
func (c *Config) LoggingConfig() logging.Config {
	return logging.Config{
		Level:     c.Logging.Level,
		Format:    c.Logging.Format,
		Caller:    c.Logging.Caller,
		Timestamp: true,
		File: logging.FileConfig{
			Path:       c.Logging.FilePath,
			MaxSizeMB:  c.Logging.FileMaxSizeMB,
			MaxBackups: c.Logging.FileMaxBackups,
			MaxAgeDays: c.Logging.FileMaxAgeDays,
			Compress:   c.Logging.FileCompress,
		},
	}
}

// TreeConfig returns the supervisor settings.
func (c *Config) TreeConfig() supervisor.TreeConfig {
	return supervisor.TreeConfig{
		FailureThreshold: c.Supervisor.FailureThreshold,
		FailureDecay:     c.Supervisor.FailureDecay,
		FailureBackoff:   c.Supervisor.FailureBackoff,
		ShutdownTimeout:  c.Supervisor.ShutdownTimeout,
	}
}
