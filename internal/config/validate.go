// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/tomtom215/mapforge/internal/validation"
)

// Validate checks field constraints and the relationships between sections.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	if err := c.validateBackend(); err != nil {
		return err
	}
	if err := c.validateViewport(); err != nil {
		return err
	}
	if err := c.validateGuard(); err != nil {
		return err
	}
	return c.validateSecurity()
}

func (c *Config) validateBackend() error {
	u, err := url.Parse(c.Backend.URL)
	if err != nil {
		return fmt.Errorf("MAPFORGE_BACKEND_URL is invalid: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("MAPFORGE_BACKEND_URL must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("MAPFORGE_BACKEND_URL must include a host")
	}
	return nil
}

func (c *Config) validateViewport() error {
	v := c.Viewport
	if v.HomeZoom < v.MinZoom || v.HomeZoom > v.MaxZoom {
		return fmt.Errorf("VIEWPORT_HOME_ZOOM %v must be within [%v, %v]", v.HomeZoom, v.MinZoom, v.MaxZoom)
	}
	return nil
}

// The home camera and the recovery box must be inside the accepted region,
// otherwise a reset or a load recovery would produce a coordinate the guard
// then refuses to persist.
func (c *Config) validateGuard() error {
	t := c.Guard.Threshold
	checks := []struct {
		name string
		v    float64
	}{
		{"VIEWPORT_HOME_X", c.Viewport.HomeX},
		{"VIEWPORT_HOME_Y", c.Viewport.HomeY},
		{"GUARD_RECOVERY_CENTER_X", c.Guard.RecoveryCenterX},
		{"GUARD_RECOVERY_CENTER_Y", c.Guard.RecoveryCenterY},
	}
	for _, chk := range checks {
		if chk.v < -t || chk.v > t {
			return fmt.Errorf("%s %v is outside the guard threshold %v", chk.name, chk.v, t)
		}
	}
	for _, center := range []float64{c.Guard.RecoveryCenterX, c.Guard.RecoveryCenterY} {
		if center-c.Guard.RecoveryJitter < -t || center+c.Guard.RecoveryJitter > t {
			return fmt.Errorf("GUARD_RECOVERY_JITTER %v reaches past the guard threshold %v", c.Guard.RecoveryJitter, t)
		}
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Server.IsProduction() {
		for _, o := range c.Security.CORSOrigins {
			if strings.TrimSpace(o) == "*" {
				return fmt.Errorf("CORS_ORIGINS must not contain * when ENVIRONMENT=production")
			}
		}
	}
	if !c.Security.RateLimitDisabled && c.Security.RateLimitReqs > 0 && c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive when rate limiting is enabled")
	}
	return nil
}
