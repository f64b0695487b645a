// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/mapforge/internal/models"
)

// maxErrorBodySize limits how much of an error response is read.
const maxErrorBodySize = 64 * 1024

// Config configures the REST client.
type Config struct {
	// URL is the base URL of the map backend, e.g. http://localhost:3000.
	URL string `koanf:"url" validate:"required,url"`

	// Timeout bounds each HTTP request. Default: 10s
	Timeout time.Duration `koanf:"timeout"`

	// RateLimit is the sustained request rate per second. Zero disables limiting.
	RateLimit float64 `koanf:"rate_limit" validate:"gte=0"`

	// RateBurst is the limiter burst size. Default: 10
	RateBurst int `koanf:"rate_burst" validate:"gte=0"`

	// Breaker configures the circuit breaker around the client.
	Breaker BreakerConfig `koanf:"breaker"`
}

// Client talks to the map backend's REST API.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

var _ Backend = (*Client)(nil)

// NewClient creates a REST client.
func NewClient(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 10
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		http:    &http.Client{Timeout: timeout},
		limiter: limiter,
	}
}

// ListEvents returns every node of a map.
func (c *Client) ListEvents(ctx context.Context, mapID int64) ([]models.EventRecord, error) {
	var out []models.EventRecord
	err := c.do(ctx, "list events", http.MethodGet, fmt.Sprintf("/api/maps/%d/events", mapID), nil, &out)
	return out, err
}

// CreateEvent creates a node and returns the stored record.
func (c *Client) CreateEvent(ctx context.Context, draft models.NodeDraft) (models.EventRecord, error) {
	var out models.EventRecord
	err := c.do(ctx, "create event", http.MethodPost, "/api/events", draft, &out)
	return out, err
}

// UpdateEvent saves a node position.
func (c *Client) UpdateEvent(ctx context.Context, eventID int64, update models.NodeUpdate) error {
	return c.do(ctx, "update event", http.MethodPut, fmt.Sprintf("/api/events/%d", eventID), update, nil)
}

// GetOverlay returns the timeline image of a map.
func (c *Client) GetOverlay(ctx context.Context, mapID int64) (models.OverlayRecord, error) {
	var out models.OverlayRecord
	err := c.do(ctx, "get overlay", http.MethodGet, fmt.Sprintf("/api/maps/%d/timeline-image", mapID), nil, &out)
	return out, err
}

// UpdateOverlay saves the overlay placement.
func (c *Client) UpdateOverlay(ctx context.Context, imageID int64, update models.OverlayUpdate) error {
	return c.do(ctx, "update overlay", http.MethodPut, fmt.Sprintf("/api/timeline-images/%d", imageID), update, nil)
}

// GetTimeline returns the timeline settings of a map.
func (c *Client) GetTimeline(ctx context.Context, mapID int64) (models.TimelineSettings, error) {
	var out models.TimelineSettings
	err := c.do(ctx, "get timeline", http.MethodGet, fmt.Sprintf("/api/maps/%d/timeline", mapID), nil, &out)
	return out, err
}

// SaveCurrentTime saves the scrubber position.
func (c *Client) SaveCurrentTime(ctx context.Context, mapID, current int64) error {
	body := struct {
		CurrentTime int64 `json:"current_time"`
	}{current}
	return c.do(ctx, "save timeline", http.MethodPut, fmt.Sprintf("/api/maps/%d/timeline", mapID), body, nil)
}

// do performs one JSON request. body and result may be nil.
func (c *Client) do(ctx context.Context, op, method, path string, body, result interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s: rate limiter: %w", op, err)
		}
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: HTTP request failed: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Op: op, Code: resp.StatusCode, Message: errorMessage(resp.Body)}
	}

	if result == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodySize))
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}

// errorMessage reads {"error": "..."} or {"message": "..."} bodies, falling
// back to the raw text.
func errorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil || len(data) == 0 {
		return ""
	}
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &envelope) == nil {
		if envelope.Error != "" {
			return envelope.Error
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}
	return strings.TrimSpace(string(data))
}
