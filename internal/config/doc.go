// Mapforge - Campaign Map Viewport and Node Interaction Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapforge

/*
Package config loads Mapforge configuration with koanf.

Configuration is layered, later layers overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. A YAML file: $CONFIG_PATH, then config.yaml, config.yml,
    /etc/mapforge/config.yaml, /etc/mapforge/config.yml
 3. Environment variables listed in envMappings

Example config.yaml:

	server:
	  port: 8420
	  environment: production
	backend:
	  url: https://campaign.example.com
	  breaker:
	    failure_ratio: 0.5
	viewport:
	  min_zoom: 0.1
	  max_zoom: 5
	guard:
	  threshold: 10000
	timeline:
	  debounce: 500ms
	security:
	  cors_origins:
	    - https://campaign.example.com

The same settings through the environment:

	HTTP_PORT=8420
	ENVIRONMENT=production
	MAPFORGE_BACKEND_URL=https://campaign.example.com
	GUARD_THRESHOLD=10000
	CORS_ORIGINS=https://campaign.example.com,https://gm.example.com

Durations accept Go syntax (500ms, 15s). Slice variables are comma separated.

Load validates the result: field constraints through the validation package,
then cross-section rules such as the home camera lying inside the guard
threshold. Helper methods (SessionConfig, InteractionConfig, LoggingConfig,
TreeConfig) convert sections into the structs other packages take.
*/
package config
