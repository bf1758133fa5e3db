// NovaDom - New-Construction Real Estate Marketplace
// Copyright 2026 NovaDom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/novadom/novadom

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
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/novadom/config.yaml",
	"/etc/novadom/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "NOVADOM_CONFIG_PATH"

// envPrefix namespaces all configuration environment variables.
const envPrefix = "NOVADOM_"

// defaultConfig returns a Config with all built-in defaults. These are
// applied first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			Environment:     "development",
		},
		Database: DatabaseConfig{
			URL:             "",
			MaxConns:        10,
			MinConns:        2,
			ConnectTimeout:  10 * time.Second,
			MaxConnLifetime: time.Hour,
		},
		Security: SecurityConfig{
			JWTSecret:        "",
			TokenTTL:         30 * time.Minute,
			BcryptCost:       12,
			AllowAdminSignup: false,
			RateLimitReqs:    100,
			RateLimitWindow:  time.Minute,
			CORSOrigins:      []string{"*"},
			TrustedProxies:   []string{},
		},
		API: APIConfig{
			DefaultPageSize: 10,
			MaxPageSize:     100,
			MaxRadiusKm:     100,
		},
		Geocoding: GeocodingConfig{
			Enabled:   false,
			BaseURL:   "https://nominatim.openstreetmap.org",
			Timeout:   5 * time.Second,
			CachePath: "/data/geocache",
			CacheTTL:  30 * 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load builds configuration from layered sources:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables (highest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// NOVADOM_DATABASE_URL -> database.url, NOVADOM_JWT_SECRET -> security.jwt_secret
	if err := k.Load(env.Provider(envPrefix, ".", envTransformFunc), nil); err != nil {
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

// findConfigFile searches for a config file, honoring CONFIG_PATH first.
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

// sliceConfigPaths defines config paths parsed as comma-separated slices
// when supplied through environment variables.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"security.trusted_proxies",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. Env vars arrive as strings; the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}
		strVal, ok := val.(string)
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
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config paths.
// Only NOVADOM_-prefixed variables are considered, and unmapped names are
// dropped so random environment noise cannot leak into the configuration.
func envTransformFunc(key string) string {
	if !strings.HasPrefix(key, envPrefix) {
		return ""
	}
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))

	envMappings := map[string]string{
		// Server
		"http_host":        "server.host",
		"http_port":        "server.port",
		"read_timeout":     "server.read_timeout",
		"write_timeout":    "server.write_timeout",
		"shutdown_timeout": "server.shutdown_timeout",
		"environment":      "server.environment",

		// Database
		"database_url":               "database.url",
		"database_max_conns":         "database.max_conns",
		"database_min_conns":         "database.min_conns",
		"database_connect_timeout":   "database.connect_timeout",
		"database_max_conn_lifetime": "database.max_conn_lifetime",

		// Security
		"jwt_secret":               "security.jwt_secret",
		"token_ttl":                "security.token_ttl",
		"bcrypt_cost":              "security.bcrypt_cost",
		"allow_admin_signup":       "security.allow_admin_signup",
		"bootstrap_admin_email":    "security.bootstrap_admin.email",
		"bootstrap_admin_password": "security.bootstrap_admin.password",
		"rate_limit_requests":      "security.rate_limit_reqs",
		"rate_limit_window":        "security.rate_limit_window",
		"cors_origins":             "security.cors_origins",
		"trusted_proxies":          "security.trusted_proxies",

		// API
		"api_default_page_size": "api.default_page_size",
		"api_max_page_size":     "api.max_page_size",
		"api_max_radius_km":     "api.max_radius_km",

		// Geocoding
		"geocoding_enabled":    "geocoding.enabled",
		"geocoding_base_url":   "geocoding.base_url",
		"geocoding_timeout":    "geocoding.timeout",
		"geocoding_cache_path": "geocoding.cache_path",
		"geocoding_cache_ttl":  "geocoding.cache_ttl",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
