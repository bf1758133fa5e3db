// NovaDom - New-Construction Real Estate Marketplace
// Copyright 2026 NovaDom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/novadom/novadom

// Package geo resolves listing addresses to coordinates through a
// Nominatim-compatible API. Lookups go through a circuit breaker and a
// persistent cache; the whole feature is disabled by default and
// listings fall back to client-supplied coordinates.
package geo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/novadom/novadom/internal/config"
	"github.com/novadom/novadom/internal/logging"
	"github.com/novadom/novadom/internal/metrics"
)

// ErrDisabled is returned when geocoding is turned off in configuration.
var ErrDisabled = errors.New("geocoding is disabled")

// ErrNoResult is returned when the upstream API finds no match.
var ErrNoResult = errors.New("no geocoding result")

// Result is a resolved location.
type Result struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	DisplayName string  `json:"display_name"`
}

// Geocoder resolves free-form addresses to coordinates.
type Geocoder interface {
	Forward(ctx context.Context, query string) (*Result, error)
}

// Disabled is a Geocoder that always reports the feature as off.
type Disabled struct{}

// Forward implements Geocoder.
func (Disabled) Forward(context.Context, string) (*Result, error) {
	return nil, ErrDisabled
}

// Client is a caching, circuit-breaker-protected geocoding client.
type Client struct {
	cfg        config.GeocodingConfig
	httpClient *http.Client
	cache      *Cache
	cb         *gobreaker.CircuitBreaker[*Result]
}

// New creates a geocoding client. The circuit breaker opens after a 60%
// failure rate over at least 10 requests and probes recovery after two
// minutes, mirroring the behavior expected from a free-tier upstream.
func New(cfg config.GeocodingConfig) (*Client, error) {
	cache, err := OpenCache(cfg.CachePath, cfg.CacheTTL)
	if err != nil {
		return nil, err
	}

	cb := gobreaker.NewCircuitBreaker[*Result](gobreaker.Settings{
		Name:        "geocoding-api",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger := logging.WithComponent("geo")
			logger.Warn().
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Geocoding circuit breaker state change")
			metrics.GeocodeBreakerState.Set(breakerStateValue(to))
		},
	})

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      cache,
		cb:         cb,
	}, nil
}

// Forward resolves an address, consulting the cache first.
func (c *Client) Forward(ctx context.Context, query string) (*Result, error) {
	normalized := normalizeQuery(query)
	if normalized == "" {
		return nil, ErrNoResult
	}

	if cached, err := c.cache.Get(normalized); err == nil {
		metrics.RecordGeocodeLookup(true)
		return cached, nil
	}
	metrics.RecordGeocodeLookup(false)

	result, err := c.cb.Execute(func() (*Result, error) {
		return c.fetch(ctx, normalized)
	})
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(normalized, result); err != nil {
		logger := logging.WithComponent("geo")
		logger.Warn().Err(err).Msg("Failed to cache geocode result")
	}
	return result, nil
}

// fetch calls the upstream search endpoint.
func (c *Client) fetch(ctx context.Context, query string) (*Result, error) {
	start := time.Now()

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/search?" + url.Values{
		"q":      []string{query},
		"format": []string{"json"},
		"limit":  []string{"1"},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geocode request: %w", err)
	}
	req.Header.Set("User-Agent", "novadom/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	metrics.GeocodeAPICallDuration.Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode API returned status %d", resp.StatusCode)
	}

	var places []struct {
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, fmt.Errorf("failed to decode geocode response: %w", err)
	}
	if len(places) == 0 {
		return nil, ErrNoResult
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude in geocode response: %w", err)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude in geocode response: %w", err)
	}

	return &Result{
		Latitude:    lat,
		Longitude:   lon,
		DisplayName: places[0].DisplayName,
	}, nil
}

// Close releases the cache.
func (c *Client) Close() error {
	return c.cache.Close()
}

// normalizeQuery lowercases and collapses whitespace so equivalent
// addresses share a cache key.
func normalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}
