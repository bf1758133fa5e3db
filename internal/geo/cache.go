// NovaDom - New-Construction Real Estate Marketplace
// Copyright 2026 NovaDom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/novadom/novadom

package geo

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

const geocodeKeyPrefix = "geocode:"

// ErrCacheMiss is returned when a query has no cached result.
var ErrCacheMiss = errors.New("geocode cache miss")

// Cache stores geocoding results in BadgerDB with per-entry TTL, so
// repeated address lookups survive restarts without hitting the upstream
// API.
type Cache struct {
	db  *badger.DB
	ttl time.Duration
}

// OpenCache opens (or creates) the cache at the given path. An empty
// path opens an in-memory cache, used by tests and by deployments that
// do not want disk state.
func OpenCache(path string, ttl time.Duration) (*Cache, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open geocode cache: %w", err)
	}

	return &Cache{db: db, ttl: ttl}, nil
}

// Get returns the cached result for a normalized query.
func (c *Cache) Get(query string) (*Result, error) {
	var result Result

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(geocodeKeyPrefix + query))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrCacheMiss
		}
		if err != nil {
			return fmt.Errorf("get cached geocode: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &result)
		})
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// Set stores a result for a normalized query with the cache TTL.
func (c *Cache) Set(query string, result *Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal geocode result: %w", err)
	}

	return c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(geocodeKeyPrefix+query), data)
		if c.ttl > 0 {
			entry = entry.WithTTL(c.ttl)
		}
		return txn.SetEntry(entry)
	})
}

// Close closes the underlying store.
func (c *Cache) Close() error {
	return c.db.Close()
}
