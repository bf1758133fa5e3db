// NovaDom - New-Construction Real Estate Marketplace
// Copyright 2026 NovaDom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/novadom/novadom

// Package database provides the PostgreSQL/PostGIS persistence layer.
//
// All access goes through pgx v4 with a pgxpool connection pool. The DB
// type owns the pool, runs versioned migrations on startup, and exposes
// store methods per domain area (users, developers, projects,
// subscriptions, saved listings) in sibling files.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/novadom/novadom/internal/config"
	"github.com/novadom/novadom/internal/logging"
	"github.com/novadom/novadom/internal/metrics"
)

// Queryer is the query surface shared by *pgxpool.Pool and pgx.Tx.
// Store methods run against it so they work inside and outside
// transactions.
type Queryer interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// DB wraps the connection pool and carries configuration.
type DB struct {
	pool *pgxpool.Pool
	cfg  config.DatabaseConfig
}

// New opens a connection pool, verifies connectivity, and brings the
// schema up to date.
func New(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	pool, err := pgxpool.ConnectConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	db := &DB{pool: pool, cfg: cfg}

	if err := db.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if err := db.runVersionedMigrations(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrations failed: %w", err)
	}

	logger := logging.WithComponent("database")
	logger.Info().
		Int32("max_conns", cfg.MaxConns).
		Msg("database ready")

	return db, nil
}

// Pool exposes the underlying pool for callers that need transactions.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// Ping verifies database connectivity with a bounded timeout.
func (db *DB) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	metrics.DBPoolConnections.Set(float64(db.pool.Stat().AcquiredConns()))
	return db.pool.Ping(ctx)
}

// Close releases the connection pool.
func (db *DB) Close() {
	db.pool.Close()
}

// observeQuery starts a timer for a store query and returns a callback
// recording its duration and outcome. Use with defer and a named error
// return:
//
//	func (db *DB) GetThing(ctx context.Context) (t *Thing, err error) {
//		defer observeQuery("select", "things")(&err)
func observeQuery(operation, table string) func(err *error) {
	start := time.Now()
	return func(err *error) {
		var e error
		if err != nil {
			e = *err
		}
		metrics.RecordDBQuery(operation, table, time.Since(start), e)
	}
}

// InTx runs fn inside a transaction, rolling back on error.
func (db *DB) InTx(ctx context.Context, fn func(q Queryer) error) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
