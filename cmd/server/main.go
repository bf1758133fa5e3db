// NovaDom - New-Construction Real Estate Marketplace
// Copyright 2026 NovaDom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/novadom/novadom

// Package main is the entry point for the NovaDom server.
//
// NovaDom is a marketplace backend connecting homebuyers with
// new-construction developers. The server initializes components in the
// following order:
//
//  1. Configuration: environment variables and config file (Koanf v2)
//  2. Database: PostgreSQL with PostGIS, versioned migrations on start
//  3. Authentication: JWT manager and bcrypt password hashing
//  4. Geocoding: optional forward geocoder with circuit breaker and cache
//  5. Events: in-process Watermill bus for domain events
//  6. HTTP server: Chi REST API under a suture supervision tree
//
// Graceful shutdown runs on SIGINT and SIGTERM: the supervisor cancels
// its services, the HTTP server drains in-flight requests, and the
// database pool closes last.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/novadom/novadom/internal/api"
	"github.com/novadom/novadom/internal/auth"
	"github.com/novadom/novadom/internal/config"
	"github.com/novadom/novadom/internal/database"
	"github.com/novadom/novadom/internal/events"
	"github.com/novadom/novadom/internal/geo"
	"github.com/novadom/novadom/internal/logging"
	"github.com/novadom/novadom/internal/models"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		logging.Fatal().Err(err).Msg("Invalid configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", api.Version).
		Str("environment", cfg.Server.Environment).
		Msg("Starting NovaDom")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()
	logging.Info().Msg("Database initialized, migrations applied")

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}
	hasher := auth.NewPasswordHasher(cfg.Security.BcryptCost)

	if err := bootstrapAdmin(ctx, db, hasher, cfg.Security.BootstrapAdmin); err != nil {
		logging.Fatal().Err(err).Msg("Failed to bootstrap admin account")
	}

	middleware := auth.NewMiddleware(jwtManager, &cfg.Security)
	defer middleware.Stop()

	var geocoder geo.Geocoder = geo.Disabled{}
	if cfg.Geocoding.Enabled {
		client, err := geo.New(cfg.Geocoding)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize geocoder")
		}
		defer func() {
			if err := client.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing geocoder cache")
			}
		}()
		geocoder = client
		logging.Info().Str("base_url", cfg.Geocoding.BaseURL).Msg("Geocoding enabled")
	} else {
		logging.Info().Msg("Geocoding disabled, listings keep client-supplied coordinates only")
	}

	bus := events.NewBus()
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	handler := api.NewHandler(db, cfg, jwtManager, hasher, geocoder, bus)

	chiCfg := api.DefaultChiMiddlewareConfig()
	chiCfg.CORSAllowedOrigins = cfg.Security.CORSOrigins
	chiCfg.RateLimitRequests = cfg.Security.RateLimitReqs
	chiCfg.RateLimitWindow = cfg.Security.RateLimitWindow
	router := api.NewRouter(handler, middleware, api.NewChiMiddleware(chiCfg))

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	sup := suture.NewSimple("novadom")
	sup.Add(bus)
	sup.Add(newHTTPService(server, cfg.Server.ShutdownTimeout))

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := sup.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for services to stop")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	logging.Info().Msg("NovaDom stopped gracefully")
}

// bootstrapAdmin seeds the first admin account from configuration. A
// no-op when no bootstrap email is set or the account already exists.
func bootstrapAdmin(ctx context.Context, db *database.DB, hasher *auth.PasswordHasher, cfg config.BootstrapAdminConfig) error {
	if cfg.Email == "" {
		return nil
	}
	if cfg.Password == "" {
		return fmt.Errorf("NOVADOM_BOOTSTRAP_ADMIN_PASSWORD is required when NOVADOM_BOOTSTRAP_ADMIN_EMAIL is set")
	}

	if _, err := db.GetUserByEmail(ctx, cfg.Email); err == nil {
		return nil
	} else if !errors.Is(err, database.ErrNotFound) {
		return err
	}

	hash, err := hasher.Hash(cfg.Password)
	if err != nil {
		return err
	}

	admin, err := db.CreateUser(ctx, &models.User{
		Email:        cfg.Email,
		PasswordHash: hash,
		FirstName:    "Admin",
		LastName:     "Admin",
		Role:         models.RoleAdmin,
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil
		}
		return err
	}

	logging.Warn().Int64("user_id", admin.ID).Str("email", cfg.Email).Msg("Bootstrap admin account created")
	return nil
}
