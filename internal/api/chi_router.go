// NovaDom - New-Construction Real Estate Marketplace
// Copyright 2026 NovaDom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/novadom/novadom

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/novadom/novadom/internal/auth"
	"github.com/novadom/novadom/internal/models"
)

// Router wires handlers and middleware into the HTTP surface.
type Router struct {
	handler       *Handler
	middleware    *auth.Middleware
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router from its parts.
func NewRouter(handler *Handler, authMiddleware *auth.Middleware, chiMiddleware *ChiMiddleware) *Router {
	return &Router{
		handler:       handler,
		middleware:    authMiddleware,
		chiMiddleware: chiMiddleware,
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())
	r.Use(router.middleware.RateLimit)
	r.Use(MetricsMiddleware())
	r.Use(RequestLogging())

	// Operational endpoints live outside the API prefix. These skip the
	// cache-control headers the API groups set.
	r.Group(func(r chi.Router) {
		r.Use(router.middleware.SecurityHeaders)
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitHealth))
		r.Get("/health", router.handler.Health)
		r.Get("/ready", router.handler.Ready)
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	})

	// Authentication and profiles.
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.With(router.chiMiddleware.RateLimitCustom(RateLimitAuth)).
			Post("/register/buyer", router.handler.RegisterBuyer)
		r.With(router.chiMiddleware.RateLimitCustom(RateLimitAuth)).
			Post("/register/developer", router.handler.RegisterDeveloper)
		r.With(router.chiMiddleware.RateLimitCustom(RateLimitLogin)).
			Post("/login", router.handler.Login)
		r.With(router.chiMiddleware.RateLimitCustom(RateLimitLogin)).
			Post("/token", router.handler.Token)

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitCustom(RateLimitAPI))
			r.Use(router.middleware.Authenticate)
			r.Get("/me", router.handler.Me)
			r.With(router.middleware.RequireType(models.TypeBuyer)).
				Get("/profile/buyer", router.handler.BuyerProfile)
			r.With(router.middleware.RequireType(models.TypeBuyer)).
				Put("/profile/buyer", router.handler.UpdateBuyerProfile)
			r.With(router.middleware.RequireType(models.TypeDeveloper)).
				Get("/profile/developer", router.handler.DeveloperProfile)
			r.With(router.middleware.RequireType(models.TypeDeveloper, models.TypeUnverifiedDeveloper)).
				Put("/profile/developer", router.handler.UpdateDeveloperProfile)
		})
	})

	// Project search and listings.
	r.Route("/api/v1/projects", func(r chi.Router) {
		r.Use(APISecurityHeaders())

		// Public reads; an optional token upgrades visibility for
		// owners and admins.
		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitCustom(RateLimitSearch))
			r.Use(router.middleware.OptionalAuthenticate)
			r.Get("/", router.handler.SearchProjects)
			r.Get("/nearby", router.handler.NearbyProjects)
			r.Get("/{id}", router.handler.GetProject)
		})

		// Listing management, verified developers only.
		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitCustom(RateLimitWrite))
			r.Use(router.middleware.Authenticate)
			r.Use(router.middleware.RequireType(models.TypeDeveloper))
			r.Post("/", router.handler.CreateProject)
			r.Put("/{id}", router.handler.UpdateProject)
			r.Delete("/{id}", router.handler.DeleteProject)
		})
	})

	// Buyer bookmarks.
	r.Route("/api/v1/saved-listings", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitWrite))
		r.Use(router.middleware.Authenticate)
		r.Use(router.middleware.RequireType(models.TypeBuyer))
		r.Get("/", router.handler.ListSavedListings)
		r.Post("/", router.handler.SaveListing)
		r.Delete("/{projectID}", router.handler.DeleteSavedListing)
	})

	// Subscriptions.
	r.Route("/api/v1/subscriptions", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.With(router.chiMiddleware.RateLimitCustom(RateLimitSearch)).
			Get("/plans", router.handler.ListPlans)

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitCustom(RateLimitWrite))
			r.Use(router.middleware.Authenticate)
			r.With(router.middleware.RequireType(models.TypeDeveloper, models.TypeUnverifiedDeveloper)).
				Get("/current", router.handler.CurrentSubscription)
			r.With(router.middleware.RequireType(models.TypeDeveloper)).
				Post("/", router.handler.CreateSubscription)
			r.With(router.middleware.RequireType(models.TypeDeveloper, models.TypeUnverifiedDeveloper)).
				Post("/cancel", router.handler.CancelSubscription)
		})
	})

	// Admin.
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(APISecurityHeaders())

		// Bootstrap endpoint, gated by configuration instead of a role.
		r.With(router.chiMiddleware.RateLimitCustom(RateLimitAuth)).
			Post("/create-admin", router.handler.CreateAdmin)

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitCustom(RateLimitAPI))
			r.Use(router.middleware.Authenticate)
			r.Use(router.middleware.RequireType(models.TypeAdmin))
			r.Get("/developers", router.handler.ListAllDevelopers)
			r.Get("/developers/pending", router.handler.ListPendingDevelopers)
			r.Get("/developers/{id}", router.handler.GetDeveloper)
			r.Post("/developers/{id}/verify", router.handler.VerifyDeveloper)
			r.Post("/developers/{id}/reject", router.handler.RejectDeveloper)
			r.Post("/developers/{id}/reset", router.handler.ResetDeveloperVerification)
		})
	})

	return r
}
