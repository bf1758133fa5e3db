// NovaDom - New-Construction Real Estate Marketplace
// Copyright 2026 NovaDom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/novadom/novadom

package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/novadom/novadom/internal/auth"
	"github.com/novadom/novadom/internal/config"
	"github.com/novadom/novadom/internal/database"
	"github.com/novadom/novadom/internal/events"
	"github.com/novadom/novadom/internal/geo"
	"github.com/novadom/novadom/internal/models"
	"github.com/novadom/novadom/internal/validation"
)

// maxBodySize bounds request bodies to keep JSON decoding cheap.
const maxBodySize = 1 << 20 // 1 MiB

// Store is the persistence surface the handlers depend on. *database.DB
// satisfies it; tests substitute fakes.
type Store interface {
	// Users
	CreateUser(ctx context.Context, u *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdateUserProfile(ctx context.Context, id int64, firstName, lastName *string) (*models.User, error)

	// Developers
	CreateDeveloper(ctx context.Context, d *models.Developer) (*models.Developer, error)
	GetDeveloperByEmail(ctx context.Context, email string) (*models.Developer, error)
	GetDeveloperByID(ctx context.Context, id int64) (*models.Developer, error)
	UpdateDeveloperProfile(ctx context.Context, id int64, u database.DeveloperProfileUpdate) (*models.Developer, error)
	ListDevelopers(ctx context.Context) ([]models.Developer, error)
	ListPendingDevelopers(ctx context.Context) ([]models.Developer, error)
	CountDevelopersByStatus(ctx context.Context) (models.DeveloperCounts, error)
	SetVerificationStatus(ctx context.Context, id int64, status, notes string) (*models.Developer, error)

	// Projects
	SearchProjects(ctx context.Context, s database.ProjectSearch) (*models.ProjectPage, error)
	NearbyProjects(ctx context.Context, n database.NearbySearch) (*models.ProjectPage, error)
	GetProject(ctx context.Context, id int64) (*models.Project, error)
	CreateProject(ctx context.Context, p *models.Project) (*models.Project, error)
	UpdateProject(ctx context.Context, id, developerID int64, u database.ProjectUpdate) (*models.Project, error)
	SoftDeleteProject(ctx context.Context, id, developerID int64) error
	CountActiveProjects(ctx context.Context, developerID int64) (int, error)
	DeveloperHasVisibleListings(ctx context.Context, developerID int64) (bool, error)

	// Saved listings
	ListSavedListings(ctx context.Context, userID int64) ([]models.SavedListing, error)
	SaveListing(ctx context.Context, userID, projectID int64) (*models.SavedListing, error)
	DeleteSavedListing(ctx context.Context, userID, projectID int64) error

	// Subscriptions
	ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error)
	GetActiveSubscription(ctx context.Context, developerID int64) (*models.Subscription, error)
	CreateSubscription(ctx context.Context, developerID, planID int64, paymentTransactionID string) (*models.Subscription, error)
	CancelSubscription(ctx context.Context, developerID int64) error
	ActiveListingLimit(ctx context.Context, developerID int64) (int, error)

	// Health
	Ping(ctx context.Context) error
}

// Handler holds the dependencies shared by all HTTP handlers.
type Handler struct {
	store     Store
	cfg       *config.Config
	jwt       *auth.JWTManager
	hasher    *auth.PasswordHasher
	geocoder  geo.Geocoder
	events    events.Publisher
	startTime time.Time
}

// NewHandler creates the API handler set.
func NewHandler(store Store, cfg *config.Config, jwt *auth.JWTManager, hasher *auth.PasswordHasher, geocoder geo.Geocoder, bus events.Publisher) *Handler {
	return &Handler{
		store:     store,
		cfg:       cfg,
		jwt:       jwt,
		hasher:    hasher,
		geocoder:  geocoder,
		events:    bus,
		startTime: time.Now(),
	}
}

// decodeJSON decodes a bounded JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// validateRequest validates a struct and converts failures to the API
// error format.
func validateRequest(v interface{}) *validation.APIError {
	if err := validation.ValidateStruct(v); err != nil {
		return err.ToAPIError()
	}
	return nil
}

// decodeAndValidate combines body decoding and validation, writing the
// error response itself. Returns false when the handler should stop.
func decodeAndValidate(rw *ResponseWriter, w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := decodeJSON(w, r, v); err != nil {
		rw.BadRequest(err.Error())
		return false
	}
	if n, ok := v.(normalizer); ok {
		n.normalize()
	}
	if apiErr := validateRequest(v); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return false
	}
	return true
}

// principal extracts the authenticated principal from the request
// context. Routes behind Authenticate always have one.
func principal(r *http.Request) (kind string, id int64, claims *auth.Claims, err error) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		return "", 0, nil, fmt.Errorf("no authenticated principal")
	}
	kind, id, err = claims.Principal()
	return kind, id, claims, err
}

// pathID parses the {id} URL parameter.
func pathID(r *http.Request, param string) (int64, error) {
	raw := chi.URLParam(r, param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", param)
	}
	return id, nil
}

// queryInt parses an integer query parameter with a default.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}
	return v, nil
}

// queryFloat parses a float query parameter with a default.
func queryFloat(r *http.Request, name string, def float64) (float64, bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid %s parameter", name)
	}
	return v, true, nil
}

// pagination parses page/per_page with configured defaults and caps.
func (h *Handler) pagination(r *http.Request) (page, perPage int, err error) {
	page, err = queryInt(r, "page", 1)
	if err != nil {
		return 0, 0, err
	}
	perPage, err = queryInt(r, "per_page", h.cfg.API.DefaultPageSize)
	if err != nil {
		return 0, 0, err
	}
	if page < 1 {
		return 0, 0, fmt.Errorf("page must be at least 1")
	}
	if perPage < 1 || perPage > h.cfg.API.MaxPageSize {
		return 0, 0, fmt.Errorf("per_page must be between 1 and %d", h.cfg.API.MaxPageSize)
	}
	return page, perPage, nil
}
