// NovaDom - New-Construction Real Estate Marketplace
// Copyright 2026 NovaDom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/novadom/novadom

package api

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"

	"github.com/novadom/novadom/internal/auth"
	"github.com/novadom/novadom/internal/config"
	"github.com/novadom/novadom/internal/database"
	"github.com/novadom/novadom/internal/events"
	"github.com/novadom/novadom/internal/geo"
	"github.com/novadom/novadom/internal/models"
)

// fakeStore implements Store with per-method function fields. Unset
// methods fail the calling test.
type fakeStore struct {
	t *testing.T

	createUser        func(ctx context.Context, u *models.User) (*models.User, error)
	getUserByEmail    func(ctx context.Context, email string) (*models.User, error)
	getUserByID       func(ctx context.Context, id int64) (*models.User, error)
	updateUserProfile func(ctx context.Context, id int64, firstName, lastName *string) (*models.User, error)

	createDeveloper        func(ctx context.Context, d *models.Developer) (*models.Developer, error)
	getDeveloperByEmail    func(ctx context.Context, email string) (*models.Developer, error)
	getDeveloperByID       func(ctx context.Context, id int64) (*models.Developer, error)
	updateDeveloperProfile func(ctx context.Context, id int64, u database.DeveloperProfileUpdate) (*models.Developer, error)
	listDevelopers         func(ctx context.Context) ([]models.Developer, error)
	listPendingDevelopers  func(ctx context.Context) ([]models.Developer, error)
	countDevelopers        func(ctx context.Context) (models.DeveloperCounts, error)
	setVerificationStatus  func(ctx context.Context, id int64, status, notes string) (*models.Developer, error)

	searchProjects      func(ctx context.Context, s database.ProjectSearch) (*models.ProjectPage, error)
	nearbyProjects      func(ctx context.Context, n database.NearbySearch) (*models.ProjectPage, error)
	getProject          func(ctx context.Context, id int64) (*models.Project, error)
	createProject       func(ctx context.Context, p *models.Project) (*models.Project, error)
	updateProject       func(ctx context.Context, id, developerID int64, u database.ProjectUpdate) (*models.Project, error)
	softDeleteProject   func(ctx context.Context, id, developerID int64) error
	countActiveProjects func(ctx context.Context, developerID int64) (int, error)
	hasVisibleListings  func(ctx context.Context, developerID int64) (bool, error)

	listSavedListings func(ctx context.Context, userID int64) ([]models.SavedListing, error)
	saveListing       func(ctx context.Context, userID, projectID int64) (*models.SavedListing, error)
	deleteSaved       func(ctx context.Context, userID, projectID int64) error

	listPlans             func(ctx context.Context) ([]models.SubscriptionPlan, error)
	getActiveSubscription func(ctx context.Context, developerID int64) (*models.Subscription, error)
	createSubscription    func(ctx context.Context, developerID, planID int64, paymentTransactionID string) (*models.Subscription, error)
	cancelSubscription    func(ctx context.Context, developerID int64) error
	activeListingLimit    func(ctx context.Context, developerID int64) (int, error)

	ping func(ctx context.Context) error
}

func (f *fakeStore) unexpected(method string) {
	f.t.Helper()
	f.t.Fatalf("unexpected store call: %s", method)
}

func (f *fakeStore) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createUser == nil {
		f.unexpected("CreateUser")
	}
	return f.createUser(ctx, u)
}

func (f *fakeStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.getUserByEmail == nil {
		return nil, database.ErrNotFound
	}
	return f.getUserByEmail(ctx, email)
}

func (f *fakeStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	if f.getUserByID == nil {
		f.unexpected("GetUserByID")
	}
	return f.getUserByID(ctx, id)
}

func (f *fakeStore) UpdateUserProfile(ctx context.Context, id int64, firstName, lastName *string) (*models.User, error) {
	if f.updateUserProfile == nil {
		f.unexpected("UpdateUserProfile")
	}
	return f.updateUserProfile(ctx, id, firstName, lastName)
}

func (f *fakeStore) CreateDeveloper(ctx context.Context, d *models.Developer) (*models.Developer, error) {
	if f.createDeveloper == nil {
		f.unexpected("CreateDeveloper")
	}
	return f.createDeveloper(ctx, d)
}

func (f *fakeStore) GetDeveloperByEmail(ctx context.Context, email string) (*models.Developer, error) {
	if f.getDeveloperByEmail == nil {
		return nil, database.ErrNotFound
	}
	return f.getDeveloperByEmail(ctx, email)
}

func (f *fakeStore) GetDeveloperByID(ctx context.Context, id int64) (*models.Developer, error) {
	if f.getDeveloperByID == nil {
		f.unexpected("GetDeveloperByID")
	}
	return f.getDeveloperByID(ctx, id)
}

func (f *fakeStore) UpdateDeveloperProfile(ctx context.Context, id int64, u database.DeveloperProfileUpdate) (*models.Developer, error) {
	if f.updateDeveloperProfile == nil {
		f.unexpected("UpdateDeveloperProfile")
	}
	return f.updateDeveloperProfile(ctx, id, u)
}

func (f *fakeStore) ListDevelopers(ctx context.Context) ([]models.Developer, error) {
	if f.listDevelopers == nil {
		f.unexpected("ListDevelopers")
	}
	return f.listDevelopers(ctx)
}

func (f *fakeStore) ListPendingDevelopers(ctx context.Context) ([]models.Developer, error) {
	if f.listPendingDevelopers == nil {
		f.unexpected("ListPendingDevelopers")
	}
	return f.listPendingDevelopers(ctx)
}

func (f *fakeStore) CountDevelopersByStatus(ctx context.Context) (models.DeveloperCounts, error) {
	if f.countDevelopers == nil {
		f.unexpected("CountDevelopersByStatus")
	}
	return f.countDevelopers(ctx)
}

func (f *fakeStore) SetVerificationStatus(ctx context.Context, id int64, status, notes string) (*models.Developer, error) {
	if f.setVerificationStatus == nil {
		f.unexpected("SetVerificationStatus")
	}
	return f.setVerificationStatus(ctx, id, status, notes)
}

func (f *fakeStore) SearchProjects(ctx context.Context, s database.ProjectSearch) (*models.ProjectPage, error) {
	if f.searchProjects == nil {
		f.unexpected("SearchProjects")
	}
	return f.searchProjects(ctx, s)
}

func (f *fakeStore) NearbyProjects(ctx context.Context, n database.NearbySearch) (*models.ProjectPage, error) {
	if f.nearbyProjects == nil {
		f.unexpected("NearbyProjects")
	}
	return f.nearbyProjects(ctx, n)
}

func (f *fakeStore) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	if f.getProject == nil {
		f.unexpected("GetProject")
	}
	return f.getProject(ctx, id)
}

func (f *fakeStore) CreateProject(ctx context.Context, p *models.Project) (*models.Project, error) {
	if f.createProject == nil {
		f.unexpected("CreateProject")
	}
	return f.createProject(ctx, p)
}

func (f *fakeStore) UpdateProject(ctx context.Context, id, developerID int64, u database.ProjectUpdate) (*models.Project, error) {
	if f.updateProject == nil {
		f.unexpected("UpdateProject")
	}
	return f.updateProject(ctx, id, developerID, u)
}

func (f *fakeStore) SoftDeleteProject(ctx context.Context, id, developerID int64) error {
	if f.softDeleteProject == nil {
		f.unexpected("SoftDeleteProject")
	}
	return f.softDeleteProject(ctx, id, developerID)
}

func (f *fakeStore) CountActiveProjects(ctx context.Context, developerID int64) (int, error) {
	if f.countActiveProjects == nil {
		f.unexpected("CountActiveProjects")
	}
	return f.countActiveProjects(ctx, developerID)
}

func (f *fakeStore) DeveloperHasVisibleListings(ctx context.Context, developerID int64) (bool, error) {
	if f.hasVisibleListings == nil {
		f.unexpected("DeveloperHasVisibleListings")
	}
	return f.hasVisibleListings(ctx, developerID)
}

func (f *fakeStore) ListSavedListings(ctx context.Context, userID int64) ([]models.SavedListing, error) {
	if f.listSavedListings == nil {
		f.unexpected("ListSavedListings")
	}
	return f.listSavedListings(ctx, userID)
}

func (f *fakeStore) SaveListing(ctx context.Context, userID, projectID int64) (*models.SavedListing, error) {
	if f.saveListing == nil {
		f.unexpected("SaveListing")
	}
	return f.saveListing(ctx, userID, projectID)
}

func (f *fakeStore) DeleteSavedListing(ctx context.Context, userID, projectID int64) error {
	if f.deleteSaved == nil {
		f.unexpected("DeleteSavedListing")
	}
	return f.deleteSaved(ctx, userID, projectID)
}

func (f *fakeStore) ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	if f.listPlans == nil {
		f.unexpected("ListPlans")
	}
	return f.listPlans(ctx)
}

func (f *fakeStore) GetActiveSubscription(ctx context.Context, developerID int64) (*models.Subscription, error) {
	if f.getActiveSubscription == nil {
		f.unexpected("GetActiveSubscription")
	}
	return f.getActiveSubscription(ctx, developerID)
}

func (f *fakeStore) CreateSubscription(ctx context.Context, developerID, planID int64, paymentTransactionID string) (*models.Subscription, error) {
	if f.createSubscription == nil {
		f.unexpected("CreateSubscription")
	}
	return f.createSubscription(ctx, developerID, planID, paymentTransactionID)
}

func (f *fakeStore) CancelSubscription(ctx context.Context, developerID int64) error {
	if f.cancelSubscription == nil {
		f.unexpected("CancelSubscription")
	}
	return f.cancelSubscription(ctx, developerID)
}

func (f *fakeStore) ActiveListingLimit(ctx context.Context, developerID int64) (int, error) {
	if f.activeListingLimit == nil {
		f.unexpected("ActiveListingLimit")
	}
	return f.activeListingLimit(ctx, developerID)
}

func (f *fakeStore) Ping(ctx context.Context) error {
	if f.ping == nil {
		return nil
	}
	return f.ping(ctx)
}

// fakePublisher records published events.
type fakePublisher struct {
	projects  []events.ProjectCreated
	verifieds []events.DeveloperVerified
}

func (p *fakePublisher) PublishProjectCreated(ctx context.Context, ev events.ProjectCreated) error {
	p.projects = append(p.projects, ev)
	return nil
}

func (p *fakePublisher) PublishDeveloperVerified(ctx context.Context, ev events.DeveloperVerified) error {
	p.verifieds = append(p.verifieds, ev)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Security: config.SecurityConfig{
			JWTSecret:  "test-secret-at-least-32-characters!!",
			TokenTTL:   time.Hour,
			BcryptCost: 4,
		},
		API: config.APIConfig{
			DefaultPageSize: 10,
			MaxPageSize:     100,
			MaxRadiusKm:     100,
		},
	}
}

// newTestHandler wires a handler with fakes and a disabled geocoder.
func newTestHandler(t *testing.T, store *fakeStore) (*Handler, *fakePublisher) {
	t.Helper()

	cfg := testConfig()
	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	pub := &fakePublisher{}
	h := NewHandler(store, cfg, jwtManager, auth.NewPasswordHasher(cfg.Security.BcryptCost), geo.Disabled{}, pub)
	return h, pub
}

// withClaims attaches authenticated claims the way the middleware does.
func withClaims(r *http.Request, kind string, id int64, userType string) *http.Request {
	claims := &auth.Claims{
		UserType: userType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: fmt.Sprintf("%s:%d", kind, id),
		},
	}
	ctx := context.WithValue(r.Context(), auth.ClaimsContextKey, claims)
	return r.WithContext(ctx)
}

// withChiParam injects a chi URL parameter the way the router would.
func withChiParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// envelope mirrors APIResponse with a raw data payload for assertions.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func decodeEnvelope(t *testing.T, body []byte) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("decode response envelope: %v\nbody: %s", err, body)
	}
	return env
}
