// NovaDom - New-Construction Real Estate Marketplace
// Copyright 2026 NovaDom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/novadom/novadom

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/novadom/novadom/internal/auth"
	"github.com/novadom/novadom/internal/database"
	"github.com/novadom/novadom/internal/geo"
	"github.com/novadom/novadom/internal/models"
)

// newTestRouter assembles the full routing stack on top of a fake store.
func newTestRouter(t *testing.T, store *fakeStore) (http.Handler, *auth.JWTManager) {
	t.Helper()

	cfg := testConfig()
	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	authMW := auth.NewMiddleware(jwtManager, &cfg.Security)
	t.Cleanup(authMW.Stop)

	h := NewHandler(store, cfg, jwtManager, auth.NewPasswordHasher(cfg.Security.BcryptCost), geo.Disabled{}, &fakePublisher{})
	return NewRouter(h, authMW, NewChiMiddleware(nil)).SetupChi(), jwtManager
}

func TestRouterHealthEndpoints(t *testing.T) {
	router, _ := newTestRouter(t, &fakeStore{t: t})

	for _, path := range []string{"/health", "/ready", "/metrics"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200: %s", path, w.Code, w.Body.String())
		}
	}
}

func TestRouterAuthGates(t *testing.T) {
	store := &fakeStore{
		t: t,
		listDevelopers: func(ctx context.Context) ([]models.Developer, error) {
			return nil, nil
		},
		countDevelopers: func(ctx context.Context) (models.DeveloperCounts, error) {
			return models.DeveloperCounts{}, nil
		},
		searchProjects: func(ctx context.Context, s database.ProjectSearch) (*models.ProjectPage, error) {
			return &models.ProjectPage{Projects: []models.Project{}, Page: 1, PerPage: 10, TotalPages: 1}, nil
		},
	}
	router, jwtManager := newTestRouter(t, store)

	adminToken, err := jwtManager.GenerateToken(auth.UserSubject(1), models.TypeAdmin)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	buyerToken, err := jwtManager.GenerateToken(auth.UserSubject(3), models.TypeBuyer)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	pendingToken, err := jwtManager.GenerateToken(auth.DeveloperSubject(9), models.TypeUnverifiedDeveloper)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		wantStatus int
	}{
		{"admin route without token", http.MethodGet, "/api/v1/admin/developers", "", http.StatusUnauthorized},
		{"admin route as buyer", http.MethodGet, "/api/v1/admin/developers", buyerToken, http.StatusForbidden},
		{"admin route as admin", http.MethodGet, "/api/v1/admin/developers", adminToken, http.StatusOK},
		{"public search without token", http.MethodGet, "/api/v1/projects", "", http.StatusOK},
		{"listing write without token", http.MethodPost, "/api/v1/projects", "", http.StatusUnauthorized},
		{"listing write as unverified developer", http.MethodPost, "/api/v1/projects", pendingToken, http.StatusForbidden},
		{"saved listings as developer", http.MethodGet, "/api/v1/saved-listings", pendingToken, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				r.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestRouterRequestIDHeader(t *testing.T) {
	router, _ := newTestRouter(t, &fakeStore{t: t})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header is missing")
	}
}

func TestRouterSecurityHeaders(t *testing.T) {
	store := &fakeStore{
		t: t,
		listPlans: func(ctx context.Context) ([]models.SubscriptionPlan, error) {
			return []models.SubscriptionPlan{}, nil
		},
	}
	router, _ := newTestRouter(t, store)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/subscriptions/plans", nil))

	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q", got)
	}
}
