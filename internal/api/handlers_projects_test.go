// NovaDom - New-Construction Real Estate Marketplace
// Copyright 2026 NovaDom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/novadom/novadom

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/novadom/novadom/internal/auth"
	"github.com/novadom/novadom/internal/database"
	"github.com/novadom/novadom/internal/models"
)

func emptyPage(s database.ProjectSearch) *models.ProjectPage {
	return &models.ProjectPage{
		Projects:   []models.Project{},
		Total:      0,
		Page:       s.Page,
		PerPage:    s.PerPage,
		TotalPages: 1,
	}
}

func TestSearchProjectsVisibility(t *testing.T) {
	tests := []struct {
		name       string
		attach     func(r *http.Request) *http.Request
		wantGate   bool
		wantBypass int64
	}{
		{
			name:     "anonymous is gated",
			attach:   func(r *http.Request) *http.Request { return r },
			wantGate: true,
		},
		{
			name: "admin sees everything",
			attach: func(r *http.Request) *http.Request {
				return withClaims(r, auth.SubjectUser, 1, models.TypeAdmin)
			},
			wantGate: false,
		},
		{
			name: "developer bypasses own listings",
			attach: func(r *http.Request) *http.Request {
				return withClaims(r, auth.SubjectDeveloper, 9, models.TypeDeveloper)
			},
			wantGate:   true,
			wantBypass: 9,
		},
		{
			name: "buyer is gated",
			attach: func(r *http.Request) *http.Request {
				return withClaims(r, auth.SubjectUser, 3, models.TypeBuyer)
			},
			wantGate: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got database.ProjectSearch
			store := &fakeStore{
				t: t,
				searchProjects: func(ctx context.Context, s database.ProjectSearch) (*models.ProjectPage, error) {
					got = s
					return emptyPage(s), nil
				},
			}
			h, _ := newTestHandler(t, store)

			r := tt.attach(httptest.NewRequest(http.MethodGet, "/api/v1/projects?city=Sofia", nil))
			w := httptest.NewRecorder()
			h.SearchProjects(w, r)

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", w.Code, w.Body.String())
			}
			if got.GateVisibility != tt.wantGate {
				t.Errorf("GateVisibility = %v, want %v", got.GateVisibility, tt.wantGate)
			}
			if got.BypassDeveloperID != tt.wantBypass {
				t.Errorf("BypassDeveloperID = %d, want %d", got.BypassDeveloperID, tt.wantBypass)
			}
			if got.City != "Sofia" {
				t.Errorf("City = %q, want Sofia", got.City)
			}
		})
	}
}

func TestSearchProjectsBadParams(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"bad page", "/api/v1/projects?page=0"},
		{"bad per_page", "/api/v1/projects?per_page=9999"},
		{"bad status", "/api/v1/projects?status=demolished"},
		{"bad project_type", "/api/v1/projects?project_type=castle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler(t, &fakeStore{t: t})
			w := httptest.NewRecorder()
			h.SearchProjects(w, httptest.NewRequest(http.MethodGet, tt.target, nil))

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestNearbyProjects(t *testing.T) {
	var got database.NearbySearch
	store := &fakeStore{
		t: t,
		nearbyProjects: func(ctx context.Context, n database.NearbySearch) (*models.ProjectPage, error) {
			got = n
			return &models.ProjectPage{Projects: []models.Project{}, Page: n.Page, PerPage: n.PerPage, TotalPages: 1}, nil
		},
	}
	h, _ := newTestHandler(t, store)

	w := httptest.NewRecorder()
	h.NearbyProjects(w, httptest.NewRequest(http.MethodGet, "/api/v1/projects/nearby?lat=42.6977&lon=23.3219", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if got.Latitude != 42.6977 || got.Longitude != 23.3219 {
		t.Errorf("coords = (%v, %v)", got.Latitude, got.Longitude)
	}
	if got.RadiusKm != 10 {
		t.Errorf("RadiusKm = %v, want default 10", got.RadiusKm)
	}
}

func TestNearbyProjectsBadParams(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"missing coords", "/api/v1/projects/nearby"},
		{"missing lon", "/api/v1/projects/nearby?lat=42.7"},
		{"lat out of range", "/api/v1/projects/nearby?lat=123&lon=23.3"},
		{"radius too large", "/api/v1/projects/nearby?lat=42.7&lon=23.3&radius_km=500"},
		{"radius not positive", "/api/v1/projects/nearby?lat=42.7&lon=23.3&radius_km=0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler(t, &fakeStore{t: t})
			w := httptest.NewRecorder()
			h.NearbyProjects(w, httptest.NewRequest(http.MethodGet, tt.target, nil))

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestGetProjectGating(t *testing.T) {
	project := &models.Project{ID: 12, DeveloperID: 9, Title: "Iztok Residence", IsActive: true}

	tests := []struct {
		name       string
		attach     func(r *http.Request) *http.Request
		visible    bool
		wantStatus int
	}{
		{
			name:       "anonymous, developer subscribed",
			attach:     func(r *http.Request) *http.Request { return r },
			visible:    true,
			wantStatus: http.StatusOK,
		},
		{
			name:       "anonymous, developer unsubscribed",
			attach:     func(r *http.Request) *http.Request { return r },
			visible:    false,
			wantStatus: http.StatusNotFound,
		},
		{
			name: "owner bypasses the gate",
			attach: func(r *http.Request) *http.Request {
				return withClaims(r, auth.SubjectDeveloper, 9, models.TypeDeveloper)
			},
			visible:    false,
			wantStatus: http.StatusOK,
		},
		{
			name: "admin bypasses the gate",
			attach: func(r *http.Request) *http.Request {
				return withClaims(r, auth.SubjectUser, 1, models.TypeAdmin)
			},
			visible:    false,
			wantStatus: http.StatusOK,
		},
		{
			name: "other developer is gated",
			attach: func(r *http.Request) *http.Request {
				return withClaims(r, auth.SubjectDeveloper, 4, models.TypeDeveloper)
			},
			visible:    false,
			wantStatus: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{
				t: t,
				getProject: func(ctx context.Context, id int64) (*models.Project, error) {
					if id != project.ID {
						return nil, database.ErrNotFound
					}
					return project, nil
				},
				hasVisibleListings: func(ctx context.Context, developerID int64) (bool, error) {
					return tt.visible, nil
				},
			}
			h, _ := newTestHandler(t, store)

			r := tt.attach(httptest.NewRequest(http.MethodGet, "/api/v1/projects/12", nil))
			r = withChiParam(r, "id", "12")
			w := httptest.NewRecorder()
			h.GetProject(w, r)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus == http.StatusNotFound {
				env := decodeEnvelope(t, w.Body.Bytes())
				if env.Error == nil || env.Error.Message != "Project not found" {
					t.Errorf("gated response must match a missing row, got %+v", env.Error)
				}
			}
		})
	}
}

func TestCreateProject(t *testing.T) {
	store := &fakeStore{
		t: t,
		activeListingLimit: func(ctx context.Context, developerID int64) (int, error) {
			return 0, database.ErrNotFound
		},
		createProject: func(ctx context.Context, p *models.Project) (*models.Project, error) {
			created := *p
			created.ID = 12
			return &created, nil
		},
	}
	h, pub := newTestHandler(t, store)

	r := jsonRequest(t, http.MethodPost, "/api/v1/projects", CreateProjectRequest{
		Title:        "Iztok Residence",
		LocationText: "12 Tsarigradsko Shose",
		City:         "Sofia",
		ProjectType:  models.ProjectTypeApartmentBuilding,
		Status:       models.StatusUnderConstruction,
	})
	w := httptest.NewRecorder()
	h.CreateProject(w, withClaims(r, auth.SubjectDeveloper, 9, models.TypeDeveloper))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}

	env := decodeEnvelope(t, w.Body.Bytes())
	var created models.Project
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode project: %v", err)
	}
	if created.ID != 12 || created.DeveloperID != 9 {
		t.Errorf("created = %+v", created)
	}

	if len(pub.projects) != 1 {
		t.Fatalf("published events = %d, want 1", len(pub.projects))
	}
	if pub.projects[0].ProjectID != 12 || pub.projects[0].City != "Sofia" {
		t.Errorf("event = %+v", pub.projects[0])
	}
}

func TestCreateProjectCoordinatePairing(t *testing.T) {
	lat := 42.6977
	h, _ := newTestHandler(t, &fakeStore{t: t})

	r := jsonRequest(t, http.MethodPost, "/api/v1/projects", CreateProjectRequest{
		Title:        "Iztok Residence",
		LocationText: "12 Tsarigradsko Shose",
		City:         "Sofia",
		ProjectType:  models.ProjectTypeApartmentBuilding,
		Status:       models.StatusPlanning,
		Latitude:     &lat,
	})
	w := httptest.NewRecorder()
	h.CreateProject(w, withClaims(r, auth.SubjectDeveloper, 9, models.TypeDeveloper))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", w.Code, w.Body.String())
	}
}

func TestCreateProjectFieldBounds(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(req *CreateProjectRequest)
		wantStatus int
	}{
		{"one-char title accepted", func(req *CreateProjectRequest) { req.Title = "A" }, http.StatusCreated},
		{"200-char title accepted", func(req *CreateProjectRequest) { req.Title = strings.Repeat("a", 200) }, http.StatusCreated},
		{"201-char title rejected", func(req *CreateProjectRequest) { req.Title = strings.Repeat("a", 201) }, http.StatusBadRequest},
		{"empty title rejected", func(req *CreateProjectRequest) { req.Title = "" }, http.StatusBadRequest},
		{"one-char location accepted", func(req *CreateProjectRequest) { req.LocationText = "X" }, http.StatusCreated},
		{"one-char city accepted", func(req *CreateProjectRequest) { req.City = "X" }, http.StatusCreated},
		{"empty city rejected", func(req *CreateProjectRequest) { req.City = "" }, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{
				t: t,
				activeListingLimit: func(ctx context.Context, developerID int64) (int, error) {
					return 0, database.ErrNotFound
				},
				createProject: func(ctx context.Context, p *models.Project) (*models.Project, error) {
					created := *p
					created.ID = 1
					return &created, nil
				},
			}
			h, _ := newTestHandler(t, store)

			req := CreateProjectRequest{
				Title:        "Iztok Residence",
				LocationText: "12 Tsarigradsko Shose",
				City:         "Sofia",
				ProjectType:  models.ProjectTypeApartmentBuilding,
				Status:       models.StatusPlanning,
			}
			tt.mutate(&req)

			r := jsonRequest(t, http.MethodPost, "/api/v1/projects", req)
			w := httptest.NewRecorder()
			h.CreateProject(w, withClaims(r, auth.SubjectDeveloper, 9, models.TypeDeveloper))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestCreateProjectListingLimit(t *testing.T) {
	tests := []struct {
		name       string
		limit      int
		limitErr   error
		count      int
		wantStatus int
	}{
		{"no subscription allows create", 0, database.ErrNotFound, 0, http.StatusCreated},
		{"zero limit is unlimited", 0, nil, 50, http.StatusCreated},
		{"under the limit", 5, nil, 4, http.StatusCreated},
		{"at the limit", 5, nil, 5, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{
				t: t,
				activeListingLimit: func(ctx context.Context, developerID int64) (int, error) {
					return tt.limit, tt.limitErr
				},
				countActiveProjects: func(ctx context.Context, developerID int64) (int, error) {
					return tt.count, nil
				},
				createProject: func(ctx context.Context, p *models.Project) (*models.Project, error) {
					created := *p
					created.ID = 1
					return &created, nil
				},
			}
			h, _ := newTestHandler(t, store)

			r := jsonRequest(t, http.MethodPost, "/api/v1/projects", CreateProjectRequest{
				Title:        "Iztok Residence",
				LocationText: "12 Tsarigradsko Shose",
				City:         "Sofia",
				ProjectType:  models.ProjectTypeHouseComplex,
				Status:       models.StatusPlanning,
			})
			w := httptest.NewRecorder()
			h.CreateProject(w, withClaims(r, auth.SubjectDeveloper, 9, models.TypeDeveloper))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestUpdateProjectOwnership(t *testing.T) {
	title := "Renamed Residence"
	store := &fakeStore{
		t: t,
		updateProject: func(ctx context.Context, id, developerID int64, u database.ProjectUpdate) (*models.Project, error) {
			if developerID != 9 {
				return nil, database.ErrNotFound
			}
			return &models.Project{ID: id, DeveloperID: developerID, Title: *u.Title}, nil
		},
	}
	h, _ := newTestHandler(t, store)

	r := jsonRequest(t, http.MethodPut, "/api/v1/projects/12", UpdateProjectRequest{Title: &title})
	r = withChiParam(withClaims(r, auth.SubjectDeveloper, 9, models.TypeDeveloper), "id", "12")
	w := httptest.NewRecorder()
	h.UpdateProject(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("owner update: status = %d: %s", w.Code, w.Body.String())
	}

	// Someone else's listing looks missing.
	r = jsonRequest(t, http.MethodPut, "/api/v1/projects/12", UpdateProjectRequest{Title: &title})
	r = withChiParam(withClaims(r, auth.SubjectDeveloper, 4, models.TypeDeveloper), "id", "12")
	w = httptest.NewRecorder()
	h.UpdateProject(w, r)

	if w.Code != http.StatusNotFound {
		t.Fatalf("non-owner update: status = %d, want 404", w.Code)
	}
}

func TestDeleteProject(t *testing.T) {
	var deletedID, deletedDev int64
	store := &fakeStore{
		t: t,
		softDeleteProject: func(ctx context.Context, id, developerID int64) error {
			deletedID, deletedDev = id, developerID
			return nil
		},
	}
	h, _ := newTestHandler(t, store)

	r := httptest.NewRequest(http.MethodDelete, "/api/v1/projects/12", nil)
	r = withChiParam(withClaims(r, auth.SubjectDeveloper, 9, models.TypeDeveloper), "id", "12")
	w := httptest.NewRecorder()
	h.DeleteProject(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if deletedID != 12 || deletedDev != 9 {
		t.Errorf("soft delete args = (%d, %d), want (12, 9)", deletedID, deletedDev)
	}
}
