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

	"github.com/goccy/go-json"

	"github.com/novadom/novadom/internal/auth"
	"github.com/novadom/novadom/internal/database"
	"github.com/novadom/novadom/internal/models"
)

func TestListSavedListings(t *testing.T) {
	store := &fakeStore{
		t: t,
		listSavedListings: func(ctx context.Context, userID int64) ([]models.SavedListing, error) {
			if userID != 3 {
				t.Errorf("userID = %d, want 3", userID)
			}
			return nil, nil
		},
	}
	h, _ := newTestHandler(t, store)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/saved-listings", nil)
	w := httptest.NewRecorder()
	h.ListSavedListings(w, withClaims(r, auth.SubjectUser, 3, models.TypeBuyer))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	// A nil slice still serializes as an empty JSON array.
	env := decodeEnvelope(t, w.Body.Bytes())
	var listings []models.SavedListing
	if err := json.Unmarshal(env.Data, &listings); err != nil {
		t.Fatalf("decode listings: %v", err)
	}
	if string(env.Data) == "null" {
		t.Error("data = null, want []")
	}
}

func TestSaveListing(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"saved", nil, http.StatusCreated},
		{"already saved", database.ErrDuplicate, http.StatusConflict},
		{"unknown project", database.ErrNotFound, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{
				t: t,
				saveListing: func(ctx context.Context, userID, projectID int64) (*models.SavedListing, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return &models.SavedListing{ID: 1, UserID: userID, ProjectID: projectID}, nil
				},
			}
			h, _ := newTestHandler(t, store)

			r := jsonRequest(t, http.MethodPost, "/api/v1/saved-listings", SaveListingRequest{ProjectID: 12})
			w := httptest.NewRecorder()
			h.SaveListing(w, withClaims(r, auth.SubjectUser, 3, models.TypeBuyer))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestSaveListingRequiresBuyer(t *testing.T) {
	h, _ := newTestHandler(t, &fakeStore{t: t})

	r := jsonRequest(t, http.MethodPost, "/api/v1/saved-listings", SaveListingRequest{ProjectID: 12})
	w := httptest.NewRecorder()
	h.SaveListing(w, withClaims(r, auth.SubjectDeveloper, 9, models.TypeDeveloper))

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}

func TestDeleteSavedListing(t *testing.T) {
	store := &fakeStore{
		t: t,
		deleteSaved: func(ctx context.Context, userID, projectID int64) error {
			if userID != 3 || projectID != 12 {
				t.Errorf("args = (%d, %d), want (3, 12)", userID, projectID)
			}
			return nil
		},
	}
	h, _ := newTestHandler(t, store)

	r := httptest.NewRequest(http.MethodDelete, "/api/v1/saved-listings/12", nil)
	r = withChiParam(withClaims(r, auth.SubjectUser, 3, models.TypeBuyer), "projectID", "12")
	w := httptest.NewRecorder()
	h.DeleteSavedListing(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
}

func TestDeleteSavedListingMissing(t *testing.T) {
	store := &fakeStore{
		t: t,
		deleteSaved: func(ctx context.Context, userID, projectID int64) error {
			return database.ErrNotFound
		},
	}
	h, _ := newTestHandler(t, store)

	r := httptest.NewRequest(http.MethodDelete, "/api/v1/saved-listings/99", nil)
	r = withChiParam(withClaims(r, auth.SubjectUser, 3, models.TypeBuyer), "projectID", "99")
	w := httptest.NewRecorder()
	h.DeleteSavedListing(w, r)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}
