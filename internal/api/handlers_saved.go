// NovaDom - New-Construction Real Estate Marketplace
// Copyright 2026 NovaDom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/novadom/novadom

package api

import (
	"errors"
	"net/http"

	"github.com/novadom/novadom/internal/auth"
	"github.com/novadom/novadom/internal/database"
	"github.com/novadom/novadom/internal/models"
)

// ListSavedListings handles GET /saved-listings.
func (h *Handler) ListSavedListings(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	kind, userID, _, err := principal(r)
	if err != nil || kind != auth.SubjectUser {
		rw.Forbidden("Buyer account required")
		return
	}

	listings, err := h.store.ListSavedListings(r.Context(), userID)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	if listings == nil {
		listings = []models.SavedListing{}
	}

	rw.Success(listings)
}

// SaveListing handles POST /saved-listings.
func (h *Handler) SaveListing(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	kind, userID, _, err := principal(r)
	if err != nil || kind != auth.SubjectUser {
		rw.Forbidden("Buyer account required")
		return
	}

	var req SaveListingRequest
	if !decodeAndValidate(rw, w, r, &req) {
		return
	}

	saved, err := h.store.SaveListing(r.Context(), userID, req.ProjectID)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrDuplicate):
			rw.Conflict("Project is already saved")
		case errors.Is(err, database.ErrNotFound):
			rw.NotFound("Project not found")
		default:
			rw.DatabaseError(err)
		}
		return
	}

	rw.Created(saved)
}

// DeleteSavedListing handles DELETE /saved-listings/{projectID}.
func (h *Handler) DeleteSavedListing(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	kind, userID, _, err := principal(r)
	if err != nil || kind != auth.SubjectUser {
		rw.Forbidden("Buyer account required")
		return
	}

	projectID, err := pathID(r, "projectID")
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	if err := h.store.DeleteSavedListing(r.Context(), userID, projectID); err != nil {
		h.respondLookupError(rw, err, "Saved listing not found")
		return
	}

	rw.Success(map[string]bool{"deleted": true})
}
