// NovaDom - New-Construction Real Estate Marketplace
// Copyright 2026 NovaDom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/novadom/novadom

package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/novadom/novadom/internal/auth"
	"github.com/novadom/novadom/internal/database"
	"github.com/novadom/novadom/internal/events"
	"github.com/novadom/novadom/internal/geo"
	"github.com/novadom/novadom/internal/logging"
	"github.com/novadom/novadom/internal/metrics"
	"github.com/novadom/novadom/internal/models"
)

const completionDateLayout = "2006-01-02"

// visibility derives the search gating from the optional principal:
// admins see everything, developers additionally see their own gated
// listings, everyone else only listings behind an active subscription.
func visibility(r *http.Request) (gate bool, bypassDeveloperID int64) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		return true, 0
	}
	if claims.UserType == models.TypeAdmin {
		return false, 0
	}
	if kind, id, err := claims.Principal(); err == nil && kind == auth.SubjectDeveloper {
		return true, id
	}
	return true, 0
}

// SearchProjects handles GET /projects.
func (h *Handler) SearchProjects(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	page, perPage, err := h.pagination(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	developerID, err := queryInt(r, "developer_id", 0)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	req := SearchProjectsRequest{
		Search:      r.URL.Query().Get("search"),
		City:        r.URL.Query().Get("city"),
		ProjectType: r.URL.Query().Get("project_type"),
		Status:      r.URL.Query().Get("status"),
		DeveloperID: int64(developerID),
		Page:        page,
		PerPage:     perPage,
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	gate, bypass := visibility(r)
	result, err := h.store.SearchProjects(r.Context(), database.ProjectSearch{
		Search:            req.Search,
		City:              req.City,
		ProjectType:       req.ProjectType,
		Status:            req.Status,
		DeveloperID:       req.DeveloperID,
		GateVisibility:    gate,
		BypassDeveloperID: bypass,
		Page:              req.Page,
		PerPage:           req.PerPage,
	})
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.SuccessWithPagination(result.Projects, PaginationFromPage(result))
}

// NearbyProjects handles GET /projects/nearby.
func (h *Handler) NearbyProjects(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	lat, latSet, err := queryFloat(r, "lat", 0)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	lon, lonSet, err := queryFloat(r, "lon", 0)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if !latSet || !lonSet {
		rw.BadRequest("lat and lon are required")
		return
	}

	radius, _, err := queryFloat(r, "radius_km", 10)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if radius > h.cfg.API.MaxRadiusKm {
		rw.BadRequest(fmt.Sprintf("radius_km cannot exceed %g", h.cfg.API.MaxRadiusKm))
		return
	}

	page, perPage, err := h.pagination(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	req := NearbyProjectsRequest{
		Latitude:  lat,
		Longitude: lon,
		RadiusKm:  radius,
		Page:      page,
		PerPage:   perPage,
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	gate, bypass := visibility(r)
	metrics.DBSpatialQueries.WithLabelValues("nearby").Inc()
	result, err := h.store.NearbyProjects(r.Context(), database.NearbySearch{
		Latitude:          req.Latitude,
		Longitude:         req.Longitude,
		RadiusKm:          req.RadiusKm,
		GateVisibility:    gate,
		BypassDeveloperID: bypass,
		Page:              req.Page,
		PerPage:           req.PerPage,
	})
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.SuccessWithPagination(result.Projects, PaginationFromPage(result))
}

// GetProject handles GET /projects/{id}. Gated listings return 404 to
// anonymous and unrelated principals, indistinguishable from missing
// rows.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := pathID(r, "id")
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	project, err := h.store.GetProject(r.Context(), id)
	if err != nil {
		h.respondLookupError(rw, err, "Project not found")
		return
	}

	gate, bypass := visibility(r)
	if gate && bypass != project.DeveloperID {
		visible, err := h.store.DeveloperHasVisibleListings(r.Context(), project.DeveloperID)
		if err != nil {
			rw.DatabaseError(err)
			return
		}
		if !visible {
			rw.NotFound("Project not found")
			return
		}
	}

	rw.Success(project)
}

// CreateProject handles POST /projects. Restricted to verified
// developers by the router.
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	kind, developerID, _, err := principal(r)
	if err != nil || kind != auth.SubjectDeveloper {
		rw.Forbidden("Developer account required")
		return
	}

	var req CreateProjectRequest
	if !decodeAndValidate(rw, w, r, &req) {
		return
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		rw.BadRequest("latitude and longitude must be provided together")
		return
	}

	if ok, msg := h.checkListingLimit(r, rw, developerID); !ok {
		if msg != "" {
			rw.Forbidden(msg)
		}
		return
	}

	var completion *time.Time
	if req.ExpectedCompletionDate != "" {
		t, err := time.Parse(completionDateLayout, req.ExpectedCompletionDate)
		if err != nil {
			rw.BadRequest("invalid expected_completion_date")
			return
		}
		completion = &t
	}

	project := &models.Project{
		DeveloperID:            developerID,
		Title:                  req.Title,
		Description:            req.Description,
		LocationText:           req.LocationText,
		City:                   req.City,
		Neighborhood:           req.Neighborhood,
		Country:                req.Country,
		ProjectType:            req.ProjectType,
		Status:                 req.Status,
		ExpectedCompletionDate: completion,
		CoverImageURL:          req.CoverImageURL,
		GalleryURLs:            req.GalleryURLs,
		AmenitiesList:          req.AmenitiesList,
		Latitude:               req.Latitude,
		Longitude:              req.Longitude,
	}

	// Best effort: resolve missing coordinates from the address when
	// geocoding is on. A failed lookup never fails the create.
	if project.Latitude == nil {
		if result, err := h.geocoder.Forward(r.Context(), req.LocationText+", "+req.City); err == nil {
			project.Latitude = &result.Latitude
			project.Longitude = &result.Longitude
		} else if !errors.Is(err, geo.ErrDisabled) {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Geocoding failed for new listing")
		}
	}

	created, err := h.store.CreateProject(r.Context(), project)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	metrics.ProjectsCreated.Inc()
	if err := h.events.PublishProjectCreated(r.Context(), events.ProjectCreated{
		ProjectID:   created.ID,
		DeveloperID: created.DeveloperID,
		City:        created.City,
		Title:       created.Title,
	}); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Failed to publish project.created")
	}

	rw.Created(created)
}

// checkListingLimit enforces the active plan's listing cap. Developers
// without a subscription may still create listings; the visibility gate
// keeps them out of public results. Returns ok=false with an empty
// message when the response was already written.
func (h *Handler) checkListingLimit(r *http.Request, rw *ResponseWriter, developerID int64) (bool, string) {
	limit, err := h.store.ActiveListingLimit(r.Context(), developerID)
	if errors.Is(err, database.ErrNotFound) {
		return true, ""
	}
	if err != nil {
		rw.DatabaseError(err)
		return false, ""
	}
	if limit <= 0 {
		return true, ""
	}

	count, err := h.store.CountActiveProjects(r.Context(), developerID)
	if err != nil {
		rw.DatabaseError(err)
		return false, ""
	}
	if count >= limit {
		return false, fmt.Sprintf("Listing limit of %d reached for your plan", limit)
	}
	return true, ""
}

// UpdateProject handles PUT /projects/{id}.
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	kind, developerID, _, err := principal(r)
	if err != nil || kind != auth.SubjectDeveloper {
		rw.Forbidden("Developer account required")
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	var req UpdateProjectRequest
	if !decodeAndValidate(rw, w, r, &req) {
		return
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		rw.BadRequest("latitude and longitude must be provided together")
		return
	}

	update := database.ProjectUpdate{
		Title:         req.Title,
		Description:   req.Description,
		LocationText:  req.LocationText,
		City:          req.City,
		Neighborhood:  req.Neighborhood,
		ProjectType:   req.ProjectType,
		Status:        req.Status,
		CoverImageURL: req.CoverImageURL,
		GalleryURLs:   req.GalleryURLs,
		AmenitiesList: req.AmenitiesList,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
	}
	if req.ExpectedCompletionDate != nil {
		t, err := time.Parse(completionDateLayout, *req.ExpectedCompletionDate)
		if err != nil {
			rw.BadRequest("invalid expected_completion_date")
			return
		}
		update.ExpectedCompletionDate = &t
	}

	project, err := h.store.UpdateProject(r.Context(), id, developerID, update)
	if err != nil {
		// Non-owned listings are indistinguishable from missing ones.
		h.respondLookupError(rw, err, "Project not found")
		return
	}

	rw.Success(project)
}

// DeleteProject handles DELETE /projects/{id} as a soft delete.
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	kind, developerID, _, err := principal(r)
	if err != nil || kind != auth.SubjectDeveloper {
		rw.Forbidden("Developer account required")
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	if err := h.store.SoftDeleteProject(r.Context(), id, developerID); err != nil {
		h.respondLookupError(rw, err, "Project not found")
		return
	}

	rw.Success(map[string]bool{"deleted": true})
}
