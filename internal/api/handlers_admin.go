// NovaDom - New-Construction Real Estate Marketplace
// Copyright 2026 NovaDom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/novadom/novadom

package api

import (
	"errors"
	"net/http"

	"github.com/novadom/novadom/internal/database"
	"github.com/novadom/novadom/internal/events"
	"github.com/novadom/novadom/internal/logging"
	"github.com/novadom/novadom/internal/metrics"
	"github.com/novadom/novadom/internal/models"
)

// developersOverview is the GET /admin/developers payload.
type developersOverview struct {
	Developers []models.Developer `json:"developers"`
	models.DeveloperCounts
}

// CreateAdmin handles POST /admin/create-admin. The endpoint is disabled
// unless security.allow_admin_signup is set, intended for initial
// bootstrap only.
func (h *Handler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if !h.cfg.Security.AllowAdminSignup {
		rw.Forbidden("Admin signup is disabled")
		return
	}

	var req CreateAdminRequest
	if !decodeAndValidate(rw, w, r, &req) {
		return
	}

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		rw.InternalError("Failed to process registration")
		return
	}

	admin, err := h.store.CreateUser(r.Context(), &models.User{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         models.RoleAdmin,
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			rw.Conflict("Email is already registered")
			return
		}
		rw.DatabaseError(err)
		return
	}

	logging.Ctx(r.Context()).Warn().Int64("user_id", admin.ID).Msg("Admin account created")
	rw.Created(newUserProfile(admin))
}

// ListAllDevelopers handles GET /admin/developers.
func (h *Handler) ListAllDevelopers(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	developers, err := h.store.ListDevelopers(r.Context())
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	counts, err := h.store.CountDevelopersByStatus(r.Context())
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	if developers == nil {
		developers = []models.Developer{}
	}

	rw.Success(developersOverview{Developers: developers, DeveloperCounts: counts})
}

// ListPendingDevelopers handles GET /admin/developers/pending.
func (h *Handler) ListPendingDevelopers(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	developers, err := h.store.ListPendingDevelopers(r.Context())
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	if developers == nil {
		developers = []models.Developer{}
	}

	rw.Success(developers)
}

// GetDeveloper handles GET /admin/developers/{id}.
func (h *Handler) GetDeveloper(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := pathID(r, "id")
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	developer, err := h.store.GetDeveloperByID(r.Context(), id)
	if err != nil {
		h.respondLookupError(rw, err, "Developer not found")
		return
	}

	rw.Success(newDeveloperProfile(developer))
}

// VerifyDeveloper handles POST /admin/developers/{id}/verify.
func (h *Handler) VerifyDeveloper(w http.ResponseWriter, r *http.Request) {
	h.setVerification(w, r, models.VerificationVerified, "")
}

// RejectDeveloper handles POST /admin/developers/{id}/reject.
func (h *Handler) RejectDeveloper(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req RejectDeveloperRequest
	if !decodeAndValidate(rw, w, r, &req) {
		return
	}

	h.setVerification(w, r, models.VerificationRejected, req.Reason)
}

// ResetDeveloperVerification handles POST /admin/developers/{id}/reset.
func (h *Handler) ResetDeveloperVerification(w http.ResponseWriter, r *http.Request) {
	h.setVerification(w, r, models.VerificationPending, "")
}

// setVerification applies a verification decision and publishes the
// outcome.
func (h *Handler) setVerification(w http.ResponseWriter, r *http.Request, status, notes string) {
	rw := NewResponseWriter(w, r)

	id, err := pathID(r, "id")
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	developer, err := h.store.SetVerificationStatus(r.Context(), id, status, notes)
	if err != nil {
		h.respondLookupError(rw, err, "Developer not found")
		return
	}

	metrics.DeveloperVerifications.WithLabelValues(status).Inc()
	logging.Ctx(r.Context()).Info().
		Int64("developer_id", developer.ID).
		Str("status", status).
		Msg("Developer verification updated")

	if status == models.VerificationVerified {
		if err := h.events.PublishDeveloperVerified(r.Context(), events.DeveloperVerified{
			DeveloperID: developer.ID,
			CompanyName: developer.CompanyName,
			Decision:    status,
		}); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Failed to publish developer.verified")
		}
	}

	rw.Success(newDeveloperProfile(developer))
}
