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
	"github.com/novadom/novadom/internal/logging"
	"github.com/novadom/novadom/internal/metrics"
	"github.com/novadom/novadom/internal/models"
)

// TokenResponse is the login payload.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	UserType    string `json:"user_type"`
}

// userProfile decorates a user with its presentation type.
type userProfile struct {
	*models.User
	UserType string `json:"user_type"`
}

// developerProfile decorates a developer with its presentation type.
type developerProfile struct {
	*models.Developer
	UserType string `json:"user_type"`
}

func newUserProfile(u *models.User) userProfile {
	return userProfile{User: u, UserType: u.Type()}
}

func newDeveloperProfile(d *models.Developer) developerProfile {
	return developerProfile{Developer: d, UserType: d.Type()}
}

// RegisterBuyer handles POST /auth/register/buyer.
func (h *Handler) RegisterBuyer(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req RegisterBuyerRequest
	if !decodeAndValidate(rw, w, r, &req) {
		return
	}

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		rw.InternalError("Failed to process registration")
		return
	}

	user, err := h.store.CreateUser(r.Context(), &models.User{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         models.RoleBuyer,
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			rw.Conflict("Email is already registered")
			return
		}
		rw.DatabaseError(err)
		return
	}

	metrics.AuthRegistrations.WithLabelValues(auth.SubjectUser).Inc()
	logging.Ctx(r.Context()).Info().Int64("user_id", user.ID).Msg("Buyer registered")
	rw.Created(newUserProfile(user))
}

// RegisterDeveloper handles POST /auth/register/developer. New developer
// accounts start with pending verification and cannot manage listings
// until an admin approves them.
func (h *Handler) RegisterDeveloper(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req RegisterDeveloperRequest
	if !decodeAndValidate(rw, w, r, &req) {
		return
	}

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		rw.InternalError("Failed to process registration")
		return
	}

	developer, err := h.store.CreateDeveloper(r.Context(), &models.Developer{
		Email:         req.Email,
		PasswordHash:  hash,
		CompanyName:   req.CompanyName,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Address:       req.Address,
		Website:       req.Website,
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			rw.Conflict("Email is already registered")
			return
		}
		rw.DatabaseError(err)
		return
	}

	metrics.AuthRegistrations.WithLabelValues(auth.SubjectDeveloper).Inc()
	logging.Ctx(r.Context()).Info().
		Int64("developer_id", developer.ID).
		Str("company", developer.CompanyName).
		Msg("Developer registered, verification pending")
	rw.Created(newDeveloperProfile(developer))
}

// Login handles POST /auth/login with a JSON body.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req LoginRequest
	if !decodeAndValidate(rw, w, r, &req) {
		return
	}

	h.login(rw, r, req.Email, req.Password)
}

// Token handles POST /auth/token with an OAuth2-style form body
// (username/password fields).
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := r.ParseForm(); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			rw.BadRequest("Request body too large")
			return
		}
		rw.BadRequest("Invalid form body")
		return
	}

	email := r.PostForm.Get("username")
	password := r.PostForm.Get("password")
	if email == "" || password == "" {
		rw.BadRequest("username and password are required")
		return
	}

	h.login(rw, r, email, password)
}

// login resolves the email across both credential namespaces, verifies
// the password, and issues a token. The response never distinguishes an
// unknown email from a wrong password.
func (h *Handler) login(rw *ResponseWriter, r *http.Request, email, password string) {
	var (
		subject  string
		hash     string
		userType string
		kind     string
	)

	if user, err := h.store.GetUserByEmail(r.Context(), email); err == nil {
		subject = auth.UserSubject(user.ID)
		hash = user.PasswordHash
		userType = user.Type()
		kind = auth.SubjectUser
	} else if !errors.Is(err, database.ErrNotFound) {
		rw.DatabaseError(err)
		return
	} else if developer, err := h.store.GetDeveloperByEmail(r.Context(), email); err == nil {
		subject = auth.DeveloperSubject(developer.ID)
		hash = developer.PasswordHash
		userType = developer.Type()
		kind = auth.SubjectDeveloper
	} else if !errors.Is(err, database.ErrNotFound) {
		rw.DatabaseError(err)
		return
	}

	if subject == "" || h.hasher.Compare(hash, password) != nil {
		metrics.RecordLogin(kindOrUnknown(kind), false)
		rw.Unauthorized("Invalid email or password")
		return
	}

	token, err := h.jwt.GenerateToken(subject, userType)
	if err != nil {
		rw.InternalError("Failed to issue token")
		return
	}

	metrics.RecordLogin(kind, true)
	rw.Success(TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(h.jwt.TTL().Seconds()),
		UserType:    userType,
	})
}

func kindOrUnknown(kind string) string {
	if kind == "" {
		return "unknown"
	}
	return kind
}

// Me handles GET /auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	kind, id, _, err := principal(r)
	if err != nil {
		rw.Unauthorized("Authentication required")
		return
	}

	switch kind {
	case auth.SubjectUser:
		user, err := h.store.GetUserByID(r.Context(), id)
		if err != nil {
			h.respondLookupError(rw, err, "Account not found")
			return
		}
		rw.Success(newUserProfile(user))
	case auth.SubjectDeveloper:
		developer, err := h.store.GetDeveloperByID(r.Context(), id)
		if err != nil {
			h.respondLookupError(rw, err, "Account not found")
			return
		}
		rw.Success(newDeveloperProfile(developer))
	default:
		rw.Unauthorized("Unknown principal")
	}
}

// BuyerProfile handles GET /auth/profile/buyer, the typed variant of
// /auth/me for buyer accounts.
func (h *Handler) BuyerProfile(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	kind, id, _, err := principal(r)
	if err != nil || kind != auth.SubjectUser {
		rw.Forbidden("Buyer account required")
		return
	}

	user, err := h.store.GetUserByID(r.Context(), id)
	if err != nil {
		h.respondLookupError(rw, err, "Account not found")
		return
	}
	rw.Success(newUserProfile(user))
}

// DeveloperProfile handles GET /auth/profile/developer.
func (h *Handler) DeveloperProfile(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	kind, id, _, err := principal(r)
	if err != nil || kind != auth.SubjectDeveloper {
		rw.Forbidden("Developer account required")
		return
	}

	developer, err := h.store.GetDeveloperByID(r.Context(), id)
	if err != nil {
		h.respondLookupError(rw, err, "Account not found")
		return
	}
	rw.Success(newDeveloperProfile(developer))
}

// UpdateBuyerProfile handles PUT /auth/profile/buyer.
func (h *Handler) UpdateBuyerProfile(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	kind, id, _, err := principal(r)
	if err != nil || kind != auth.SubjectUser {
		rw.Forbidden("Buyer account required")
		return
	}

	var req UpdateBuyerProfileRequest
	if !decodeAndValidate(rw, w, r, &req) {
		return
	}

	user, err := h.store.UpdateUserProfile(r.Context(), id, req.FirstName, req.LastName)
	if err != nil {
		h.respondLookupError(rw, err, "Account not found")
		return
	}
	rw.Success(newUserProfile(user))
}

// UpdateDeveloperProfile handles PUT /auth/profile/developer.
func (h *Handler) UpdateDeveloperProfile(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	kind, id, _, err := principal(r)
	if err != nil || kind != auth.SubjectDeveloper {
		rw.Forbidden("Developer account required")
		return
	}

	var req UpdateDeveloperProfileRequest
	if !decodeAndValidate(rw, w, r, &req) {
		return
	}

	developer, err := h.store.UpdateDeveloperProfile(r.Context(), id, database.DeveloperProfileUpdate{
		CompanyName:   req.CompanyName,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Address:       req.Address,
		Website:       req.Website,
	})
	if err != nil {
		h.respondLookupError(rw, err, "Account not found")
		return
	}
	rw.Success(newDeveloperProfile(developer))
}

// respondLookupError maps store errors on single-row lookups.
func (h *Handler) respondLookupError(rw *ResponseWriter, err error, notFoundMsg string) {
	if errors.Is(err, database.ErrNotFound) {
		rw.NotFound(notFoundMsg)
		return
	}
	rw.DatabaseError(err)
}
