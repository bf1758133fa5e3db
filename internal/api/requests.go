// NovaDom - New-Construction Real Estate Marketplace
// Copyright 2026 NovaDom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/novadom/novadom

// HTTP request bodies and query parameters with go-playground/validator
// tags. Custom tags: password_policy requires at least 8 characters with
// one letter and one digit; phone_digits requires at least 10 digits.
package api

import "strings"

// normalizer is implemented by request types that clean their fields
// before validation. decodeAndValidate calls it after decoding, so
// length rules apply to the trimmed value and the trimmed value is what
// gets stored.
type normalizer interface {
	normalize()
}

// RegisterBuyerRequest is the body for POST /auth/register/buyer.
type RegisterBuyerRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,password_policy"`
	FirstName string `json:"first_name" validate:"required,min=2,max=100"`
	LastName  string `json:"last_name" validate:"required,min=2,max=100"`
}

func (r *RegisterBuyerRequest) normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
}

// RegisterDeveloperRequest is the body for POST /auth/register-developer.
type RegisterDeveloperRequest struct {
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,password_policy"`
	CompanyName   string `json:"company_name" validate:"required,min=2,max=255"`
	ContactPerson string `json:"contact_person" validate:"required,min=2,max=255"`
	Phone         string `json:"phone" validate:"required,phone_digits"`
	Address       string `json:"address" validate:"required,min=5,max=500"`
	Website       string `json:"website" validate:"omitempty,url"`
}

// LoginRequest is the JSON body for POST /auth/login. The same fields
// arrive form-encoded as username/password on POST /auth/token.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// CreateAdminRequest is the body for POST /admin/create-admin.
type CreateAdminRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,password_policy"`
	FirstName string `json:"first_name" validate:"required,min=2,max=100"`
	LastName  string `json:"last_name" validate:"required,min=2,max=100"`
}

func (r *CreateAdminRequest) normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
}

// UpdateBuyerProfileRequest is the body for PUT /auth/profile/buyer.
// Nil fields are left unchanged.
type UpdateBuyerProfileRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,min=2,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,min=2,max=100"`
}

func (r *UpdateBuyerProfileRequest) normalize() {
	if r.FirstName != nil {
		*r.FirstName = strings.TrimSpace(*r.FirstName)
	}
	if r.LastName != nil {
		*r.LastName = strings.TrimSpace(*r.LastName)
	}
}

// UpdateDeveloperProfileRequest is the body for PUT /auth/profile/developer.
type UpdateDeveloperProfileRequest struct {
	CompanyName   *string `json:"company_name" validate:"omitempty,min=2,max=255"`
	ContactPerson *string `json:"contact_person" validate:"omitempty,min=2,max=255"`
	Phone         *string `json:"phone" validate:"omitempty,phone_digits"`
	Address       *string `json:"address" validate:"omitempty,min=5,max=500"`
	Website       *string `json:"website" validate:"omitempty,url"`
}

// CreateProjectRequest is the body for POST /projects.
type CreateProjectRequest struct {
	Title                  string   `json:"title" validate:"required,min=1,max=200"`
	Description            string   `json:"description" validate:"omitempty,max=5000"`
	LocationText           string   `json:"location_text" validate:"required,min=1,max=500"`
	City                   string   `json:"city" validate:"required,min=1,max=100"`
	Neighborhood           string   `json:"neighborhood" validate:"omitempty,max=100"`
	Country                string   `json:"country" validate:"omitempty,max=100"`
	ProjectType            string   `json:"project_type" validate:"required,oneof=apartment_building house_complex"`
	Status                 string   `json:"status" validate:"required,oneof=planning under_construction completed"`
	ExpectedCompletionDate string   `json:"expected_completion_date" validate:"omitempty,datetime=2006-01-02"`
	CoverImageURL          string   `json:"cover_image_url" validate:"omitempty,url,max=1000"`
	GalleryURLs            []string `json:"gallery_urls" validate:"omitempty,max=50,dive,url"`
	AmenitiesList          []string `json:"amenities_list" validate:"omitempty,max=100,dive,min=1,max=100"`
	Latitude               *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude              *float64 `json:"longitude" validate:"omitempty,longitude"`
}

// UpdateProjectRequest is the body for PUT /projects/{id}. Nil fields
// are left unchanged; coordinates must be provided together.
type UpdateProjectRequest struct {
	Title                  *string  `json:"title" validate:"omitempty,min=1,max=200"`
	Description            *string  `json:"description" validate:"omitempty,max=5000"`
	LocationText           *string  `json:"location_text" validate:"omitempty,min=1,max=500"`
	City                   *string  `json:"city" validate:"omitempty,min=1,max=100"`
	Neighborhood           *string  `json:"neighborhood" validate:"omitempty,max=100"`
	ProjectType            *string  `json:"project_type" validate:"omitempty,oneof=apartment_building house_complex"`
	Status                 *string  `json:"status" validate:"omitempty,oneof=planning under_construction completed"`
	ExpectedCompletionDate *string  `json:"expected_completion_date" validate:"omitempty,datetime=2006-01-02"`
	CoverImageURL          *string  `json:"cover_image_url" validate:"omitempty,url,max=1000"`
	GalleryURLs            []string `json:"gallery_urls" validate:"omitempty,max=50,dive,url"`
	AmenitiesList          []string `json:"amenities_list" validate:"omitempty,max=100,dive,min=1,max=100"`
	Latitude               *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude              *float64 `json:"longitude" validate:"omitempty,longitude"`
}

// SearchProjectsRequest holds the validated query parameters for
// GET /projects.
type SearchProjectsRequest struct {
	Search      string `validate:"omitempty,max=255"`
	City        string `validate:"omitempty,max=100"`
	ProjectType string `validate:"omitempty,oneof=apartment_building house_complex"`
	Status      string `validate:"omitempty,oneof=planning under_construction completed"`
	DeveloperID int64  `validate:"omitempty,min=1"`
	Page        int    `validate:"min=1"`
	PerPage     int    `validate:"min=1,max=100"`
}

// NearbyProjectsRequest holds the validated query parameters for
// GET /projects/nearby.
type NearbyProjectsRequest struct {
	Latitude  float64 `validate:"latitude"`
	Longitude float64 `validate:"longitude"`
	RadiusKm  float64 `validate:"gt=0,max=100"`
	Page      int     `validate:"min=1"`
	PerPage   int     `validate:"min=1,max=100"`
}

// SaveListingRequest is the body for POST /saved-listings.
type SaveListingRequest struct {
	ProjectID int64 `json:"project_id" validate:"required,min=1"`
}

// CreateSubscriptionRequest is the body for POST /subscriptions.
type CreateSubscriptionRequest struct {
	PlanID               int64  `json:"plan_id" validate:"required,min=1"`
	PaymentTransactionID string `json:"payment_transaction_id" validate:"omitempty,max=255"`
}

// RejectDeveloperRequest is the body for POST /admin/developers/{id}/reject.
type RejectDeveloperRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=1000"`
}
