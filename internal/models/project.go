// NovaDom - New-Construction Real Estate Marketplace
// Copyright 2026 NovaDom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/novadom/novadom

package models

import "time"

// ProjectStatus values describe the construction stage of a project.
const (
	StatusPlanning          = "planning"
	StatusUnderConstruction = "under_construction"
	StatusCompleted         = "completed"
)

// ProjectType values describe the kind of development.
const (
	ProjectTypeApartmentBuilding = "apartment_building"
	ProjectTypeHouseComplex      = "house_complex"
)

// IsValidProjectStatus checks a project status value.
func IsValidProjectStatus(s string) bool {
	return s == StatusPlanning || s == StatusUnderConstruction || s == StatusCompleted
}

// IsValidProjectType checks a project type value.
func IsValidProjectType(s string) bool {
	return s == ProjectTypeApartmentBuilding || s == ProjectTypeHouseComplex
}

// Project represents a new-construction development listing.
// Latitude/Longitude are extracted from the PostGIS point column; both are
// nil when the project has no location yet.
type Project struct {
	ID                     int64      `json:"id"`
	DeveloperID            int64      `json:"developer_id"`
	Title                  string     `json:"title"`
	Description            string     `json:"description,omitempty"`
	LocationText           string     `json:"location_text"`
	City                   string     `json:"city"`
	Neighborhood           string     `json:"neighborhood,omitempty"`
	Country                string     `json:"country"`
	ProjectType            string     `json:"project_type"`
	Status                 string     `json:"status"`
	ExpectedCompletionDate *time.Time `json:"expected_completion_date,omitempty"`
	CoverImageURL          string     `json:"cover_image_url,omitempty"`
	GalleryURLs            []string   `json:"gallery_urls"`
	AmenitiesList          []string   `json:"amenities_list"`
	Latitude               *float64   `json:"latitude,omitempty"`
	Longitude              *float64   `json:"longitude,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
	IsActive               bool       `json:"is_active"`
	IsVerified             bool       `json:"is_verified"`

	// DistanceKm is populated only by proximity search.
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

// ProjectPage is one page of project search results.
type ProjectPage struct {
	Projects   []Project `json:"projects"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	PerPage    int       `json:"per_page"`
	TotalPages int       `json:"total_pages"`
}

// TotalPagesFor derives the page count for a result set.
func TotalPagesFor(total, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 1
	}
	return (total + perPage - 1) / perPage
}
