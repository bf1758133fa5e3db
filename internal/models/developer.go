// NovaDom - New-Construction Real Estate Marketplace
// Copyright 2026 NovaDom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/novadom/novadom

package models

import "time"

// VerificationStatus values for developer accounts. New registrations
// start as pending; an admin moves them to verified or rejected.
const (
	VerificationPending  = "pending"
	VerificationVerified = "verified"
	VerificationRejected = "rejected"
)

// IsValidVerificationStatus checks a verification status value.
func IsValidVerificationStatus(s string) bool {
	return s == VerificationPending || s == VerificationVerified || s == VerificationRejected
}

// Developer represents a construction company account. Developers carry
// their own credentials, separate from the users table.
type Developer struct {
	ID                 int64      `json:"id"`
	Email              string     `json:"email"`
	PasswordHash       string     `json:"-"`
	CompanyName        string     `json:"company_name"`
	ContactPerson      string     `json:"contact_person"`
	Phone              string     `json:"phone"`
	Address            string     `json:"address"`
	Website            string     `json:"website,omitempty"`
	VerificationStatus string     `json:"verification_status"`
	VerificationNotes  string     `json:"verification_notes,omitempty"`
	VerifiedAt         *time.Time `json:"verified_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Type returns the presented account type for this developer.
func (d *Developer) Type() string {
	if d.VerificationStatus == VerificationVerified {
		return TypeDeveloper
	}
	return TypeUnverifiedDeveloper
}

// IsVerified reports whether the developer may publish projects.
func (d *Developer) IsVerified() bool {
	return d.VerificationStatus == VerificationVerified
}

// DeveloperCounts aggregates developers by verification status for the
// admin overview endpoint.
type DeveloperCounts struct {
	Total    int `json:"total_count"`
	Pending  int `json:"pending_count"`
	Verified int `json:"verified_count"`
	Rejected int `json:"rejected_count"`
}
