// NovaDom - New-Construction Real Estate Marketplace
// Copyright 2026 NovaDom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/novadom/novadom

// Package models defines the NovaDom domain types shared between the
// database stores and the HTTP API.
package models

import "time"

// UserRole is the stored role of an account in the users table.
// Developer accounts live in the separate developers table and never
// appear here with a role other than through their own credential space.
const (
	RoleBuyer     = "buyer"
	RoleDeveloper = "developer"
	RoleAdmin     = "admin"
)

// UserType is the presented account type carried in JWT claims and API
// responses. A developer presents as TypeDeveloper only once verified;
// until then (pending or rejected) it presents as TypeUnverifiedDeveloper.
const (
	TypeBuyer               = "buyer"
	TypeDeveloper           = "developer"
	TypeUnverifiedDeveloper = "unverified_developer"
	TypeAdmin               = "admin"
)

// ValidRoles contains all valid stored role names.
var ValidRoles = []string{RoleBuyer, RoleDeveloper, RoleAdmin}

// IsValidRole checks if a stored role name is valid.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// User represents a buyer or admin account.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	IsActive     bool      `json:"is_active"`
}

// Type returns the presented account type for this user.
func (u *User) Type() string {
	if u.Role == RoleAdmin {
		return TypeAdmin
	}
	return TypeBuyer
}
