// NovaDom - New-Construction Real Estate Marketplace
// Copyright 2026 NovaDom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/novadom/novadom

package models

import "time"

// SavedListing is a buyer's bookmark on a project. One row per
// (user, project) pair.
type SavedListing struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ProjectID int64     `json:"project_id"`
	CreatedAt time.Time `json:"created_at"`

	// Project is the joined listing summary for list responses.
	Project *Project `json:"project,omitempty"`
}
