// NovaDom - New-Construction Real Estate Marketplace
// Copyright 2026 NovaDom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/novadom/novadom

package database

import (
	"context"
	"fmt"

	"github.com/novadom/novadom/internal/models"
)

// ListSavedListings returns the buyer's bookmarks newest first, with the
// project joined in.
func (db *DB) ListSavedListings(ctx context.Context, userID int64) (_ []models.SavedListing, err error) {
	defer observeQuery("select", "saved_listings")(&err)

	rows, err := db.pool.Query(ctx, `
		SELECT sl.id, sl.user_id, sl.project_id, sl.created_at, `+projectColumns+`
		FROM saved_listings sl
		JOIN projects p ON p.id = sl.project_id
		WHERE sl.user_id = $1 AND p.is_active
		ORDER BY sl.created_at DESC, sl.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved listings: %w", err)
	}
	defer rows.Close()

	var listings []models.SavedListing
	for rows.Next() {
		var sl models.SavedListing
		var buf projectScanBuf
		dest := append([]interface{}{&sl.ID, &sl.UserID, &sl.ProjectID, &sl.CreatedAt},
			buf.dest(false)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan saved listing: %w", err)
		}
		p, err := buf.finish()
		if err != nil {
			return nil, err
		}
		sl.Project = p
		listings = append(listings, sl)
	}
	return listings, rows.Err()
}

// SaveListing bookmarks an active project for the buyer. Returns
// ErrDuplicate when already saved and ErrNotFound for missing or inactive
// projects.
func (db *DB) SaveListing(ctx context.Context, userID, projectID int64) (_ *models.SavedListing, err error) {
	defer observeQuery("insert", "saved_listings")(&err)

	if _, err := db.GetProject(ctx, projectID); err != nil {
		return nil, err
	}

	var sl models.SavedListing
	err = db.pool.QueryRow(ctx, `
		INSERT INTO saved_listings (user_id, project_id)
		VALUES ($1, $2)
		RETURNING id, user_id, project_id, created_at`,
		userID, projectID).
		Scan(&sl.ID, &sl.UserID, &sl.ProjectID, &sl.CreatedAt)
	if err != nil {
		return nil, classify(err)
	}
	return &sl, nil
}

// DeleteSavedListing removes a bookmark. Returns ErrNotFound when the
// buyer has not saved that project.
func (db *DB) DeleteSavedListing(ctx context.Context, userID, projectID int64) (err error) {
	defer observeQuery("delete", "saved_listings")(&err)

	tag, err := db.pool.Exec(ctx,
		`DELETE FROM saved_listings WHERE user_id = $1 AND project_id = $2`,
		userID, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete saved listing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
