// NovaDom - New-Construction Real Estate Marketplace
// Copyright 2026 NovaDom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/novadom/novadom

package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgtype"

	"github.com/novadom/novadom/internal/models"
)

const developerColumns = `id, email, password_hash, company_name, contact_person, phone, address,
	website, verification_status, verification_notes, verified_at, created_at, updated_at`

// CreateDeveloper inserts a developer account with pending verification.
func (db *DB) CreateDeveloper(ctx context.Context, d *models.Developer) (_ *models.Developer, err error) {
	defer observeQuery("insert", "developers")(&err)

	taken, err := db.EmailTaken(ctx, d.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicate
	}

	row := db.pool.QueryRow(ctx, `
		INSERT INTO developers (email, password_hash, company_name, contact_person, phone, address, website)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
		RETURNING `+developerColumns,
		d.Email, d.PasswordHash, d.CompanyName, d.ContactPerson, d.Phone, d.Address, d.Website)

	created, err := scanDeveloper(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create developer: %w", classify(err))
	}
	return created, nil
}

// GetDeveloperByEmail looks up a developer by email.
func (db *DB) GetDeveloperByEmail(ctx context.Context, email string) (_ *models.Developer, err error) {
	defer observeQuery("select", "developers")(&err)

	row := db.pool.QueryRow(ctx,
		`SELECT `+developerColumns+` FROM developers WHERE email = $1`, email)
	d, err := scanDeveloper(row)
	if err != nil {
		return nil, classify(err)
	}
	return d, nil
}

// GetDeveloperByID looks up a developer by ID.
func (db *DB) GetDeveloperByID(ctx context.Context, id int64) (_ *models.Developer, err error) {
	defer observeQuery("select", "developers")(&err)

	row := db.pool.QueryRow(ctx,
		`SELECT `+developerColumns+` FROM developers WHERE id = $1`, id)
	d, err := scanDeveloper(row)
	if err != nil {
		return nil, classify(err)
	}
	return d, nil
}

// ListDevelopers returns all developers, newest first.
func (db *DB) ListDevelopers(ctx context.Context) ([]models.Developer, error) {
	return db.listDevelopersWhere(ctx, ``)
}

// ListPendingDevelopers returns developers awaiting verification.
func (db *DB) ListPendingDevelopers(ctx context.Context) ([]models.Developer, error) {
	return db.listDevelopersWhere(ctx, `WHERE verification_status = 'pending'`)
}

func (db *DB) listDevelopersWhere(ctx context.Context, where string) (_ []models.Developer, err error) {
	defer observeQuery("select", "developers")(&err)

	rows, err := db.pool.Query(ctx,
		`SELECT `+developerColumns+` FROM developers `+where+` ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list developers: %w", err)
	}
	defer rows.Close()

	var developers []models.Developer
	for rows.Next() {
		d, err := scanDeveloper(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan developer: %w", err)
		}
		developers = append(developers, *d)
	}
	return developers, rows.Err()
}

// CountDevelopersByStatus aggregates developers per verification status.
func (db *DB) CountDevelopersByStatus(ctx context.Context) (_ models.DeveloperCounts, err error) {
	defer observeQuery("select", "developers")(&err)

	var c models.DeveloperCounts
	err = db.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE verification_status = 'pending'),
		       COUNT(*) FILTER (WHERE verification_status = 'verified'),
		       COUNT(*) FILTER (WHERE verification_status = 'rejected')
		FROM developers`).Scan(&c.Total, &c.Pending, &c.Verified, &c.Rejected)
	if err != nil {
		return models.DeveloperCounts{}, fmt.Errorf("failed to count developers: %w", err)
	}
	return c, nil
}

// SetVerificationStatus moves a developer between verification states.
// Notes hold the rejection reason; verified developers get a timestamp,
// any other transition clears it.
func (db *DB) SetVerificationStatus(ctx context.Context, id int64, status, notes string) (_ *models.Developer, err error) {
	defer observeQuery("update", "developers")(&err)

	if !models.IsValidVerificationStatus(status) {
		return nil, fmt.Errorf("invalid verification status %q", status)
	}

	var verifiedAt *time.Time
	if status == models.VerificationVerified {
		now := time.Now().UTC()
		verifiedAt = &now
	}

	row := db.pool.QueryRow(ctx, `
		UPDATE developers
		SET verification_status = $2, verification_notes = $3, verified_at = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+developerColumns,
		id, status, notes, verifiedAt)

	d, err := scanDeveloper(row)
	if err != nil {
		return nil, classify(err)
	}
	return d, nil
}

// DeveloperProfileUpdate holds partial profile changes. Nil fields are
// left unchanged.
type DeveloperProfileUpdate struct {
	CompanyName   *string
	ContactPerson *string
	Phone         *string
	Address       *string
	Website       *string
}

// UpdateDeveloperProfile applies partial profile changes.
func (db *DB) UpdateDeveloperProfile(ctx context.Context, id int64, u DeveloperProfileUpdate) (_ *models.Developer, err error) {
	defer observeQuery("update", "developers")(&err)

	set := []string{}
	args := []interface{}{id}
	add := func(column string, v *string) {
		if v != nil {
			args = append(args, *v)
			set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
		}
	}
	add("company_name", u.CompanyName)
	add("contact_person", u.ContactPerson)
	add("phone", u.Phone)
	add("address", u.Address)
	if u.Website != nil {
		args = append(args, *u.Website)
		set = append(set, fmt.Sprintf("website = NULLIF($%d, '')", len(args)))
	}
	if len(set) == 0 {
		return db.GetDeveloperByID(ctx, id)
	}
	set = append(set, "updated_at = now()")

	row := db.pool.QueryRow(ctx, `
		UPDATE developers SET `+strings.Join(set, ", ")+`
		WHERE id = $1
		RETURNING `+developerColumns, args...)

	d, err := scanDeveloper(row)
	if err != nil {
		return nil, classify(err)
	}
	return d, nil
}

func scanDeveloper(row rowScanner) (*models.Developer, error) {
	var (
		d          models.Developer
		website    pgtype.Text
		verifiedAt pgtype.Timestamptz
	)
	err := row.Scan(&d.ID, &d.Email, &d.PasswordHash, &d.CompanyName, &d.ContactPerson,
		&d.Phone, &d.Address, &website, &d.VerificationStatus, &d.VerificationNotes,
		&verifiedAt, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if website.Status == pgtype.Present {
		d.Website = website.String
	}
	if verifiedAt.Status == pgtype.Present {
		t := verifiedAt.Time
		d.VerifiedAt = &t
	}
	return &d, nil
}
