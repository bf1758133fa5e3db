// NovaDom - New-Construction Real Estate Marketplace
// Copyright 2026 NovaDom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/novadom/novadom

package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/novadom/novadom/internal/models"
)

const userColumns = `id, email, password_hash, first_name, last_name, role, created_at, updated_at, is_active`

// CreateUser inserts a buyer or admin account. Returns ErrDuplicate when
// the email is already taken in either credential namespace.
func (db *DB) CreateUser(ctx context.Context, u *models.User) (_ *models.User, err error) {
	defer observeQuery("insert", "users")(&err)

	taken, err := db.EmailTaken(ctx, u.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicate
	}

	row := db.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, first_name, last_name, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns,
		u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Role)

	created, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", classify(err))
	}
	return created, nil
}

// GetUserByEmail looks up an active account by email.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (_ *models.User, err error) {
	defer observeQuery("select", "users")(&err)

	row := db.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1 AND is_active`, email)
	u, err := scanUser(row)
	if err != nil {
		return nil, classify(err)
	}
	return u, nil
}

// GetUserByID looks up an active account by ID.
func (db *DB) GetUserByID(ctx context.Context, id int64) (_ *models.User, err error) {
	defer observeQuery("select", "users")(&err)

	row := db.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 AND is_active`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, classify(err)
	}
	return u, nil
}

// EmailTaken reports whether an email exists in users or developers.
// Registration keeps the two credential namespaces disjoint so login can
// resolve an email unambiguously.
func (db *DB) EmailTaken(ctx context.Context, email string) (_ bool, err error) {
	defer observeQuery("select", "users")(&err)

	var taken bool
	err = db.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)
		    OR EXISTS (SELECT 1 FROM developers WHERE email = $1)`,
		email).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return taken, nil
}

// UpdateUserProfile applies partial profile changes to an active
// account. Nil fields are left unchanged.
func (db *DB) UpdateUserProfile(ctx context.Context, id int64, firstName, lastName *string) (_ *models.User, err error) {
	defer observeQuery("update", "users")(&err)

	set := []string{}
	args := []interface{}{id}
	if firstName != nil {
		args = append(args, *firstName)
		set = append(set, fmt.Sprintf("first_name = $%d", len(args)))
	}
	if lastName != nil {
		args = append(args, *lastName)
		set = append(set, fmt.Sprintf("last_name = $%d", len(args)))
	}
	if len(set) == 0 {
		return db.GetUserByID(ctx, id)
	}
	set = append(set, "updated_at = now()")

	row := db.pool.QueryRow(ctx, `
		UPDATE users SET `+strings.Join(set, ", ")+`
		WHERE id = $1 AND is_active
		RETURNING `+userColumns, args...)

	u, err := scanUser(row)
	if err != nil {
		return nil, classify(err)
	}
	return u, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Role, &u.CreatedAt, &u.UpdatedAt, &u.IsActive)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
