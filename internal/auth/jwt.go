// NovaDom - New-Construction Real Estate Marketplace
// Copyright 2026 NovaDom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/novadom/novadom

package auth

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/novadom/novadom/internal/config"
)

// Principal kinds encoded in the token subject. Buyers and admins live in
// the users table, developers in their own table, so the subject carries
// both the namespace and the row ID ("user:42", "developer:7").
const (
	SubjectUser      = "user"
	SubjectDeveloper = "developer"
)

// Claims represents JWT claims carried by NovaDom access tokens.
type Claims struct {
	UserType string `json:"user_type"`
	jwt.RegisteredClaims
}

// Principal splits the subject claim into its kind and numeric ID.
func (c *Claims) Principal() (kind string, id int64, err error) {
	parts := strings.SplitN(c.Subject, ":", 2)
	if len(parts) != 2 {
		return "", 0, fmt.Errorf("malformed token subject %q", c.Subject)
	}
	if parts[0] != SubjectUser && parts[0] != SubjectDeveloper {
		return "", 0, fmt.Errorf("unknown principal kind %q", parts[0])
	}
	id, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id <= 0 {
		return "", 0, fmt.Errorf("invalid principal ID in subject %q", c.Subject)
	}
	return parts[0], id, nil
}

// UserSubject formats the subject claim for a users-table account.
func UserSubject(id int64) string {
	return SubjectUser + ":" + strconv.FormatInt(id, 10)
}

// DeveloperSubject formats the subject claim for a developer account.
func DeveloperSubject(id int64) string {
	return SubjectDeveloper + ":" + strconv.FormatInt(id, 10)
}

// JWTManager handles JWT token creation and validation.
//
// Tokens are signed with HMAC-SHA256. The secret is stored as []byte to
// prevent string interning attacks, and validation rejects any token not
// signed with an HMAC algorithm to block algorithm confusion.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
}

// NewJWTManager creates a token manager from the security configuration.
// The JWT secret must be non-empty; production deployments additionally
// require at least 32 characters, enforced by config validation.
func NewJWTManager(cfg *config.SecurityConfig) (*JWTManager, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but was empty")
	}

	return &JWTManager{
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.TokenTTL,
	}, nil
}

// TTL returns the configured token lifetime.
func (m *JWTManager) TTL() time.Duration {
	return m.ttl
}

// GenerateToken creates a signed access token for the given principal.
// The subject must come from UserSubject or DeveloperSubject; userType is
// the presentation type the account resolves to at issue time (buyer,
// developer, unverified_developer, admin).
func (m *JWTManager) GenerateToken(subject, userType string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserType: userType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

// ValidateToken verifies the signature, algorithm, and time claims of a
// token string and returns its claims.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	if _, _, err := claims.Principal(); err != nil {
		return nil, err
	}

	return claims, nil
}
