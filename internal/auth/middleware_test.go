// NovaDom - New-Construction Real Estate Marketplace
// Copyright 2026 NovaDom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/novadom/novadom

package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/novadom/novadom/internal/config"
	"github.com/novadom/novadom/internal/models"
)

func testMiddleware(t *testing.T) *Middleware {
	t.Helper()
	jm := testJWTManager(t, time.Hour)
	m := NewMiddleware(jm, &config.SecurityConfig{
		JWTSecret:       "test-secret-at-least-32-characters-long",
		TokenTTL:        time.Hour,
		RateLimitReqs:   100,
		RateLimitWindow: time.Minute,
		TrustedProxies:  []string{"10.0.0.1"},
	})
	t.Cleanup(m.Stop)
	return m
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate(t *testing.T) {
	m := testMiddleware(t)
	token, err := m.jwtManager.GenerateToken(UserSubject(5), models.TypeBuyer)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		header     string
		cookie     string
		wantStatus int
	}{
		{"valid bearer token", "Bearer " + token, "", http.StatusOK},
		{"valid cookie token", "", token, http.StatusOK},
		{"missing token", "", "", http.StatusUnauthorized},
		{"malformed header", token, "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, "", http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.jwt", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				claims, ok := ClaimsFromContext(r.Context())
				if !ok {
					t.Error("claims missing from context")
				} else if claims.UserType != models.TypeBuyer {
					t.Errorf("UserType = %q, want %q", claims.UserType, models.TypeBuyer)
				}
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "token", Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if (tt.wantStatus == http.StatusOK) != called {
				t.Errorf("handler called = %v with status %d", called, rec.Code)
			}
		})
	}
}

func TestRequireType(t *testing.T) {
	m := testMiddleware(t)

	tests := []struct {
		name       string
		userType   string
		required   []string
		wantStatus int
	}{
		{"exact match", models.TypeBuyer, []string{models.TypeBuyer}, http.StatusOK},
		{"admin override", models.TypeAdmin, []string{models.TypeDeveloper}, http.StatusOK},
		{"one of several", models.TypeDeveloper, []string{models.TypeBuyer, models.TypeDeveloper}, http.StatusOK},
		{"wrong type", models.TypeBuyer, []string{models.TypeDeveloper}, http.StatusForbidden},
		{"unverified developer blocked", models.TypeUnverifiedDeveloper, []string{models.TypeDeveloper}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject := UserSubject(3)
			if tt.userType == models.TypeDeveloper || tt.userType == models.TypeUnverifiedDeveloper {
				subject = DeveloperSubject(3)
			}
			token, err := m.jwtManager.GenerateToken(subject, tt.userType)
			if err != nil {
				t.Fatal(err)
			}

			var called bool
			handler := m.Authenticate(m.RequireType(tt.required...)(okHandler(&called)))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestMiddlewareErrorEnvelope(t *testing.T) {
	m := testMiddleware(t)
	buyerToken, err := m.jwtManager.GenerateToken(UserSubject(3), models.TypeBuyer)
	if err != nil {
		t.Fatal(err)
	}

	limited := NewMiddleware(m.jwtManager, &config.SecurityConfig{
		RateLimitReqs:   1,
		RateLimitWindow: time.Hour,
	})
	t.Cleanup(limited.Stop)

	var called bool
	tests := []struct {
		name       string
		handler    http.Handler
		prepare    func(r *http.Request)
		wantStatus int
		wantCode   string
	}{
		{
			name:       "missing token",
			handler:    m.Authenticate(okHandler(&called)),
			prepare:    func(r *http.Request) {},
			wantStatus: http.StatusUnauthorized,
			wantCode:   "UNAUTHORIZED",
		},
		{
			name:    "expired token",
			handler: m.Authenticate(okHandler(&called)),
			prepare: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer not.a.jwt")
			},
			wantStatus: http.StatusUnauthorized,
			wantCode:   "UNAUTHORIZED",
		},
		{
			name:    "insufficient permissions",
			handler: m.Authenticate(m.RequireType(models.TypeDeveloper)(okHandler(&called))),
			prepare: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+buyerToken)
			},
			wantStatus: http.StatusForbidden,
			wantCode:   "FORBIDDEN",
		},
		{
			name:    "rate limited",
			handler: limited.RateLimit(okHandler(&called)),
			prepare: func(r *http.Request) {
				r.RemoteAddr = "192.0.2.77:1234"
				// Exhaust the single-request budget for this IP.
				warm := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
				warm.RemoteAddr = r.RemoteAddr
				limited.RateLimit(okHandler(&called)).ServeHTTP(httptest.NewRecorder(), warm)
			},
			wantStatus: http.StatusTooManyRequests,
			wantCode:   "RATE_LIMITED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
			tt.prepare(req)
			rec := httptest.NewRecorder()
			tt.handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}

			var env struct {
				Success bool `json:"success"`
				Error   struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
				t.Fatalf("rejection body is not a JSON envelope: %v: %s", err, rec.Body.String())
			}
			if env.Success {
				t.Error("success = true on a rejection")
			}
			if env.Error.Code != tt.wantCode {
				t.Errorf("error code = %q, want %q", env.Error.Code, tt.wantCode)
			}
			if env.Error.Message == "" {
				t.Error("error message is empty")
			}
		})
	}
}

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(3, time.Hour)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("192.0.2.1") {
			t.Fatalf("request %d unexpectedly denied", i+1)
		}
	}
	if rl.Allow("192.0.2.1") {
		t.Error("burst exceeded but request allowed")
	}
	if !rl.Allow("192.0.2.2") {
		t.Error("separate IP should have its own bucket")
	}
}

func TestGetClientIP(t *testing.T) {
	m := testMiddleware(t)

	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		realIP     string
		want       string
	}{
		{"direct connection", "203.0.113.5:1234", "", "", "203.0.113.5"},
		{"untrusted proxy ignores XFF", "203.0.113.5:1234", "198.51.100.9", "", "203.0.113.5"},
		{"trusted proxy uses XFF", "10.0.0.1:1234", "198.51.100.9", "", "198.51.100.9"},
		{"trusted proxy XFF chain", "10.0.0.1:1234", "198.51.100.9, 10.0.0.1", "", "198.51.100.9"},
		{"trusted proxy invalid XFF falls back to real IP", "10.0.0.1:1234", "not-an-ip", "198.51.100.7", "198.51.100.7"},
		{"trusted proxy no headers", "10.0.0.1:1234", "", "", "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := m.getClientIP(req); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	m := testMiddleware(t)
	var called bool
	handler := m.SecurityHeaders(okHandler(&called))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
	if !called {
		t.Error("next handler not called")
	}
}
