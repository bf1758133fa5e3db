// NovaDom - New-Construction Real Estate Marketplace
// Copyright 2026 NovaDom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/novadom/novadom

package api

import (
	"context"
	"net/http"
	"time"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// healthStatus is the GET /health payload.
type healthStatus struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// Health handles GET /health (liveness).
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(healthStatus{
		Status:        "ok",
		Version:       Version,
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	})
}

// Ready handles GET /ready (readiness). Fails when the database is
// unreachable.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		rw.ServiceUnavailable("Database unavailable")
		return
	}

	rw.Success(map[string]string{"status": "ready"})
}
