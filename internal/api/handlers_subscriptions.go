// NovaDom - New-Construction Real Estate Marketplace
// Copyright 2026 NovaDom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/novadom/novadom

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/novadom/novadom/internal/auth"
	"github.com/novadom/novadom/internal/database"
	"github.com/novadom/novadom/internal/logging"
	"github.com/novadom/novadom/internal/metrics"
	"github.com/novadom/novadom/internal/models"
)

// subscriptionResponse decorates a subscription with remaining days.
type subscriptionResponse struct {
	*models.Subscription
	DaysRemaining int `json:"days_remaining"`
}

// ListPlans handles GET /subscriptions/plans (public).
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	plans, err := h.store.ListPlans(r.Context())
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.Success(plans)
}

// CurrentSubscription handles GET /subscriptions/current.
func (h *Handler) CurrentSubscription(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	kind, developerID, _, err := principal(r)
	if err != nil || kind != auth.SubjectDeveloper {
		rw.Forbidden("Developer account required")
		return
	}

	sub, err := h.store.GetActiveSubscription(r.Context(), developerID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			rw.NotFound("No active subscription")
			return
		}
		rw.DatabaseError(err)
		return
	}

	rw.Success(subscriptionResponse{
		Subscription:  sub,
		DaysRemaining: sub.DaysRemaining(time.Now().UTC()),
	})
}

// CreateSubscription handles POST /subscriptions. Payment capture is out
// of scope; the transaction reference is recorded as supplied.
func (h *Handler) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	kind, developerID, _, err := principal(r)
	if err != nil || kind != auth.SubjectDeveloper {
		rw.Forbidden("Developer account required")
		return
	}

	var req CreateSubscriptionRequest
	if !decodeAndValidate(rw, w, r, &req) {
		return
	}

	sub, err := h.store.CreateSubscription(r.Context(), developerID, req.PlanID, req.PaymentTransactionID)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			rw.NotFound("Subscription plan not found")
		case errors.Is(err, database.ErrDuplicate):
			rw.Conflict("An active subscription already exists")
		default:
			rw.DatabaseError(err)
		}
		return
	}

	metrics.SubscriptionsActivated.WithLabelValues(sub.Plan.Name).Inc()
	logging.Ctx(r.Context()).Info().
		Int64("developer_id", developerID).
		Str("plan", sub.Plan.Name).
		Msg("Subscription activated")

	rw.Created(subscriptionResponse{
		Subscription:  sub,
		DaysRemaining: sub.DaysRemaining(time.Now().UTC()),
	})
}

// CancelSubscription handles POST /subscriptions/cancel.
func (h *Handler) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	kind, developerID, _, err := principal(r)
	if err != nil || kind != auth.SubjectDeveloper {
		rw.Forbidden("Developer account required")
		return
	}

	if err := h.store.CancelSubscription(r.Context(), developerID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			rw.NotFound("No active subscription")
			return
		}
		rw.DatabaseError(err)
		return
	}

	rw.Success(map[string]bool{"cancelled": true})
}
