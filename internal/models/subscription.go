// NovaDom - New-Construction Real Estate Marketplace
// Copyright 2026 NovaDom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/novadom/novadom

package models

import "time"

// Subscription status values. Expiry is applied lazily: reads flip an
// active subscription whose end date has passed to expired.
const (
	SubscriptionActive    = "active"
	SubscriptionExpired   = "expired"
	SubscriptionCancelled = "cancelled"
)

// SubscriptionPlan is a purchasable listing plan. Prices are integer
// cents per currency. ListingLimit 0 means unlimited active listings.
type SubscriptionPlan struct {
	ID             int64    `json:"id"`
	Name           string   `json:"name"`
	PriceBGN       int      `json:"price_bgn"`
	PriceUSD       int      `json:"price_usd"`
	PriceEUR       int      `json:"price_eur"`
	DurationMonths int      `json:"duration_months"`
	ListingLimit   int      `json:"listing_limit"`
	FeaturesList   []string `json:"features_list"`
}

// Subscription ties a developer to a plan for a bounded period.
type Subscription struct {
	ID                   int64     `json:"id"`
	DeveloperID          int64     `json:"developer_id"`
	PlanID               int64     `json:"plan_id"`
	StartDate            time.Time `json:"start_date"`
	EndDate              time.Time `json:"end_date"`
	Status               string    `json:"status"`
	PaymentTransactionID string    `json:"payment_transaction_id,omitempty"`

	// Plan is joined in by reads that need it; nil otherwise.
	Plan *SubscriptionPlan `json:"plan,omitempty"`
}

// IsActiveAt reports whether the subscription is usable at the given time.
func (s *Subscription) IsActiveAt(t time.Time) bool {
	return s.Status == SubscriptionActive && t.Before(s.EndDate)
}

// DaysRemaining returns whole days until expiry, never negative.
func (s *Subscription) DaysRemaining(now time.Time) int {
	if !now.Before(s.EndDate) {
		return 0
	}
	return int(s.EndDate.Sub(now).Hours() / 24)
}
