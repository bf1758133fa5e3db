// NovaDom - New-Construction Real Estate Marketplace
// Copyright 2026 NovaDom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/novadom/novadom

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/novadom/novadom/internal/models"
)

const planColumns = `id, name, price_bgn, price_usd, price_eur, duration_months, listing_limit, features_list`

// ListPlans returns the plan catalogue ordered by price.
func (db *DB) ListPlans(ctx context.Context) (_ []models.SubscriptionPlan, err error) {
	defer observeQuery("select", "subscription_plans")(&err)

	rows, err := db.pool.Query(ctx,
		`SELECT `+planColumns+` FROM subscription_plans ORDER BY price_bgn ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	var plans []models.SubscriptionPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

// GetPlan returns a single plan by ID.
func (db *DB) GetPlan(ctx context.Context, id int64) (_ *models.SubscriptionPlan, err error) {
	defer observeQuery("select", "subscription_plans")(&err)

	row := db.pool.QueryRow(ctx,
		`SELECT `+planColumns+` FROM subscription_plans WHERE id = $1`, id)
	p, err := scanPlan(row)
	if err != nil {
		return nil, classify(err)
	}
	return p, nil
}

// GetActiveSubscription returns the developer's current active
// subscription with its plan joined in. Expiry is lazy: a stale active row
// is flipped to expired on read, after which ErrNotFound is returned.
func (db *DB) GetActiveSubscription(ctx context.Context, developerID int64) (_ *models.Subscription, err error) {
	defer observeQuery("select", "subscriptions")(&err)

	if err := db.expireStale(ctx, developerID); err != nil {
		return nil, err
	}

	row := db.pool.QueryRow(ctx, `
		SELECT sub.id, sub.developer_id, sub.plan_id, sub.start_date, sub.end_date,
		       sub.status, sub.payment_transaction_id,
		       pl.id, pl.name, pl.price_bgn, pl.price_usd, pl.price_eur,
		       pl.duration_months, pl.listing_limit, pl.features_list
		FROM subscriptions sub
		JOIN subscription_plans pl ON pl.id = sub.plan_id
		WHERE sub.developer_id = $1 AND sub.status = 'active' AND sub.end_date > now()
		ORDER BY sub.end_date DESC
		LIMIT 1`, developerID)

	var (
		sub      models.Subscription
		plan     models.SubscriptionPlan
		features []byte
	)
	err = row.Scan(&sub.ID, &sub.DeveloperID, &sub.PlanID, &sub.StartDate, &sub.EndDate,
		&sub.Status, &sub.PaymentTransactionID,
		&plan.ID, &plan.Name, &plan.PriceBGN, &plan.PriceUSD, &plan.PriceEUR,
		&plan.DurationMonths, &plan.ListingLimit, &features)
	if err != nil {
		return nil, classify(err)
	}

	plan.FeaturesList = []string{}
	if len(features) > 0 {
		if err := json.Unmarshal(features, &plan.FeaturesList); err != nil {
			return nil, fmt.Errorf("failed to decode plan features: %w", err)
		}
	}
	sub.Plan = &plan
	return &sub, nil
}

// CreateSubscription activates a plan for the developer. Returns
// ErrDuplicate when an active subscription already exists and ErrNotFound
// when the plan or developer does not exist.
func (db *DB) CreateSubscription(ctx context.Context, developerID, planID int64, paymentTransactionID string) (_ *models.Subscription, err error) {
	defer observeQuery("insert", "subscriptions")(&err)

	plan, err := db.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	var sub models.Subscription
	err = db.InTx(ctx, func(q Queryer) error {
		return createSubscriptionTx(ctx, q, &sub, plan, developerID, paymentTransactionID)
	})
	if err != nil {
		return nil, err
	}

	sub.Plan = plan
	return &sub, nil
}

// createSubscriptionTx holds a lock on the developer row so concurrent
// activations for the same developer serialize, then checks for an
// existing active subscription before inserting. Without the lock two
// requests could both pass the check and insert two active rows.
func createSubscriptionTx(ctx context.Context, q Queryer, sub *models.Subscription, plan *models.SubscriptionPlan, developerID int64, paymentTransactionID string) error {
	var lockedID int64
	err := q.QueryRow(ctx,
		`SELECT id FROM developers WHERE id = $1 FOR UPDATE`, developerID).Scan(&lockedID)
	if err != nil {
		return classify(err)
	}

	_, err = q.Exec(ctx, `
		UPDATE subscriptions SET status = 'expired'
		WHERE developer_id = $1 AND status = 'active' AND end_date <= now()`,
		developerID)
	if err != nil {
		return fmt.Errorf("failed to expire subscriptions: %w", err)
	}

	var active bool
	err = q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM subscriptions
			WHERE developer_id = $1 AND status = 'active' AND end_date > now()
		)`, developerID).Scan(&active)
	if err != nil {
		return fmt.Errorf("failed to check active subscription: %w", err)
	}
	if active {
		return ErrDuplicate
	}

	now := time.Now().UTC()
	end := now.AddDate(0, plan.DurationMonths, 0)

	err = q.QueryRow(ctx, `
		INSERT INTO subscriptions (developer_id, plan_id, start_date, end_date, status, payment_transaction_id)
		VALUES ($1, $2, $3, $4, 'active', $5)
		RETURNING id, developer_id, plan_id, start_date, end_date, status, payment_transaction_id`,
		developerID, plan.ID, now, end, paymentTransactionID).
		Scan(&sub.ID, &sub.DeveloperID, &sub.PlanID, &sub.StartDate, &sub.EndDate,
			&sub.Status, &sub.PaymentTransactionID)
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", classify(err))
	}
	return nil
}

// CancelSubscription marks the developer's active subscription cancelled.
func (db *DB) CancelSubscription(ctx context.Context, developerID int64) (err error) {
	defer observeQuery("update", "subscriptions")(&err)

	tag, err := db.pool.Exec(ctx, `
		UPDATE subscriptions SET status = 'cancelled'
		WHERE developer_id = $1 AND status = 'active' AND end_date > now()`,
		developerID)
	if err != nil {
		return fmt.Errorf("failed to cancel subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ActiveListingLimit resolves the listing limit the developer is entitled
// to. Returns ErrNotFound when no active subscription exists.
func (db *DB) ActiveListingLimit(ctx context.Context, developerID int64) (int, error) {
	sub, err := db.GetActiveSubscription(ctx, developerID)
	if err != nil {
		return 0, err
	}
	return sub.Plan.ListingLimit, nil
}

// expireStale flips active rows whose end date has passed to expired.
func (db *DB) expireStale(ctx context.Context, developerID int64) error {
	_, err := db.pool.Exec(ctx, `
		UPDATE subscriptions SET status = 'expired'
		WHERE developer_id = $1 AND status = 'active' AND end_date <= now()`,
		developerID)
	if err != nil {
		return fmt.Errorf("failed to expire subscriptions: %w", err)
	}
	return nil
}

func scanPlan(row rowScanner) (*models.SubscriptionPlan, error) {
	var (
		p        models.SubscriptionPlan
		features []byte
	)
	err := row.Scan(&p.ID, &p.Name, &p.PriceBGN, &p.PriceUSD, &p.PriceEUR,
		&p.DurationMonths, &p.ListingLimit, &features)
	if err != nil {
		return nil, err
	}
	p.FeaturesList = []string{}
	if len(features) > 0 {
		if err := json.Unmarshal(features, &p.FeaturesList); err != nil {
			return nil, fmt.Errorf("failed to decode plan features: %w", err)
		}
	}
	return &p, nil
}
