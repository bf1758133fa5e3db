// NovaDom - New-Construction Real Estate Marketplace
// Copyright 2026 NovaDom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/novadom/novadom

package database

// initialSchema creates the full NovaDom schema. Enum types are guarded
// with DO blocks because CREATE TYPE has no IF NOT EXISTS form.
const initialSchema = `
CREATE EXTENSION IF NOT EXISTS postgis;

DO $$ BEGIN
	CREATE TYPE user_role AS ENUM ('buyer', 'developer', 'admin');
EXCEPTION WHEN duplicate_object THEN NULL; END $$;

DO $$ BEGIN
	CREATE TYPE verification_status AS ENUM ('pending', 'verified', 'rejected');
EXCEPTION WHEN duplicate_object THEN NULL; END $$;

DO $$ BEGIN
	CREATE TYPE project_status AS ENUM ('planning', 'under_construction', 'completed');
EXCEPTION WHEN duplicate_object THEN NULL; END $$;

DO $$ BEGIN
	CREATE TYPE project_type AS ENUM ('apartment_building', 'house_complex');
EXCEPTION WHEN duplicate_object THEN NULL; END $$;

CREATE TABLE IF NOT EXISTS users (
	id            BIGSERIAL PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	first_name    TEXT NOT NULL DEFAULT '',
	last_name     TEXT NOT NULL DEFAULT '',
	role          user_role NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	is_active     BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS developers (
	id                  BIGSERIAL PRIMARY KEY,
	email               TEXT NOT NULL UNIQUE,
	password_hash       TEXT NOT NULL,
	company_name        TEXT NOT NULL,
	contact_person      TEXT NOT NULL DEFAULT '',
	phone               TEXT NOT NULL DEFAULT '',
	address             TEXT NOT NULL DEFAULT '',
	website             TEXT,
	verification_status verification_status NOT NULL DEFAULT 'pending',
	verification_notes  TEXT NOT NULL DEFAULT '',
	verified_at         TIMESTAMPTZ,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS projects (
	id                       BIGSERIAL PRIMARY KEY,
	developer_id             BIGINT NOT NULL REFERENCES developers(id),
	title                    TEXT NOT NULL,
	description              TEXT NOT NULL DEFAULT '',
	location_text            TEXT NOT NULL DEFAULT '',
	location_point           geometry(Point, 4326),
	city                     TEXT NOT NULL DEFAULT '',
	neighborhood             TEXT NOT NULL DEFAULT '',
	country                  TEXT NOT NULL DEFAULT 'Bulgaria',
	project_type             project_type NOT NULL,
	status                   project_status NOT NULL,
	expected_completion_date TIMESTAMPTZ,
	cover_image_url          TEXT NOT NULL DEFAULT '',
	gallery_urls             JSONB NOT NULL DEFAULT '[]'::jsonb,
	amenities_list           JSONB NOT NULL DEFAULT '[]'::jsonb,
	created_at               TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at               TIMESTAMPTZ NOT NULL DEFAULT now(),
	is_active                BOOLEAN NOT NULL DEFAULT TRUE,
	is_verified              BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_projects_developer ON projects (developer_id);
CREATE INDEX IF NOT EXISTS idx_projects_city ON projects (city) WHERE is_active;
CREATE INDEX IF NOT EXISTS idx_projects_location ON projects USING GIST (location_point);

CREATE TABLE IF NOT EXISTS saved_listings (
	id         BIGSERIAL PRIMARY KEY,
	user_id    BIGINT NOT NULL REFERENCES users(id),
	project_id BIGINT NOT NULL REFERENCES projects(id),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (user_id, project_id)
);

CREATE TABLE IF NOT EXISTS subscription_plans (
	id              BIGSERIAL PRIMARY KEY,
	name            TEXT NOT NULL UNIQUE,
	price_bgn       INTEGER NOT NULL DEFAULT 0,
	price_usd       INTEGER NOT NULL DEFAULT 0,
	price_eur       INTEGER NOT NULL DEFAULT 0,
	duration_months INTEGER NOT NULL DEFAULT 1,
	listing_limit   INTEGER NOT NULL DEFAULT 0,
	features_list   JSONB NOT NULL DEFAULT '[]'::jsonb
);

CREATE TABLE IF NOT EXISTS subscriptions (
	id                     BIGSERIAL PRIMARY KEY,
	developer_id           BIGINT NOT NULL REFERENCES developers(id),
	plan_id                BIGINT NOT NULL REFERENCES subscription_plans(id),
	start_date             TIMESTAMPTZ NOT NULL,
	end_date               TIMESTAMPTZ NOT NULL,
	status                 TEXT NOT NULL DEFAULT 'active',
	payment_transaction_id TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_subscriptions_developer ON subscriptions (developer_id, status);
`

// seedSubscriptionPlans inserts the launch plan catalogue. ON CONFLICT
// keeps the migration idempotent against manual plan edits.
const seedSubscriptionPlans = `
INSERT INTO subscription_plans (name, price_bgn, price_usd, price_eur, duration_months, listing_limit, features_list) VALUES
	('starter',      4900,  2700,  2500,  1, 3,  '["3 active listings", "standard placement"]'::jsonb),
	('professional', 14900, 8200,  7600,  3, 15, '["15 active listings", "priority placement", "verified badge"]'::jsonb),
	('enterprise',   49900, 27500, 25500, 12, 0, '["unlimited listings", "priority placement", "verified badge", "dedicated support"]'::jsonb)
ON CONFLICT (name) DO NOTHING;
`
