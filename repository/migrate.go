package repository

import (
	"context"
	"fmt"
)

// schema is applied at startup; every statement is idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS owners (
	id             UUID PRIMARY KEY,
	username       TEXT NOT NULL UNIQUE,
	email          TEXT,
	auth_method    TEXT NOT NULL,
	password_hash  BYTEA,
	oauth_id       TEXT,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (auth_method, oauth_id)
);

CREATE TABLE IF NOT EXISTS credentials (
	id                 UUID PRIMARY KEY,
	owner_id           UUID NOT NULL REFERENCES owners(id),
	provider           TEXT NOT NULL,
	name               TEXT NOT NULL,
	name_slug          TEXT NOT NULL,
	encrypted_key      TEXT NOT NULL,
	encrypted_unified  TEXT NOT NULL,
	unified_endpoint   TEXT NOT NULL,
	expires_at         TIMESTAMPTZ,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (owner_id, provider, name_slug)
);

CREATE INDEX IF NOT EXISTS idx_credentials_lookup
	ON credentials (provider, name_slug);

CREATE TABLE IF NOT EXISTS usage_records (
	id                 UUID PRIMARY KEY,
	owner_id           UUID NOT NULL REFERENCES owners(id),
	credential_id      UUID NOT NULL REFERENCES credentials(id),
	provider           TEXT NOT NULL,
	endpoint_or_model  TEXT,
	request_tokens     INTEGER NOT NULL DEFAULT 0,
	response_tokens    INTEGER NOT NULL DEFAULT 0,
	total_tokens       INTEGER NOT NULL DEFAULT 0,
	latency_ms         INTEGER NOT NULL DEFAULT 0,
	status_code        INTEGER NOT NULL DEFAULT 0,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_usage_records_owner
	ON usage_records (owner_id, created_at DESC);
`

// Migrate applies the schema. Safe to run on every startup.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
