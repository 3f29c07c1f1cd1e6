package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// Open connects to PostgreSQL and verifies the connection.
// Returns nil if the URL is empty (Postgres not configured; the server falls
// back to in-memory stores).
func Open(ctx context.Context, url string) (*sql.DB, error) {
	if url == "" {
		return nil, nil
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return db, nil
}

// schema holds the engine's tables. Statement order matters: applications
// reference adopters and organizations.
const schema = `
CREATE TABLE IF NOT EXISTS adopters (
	id           UUID PRIMARY KEY,
	name         TEXT NOT NULL,
	email        TEXT NOT NULL,
	status       TEXT NOT NULL,
	status_notes TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS adopter_status_history (
	seq        BIGSERIAL PRIMARY KEY,
	adopter_id UUID NOT NULL,
	action     TEXT NOT NULL,
	notes      TEXT NOT NULL,
	admin_id   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS organizations (
	id                    UUID PRIMARY KEY,
	name                  TEXT NOT NULL,
	email                 TEXT NOT NULL,
	verification_status   TEXT NOT NULL,
	verification_document TEXT NOT NULL DEFAULT '',
	verification_notes    TEXT NOT NULL DEFAULT '',
	created_at            TIMESTAMPTZ NOT NULL,
	updated_at            TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS organization_verification_history (
	seq             BIGSERIAL PRIMARY KEY,
	organization_id UUID NOT NULL,
	previous_status TEXT NOT NULL,
	new_status      TEXT NOT NULL,
	notes           TEXT NOT NULL,
	resubmission    BOOLEAN NOT NULL,
	admin_id        TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS applications (
	id                 UUID PRIMARY KEY,
	application_number TEXT UNIQUE NOT NULL,
	pet_id             UUID NOT NULL,
	adopter_id         UUID NOT NULL,
	organization_id    UUID NOT NULL,
	status             TEXT NOT NULL,
	questionnaire      JSONB NOT NULL,
	reference_contact  JSONB NOT NULL,
	terms_accepted     BOOLEAN NOT NULL,
	rejection_reason   TEXT NOT NULL DEFAULT '',
	organization_notes TEXT NOT NULL DEFAULT '',
	reviewed_by        TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMPTZ NOT NULL,
	updated_at         TIMESTAMPTZ NOT NULL
);

CREATE SEQUENCE IF NOT EXISTS application_number_seq;

-- One live application per adopter/pet pair. The partial index makes the
-- uniqueness check and the insert a single atomic unit.
CREATE UNIQUE INDEX IF NOT EXISTS applications_one_active
	ON applications (adopter_id, pet_id)
	WHERE status IN ('pending', 'reviewing', 'approved');

CREATE TABLE IF NOT EXISTS audit_entries (
	seq             BIGSERIAL PRIMARY KEY,
	entity_type     TEXT NOT NULL,
	entity_id       TEXT NOT NULL,
	previous_status TEXT NOT NULL DEFAULT '',
	new_status      TEXT NOT NULL,
	actor_id        TEXT NOT NULL,
	actor_role      TEXT NOT NULL,
	notes           TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS audit_entries_entity
	ON audit_entries (entity_type, entity_id, seq);
`

// EnsureSchema creates the engine's tables when they do not exist yet.
// Deployments with managed migrations can skip this.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
