package sqlite

import (
	"context"
	"fmt"
)

// schemaStatements holds the full schema in dependency order. Statements are
// idempotent so Migrate can run on every startup.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		display_name  TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		is_admin      INTEGER NOT NULL DEFAULT 0,
		disabled      INTEGER NOT NULL DEFAULT 0,
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS addresses (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		label       TEXT NOT NULL,
		street      TEXT NOT NULL,
		city        TEXT NOT NULL,
		province    TEXT NOT NULL,
		postal_code TEXT NOT NULL,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS service_definitions (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		category    TEXT NOT NULL,
		time_of_day TEXT NOT NULL,
		step_months INTEGER NOT NULL DEFAULT 0 CHECK (step_months >= 0),
		ordinal     TEXT NOT NULL DEFAULT 'NEXT',
		active      INTEGER NOT NULL DEFAULT 1,
		archived_at TEXT,
		start_date  TEXT,
		end_date    TEXT,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS service_days (
		id                    TEXT PRIMARY KEY,
		service_definition_id TEXT NOT NULL REFERENCES service_definitions(id) ON DELETE CASCADE,
		weekday               INTEGER NOT NULL CHECK (weekday BETWEEN 0 AND 6),
		created_at            TEXT NOT NULL,
		UNIQUE (service_definition_id, weekday)
	)`,
	`CREATE TABLE IF NOT EXISTS pickup_series (
		id         TEXT PRIMARY KEY,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS transport_requests (
		id                    TEXT PRIMARY KEY,
		user_id               TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		service_definition_id TEXT NOT NULL REFERENCES service_definitions(id),
		service_day_id        TEXT NOT NULL REFERENCES service_days(id),
		series_id             TEXT REFERENCES pickup_series(id) ON DELETE CASCADE,
		request_date          TEXT NOT NULL,
		address_id            TEXT NOT NULL REFERENCES addresses(id),
		pickup                INTEGER NOT NULL DEFAULT 1,
		dropoff               INTEGER NOT NULL DEFAULT 0,
		group_size            INTEGER NOT NULL DEFAULT 1 CHECK (group_size >= 1),
		notes                 TEXT,
		status                TEXT NOT NULL DEFAULT 'PENDING',
		created_at            TEXT NOT NULL,
		updated_at            TEXT NOT NULL
	)`,
	// One non-cancelled request per (user, service, date). This is the race
	// backstop behind the application-level duplicate check: concurrent
	// submissions for the same key serialize on the store and the loser maps
	// to a duplicate error.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_requests_active_key
		ON transport_requests (user_id, service_definition_id, request_date)
		WHERE status <> 'CANCELLED'`,
	`CREATE INDEX IF NOT EXISTS idx_requests_series
		ON transport_requests (series_id, request_date)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token      TEXT NOT NULL UNIQUE,
		expires_at TEXT NOT NULL,
		created_at TEXT NOT NULL,
		revoked_at TEXT
	)`,
}

// Migrate applies the schema to the connected database.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	for _, statement := range schemaStatements {
		if _, err := cp.db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
