package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate creates the user database tables for the dialect. Every statement
// is idempotent, so it is safe to run on each start-up.
func Migrate(db *sql.DB, dialect Dialect) error {
	ctx := context.Background()
	for i, stmt := range Schema(dialect) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

// Schema returns the DDL for the dialect in execution order.
func Schema(dialect Dialect) []string {
	if dialect == DialectPostgres {
		return postgresSchema
	}
	return sqliteSchema
}

// levelChecks keeps the populated levels a contiguous prefix of positive integers.
const levelChecks = `
		CHECK(level1 IS NULL OR level1 > 0),
		CHECK(level2 IS NULL OR (level2 > 0 AND level1 IS NOT NULL)),
		CHECK(level3 IS NULL OR (level3 > 0 AND level2 IS NOT NULL)),
		CHECK(level4 IS NULL OR (level4 > 0 AND level3 IS NOT NULL)),
		CHECK(level5 IS NULL OR (level5 > 0 AND level4 IS NOT NULL))`

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS ilifu_user (
		id             INTEGER PRIMARY KEY,
		enabled        INTEGER NOT NULL DEFAULT 0,
		username       TEXT NOT NULL UNIQUE CHECK(length(username) <= 120),
		email          TEXT NOT NULL CHECK(length(email) <= 120),
		password       TEXT CHECK(password IS NULL OR length(password) <= 128),
		public_key     TEXT,
		first_name     TEXT NOT NULL CHECK(length(first_name) <= 120),
		last_name      TEXT NOT NULL CHECK(length(last_name) <= 120),
		contact_number TEXT CHECK(contact_number IS NULL OR length(contact_number) <= 20),
		institution    TEXT NOT NULL,
		created        TEXT NOT NULL,
		last_updated   TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS project (
		id                       INTEGER PRIMARY KEY,
		enabled                  INTEGER NOT NULL DEFAULT 1,
		status                   TEXT NOT NULL DEFAULT 'planning'
		                         CHECK(status IN ('planning','live','disabled')),
		name                     TEXT NOT NULL UNIQUE CHECK(length(name) <= 128),
		pi_user_id               INTEGER REFERENCES ilifu_user(id) ON DELETE SET NULL,
		co_pi_user_id            INTEGER REFERENCES ilifu_user(id) ON DELETE SET NULL,
		admin_user_id            INTEGER REFERENCES ilifu_user(id) ON DELETE SET NULL,
		level1                   INTEGER,
		level2                   INTEGER,
		level3                   INTEGER,
		level4                   INTEGER,
		level5                   INTEGER,
		posn                     TEXT NOT NULL UNIQUE,
		depth                    INTEGER NOT NULL CHECK(depth BETWEEN 1 AND 5),
		parent_resource_fraction REAL NOT NULL
		                         CHECK(parent_resource_fraction > 0 AND parent_resource_fraction <= 1),
		allocated_resources      TEXT,
		resource_limits          TEXT,
		created                  TEXT NOT NULL,
		last_updated             TEXT,` + levelChecks + `
	)`,

	`CREATE INDEX IF NOT EXISTS idx_project_levels ON project(level1, level2, level3, level4, level5)`,
	`CREATE INDEX IF NOT EXISTS idx_project_depth ON project(depth)`,

	`CREATE TABLE IF NOT EXISTS project_user (
		project_id   INTEGER NOT NULL REFERENCES project(id) ON DELETE CASCADE,
		user_id      INTEGER NOT NULL REFERENCES ilifu_user(id) ON DELETE CASCADE,
		created      TEXT NOT NULL,
		last_updated TEXT,
		PRIMARY KEY (project_id, user_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_project_user_user ON project_user(user_id)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS ilifu_user (
		id             SERIAL PRIMARY KEY,
		enabled        BOOLEAN NOT NULL DEFAULT false,
		username       VARCHAR(120) NOT NULL UNIQUE,
		email          VARCHAR(120) NOT NULL,
		password       VARCHAR(128),
		public_key     TEXT,
		first_name     VARCHAR(120) NOT NULL,
		last_name      VARCHAR(120) NOT NULL,
		contact_number VARCHAR(20),
		institution    TEXT NOT NULL,
		created        TIMESTAMPTZ NOT NULL DEFAULT now(),
		last_updated   TIMESTAMPTZ
	)`,

	`CREATE TABLE IF NOT EXISTS project (
		id                       SERIAL PRIMARY KEY,
		enabled                  BOOLEAN NOT NULL DEFAULT true,
		status                   VARCHAR(16) NOT NULL DEFAULT 'planning'
		                         CHECK(status IN ('planning','live','disabled')),
		name                     VARCHAR(128) NOT NULL UNIQUE,
		pi_user_id               INTEGER REFERENCES ilifu_user(id) ON DELETE SET NULL,
		co_pi_user_id            INTEGER REFERENCES ilifu_user(id) ON DELETE SET NULL,
		admin_user_id            INTEGER REFERENCES ilifu_user(id) ON DELETE SET NULL,
		level1                   INTEGER,
		level2                   INTEGER,
		level3                   INTEGER,
		level4                   INTEGER,
		level5                   INTEGER,
		posn                     VARCHAR(64) NOT NULL UNIQUE,
		depth                    SMALLINT NOT NULL CHECK(depth BETWEEN 1 AND 5),
		parent_resource_fraction DOUBLE PRECISION NOT NULL
		                         CHECK(parent_resource_fraction > 0 AND parent_resource_fraction <= 1),
		allocated_resources      TEXT,
		resource_limits          TEXT,
		created                  TIMESTAMPTZ NOT NULL DEFAULT now(),
		last_updated             TIMESTAMPTZ,` + levelChecks + `
	)`,

	`CREATE INDEX IF NOT EXISTS idx_project_levels ON project(level1, level2, level3, level4, level5)`,
	`CREATE INDEX IF NOT EXISTS idx_project_depth ON project(depth)`,

	`CREATE TABLE IF NOT EXISTS project_user (
		project_id   INTEGER NOT NULL REFERENCES project(id) ON DELETE CASCADE,
		user_id      INTEGER NOT NULL REFERENCES ilifu_user(id) ON DELETE CASCADE,
		created      TIMESTAMPTZ NOT NULL DEFAULT now(),
		last_updated TIMESTAMPTZ,
		PRIMARY KEY (project_id, user_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_project_user_user ON project_user(user_id)`,
}
