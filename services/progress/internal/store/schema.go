package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const pgSchemaActivities = `
CREATE TABLE IF NOT EXISTS activities (
	id BIGINT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	media_url TEXT NOT NULL,
	completion_min_view INTEGER NOT NULL DEFAULT 0 CHECK (completion_min_view BETWEEN 0 AND 100),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

const pgSchemaProgress = `
CREATE TABLE IF NOT EXISTS media_progress (
	activity_id BIGINT NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
	user_id TEXT NOT NULL,
	percentage SMALLINT NOT NULL DEFAULT 0 CHECK (percentage BETWEEN 0 AND 100),
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (activity_id, user_id)
);`

const pgSchemaProgressIndexes = `
CREATE INDEX IF NOT EXISTS idx_media_progress_user ON media_progress(user_id, updated_at DESC);`

const sqliteSchemaActivities = `
CREATE TABLE IF NOT EXISTS activities (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	media_url TEXT NOT NULL,
	completion_min_view INTEGER NOT NULL DEFAULT 0 CHECK (completion_min_view BETWEEN 0 AND 100),
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);`

const sqliteSchemaProgress = `
CREATE TABLE IF NOT EXISTS media_progress (
	activity_id INTEGER NOT NULL,
	user_id TEXT NOT NULL,
	percentage INTEGER NOT NULL DEFAULT 0 CHECK (percentage BETWEEN 0 AND 100),
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (activity_id, user_id),
	FOREIGN KEY (activity_id) REFERENCES activities(id) ON DELETE CASCADE
);`

const sqliteSchemaProgressIndexes = `
CREATE INDEX IF NOT EXISTS idx_media_progress_user ON media_progress(user_id, updated_at DESC);`

// EnsurePostgresSchema creates the tables if they do not exist.
func EnsurePostgresSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range []string{pgSchemaActivities, pgSchemaProgress, pgSchemaProgressIndexes} {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure postgres schema: %w", err)
		}
	}
	return nil
}

// EnsureSQLiteSchema creates the tables if they do not exist.
func EnsureSQLiteSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range []string{sqliteSchemaActivities, sqliteSchemaProgress, sqliteSchemaProgressIndexes} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure sqlite schema: %w", err)
		}
	}
	return nil
}
