package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is plain DDL accepted by both PostgreSQL and SQLite. Owned records
// reference users without ON DELETE CASCADE; account deletion removes them
// explicitly.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id                   TEXT PRIMARY KEY,
		names                TEXT NOT NULL,
		surnames             TEXT NOT NULL,
		email                TEXT NOT NULL UNIQUE,
		password_hash        TEXT NOT NULL,
		program              TEXT NOT NULL,
		user_type            TEXT NOT NULL DEFAULT '',
		is_premium           BOOLEAN NOT NULL DEFAULT FALSE,
		coins                INTEGER NOT NULL DEFAULT 0 CHECK (coins >= 0),
		completed_activities INTEGER NOT NULL DEFAULT 0 CHECK (completed_activities >= 0),
		created_at           TIMESTAMP NOT NULL,
		updated_at           TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_name ON users (names, surnames)`,
	`CREATE TABLE IF NOT EXISTS user_contacts (
		follower_id TEXT NOT NULL REFERENCES users (id),
		followed_id TEXT NOT NULL REFERENCES users (id),
		created_at  TIMESTAMP NOT NULL,
		PRIMARY KEY (follower_id, followed_id),
		CHECK (follower_id <> followed_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_user_contacts_followed ON user_contacts (followed_id)`,
	`CREATE TABLE IF NOT EXISTS study_groups (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT,
		course      TEXT,
		created_at  TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS group_members (
		group_id  TEXT NOT NULL REFERENCES study_groups (id),
		user_id   TEXT NOT NULL REFERENCES users (id),
		joined_at TIMESTAMP NOT NULL,
		PRIMARY KEY (group_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_group_members_user ON group_members (user_id)`,
	`CREATE TABLE IF NOT EXISTS rewards (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL REFERENCES users (id),
		name        TEXT NOT NULL,
		description TEXT,
		coins       INTEGER NOT NULL DEFAULT 0,
		granted_at  TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rewards_user ON rewards (user_id)`,
	`CREATE TABLE IF NOT EXISTS activities (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL REFERENCES users (id),
		title       TEXT NOT NULL,
		description TEXT,
		completed   BOOLEAN NOT NULL DEFAULT FALSE,
		created_at  TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_activities_user ON activities (user_id)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id       TEXT PRIMARY KEY,
		user_id  TEXT NOT NULL REFERENCES users (id),
		group_id TEXT REFERENCES study_groups (id),
		content  TEXT NOT NULL,
		sent_at  TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_user ON messages (user_id)`,
}

// Migrate creates any missing table or index.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
