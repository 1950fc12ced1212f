package db

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// schema is applied on startup. Statements are idempotent so a restart
// against an existing database is a no-op.
const schema = `
CREATE EXTENSION IF NOT EXISTS pgcrypto;

CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	email VARCHAR(255) UNIQUE NOT NULL,
	password_hash VARCHAR(255) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS profiles (
	user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
	username VARCHAR(20) UNIQUE NOT NULL,
	display_name VARCHAR(255) NOT NULL DEFAULT '',
	bio VARCHAR(200) NOT NULL DEFAULT '',
	team_name VARCHAR(255) NOT NULL DEFAULT '',
	position VARCHAR(32) NOT NULL DEFAULT '',
	avatar_path VARCHAR(500),
	created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS matches (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	opponent VARCHAR(255) NOT NULL,
	team_name VARCHAR(255) NOT NULL DEFAULT '',
	match_date TIMESTAMPTZ NOT NULL,
	video_path VARCHAR(500) NOT NULL,
	video_url VARCHAR(1000) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS match_points (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	match_id UUID NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	timestamp_seconds DOUBLE PRECISION NOT NULL CHECK (timestamp_seconds >= 0),
	label VARCHAR(32) NOT NULL,
	clip_before DOUBLE PRECISION NOT NULL CHECK (clip_before >= 0),
	clip_after DOUBLE PRECISION NOT NULL CHECK (clip_after >= 0),
	created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_match_points_match ON match_points(match_id);

CREATE TABLE IF NOT EXISTS reel_jobs (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	match_id UUID NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	status VARCHAR(16) NOT NULL DEFAULT 'queued',
	clip_before DOUBLE PRECISION NOT NULL,
	clip_after DOUBLE PRECISION NOT NULL,
	output_path VARCHAR(500),
	output_url VARCHAR(1000),
	error_message TEXT,
	is_public BOOLEAN NOT NULL DEFAULT FALSE,
	title VARCHAR(255),
	created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_reel_jobs_match ON reel_jobs(match_id);
CREATE INDEX IF NOT EXISTS idx_reel_jobs_public ON reel_jobs(is_public, status, created_at DESC);
`

// Migrate applies the schema to the connected database.
func Migrate() error {
	if _, err := DB.Exec(schema); err != nil {
		log.Errorf("Failed to apply database schema: %v", err)
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	log.Info("Database schema is up to date.")
	return nil
}
