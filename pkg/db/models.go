package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Profile is the public-facing identity for a user, distinct from the
// credentials row. One profile per user.
type Profile struct {
	UserID      uuid.UUID      `db:"user_id"`
	Username    string         `db:"username"`
	DisplayName string         `db:"display_name"`
	Bio         string         `db:"bio"`
	TeamName    string         `db:"team_name"`
	Position    string         `db:"position"`
	AvatarPath  sql.NullString `db:"avatar_path"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

type Match struct {
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	Opponent  string    `db:"opponent"`
	TeamName  string    `db:"team_name"`
	MatchDate time.Time `db:"match_date"`
	VideoPath string    `db:"video_path"`
	VideoURL  string    `db:"video_url"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// MatchPoint is a timestamped highlight tag on a match video. The clip
// window played back for a point is [timestamp-clip_before, timestamp+clip_after],
// clamped at zero.
type MatchPoint struct {
	ID               uuid.UUID `db:"id"`
	MatchID          uuid.UUID `db:"match_id"`
	UserID           uuid.UUID `db:"user_id"`
	TimestampSeconds float64   `db:"timestamp_seconds"`
	Label            string    `db:"label"`
	ClipBefore       float64   `db:"clip_before"`
	ClipAfter        float64   `db:"clip_after"`
	CreatedAt        time.Time `db:"created_at"`
}

// ReelJob tracks one request to compile a match's highlight points into a
// single output video. Status transitions past "queued" are driven by the
// external render worker through the callback endpoint.
type ReelJob struct {
	ID           uuid.UUID      `db:"id"`
	MatchID      uuid.UUID      `db:"match_id"`
	UserID       uuid.UUID      `db:"user_id"`
	Status       string         `db:"status"`
	ClipBefore   float64        `db:"clip_before"`
	ClipAfter    float64        `db:"clip_after"`
	OutputPath   sql.NullString `db:"output_path"`
	OutputURL    sql.NullString `db:"output_url"`
	ErrorMessage sql.NullString `db:"error_message"`
	IsPublic     bool           `db:"is_public"`
	Title        sql.NullString `db:"title"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}
