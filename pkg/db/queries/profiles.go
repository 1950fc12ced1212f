package queries

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Tracksy-dev/passer/pkg/db"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
)

// CreateProfile inserts the profile row that accompanies a new user account.
func CreateProfile(profile *db.Profile) (*db.Profile, error) {
	query := `
		INSERT INTO profiles (user_id, username, display_name, bio, team_name, position, avatar_path)
		VALUES (:user_id, :username, :display_name, :bio, :team_name, :position, :avatar_path)
		RETURNING created_at, updated_at`

	rows, err := db.DB.NamedQuery(query, profile)
	if err != nil {
		log.Errorf("Error creating profile for user '%s': %v", profile.UserID.String(), err)
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.StructScan(profile); err != nil {
			log.Errorf("Error scanning profile data after creation: %v", err)
			return nil, fmt.Errorf("error scanning profile after creation: %w", err)
		}
	} else {
		log.Error("No rows returned after profile creation.")
		return nil, sql.ErrNoRows
	}

	log.Infof("Profile '%s' created for user %s.", profile.Username, profile.UserID.String())
	return profile, nil
}

// FindProfileByUserID retrieves the profile for a user. Returns nil, nil
// when not found.
func FindProfileByUserID(userID uuid.UUID) (*db.Profile, error) {
	profile := &db.Profile{}
	query := `SELECT user_id, username, display_name, bio, team_name, position, avatar_path, created_at, updated_at FROM profiles WHERE user_id = $1`
	err := db.DB.Get(profile, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Debugf("Profile for user '%s' not found.", userID.String())
			return nil, nil
		}
		log.Errorf("Error finding profile for user '%s': %v", userID.String(), err)
		return nil, fmt.Errorf("error finding profile by user ID: %w", err)
	}
	return profile, nil
}

// FindProfileByUsername retrieves a profile by its unique username.
// Returns nil, nil when not found. Used for the uniqueness check when a
// username changes.
func FindProfileByUsername(username string) (*db.Profile, error) {
	profile := &db.Profile{}
	query := `SELECT user_id, username, display_name, bio, team_name, position, avatar_path, created_at, updated_at FROM profiles WHERE username = $1`
	err := db.DB.Get(profile, query, username)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		log.Errorf("Error finding profile by username '%s': %v", username, err)
		return nil, fmt.Errorf("error finding profile by username: %w", err)
	}
	return profile, nil
}

// FindProfilesByUserIDs fetches profiles for the given set of user IDs in
// one query. Used by the public feed to denormalize creator summaries.
func FindProfilesByUserIDs(userIDs []uuid.UUID) ([]db.Profile, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(
		`SELECT user_id, username, display_name, bio, team_name, position, avatar_path, created_at, updated_at FROM profiles WHERE user_id IN (?)`,
		userIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("error building profiles IN query: %w", err)
	}

	var profiles []db.Profile
	query = db.DB.Rebind(query)
	if err := db.DB.Select(&profiles, query, args...); err != nil {
		log.Errorf("Error finding profiles for %d users: %v", len(userIDs), err)
		return nil, fmt.Errorf("error finding profiles by user IDs: %w", err)
	}
	return profiles, nil
}

// UpdateProfile updates the editable profile fields.
func UpdateProfile(profile *db.Profile) error {
	profile.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE profiles
		SET username = :username, display_name = :display_name, bio = :bio,
		    team_name = :team_name, position = :position, avatar_path = :avatar_path,
		    updated_at = :updated_at
		WHERE user_id = :user_id`

	result, err := db.DB.NamedExec(query, profile)
	if err != nil {
		log.Errorf("Error updating profile for user '%s': %v", profile.UserID.String(), err)
		return fmt.Errorf("failed to update profile: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		log.Warnf("No profile found for user '%s' for update.", profile.UserID.String())
		return sql.ErrNoRows
	}

	log.Infof("Profile for user '%s' updated.", profile.UserID.String())
	return nil
}
