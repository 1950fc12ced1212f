package queries

import (
	"database/sql"
	"fmt"

	"github.com/Tracksy-dev/passer/pkg/db"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// CreateMatch inserts a new match record after its video has been stored.
func CreateMatch(match *db.Match) (*db.Match, error) {
	query := `
		INSERT INTO matches (user_id, opponent, team_name, match_date, video_path, video_url)
		VALUES (:user_id, :opponent, :team_name, :match_date, :video_path, :video_url)
		RETURNING id, created_at, updated_at`

	rows, err := db.DB.NamedQuery(query, match)
	if err != nil {
		log.Errorf("Error creating match: %v", err)
		return nil, fmt.Errorf("failed to create match: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.StructScan(match); err != nil {
			log.Errorf("Error scanning match data after creation: %v", err)
			return nil, fmt.Errorf("error scanning match after creation: %w", err)
		}
	} else {
		log.Error("No rows returned after match creation.")
		return nil, sql.ErrNoRows
	}

	log.Infof("Match vs '%s' created for user %s (ID: %s).", match.Opponent, match.UserID.String(), match.ID.String())
	return match, nil
}

// FindMatchByID retrieves a match by its ID. Returns nil, nil when not found.
func FindMatchByID(matchID uuid.UUID) (*db.Match, error) {
	match := &db.Match{}
	query := `SELECT id, user_id, opponent, team_name, match_date, video_path, video_url, created_at, updated_at FROM matches WHERE id = $1`
	err := db.DB.Get(match, query, matchID)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Debugf("Match with ID '%s' not found.", matchID.String())
			return nil, nil
		}
		log.Errorf("Error finding match by ID '%s': %v", matchID.String(), err)
		return nil, fmt.Errorf("error finding match by ID: %w", err)
	}
	return match, nil
}

// FindMatchesByUserID retrieves all matches owned by a user, newest first.
func FindMatchesByUserID(userID uuid.UUID) ([]db.Match, error) {
	var matches []db.Match
	query := `SELECT id, user_id, opponent, team_name, match_date, video_path, video_url, created_at, updated_at FROM matches WHERE user_id = $1 ORDER BY created_at DESC`
	if err := db.DB.Select(&matches, query, userID); err != nil {
		log.Errorf("Error finding matches for user ID '%s': %v", userID.String(), err)
		return nil, fmt.Errorf("error finding matches by user ID: %w", err)
	}
	return matches, nil
}

// DeleteMatch deletes a match by ID, scoped to its owner. Points and reel
// job rows cascade; the stored video object must be removed by the caller
// before this is called.
func DeleteMatch(matchID, userID uuid.UUID) error {
	query := `DELETE FROM matches WHERE id = $1 AND user_id = $2`
	result, err := db.DB.Exec(query, matchID, userID)
	if err != nil {
		log.Errorf("Error deleting match with ID '%s' for user '%s': %v", matchID.String(), userID.String(), err)
		return err
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		log.Warnf("No match found with ID '%s' for user '%s' for deletion.", matchID.String(), userID.String())
		return sql.ErrNoRows
	}

	log.Infof("Match with ID '%s' deleted.", matchID.String())
	return nil
}
