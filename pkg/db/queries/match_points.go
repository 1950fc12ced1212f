package queries

import (
	"database/sql"
	"fmt"

	"github.com/Tracksy-dev/passer/pkg/db"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// CreateMatchPoint inserts a new highlight point for a match.
func CreateMatchPoint(point *db.MatchPoint) (*db.MatchPoint, error) {
	query := `
		INSERT INTO match_points (match_id, user_id, timestamp_seconds, label, clip_before, clip_after)
		VALUES (:match_id, :user_id, :timestamp_seconds, :label, :clip_before, :clip_after)
		RETURNING id, created_at`

	rows, err := db.DB.NamedQuery(query, point)
	if err != nil {
		log.Errorf("Error creating match point: %v", err)
		return nil, fmt.Errorf("failed to create match point: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.StructScan(point); err != nil {
			log.Errorf("Error scanning match point after creation: %v", err)
			return nil, fmt.Errorf("error scanning match point after creation: %w", err)
		}
	} else {
		log.Error("No rows returned after match point creation.")
		return nil, sql.ErrNoRows
	}

	log.Infof("Point '%s' @ %.1fs created for match %s.", point.Label, point.TimestampSeconds, point.MatchID.String())
	return point, nil
}

// FindMatchPointByID retrieves a point by ID. Returns nil, nil when not found.
func FindMatchPointByID(pointID uuid.UUID) (*db.MatchPoint, error) {
	point := &db.MatchPoint{}
	query := `SELECT id, match_id, user_id, timestamp_seconds, label, clip_before, clip_after, created_at FROM match_points WHERE id = $1`
	err := db.DB.Get(point, query, pointID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		log.Errorf("Error finding match point by ID '%s': %v", pointID.String(), err)
		return nil, fmt.Errorf("error finding match point by ID: %w", err)
	}
	return point, nil
}

// FindMatchPointsByMatchID retrieves all points for a match, oldest first so
// the list follows playback order.
func FindMatchPointsByMatchID(matchID uuid.UUID) ([]db.MatchPoint, error) {
	var points []db.MatchPoint
	query := `SELECT id, match_id, user_id, timestamp_seconds, label, clip_before, clip_after, created_at FROM match_points WHERE match_id = $1 ORDER BY timestamp_seconds ASC`
	if err := db.DB.Select(&points, query, matchID); err != nil {
		log.Errorf("Error finding points for match '%s': %v", matchID.String(), err)
		return nil, fmt.Errorf("error finding points by match ID: %w", err)
	}
	return points, nil
}

// CountMatchPoints returns how many points a match has. A reel job may only
// be created for a match with at least one point.
func CountMatchPoints(matchID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM match_points WHERE match_id = $1`
	if err := db.DB.Get(&count, query, matchID); err != nil {
		log.Errorf("Error counting points for match '%s': %v", matchID.String(), err)
		return 0, fmt.Errorf("error counting match points: %w", err)
	}
	return count, nil
}

// UpdateMatchPointOffsets persists new clip offsets for a single point,
// scoped to its owner. Returns sql.ErrNoRows when the point no longer
// exists, which a batch save reports as a per-item failure.
func UpdateMatchPointOffsets(pointID, userID uuid.UUID, clipBefore, clipAfter float64) error {
	query := `UPDATE match_points SET clip_before = $1, clip_after = $2 WHERE id = $3 AND user_id = $4`
	result, err := db.DB.Exec(query, clipBefore, clipAfter, pointID, userID)
	if err != nil {
		log.Errorf("Error updating offsets for point '%s': %v", pointID.String(), err)
		return fmt.Errorf("failed to update point offsets: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		log.Warnf("No point found with ID '%s' for user '%s' for offset update.", pointID.String(), userID.String())
		return sql.ErrNoRows
	}
	return nil
}

// DeleteMatchPoint deletes a point by ID, scoped to its owner.
func DeleteMatchPoint(pointID, userID uuid.UUID) error {
	query := `DELETE FROM match_points WHERE id = $1 AND user_id = $2`
	result, err := db.DB.Exec(query, pointID, userID)
	if err != nil {
		log.Errorf("Error deleting match point with ID '%s': %v", pointID.String(), err)
		return err
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		log.Warnf("No match point found with ID '%s' for user '%s' for deletion.", pointID.String(), userID.String())
		return sql.ErrNoRows
	}

	log.Infof("Match point with ID '%s' deleted.", pointID.String())
	return nil
}
