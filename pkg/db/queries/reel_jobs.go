package queries

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Tracksy-dev/passer/pkg/db"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// CreateReelJob inserts a new reel job in its initial queued state.
func CreateReelJob(job *db.ReelJob) (*db.ReelJob, error) {
	if job.Status == "" {
		job.Status = "queued"
	}

	query := `
		INSERT INTO reel_jobs (match_id, user_id, status, clip_before, clip_after, output_path, output_url, error_message, is_public, title)
		VALUES (:match_id, :user_id, :status, :clip_before, :clip_after, :output_path, :output_url, :error_message, :is_public, :title)
		RETURNING id, created_at, updated_at`

	rows, err := db.DB.NamedQuery(query, job)
	if err != nil {
		log.Errorf("Error creating reel job: %v", err)
		return nil, fmt.Errorf("failed to create reel job: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.StructScan(job); err != nil {
			log.Errorf("Error scanning reel job after creation: %v", err)
			return nil, fmt.Errorf("error scanning reel job after creation: %w", err)
		}
	} else {
		log.Error("No rows returned after reel job creation.")
		return nil, sql.ErrNoRows
	}

	log.Infof("Reel job %s created for match %s (status: %s).", job.ID.String(), job.MatchID.String(), job.Status)
	return job, nil
}

// FindReelJobByID retrieves a reel job by ID. Returns nil, nil when not found.
func FindReelJobByID(jobID uuid.UUID) (*db.ReelJob, error) {
	job := &db.ReelJob{}
	query := `SELECT id, match_id, user_id, status, clip_before, clip_after, output_path, output_url, error_message, is_public, title, created_at, updated_at FROM reel_jobs WHERE id = $1`
	err := db.DB.Get(job, query, jobID)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Debugf("Reel job with ID '%s' not found.", jobID.String())
			return nil, nil
		}
		log.Errorf("Error finding reel job by ID '%s': %v", jobID.String(), err)
		return nil, fmt.Errorf("error finding reel job by ID: %w", err)
	}
	return job, nil
}

// FindReelJobsByMatchID retrieves all reel jobs for a match, newest first.
func FindReelJobsByMatchID(matchID uuid.UUID) ([]db.ReelJob, error) {
	var jobs []db.ReelJob
	query := `SELECT id, match_id, user_id, status, clip_before, clip_after, output_path, output_url, error_message, is_public, title, created_at, updated_at FROM reel_jobs WHERE match_id = $1 ORDER BY created_at DESC`
	if err := db.DB.Select(&jobs, query, matchID); err != nil {
		log.Errorf("Error finding reel jobs for match '%s': %v", matchID.String(), err)
		return nil, fmt.Errorf("error finding reel jobs by match ID: %w", err)
	}
	return jobs, nil
}

// UpdateReelJobStatus records a status transition reported by the render
// worker, together with the output reference or error message that
// accompanies a terminal status.
func UpdateReelJobStatus(job *db.ReelJob) error {
	job.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE reel_jobs
		SET status = :status, output_path = :output_path, output_url = :output_url,
		    error_message = :error_message, updated_at = :updated_at
		WHERE id = :id`

	result, err := db.DB.NamedExec(query, job)
	if err != nil {
		log.Errorf("Error updating reel job '%s': %v", job.ID.String(), err)
		return fmt.Errorf("failed to update reel job: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		log.Warnf("No reel job found with ID '%s' for status update.", job.ID.String())
		return sql.ErrNoRows
	}

	log.Infof("Reel job '%s' updated to status '%s'.", job.ID.String(), job.Status)
	return nil
}

// SetReelJobVisibility flips the public flag on a reel job, scoped to its
// owner.
func SetReelJobVisibility(jobID, userID uuid.UUID, isPublic bool) error {
	query := `UPDATE reel_jobs SET is_public = $1, updated_at = $2 WHERE id = $3 AND user_id = $4`
	result, err := db.DB.Exec(query, isPublic, time.Now().UTC(), jobID, userID)
	if err != nil {
		log.Errorf("Error updating visibility for reel job '%s': %v", jobID.String(), err)
		return fmt.Errorf("failed to update reel job visibility: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		log.Warnf("No reel job found with ID '%s' for user '%s' for visibility update.", jobID.String(), userID.String())
		return sql.ErrNoRows
	}
	return nil
}

// DeleteReelJob deletes a reel job record, scoped to its owner. The stored
// output object must already have been removed by the caller.
func DeleteReelJob(jobID, userID uuid.UUID) error {
	query := `DELETE FROM reel_jobs WHERE id = $1 AND user_id = $2`
	result, err := db.DB.Exec(query, jobID, userID)
	if err != nil {
		log.Errorf("Error deleting reel job with ID '%s': %v", jobID.String(), err)
		return err
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		log.Warnf("No reel job found with ID '%s' for user '%s' for deletion.", jobID.String(), userID.String())
		return sql.ErrNoRows
	}

	log.Infof("Reel job with ID '%s' deleted.", jobID.String())
	return nil
}

// FindPublicCompleteReelJobs returns one page of public, completed reel
// jobs, newest first. The caller requests limit rows starting at offset; a
// page shorter than limit means there are no further pages.
func FindPublicCompleteReelJobs(offset, limit int) ([]db.ReelJob, error) {
	var jobs []db.ReelJob
	query := `SELECT id, match_id, user_id, status, clip_before, clip_after, output_path, output_url, error_message, is_public, title, created_at, updated_at
		FROM reel_jobs
		WHERE status = 'complete' AND is_public = TRUE
		ORDER BY created_at DESC
		OFFSET $1 LIMIT $2`
	if err := db.DB.Select(&jobs, query, offset, limit); err != nil {
		log.Errorf("Error listing public reel jobs (offset %d, limit %d): %v", offset, limit, err)
		return nil, fmt.Errorf("error listing public reel jobs: %w", err)
	}
	return jobs, nil
}
