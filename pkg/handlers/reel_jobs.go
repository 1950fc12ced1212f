package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Tracksy-dev/passer/pkg/db"
	"github.com/Tracksy-dev/passer/pkg/db/queries"
	"github.com/Tracksy-dev/passer/pkg/reeljob"
	"github.com/Tracksy-dev/passer/pkg/storage"
	"github.com/Tracksy-dev/passer/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// CreateReelJobRequest optionally overrides the clip padding applied around
// each highlight point in the generated reel.
type CreateReelJobRequest struct {
	ClipBefore *float64 `json:"clip_before" binding:"omitempty,min=0"`
	ClipAfter  *float64 `json:"clip_after" binding:"omitempty,min=0"`
	Title      *string  `json:"title" binding:"omitempty,max=255"`
}

// RenderRequest is the payload dispatched to the external render worker.
type RenderRequest struct {
	JobID       string        `json:"job_id"`
	MatchID     string        `json:"match_id"`
	VideoURL    string        `json:"video_url"`
	ClipBefore  float64       `json:"clip_before"`
	ClipAfter   float64       `json:"clip_after"`
	Points      []RenderPoint `json:"points"`
	CallbackURL string        `json:"callback_url"`
}

type RenderPoint struct {
	Timestamp  float64 `json:"timestamp"`
	ClipBefore float64 `json:"clip_before"`
	ClipAfter  float64 `json:"clip_after"`
}

// RenderCallbackRequest is what the render worker posts back when a job
// changes state. Output paths are relative to the reels bucket; the server
// resolves the public URL itself.
type RenderCallbackRequest struct {
	JobID      string `json:"job_id" binding:"required,uuid"`
	Status     string `json:"status" binding:"required"`
	OutputPath string `json:"output_path"`
	Error      string `json:"error"`
}

type ToggleVisibilityRequest struct {
	IsPublic *bool `json:"is_public" binding:"required"`
}

func newReelJobView(job *db.ReelJob) reeljob.Job {
	view := reeljob.Job{
		ID:         job.ID.String(),
		MatchID:    job.MatchID.String(),
		Status:     reeljob.Status(job.Status),
		ClipBefore: job.ClipBefore,
		ClipAfter:  job.ClipAfter,
		IsPublic:   job.IsPublic,
		CreatedAt:  job.CreatedAt,
	}
	if job.OutputURL.Valid {
		view.OutputURL = job.OutputURL.String
	}
	if job.ErrorMessage.Valid {
		view.Error = job.ErrorMessage.String
	}
	if job.Title.Valid {
		view.Title = job.Title.String
	}
	return view
}

// CreateReelJob queues a new highlight-reel job for a match. A match with
// zero highlight points is rejected before anything is written. The queued
// job is handed to the external render worker; every later status change
// arrives through the render callback.
func (h *Handlers) CreateReelJob(c *gin.Context) {
	claims, ok := claimsOrAbort(c)
	if !ok {
		return
	}
	match, ok := h.ownedMatchOrAbort(c)
	if !ok {
		return
	}

	var req CreateReelJobRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			log.Debugf("CreateReelJob: Invalid request body: %v", err)
			utils.ResponseWithError(c, http.StatusBadRequest, "Invalid request body", err.Error())
			return
		}
	}

	points, err := queries.FindMatchPointsByMatchID(match.ID)
	if err != nil {
		log.Errorf("CreateReelJob: Failed to fetch points for match %s: %v", match.ID.String(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to check highlight points", nil)
		return
	}
	if len(points) == 0 {
		utils.ResponseWithError(c, http.StatusBadRequest, "Add at least one highlight first.", nil)
		return
	}

	clipBefore := reeljob.DefaultClipPadding
	if req.ClipBefore != nil {
		clipBefore = *req.ClipBefore
	}
	clipAfter := reeljob.DefaultClipPadding
	if req.ClipAfter != nil {
		clipAfter = *req.ClipAfter
	}

	job := &db.ReelJob{
		MatchID:    match.ID,
		UserID:     claims.UserID,
		Status:     string(reeljob.StatusQueued),
		ClipBefore: clipBefore,
		ClipAfter:  clipAfter,
	}
	if req.Title != nil {
		job.Title = sql.NullString{String: *req.Title, Valid: true}
	}

	createdJob, err := queries.CreateReelJob(job)
	if err != nil {
		log.Errorf("CreateReelJob: Failed to create reel job for match %s: %v", match.ID.String(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to create reel job", nil)
		return
	}

	if err := h.dispatchRenderJob(createdJob, match, points); err != nil {
		log.Errorf("CreateReelJob: Failed to dispatch job %s to renderer: %v", createdJob.ID.String(), err)
		createdJob.Status = string(reeljob.StatusFailed)
		createdJob.ErrorMessage = sql.NullString{String: "Could not reach the render worker", Valid: true}
		if updErr := queries.UpdateReelJobStatus(createdJob); updErr != nil {
			log.Errorf("CreateReelJob: Failed to mark job %s failed: %v", createdJob.ID.String(), updErr)
		}
		utils.ResponseWithError(c, http.StatusBadGateway, "Failed to start reel generation", nil)
		return
	}

	log.Infof("Reel job %s queued for match %s.", createdJob.ID.String(), match.ID.String())
	utils.ResponseWithSuccess(c, http.StatusCreated, "Reel job created successfully", gin.H{
		"id":          createdJob.ID.String(),
		"status":      createdJob.Status,
		"clip_before": createdJob.ClipBefore,
		"clip_after":  createdJob.ClipAfter,
		"created_at":  createdJob.CreatedAt,
	})
}

// dispatchRenderJob hands a queued job to the external render worker. The
// worker answers 202 immediately and reports progress via the callback URL.
func (h *Handlers) dispatchRenderJob(job *db.ReelJob, match *db.Match, points []db.MatchPoint) error {
	renderPoints := make([]RenderPoint, len(points))
	for i, p := range points {
		renderPoints[i] = RenderPoint{
			Timestamp:  p.TimestampSeconds,
			ClipBefore: p.ClipBefore,
			ClipAfter:  p.ClipAfter,
		}
	}

	callbackURL := fmt.Sprintf("%s/api/reel-jobs/render-callback", h.Config.PublicBaseURL)
	body := RenderRequest{
		JobID:       job.ID.String(),
		MatchID:     match.ID.String(),
		VideoURL:    match.VideoURL,
		ClipBefore:  job.ClipBefore,
		ClipAfter:   job.ClipAfter,
		Points:      renderPoints,
		CallbackURL: callbackURL,
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 10 * time.Second}
	rendererURL := fmt.Sprintf("%s/render", h.Config.RendererURL)

	req, err := http.NewRequest(http.MethodPost, rendererURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("renderer returned status %d: %s", resp.StatusCode, string(detail))
	}
	return nil
}

// GetMatchReelJobs lists a match's reel jobs, newest first.
func (h *Handlers) GetMatchReelJobs(c *gin.Context) {
	match, ok := h.ownedMatchOrAbort(c)
	if !ok {
		return
	}

	jobs, err := queries.FindReelJobsByMatchID(match.ID)
	if err != nil {
		log.Errorf("GetMatchReelJobs: Failed to fetch reel jobs for match %s: %v", match.ID.String(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to retrieve reel jobs", nil)
		return
	}

	views := make([]reeljob.Job, len(jobs))
	for i, j := range jobs {
		views[i] = newReelJobView(&j)
	}

	utils.ResponseWithSuccess(c, http.StatusOK, "Reel jobs retrieved successfully", views)
}

// WatchMatchReelJobs streams job-list snapshots over SSE while any job for
// the match is non-terminal. The watch stops on its own once every job has
// settled, or when the client goes away.
func (h *Handlers) WatchMatchReelJobs(c *gin.Context) {
	match, ok := h.ownedMatchOrAbort(c)
	if !ok {
		return
	}

	lister := reeljob.ListerFunc(func(ctx context.Context) ([]reeljob.Job, error) {
		jobs, err := queries.FindReelJobsByMatchID(match.ID)
		if err != nil {
			return nil, err
		}
		views := make([]reeljob.Job, len(jobs))
		for i, j := range jobs {
			views[i] = newReelJobView(&j)
		}
		return views, nil
	})

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	watcher := reeljob.NewWatcher(lister, func(jobs []reeljob.Job) {
		c.SSEvent("jobs", jobs)
		c.Writer.Flush()
	})

	if err := watcher.Run(c.Request.Context()); err != nil {
		log.Debugf("WatchMatchReelJobs: Watch for match %s ended: %v", match.ID.String(), err)
	}
}

// HandleRenderCallback receives status transitions from the render worker.
// Transitions the job's current status does not permit are rejected, so a
// late or duplicate callback cannot resurrect a terminal job.
func (h *Handlers) HandleRenderCallback(c *gin.Context) {
	var callback RenderCallbackRequest
	if err := c.ShouldBindJSON(&callback); err != nil {
		log.Errorf("HandleRenderCallback: Invalid callback request body: %v", err)
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid callback request body", err.Error())
		return
	}

	jobID, err := uuid.Parse(callback.JobID)
	if err != nil {
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid job ID in callback", nil)
		return
	}

	nextStatus, err := reeljob.ParseStatus(callback.Status)
	if err != nil {
		utils.ResponseWithError(c, http.StatusBadRequest, "Unknown status in callback", err.Error())
		return
	}

	log.Infof("Received render callback for job %s: status=%s output=%s", callback.JobID, callback.Status, callback.OutputPath)

	job, err := queries.FindReelJobByID(jobID)
	if err != nil {
		log.Errorf("HandleRenderCallback: Failed to find job %s: %v", jobID.String(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to find job for callback", nil)
		return
	}
	if job == nil {
		log.Warnf("HandleRenderCallback: Job %s not found. Perhaps already deleted?", jobID.String())
		utils.ResponseWithError(c, http.StatusNotFound, "Job not found for callback", nil)
		return
	}

	current := reeljob.Status(job.Status)
	if !current.CanTransition(nextStatus) {
		log.Warnf("HandleRenderCallback: Rejected transition %s -> %s for job %s.", current, nextStatus, jobID.String())
		utils.ResponseWithError(c, http.StatusConflict, "Invalid status transition", gin.H{
			"from": current, "to": nextStatus,
		})
		return
	}

	job.Status = string(nextStatus)
	switch nextStatus {
	case reeljob.StatusComplete:
		if callback.OutputPath == "" {
			utils.ResponseWithError(c, http.StatusBadRequest, "Completed callback is missing the output path", nil)
			return
		}
		job.OutputPath = sql.NullString{String: callback.OutputPath, Valid: true}
		job.OutputURL = sql.NullString{String: h.Storage.PublicURL(storage.BucketReels, callback.OutputPath), Valid: true}
		job.ErrorMessage = sql.NullString{}
	case reeljob.StatusFailed:
		job.OutputPath = sql.NullString{}
		job.OutputURL = sql.NullString{}
		errMsg := callback.Error
		if errMsg == "" {
			errMsg = "Reel generation failed"
		}
		job.ErrorMessage = sql.NullString{String: errMsg, Valid: true}
	}

	if err := queries.UpdateReelJobStatus(job); err != nil {
		log.Errorf("HandleRenderCallback: Failed to update job %s after callback: %v", jobID.String(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to update job after render callback", nil)
		return
	}

	utils.ResponseWithSuccess(c, http.StatusOK, "Callback processed successfully", nil)
}

// DeleteReelJob removes a reel job. The stored output is removed first and
// the operation is fail-closed: if the object cannot be deleted the record
// stays, so no file is ever orphaned by a half-finished delete.
func (h *Handlers) DeleteReelJob(c *gin.Context) {
	claims, ok := claimsOrAbort(c)
	if !ok {
		return
	}

	jobIDParam := c.Param("id")
	jobID, err := uuid.Parse(jobIDParam)
	if err != nil {
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid reel job ID format", nil)
		return
	}

	job, err := queries.FindReelJobByID(jobID)
	if err != nil {
		log.Errorf("DeleteReelJob: Failed to fetch job %s: %v", jobID.String(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to retrieve reel job", nil)
		return
	}
	if job == nil {
		utils.ResponseWithError(c, http.StatusNotFound, "Reel job not found", nil)
		return
	}
	if job.UserID != claims.UserID {
		log.Warnf("DeleteReelJob: User %s attempted to delete job %s owned by %s.", claims.UserID.String(), jobID.String(), job.UserID.String())
		utils.ResponseWithError(c, http.StatusForbidden, "You do not have permission to delete this reel", nil)
		return
	}

	if job.OutputPath.Valid {
		if err := h.Storage.DeleteFile(storage.BucketReels, job.OutputPath.String); err != nil {
			log.Errorf("DeleteReelJob: Failed to remove output '%s', keeping record: %v", job.OutputPath.String, err)
			utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to remove the stored reel video", nil)
			return
		}
	}

	if err := queries.DeleteReelJob(jobID, claims.UserID); err != nil {
		log.Errorf("DeleteReelJob: Failed to delete job %s: %v", jobID.String(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to delete reel job", nil)
		return
	}

	utils.ResponseWithSuccess(c, http.StatusNoContent, "Reel job deleted successfully", nil)
}

// ToggleReelVisibility flips a completed reel between public and private.
// Non-terminal and failed jobs have nothing to publish and are rejected.
func (h *Handlers) ToggleReelVisibility(c *gin.Context) {
	claims, ok := claimsOrAbort(c)
	if !ok {
		return
	}

	jobIDParam := c.Param("id")
	jobID, err := uuid.Parse(jobIDParam)
	if err != nil {
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid reel job ID format", nil)
		return
	}

	var req ToggleVisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	job, err := queries.FindReelJobByID(jobID)
	if err != nil {
		log.Errorf("ToggleReelVisibility: Failed to fetch job %s: %v", jobID.String(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to retrieve reel job", nil)
		return
	}
	if job == nil {
		utils.ResponseWithError(c, http.StatusNotFound, "Reel job not found", nil)
		return
	}
	if job.UserID != claims.UserID {
		utils.ResponseWithError(c, http.StatusForbidden, "You do not have permission to modify this reel", nil)
		return
	}
	if reeljob.Status(job.Status) != reeljob.StatusComplete {
		utils.ResponseWithError(c, http.StatusConflict, "Only completed reels can be made public or private", nil)
		return
	}

	if err := queries.SetReelJobVisibility(jobID, claims.UserID, *req.IsPublic); err != nil {
		log.Errorf("ToggleReelVisibility: Failed to update visibility for job %s: %v", jobID.String(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to update reel visibility", nil)
		return
	}

	job.IsPublic = *req.IsPublic
	utils.ResponseWithSuccess(c, http.StatusOK, "Reel visibility updated", newReelJobView(job))
}
