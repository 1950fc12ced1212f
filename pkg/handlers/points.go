package handlers

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/Tracksy-dev/passer/pkg/db"
	"github.com/Tracksy-dev/passer/pkg/db/queries"
	"github.com/Tracksy-dev/passer/pkg/highlight"
	"github.com/Tracksy-dev/passer/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// MarkPointRequest captures a highlight during playback. The client sends
// the live playhead position; the server derives the recorded timestamp by
// pulling it back MarkOffsetSeconds, clamped at zero.
type MarkPointRequest struct {
	PlaybackTime float64  `json:"playback_time" binding:"min=0"`
	Action       string   `json:"action" binding:"required,oneof=spike set block pass ace save other"`
	ClipBefore   *float64 `json:"clip_before" binding:"omitempty,min=0"`
	ClipAfter    *float64 `json:"clip_after" binding:"omitempty,min=0"`
}

type OffsetUpdate struct {
	ID         string  `json:"id" binding:"required,uuid"`
	ClipBefore float64 `json:"clip_before" binding:"min=0"`
	ClipAfter  float64 `json:"clip_after" binding:"min=0"`
}

type ApplyOffsetsRequest struct {
	Updates []OffsetUpdate `json:"updates" binding:"required,min=1,dive"`
}

type PointResponse struct {
	ID         uuid.UUID        `json:"id"`
	MatchID    uuid.UUID        `json:"match_id"`
	Timestamp  float64          `json:"timestamp"`
	Action     string           `json:"action"`
	ClipBefore float64          `json:"clip_before"`
	ClipAfter  float64          `json:"clip_after"`
	Window     highlight.Window `json:"window"`
}

func newPointResponse(point *db.MatchPoint) PointResponse {
	w := highlight.ClipWindow(point.TimestampSeconds, point.ClipBefore, point.ClipAfter)
	return PointResponse{
		ID:         point.ID,
		MatchID:    point.MatchID,
		Timestamp:  point.TimestampSeconds,
		Action:     point.Label,
		ClipBefore: point.ClipBefore,
		ClipAfter:  point.ClipAfter,
		Window:     w,
	}
}

// MarkPoint creates a highlight point on a match.
func (h *Handlers) MarkPoint(c *gin.Context) {
	claims, ok := claimsOrAbort(c)
	if !ok {
		return
	}
	match, ok := h.ownedMatchOrAbort(c)
	if !ok {
		return
	}

	var req MarkPointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debugf("MarkPoint: Invalid request body: %v", err)
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	action, err := highlight.ParseAction(req.Action)
	if err != nil {
		utils.ResponseWithError(c, http.StatusBadRequest, "Unknown highlight action", err.Error())
		return
	}

	clipBefore := highlight.DefaultClipPadding
	if req.ClipBefore != nil {
		clipBefore = *req.ClipBefore
	}
	clipAfter := highlight.DefaultClipPadding
	if req.ClipAfter != nil {
		clipAfter = *req.ClipAfter
	}

	point := &db.MatchPoint{
		MatchID:          match.ID,
		UserID:           claims.UserID,
		TimestampSeconds: highlight.MarkTimestamp(req.PlaybackTime),
		Label:            string(action),
		ClipBefore:       clipBefore,
		ClipAfter:        clipAfter,
	}

	createdPoint, err := queries.CreateMatchPoint(point)
	if err != nil {
		log.Errorf("MarkPoint: Failed to create point for match %s: %v", match.ID.String(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to mark highlight", nil)
		return
	}

	utils.ResponseWithSuccess(c, http.StatusCreated, "Highlight marked successfully", newPointResponse(createdPoint))
}

// GetMatchPoints lists a match's highlight points in playback order.
func (h *Handlers) GetMatchPoints(c *gin.Context) {
	match, ok := h.ownedMatchOrAbort(c)
	if !ok {
		return
	}

	points, err := queries.FindMatchPointsByMatchID(match.ID)
	if err != nil {
		log.Errorf("GetMatchPoints: Failed to fetch points for match %s: %v", match.ID.String(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to retrieve highlight points", nil)
		return
	}

	responses := make([]PointResponse, len(points))
	for i, p := range points {
		responses[i] = newPointResponse(&p)
	}

	utils.ResponseWithSuccess(c, http.StatusOK, "Highlight points retrieved successfully", responses)
}

// OffsetResultResponse is the per-point outcome of a batch offset save.
type OffsetResultResponse struct {
	ID    string `json:"id"`
	Saved bool   `json:"saved"`
	Error string `json:"error,omitempty"`
}

// ApplyPointOffsets persists clip-offset edits for several points at once.
// Each point's write is independent: a failure is reported per item and
// counted, never rolled into the others.
func (h *Handlers) ApplyPointOffsets(c *gin.Context) {
	claims, ok := claimsOrAbort(c)
	if !ok {
		return
	}
	match, ok := h.ownedMatchOrAbort(c)
	if !ok {
		return
	}

	var req ApplyOffsetsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debugf("ApplyPointOffsets: Invalid request body: %v", err)
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	points := make([]highlight.Point, len(req.Updates))
	for i, u := range req.Updates {
		points[i] = highlight.Point{
			ID:         u.ID,
			ClipBefore: u.ClipBefore,
			ClipAfter:  u.ClipAfter,
		}
	}

	store := &pointQueryStore{userID: claims.UserID}
	results := highlight.ApplyOffsets(c.Request.Context(), store, points)
	failed := highlight.CountFailures(results)

	responses := make([]OffsetResultResponse, len(results))
	for i, r := range results {
		responses[i] = OffsetResultResponse{ID: r.PointID, Saved: r.Err == nil}
		if r.Err != nil {
			responses[i].Error = r.Err.Error()
		}
	}

	log.Infof("ApplyPointOffsets: Saved %d/%d offsets for match %s.", len(results)-failed, len(results), match.ID.String())
	utils.ResponseWithSuccess(c, http.StatusOK, "Offset save finished", gin.H{
		"results": responses,
		"saved":   len(results) - failed,
		"failed":  failed,
	})
}

// DeletePoint removes a single highlight point owned by the caller.
func (h *Handlers) DeletePoint(c *gin.Context) {
	claims, ok := claimsOrAbort(c)
	if !ok {
		return
	}

	pointIDParam := c.Param("id")
	pointID, err := uuid.Parse(pointIDParam)
	if err != nil {
		log.Warnf("DeletePoint: Invalid point ID format '%s': %v", pointIDParam, err)
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid point ID format", nil)
		return
	}

	if err := queries.DeleteMatchPoint(pointID, claims.UserID); err != nil {
		if err == sql.ErrNoRows {
			utils.ResponseWithError(c, http.StatusNotFound, "Highlight point not found or you do not have permission to delete it", nil)
			return
		}
		log.Errorf("DeletePoint: Failed to delete point %s: %v", pointID.String(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to delete highlight point", nil)
		return
	}

	utils.ResponseWithSuccess(c, http.StatusNoContent, "Highlight point deleted successfully", nil)
}

// pointQueryStore adapts the query layer to highlight.Store so the batch
// offset apply fans out over real persistence. Writes are scoped to the
// owning user.
type pointQueryStore struct {
	userID uuid.UUID
}

func (s *pointQueryStore) Insert(ctx context.Context, p highlight.Point) (highlight.Point, error) {
	row := &db.MatchPoint{
		UserID:           s.userID,
		TimestampSeconds: p.Timestamp,
		Label:            string(p.Action),
		ClipBefore:       p.ClipBefore,
		ClipAfter:        p.ClipAfter,
	}
	created, err := queries.CreateMatchPoint(row)
	if err != nil {
		return highlight.Point{}, err
	}
	p.ID = created.ID.String()
	return p, nil
}

func (s *pointQueryStore) SaveOffsets(ctx context.Context, id string, before, after float64) error {
	pointID, err := uuid.Parse(id)
	if err != nil {
		return err
	}
	return queries.UpdateMatchPointOffsets(pointID, s.userID, before, after)
}

func (s *pointQueryStore) Delete(ctx context.Context, id string) error {
	pointID, err := uuid.Parse(id)
	if err != nil {
		return err
	}
	return queries.DeleteMatchPoint(pointID, s.userID)
}
