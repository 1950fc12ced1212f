package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/Tracksy-dev/passer/pkg/db"
	"github.com/Tracksy-dev/passer/pkg/db/queries"
	"github.com/Tracksy-dev/passer/pkg/storage"
	"github.com/Tracksy-dev/passer/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// MatchResponse is the match record as sent to the client.
type MatchResponse struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Opponent  string    `json:"opponent"`
	TeamName  string    `json:"team_name"`
	MatchDate string    `json:"match_date"`
	VideoURL  string    `json:"video_url"`
	CreatedAt time.Time `json:"created_at"`
}

func newMatchResponse(match *db.Match) MatchResponse {
	return MatchResponse{
		ID:        match.ID,
		UserID:    match.UserID,
		Opponent:  match.Opponent,
		TeamName:  match.TeamName,
		MatchDate: match.MatchDate.Format("2006-01-02"),
		VideoURL:  match.VideoURL,
		CreatedAt: match.CreatedAt,
	}
}

// CreateMatch handles the match upload: the video goes to object storage
// first, then the match row is inserted. A failed insert removes the stored
// video again so no unreferenced object is left behind.
func (h *Handlers) CreateMatch(c *gin.Context) {
	claims, ok := claimsOrAbort(c)
	if !ok {
		return
	}

	opponent := strings.TrimSpace(c.PostForm("opponent"))
	if opponent == "" {
		utils.ResponseWithError(c, http.StatusBadRequest, "Opponent name is required", nil)
		return
	}
	teamName := strings.TrimSpace(c.PostForm("team_name"))

	matchDate := time.Now().UTC()
	if raw := c.PostForm("match_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			utils.ResponseWithError(c, http.StatusBadRequest, "Invalid match_date, expected YYYY-MM-DD", nil)
			return
		}
		matchDate = parsed
	}

	fileHeader, err := c.FormFile("video")
	if err != nil {
		utils.ResponseWithError(c, http.StatusBadRequest, "Please select a video file to upload", nil)
		return
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "video/") {
		utils.ResponseWithError(c, http.StatusBadRequest, "Uploaded file must be a video", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Errorf("CreateMatch: Failed to open uploaded file: %v", err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to read uploaded file", nil)
		return
	}
	defer file.Close()

	videoPath, err := h.Storage.SaveFile(storage.BucketMatchVideos, file, storage.FileInfo{
		Filename:    fileHeader.Filename,
		ContentType: contentType,
		Size:        fileHeader.Size,
	})
	if err != nil {
		log.Errorf("CreateMatch: Failed to store match video: %v", err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to store match video", nil)
		return
	}

	match := &db.Match{
		UserID:    claims.UserID,
		Opponent:  opponent,
		TeamName:  teamName,
		MatchDate: matchDate,
		VideoPath: videoPath,
		VideoURL:  h.Storage.PublicURL(storage.BucketMatchVideos, videoPath),
	}

	createdMatch, err := queries.CreateMatch(match)
	if err != nil {
		log.Errorf("CreateMatch: Failed to create match in DB, removing stored video '%s': %v", videoPath, err)
		if delErr := h.Storage.DeleteFile(storage.BucketMatchVideos, videoPath); delErr != nil {
			log.Warnf("CreateMatch: Cleanup of stored video '%s' failed: %v", videoPath, delErr)
		}
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to create match", nil)
		return
	}

	log.Infof("Match %s created for user %s.", createdMatch.ID.String(), claims.UserID.String())
	utils.ResponseWithSuccess(c, http.StatusCreated, "Match created successfully", newMatchResponse(createdMatch))
}

// GetUserMatches returns all matches owned by the authenticated user.
func (h *Handlers) GetUserMatches(c *gin.Context) {
	claims, ok := claimsOrAbort(c)
	if !ok {
		return
	}

	matches, err := queries.FindMatchesByUserID(claims.UserID)
	if err != nil {
		log.Errorf("GetUserMatches: Failed to fetch matches for user %s: %v", claims.UserID.String(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to retrieve matches", nil)
		return
	}

	responses := make([]MatchResponse, len(matches))
	for i, m := range matches {
		responses[i] = newMatchResponse(&m)
	}

	utils.ResponseWithSuccess(c, http.StatusOK, "Matches retrieved successfully", responses)
}

// MatchDetailResponse is a match plus how many highlight points it carries,
// which the analysis page uses to decide whether a reel can be generated.
type MatchDetailResponse struct {
	MatchResponse
	PointCount int `json:"point_count"`
}

// GetMatchByID returns a single match, enforcing ownership.
func (h *Handlers) GetMatchByID(c *gin.Context) {
	match, ok := h.ownedMatchOrAbort(c)
	if !ok {
		return
	}

	count, err := queries.CountMatchPoints(match.ID)
	if err != nil {
		log.Errorf("GetMatchByID: Failed to count points for match %s: %v", match.ID.String(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to retrieve match", nil)
		return
	}

	utils.ResponseWithSuccess(c, http.StatusOK, "Match retrieved successfully", MatchDetailResponse{
		MatchResponse: newMatchResponse(match),
		PointCount:    count,
	})
}

// DeleteMatch deletes a match. Reel outputs are removed best effort; the
// match video removal is fail-closed: if the stored video cannot be
// deleted the record stays so the file is never orphaned silently.
func (h *Handlers) DeleteMatch(c *gin.Context) {
	claims, ok := claimsOrAbort(c)
	if !ok {
		return
	}
	match, ok := h.ownedMatchOrAbort(c)
	if !ok {
		return
	}

	jobs, err := queries.FindReelJobsByMatchID(match.ID)
	if err == nil {
		for _, j := range jobs {
			if j.OutputPath.Valid {
				if delErr := h.Storage.DeleteFile(storage.BucketReels, j.OutputPath.String); delErr != nil {
					log.Warnf("DeleteMatch: Failed to remove reel output '%s': %v", j.OutputPath.String, delErr)
				}
			}
		}
	}

	if match.VideoPath != "" {
		if err := h.Storage.DeleteFile(storage.BucketMatchVideos, match.VideoPath); err != nil {
			log.Errorf("DeleteMatch: Failed to remove match video '%s', keeping record: %v", match.VideoPath, err)
			utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to remove stored match video", nil)
			return
		}
	}

	if err := queries.DeleteMatch(match.ID, claims.UserID); err != nil {
		log.Errorf("DeleteMatch: Failed to delete match %s: %v", match.ID.String(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to delete match", nil)
		return
	}

	log.Infof("Match %s deleted for user %s.", match.ID.String(), claims.UserID.String())
	utils.ResponseWithSuccess(c, http.StatusNoContent, "Match deleted successfully", nil)
}

// ownedMatchOrAbort resolves the :id path param to a match owned by the
// authenticated user, writing the error response itself on failure.
func (h *Handlers) ownedMatchOrAbort(c *gin.Context) (*db.Match, bool) {
	claims, ok := claimsOrAbort(c)
	if !ok {
		return nil, false
	}

	matchIDParam := c.Param("id")
	matchID, err := uuid.Parse(matchIDParam)
	if err != nil {
		log.Warnf("Invalid match ID format '%s': %v", matchIDParam, err)
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid match ID format", nil)
		return nil, false
	}

	match, err := queries.FindMatchByID(matchID)
	if err != nil {
		log.Errorf("Failed to fetch match %s: %v", matchID.String(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to retrieve match", nil)
		return nil, false
	}
	if match == nil {
		utils.ResponseWithError(c, http.StatusNotFound, "Match not found", nil)
		return nil, false
	}
	if match.UserID != claims.UserID {
		log.Warnf("User %s attempted to access match %s owned by %s.", claims.UserID.String(), matchID.String(), match.UserID.String())
		utils.ResponseWithError(c, http.StatusForbidden, "You do not have permission to access this match", nil)
		return nil, false
	}
	return match, true
}
