package handlers

import (
	"net/http"
	"strconv"

	"github.com/Tracksy-dev/passer/pkg/db/queries"
	"github.com/Tracksy-dev/passer/pkg/feed"
	"github.com/Tracksy-dev/passer/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const maxFeedPageSize = 50

// GetFeed returns one page of public, completed reels, newest first, each
// carrying a denormalized creator summary resolved in a second lookup over
// the page's distinct owners.
func (h *Handlers) GetFeed(c *gin.Context) {
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid offset", nil)
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(feed.DefaultPageSize)))
	if err != nil || limit < 1 || limit > maxFeedPageSize {
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid limit", nil)
		return
	}

	jobs, err := queries.FindPublicCompleteReelJobs(offset, limit)
	if err != nil {
		log.Errorf("GetFeed: Failed to list public reels (offset %d): %v", offset, err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to load the public feed", nil)
		return
	}

	reels := make([]feed.Reel, len(jobs))
	for i, j := range jobs {
		reels[i] = feed.Reel{
			ID:        j.ID.String(),
			UserID:    j.UserID.String(),
			CreatedAt: j.CreatedAt,
		}
		if j.Title.Valid {
			reels[i].Title = j.Title.String
		}
		if j.OutputURL.Valid {
			reels[i].OutputURL = j.OutputURL.String
		}
	}

	creators := make(map[string]feed.Creator)
	userIDs := feed.DistinctUserIDs(reels)
	if len(userIDs) > 0 {
		ids := make([]uuid.UUID, 0, len(userIDs))
		for _, raw := range userIDs {
			if id, err := uuid.Parse(raw); err == nil {
				ids = append(ids, id)
			}
		}
		profiles, err := queries.FindProfilesByUserIDs(ids)
		if err != nil {
			// The page is still useful without creator names.
			log.Warnf("GetFeed: Failed to resolve creators for %d users: %v", len(ids), err)
		}
		for _, p := range profiles {
			creators[p.UserID.String()] = feed.Creator{
				Username:    p.Username,
				DisplayName: p.DisplayName,
			}
		}
	}

	page := feed.BuildPage(reels, creators, offset, limit)
	utils.ResponseWithSuccess(c, http.StatusOK, "Feed page retrieved successfully", page)
}
