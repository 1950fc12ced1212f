package handlers

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/Tracksy-dev/passer/pkg/db"
	"github.com/Tracksy-dev/passer/pkg/db/queries"
	"github.com/Tracksy-dev/passer/pkg/storage"
	"github.com/Tracksy-dev/passer/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const maxAvatarSize = 5 * 1024 * 1024 // 5MB

var allowedAvatarTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

type UpdateProfileRequest struct {
	Username    *string `json:"username" binding:"omitempty,min=3,max=20"`
	DisplayName *string `json:"display_name" binding:"omitempty,max=255"`
	Bio         *string `json:"bio" binding:"omitempty,max=200"`
	TeamName    *string `json:"team_name" binding:"omitempty,max=255"`
	Position    *string `json:"position" binding:"omitempty,oneof=setter outside opposite middle libero ds"`
}

type ProfileResponse struct {
	UserID      uuid.UUID `json:"user_id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Bio         string    `json:"bio"`
	TeamName    string    `json:"team_name"`
	Position    string    `json:"position"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
}

func (h *Handlers) newProfileResponse(profile *db.Profile) ProfileResponse {
	resp := ProfileResponse{
		UserID:      profile.UserID,
		Username:    profile.Username,
		DisplayName: profile.DisplayName,
		Bio:         profile.Bio,
		TeamName:    profile.TeamName,
		Position:    profile.Position,
	}
	if profile.AvatarPath.Valid {
		resp.AvatarURL = h.Storage.PublicURL(storage.BucketAvatars, profile.AvatarPath.String)
	}
	return resp
}

// GetProfile returns the authenticated user's profile.
func (h *Handlers) GetProfile(c *gin.Context) {
	claims, ok := claimsOrAbort(c)
	if !ok {
		return
	}

	profile, err := queries.FindProfileByUserID(claims.UserID)
	if err != nil {
		log.Errorf("GetProfile: Failed to fetch profile for user %s: %v", claims.UserID.String(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to retrieve profile", nil)
		return
	}
	if profile == nil {
		utils.ResponseWithError(c, http.StatusNotFound, "Profile not found", nil)
		return
	}

	utils.ResponseWithSuccess(c, http.StatusOK, "Profile retrieved successfully", h.newProfileResponse(profile))
}

// UpdateProfile edits the authenticated user's profile. A username change
// runs a uniqueness check first.
func (h *Handlers) UpdateProfile(c *gin.Context) {
	claims, ok := claimsOrAbort(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debugf("UpdateProfile: Invalid request body: %v", err)
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	profile, err := queries.FindProfileByUserID(claims.UserID)
	if err != nil {
		log.Errorf("UpdateProfile: Failed to fetch profile for user %s: %v", claims.UserID.String(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to retrieve profile", nil)
		return
	}
	if profile == nil {
		utils.ResponseWithError(c, http.StatusNotFound, "Profile not found", nil)
		return
	}

	if req.Username != nil {
		newUsername := strings.TrimSpace(*req.Username)
		if !usernameRe.MatchString(newUsername) {
			utils.ResponseWithError(c, http.StatusBadRequest, "Username must be 3-20 characters: letters, numbers and underscore only", nil)
			return
		}
		if newUsername != profile.Username {
			conflict, err := queries.FindProfileByUsername(newUsername)
			if err != nil {
				log.Errorf("UpdateProfile: Error checking username '%s': %v", newUsername, err)
				utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to check username availability", nil)
				return
			}
			if conflict != nil && conflict.UserID != profile.UserID {
				utils.ResponseWithError(c, http.StatusConflict, "Username is already taken", nil)
				return
			}
		}
		profile.Username = newUsername
	}
	if req.DisplayName != nil {
		profile.DisplayName = strings.TrimSpace(*req.DisplayName)
	}
	if req.Bio != nil {
		profile.Bio = strings.TrimSpace(*req.Bio)
	}
	if req.TeamName != nil {
		profile.TeamName = strings.TrimSpace(*req.TeamName)
	}
	if req.Position != nil {
		profile.Position = *req.Position
	}

	if err := queries.UpdateProfile(profile); err != nil {
		log.Errorf("UpdateProfile: Failed to update profile for user %s: %v", claims.UserID.String(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to update profile", nil)
		return
	}

	log.Infof("Profile updated for user %s.", claims.UserID.String())
	utils.ResponseWithSuccess(c, http.StatusOK, "Profile updated successfully", h.newProfileResponse(profile))
}

// UpdateAvatar swaps the profile picture. The new image is stored first and
// the row updated to point at it; if the row update fails the new object is
// removed again, and the old object is only deleted once the swap is
// confirmed.
func (h *Handlers) UpdateAvatar(c *gin.Context) {
	claims, ok := claimsOrAbort(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		utils.ResponseWithError(c, http.StatusBadRequest, "Please select an image to upload", nil)
		return
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if !allowedAvatarTypes[contentType] {
		utils.ResponseWithError(c, http.StatusBadRequest, "Please upload a JPG, PNG, or WEBP image.", nil)
		return
	}
	if fileHeader.Size > maxAvatarSize {
		utils.ResponseWithError(c, http.StatusBadRequest, "Image is too large. Max 5MB.", nil)
		return
	}

	profile, err := queries.FindProfileByUserID(claims.UserID)
	if err != nil {
		log.Errorf("UpdateAvatar: Failed to fetch profile for user %s: %v", claims.UserID.String(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to retrieve profile", nil)
		return
	}
	if profile == nil {
		utils.ResponseWithError(c, http.StatusNotFound, "Profile not found", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Errorf("UpdateAvatar: Failed to open uploaded file: %v", err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to read uploaded file", nil)
		return
	}
	defer file.Close()

	newPath, err := h.Storage.SaveFile(storage.BucketAvatars, file, storage.FileInfo{
		Filename:    fileHeader.Filename,
		ContentType: contentType,
		Size:        fileHeader.Size,
	})
	if err != nil {
		log.Errorf("UpdateAvatar: Failed to store avatar: %v", err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to store avatar", nil)
		return
	}

	oldPath := profile.AvatarPath
	profile.AvatarPath = sql.NullString{String: newPath, Valid: true}

	if err := queries.UpdateProfile(profile); err != nil {
		log.Errorf("UpdateAvatar: Profile update failed, removing new avatar '%s': %v", newPath, err)
		if delErr := h.Storage.DeleteFile(storage.BucketAvatars, newPath); delErr != nil {
			log.Warnf("UpdateAvatar: Cleanup of new avatar '%s' failed: %v", newPath, delErr)
		}
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to update profile", nil)
		return
	}

	// The old asset goes only after the new one is confirmed.
	if oldPath.Valid {
		if err := h.Storage.DeleteFile(storage.BucketAvatars, oldPath.String); err != nil {
			log.Warnf("UpdateAvatar: Failed to remove old avatar '%s': %v", oldPath.String, err)
		}
	}

	log.Infof("Avatar updated for user %s.", claims.UserID.String())
	utils.ResponseWithSuccess(c, http.StatusOK, "Avatar updated successfully", h.newProfileResponse(profile))
}
