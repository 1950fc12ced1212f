package handlers

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/Tracksy-dev/passer/pkg/db"
	"github.com/Tracksy-dev/passer/pkg/db/queries"
	"github.com/Tracksy-dev/passer/pkg/services"
	"github.com/Tracksy-dev/passer/pkg/storage"
	"github.com/Tracksy-dev/passer/pkg/utils"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// usernameRe is the closed form of a valid profile username: 3-20 chars,
// letters, digits and underscore.
var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=20"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=100"`
}

type PasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type PasswordResetConfirmRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=100"`
}

// RegisterUser creates the credentials row and the public profile that
// accompanies it. A failed profile insert rolls the user row back so a
// half-created account never lingers.
func (h *Handlers) RegisterUser(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debugf("RegisterUser: Invalid request body: %v", err)
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	req.Email = strings.ToLower(req.Email)

	if !usernameRe.MatchString(req.Username) {
		utils.ResponseWithError(c, http.StatusBadRequest, "Username must be 3-20 characters: letters, numbers and underscore only", nil)
		return
	}

	existingUser, err := queries.FindUserByEmail(req.Email)
	if err != nil {
		log.Errorf("RegisterUser: Error finding user by email '%s': %v", req.Email, err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Error checking account availability", nil)
		return
	}
	if existingUser != nil {
		log.Debugf("RegisterUser: User with email '%s' already exists.", req.Email)
		utils.ResponseWithError(c, http.StatusConflict, "User with email already exists", nil)
		return
	}

	existingProfile, err := queries.FindProfileByUsername(req.Username)
	if err != nil {
		log.Errorf("RegisterUser: Error checking username '%s': %v", req.Username, err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Error checking username availability", nil)
		return
	}
	if existingProfile != nil {
		utils.ResponseWithError(c, http.StatusConflict, "Username is already taken", nil)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Errorf("RegisterUser: Error hashing password: %v", err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Error creating account", nil)
		return
	}

	user := &db.User{
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
	}
	createdUser, err := queries.CreateUser(user)
	if err != nil {
		log.Errorf("RegisterUser: Error creating user: %v", err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Error creating user", nil)
		return
	}

	profile := &db.Profile{
		UserID:   createdUser.ID,
		Username: req.Username,
	}
	if _, err := queries.CreateProfile(profile); err != nil {
		log.Errorf("RegisterUser: Error creating profile, rolling back user '%s': %v", createdUser.ID.String(), err)
		if delErr := queries.DeleteUser(createdUser.ID); delErr != nil {
			log.Errorf("RegisterUser: Rollback of user '%s' failed: %v", createdUser.ID.String(), delErr)
		}
		utils.ResponseWithError(c, http.StatusInternalServerError, "Error creating profile", nil)
		return
	}

	log.Infof("User with ID '%s' created.", createdUser.ID.String())
	utils.ResponseWithSuccess(c, http.StatusCreated, "User created successfully", nil)
}

func (h *Handlers) LoginUser(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debugf("LoginUser: Invalid request body: %v", err)
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	req.Email = strings.ToLower(req.Email)

	user, err := queries.FindUserByEmail(req.Email)
	if err != nil {
		log.Errorf("LoginUser: Error finding user by email: %v", err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Login failed", nil)
		return
	}
	if user == nil {
		log.Debugf("LoginUser: User with email '%s' not found.", req.Email)
		utils.ResponseWithError(c, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		log.Debugf("LoginUser: Invalid password for user '%s'.", req.Email)
		utils.ResponseWithError(c, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}

	// The token carries the profile username, not just the email.
	username := ""
	if profile, err := queries.FindProfileByUserID(user.ID); err == nil && profile != nil {
		username = profile.Username
	}

	token, err := h.Tokens.GenerateToken(user.ID, user.Email, username)
	if err != nil {
		log.Errorf("LoginUser: Failed to generate JWT token for user %s: %v", user.Email, err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to generate authentication token", nil)
		return
	}

	log.Infof("User %s logged in successfully.", user.Email)
	utils.ResponseWithSuccess(c, http.StatusOK, "Login successful", gin.H{"token": token})
}

// RequestPasswordReset issues a short-lived reset token for the account
// behind the given email. Mail delivery is not wired here, so the token is
// returned in the response body; the response shape is the same whether or
// not the account exists.
func (h *Handlers) RequestPasswordReset(c *gin.Context) {
	var req PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debugf("RequestPasswordReset: Invalid request body: %v", err)
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	req.Email = strings.ToLower(req.Email)

	user, err := queries.FindUserByEmail(req.Email)
	if err != nil {
		log.Errorf("RequestPasswordReset: Error finding user by email: %v", err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Password reset failed", nil)
		return
	}
	if user == nil {
		// Do not reveal whether the account exists.
		log.Debugf("RequestPasswordReset: No account for email '%s'.", req.Email)
		utils.ResponseWithSuccess(c, http.StatusOK, "If the account exists, a reset token has been issued", nil)
		return
	}

	token, err := h.Tokens.GenerateResetToken(user.ID, user.Email)
	if err != nil {
		log.Errorf("RequestPasswordReset: Failed to generate reset token for user %s: %v", user.Email, err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Password reset failed", nil)
		return
	}

	log.Infof("Password reset token issued for user '%s'.", user.ID.String())
	utils.ResponseWithSuccess(c, http.StatusOK, "If the account exists, a reset token has been issued", gin.H{"reset_token": token})
}

// ConfirmPasswordReset redeems a reset token and sets the new password.
func (h *Handlers) ConfirmPasswordReset(c *gin.Context) {
	var req PasswordResetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debugf("ConfirmPasswordReset: Invalid request body: %v", err)
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	claims, err := h.Tokens.ValidateResetToken(req.Token)
	if err != nil {
		log.Debugf("ConfirmPasswordReset: Invalid reset token: %v", err)
		utils.ResponseWithError(c, http.StatusUnauthorized, "Invalid or expired reset token", nil)
		return
	}

	user, err := queries.FindUserByID(claims.UserID)
	if err != nil {
		log.Errorf("ConfirmPasswordReset: Error finding user '%s': %v", claims.UserID.String(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to reset password", nil)
		return
	}
	if user == nil {
		utils.ResponseWithError(c, http.StatusNotFound, "Account not found", nil)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Errorf("ConfirmPasswordReset: Error hashing password: %v", err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to reset password", nil)
		return
	}

	if err := queries.UpdateUserPassword(user.ID, string(hashedPassword)); err != nil {
		log.Errorf("ConfirmPasswordReset: Failed to update password for user '%s': %v", user.ID.String(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to reset password", nil)
		return
	}

	log.Infof("Password reset completed for user '%s'.", user.ID.String())
	utils.ResponseWithSuccess(c, http.StatusOK, "Password updated successfully", nil)
}

// UpdatePassword changes the authenticated user's password after verifying
// the current one.
func (h *Handlers) UpdatePassword(c *gin.Context) {
	var req UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debugf("UpdatePassword: Invalid request body: %v", err)
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	claims, ok := claimsOrAbort(c)
	if !ok {
		return
	}

	user, err := queries.FindUserByID(claims.UserID)
	if err != nil {
		log.Errorf("UpdatePassword: Error finding user '%s': %v", claims.UserID.String(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to load account", nil)
		return
	}
	if user == nil {
		utils.ResponseWithError(c, http.StatusNotFound, "Account not found", nil)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		utils.ResponseWithError(c, http.StatusUnauthorized, "Current password is incorrect", nil)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Errorf("UpdatePassword: Error hashing password: %v", err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to update password", nil)
		return
	}

	if err := queries.UpdateUserPassword(user.ID, string(hashedPassword)); err != nil {
		log.Errorf("UpdatePassword: Failed to update password for user '%s': %v", user.ID.String(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to update password", nil)
		return
	}

	log.Infof("Password updated for user '%s'.", user.ID.String())
	utils.ResponseWithSuccess(c, http.StatusOK, "Password updated successfully", nil)
}

// DeleteAccount removes the authenticated user's account: stored objects
// first (best effort), then the user row, which cascades to profile,
// matches, points and reel jobs.
func (h *Handlers) DeleteAccount(c *gin.Context) {
	claims, ok := claimsOrAbort(c)
	if !ok {
		return
	}

	log.Infof("DeleteAccount: Attempting deletion for user '%s'.", claims.UserID.String())

	user, err := queries.FindUserByID(claims.UserID)
	if err != nil {
		log.Errorf("DeleteAccount: Error finding user '%s': %v", claims.UserID.String(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to find user account", nil)
		return
	}
	if user == nil {
		utils.ResponseWithError(c, http.StatusNotFound, "User account not found or already deleted.", nil)
		return
	}

	// Stored objects do not cascade; clean them up before the rows go.
	h.removeUserObjects(claims)

	if err := queries.DeleteUser(user.ID); err != nil {
		log.Errorf("DeleteAccount: Error deleting user '%s': %v", user.ID.String(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to delete user account", nil)
		return
	}

	log.Infof("User with ID '%s' deleted successfully.", user.ID.String())
	utils.ResponseWithSuccess(c, http.StatusNoContent, "User account deleted successfully", nil)
}

// removeUserObjects deletes every stored object referenced by the user's
// rows. Failures are logged and skipped: an orphaned file is preferable to
// an undeletable account.
func (h *Handlers) removeUserObjects(claims *services.Claims) {
	matches, err := queries.FindMatchesByUserID(claims.UserID)
	if err != nil {
		log.Errorf("DeleteAccount: Could not list matches for cleanup: %v", err)
		return
	}
	for _, m := range matches {
		jobs, err := queries.FindReelJobsByMatchID(m.ID)
		if err == nil {
			for _, j := range jobs {
				if j.OutputPath.Valid {
					if err := h.Storage.DeleteFile(storage.BucketReels, j.OutputPath.String); err != nil {
						log.Warnf("DeleteAccount: Failed to remove reel output '%s': %v", j.OutputPath.String, err)
					}
				}
			}
		}
		if m.VideoPath != "" {
			if err := h.Storage.DeleteFile(storage.BucketMatchVideos, m.VideoPath); err != nil {
				log.Warnf("DeleteAccount: Failed to remove match video '%s': %v", m.VideoPath, err)
			}
		}
	}

	if profile, err := queries.FindProfileByUserID(claims.UserID); err == nil && profile != nil && profile.AvatarPath.Valid {
		if err := h.Storage.DeleteFile(storage.BucketAvatars, profile.AvatarPath.String); err != nil {
			log.Warnf("DeleteAccount: Failed to remove avatar '%s': %v", profile.AvatarPath.String, err)
		}
	}
}
