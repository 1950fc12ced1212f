package handlers

import (
	"net/http"

	"github.com/Tracksy-dev/passer/pkg/config"
	"github.com/Tracksy-dev/passer/pkg/middleware"
	"github.com/Tracksy-dev/passer/pkg/services"
	"github.com/Tracksy-dev/passer/pkg/storage"
	"github.com/Tracksy-dev/passer/pkg/utils"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Handlers holds the dependencies shared across the API handlers.
type Handlers struct {
	Config  *config.Config
	Storage storage.Storage
	Tokens  *services.TokenService
}

func NewHandlers(cfg *config.Config, store storage.Storage, tokens *services.TokenService) *Handlers {
	return &Handlers{
		Config:  cfg,
		Storage: store,
		Tokens:  tokens,
	}
}

// claimsOrAbort pulls the authenticated user's claims out of the gin
// context, writing the error response itself when they are missing.
func claimsOrAbort(c *gin.Context) (*services.Claims, bool) {
	claims, exists := middleware.GetUserClaimsFromContext(c)
	if !exists {
		log.Error("User claims not found in context. AuthMiddleware likely failed or wasn't applied.")
		utils.ResponseWithError(c, http.StatusInternalServerError, "Authentication error: User claims not found", nil)
		return nil, false
	}
	return claims, true
}
