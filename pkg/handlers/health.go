package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func HealthCheck(c *gin.Context) {
	log.Debug("Health check endpoint hit")
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Passer API is running",
	})
}
