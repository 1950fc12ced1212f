package handlers

import (
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/Tracksy-dev/passer/pkg/storage"
	"github.com/Tracksy-dev/passer/pkg/utils"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

var mediaBuckets = map[string]bool{
	storage.BucketMatchVideos: true,
	storage.BucketAvatars:     true,
	storage.BucketReels:       true,
}

// ServeMedia streams a stored object. Going through the Storage interface
// instead of serving the directory directly keeps the URL scheme stable no
// matter where the objects live, and supports range requests for video
// scrubbing.
func (h *Handlers) ServeMedia(c *gin.Context) {
	bucket := c.Param("bucket")
	if !mediaBuckets[bucket] {
		utils.ResponseWithError(c, http.StatusNotFound, "Unknown media bucket", nil)
		return
	}

	path := strings.TrimPrefix(c.Param("path"), "/")
	if path == "" {
		utils.ResponseWithError(c, http.StatusNotFound, "Media not found", nil)
		return
	}

	file, err := h.Storage.OpenFile(bucket, path)
	if err != nil {
		log.Debugf("ServeMedia: Could not open %s/%s: %v", bucket, path, err)
		utils.ResponseWithError(c, http.StatusNotFound, "Media not found", nil)
		return
	}
	defer file.Close()

	http.ServeContent(c.Writer, c.Request, filepath.Base(path), time.Time{}, file)
}
