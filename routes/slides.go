package routes

import (
	"os"
	"path/filepath"
	"regexp"

	"github.com/gin-gonic/gin"

	"slide-deck-platform/internal/config"
	"slide-deck-platform/utils"
)

// Clients construct these URLs from slideCount alone, so the naming pattern
// is part of the API contract.
var slideNamePattern = regexp.MustCompile(`^slide-[0-9]+\.jpg$`)

// SetupSlideRoutes registers static retrieval of generated slide images
func SetupSlideRoutes(router *gin.Engine, cfg *config.Config) {
	router.GET("/slides/:id/:filename", HandleServeSlide(cfg))
}

// HandleServeSlide serves a generated slide image from disk
func HandleServeSlide(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		filename := c.Param("filename")

		// Reject anything outside the canonical naming scheme; this also
		// blocks path traversal through the filename segment.
		if !slideNamePattern.MatchString(filename) || filepath.Base(id) != id {
			utils.RespondWithBadRequest(c, "Invalid slide path", nil)
			return
		}

		filePath := filepath.Join(cfg.SlidesDir, id, filename)
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			utils.RespondWithNotFound(c, "Slide not found")
			return
		}

		c.Header("Content-Type", "image/jpeg")
		c.Header("Cache-Control", "public, max-age=31536000")
		c.File(filePath)
	}
}
