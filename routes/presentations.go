package routes

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"slide-deck-platform/internal/config"
	"slide-deck-platform/internal/logger"
	"slide-deck-platform/models"
	"slide-deck-platform/utils"
)

// SetupCatalogRoutes registers the presentation catalog and user-history endpoints
func SetupCatalogRoutes(router *gin.Engine, cfg *config.Config, store presentationStore, index presentationIndex) {
	router.GET("/presentation/:id", HandleGetPresentation(store, index))
	router.PUT("/presentation/:id", HandleUpdatePresentation(store, index))
	router.DELETE("/presentation/:id", HandleDeletePresentation(cfg, store, index))

	router.GET("/presentations", HandleListPresentations(store))
	router.GET("/presentations/topic/:topic", HandleListByTopic(store, index))
	router.GET("/topics", HandleListTopics(store, index))

	router.GET("/user/:userId/seen/:id", HandleGetSeen(index))
	router.POST("/user/:userId/seen/:id", HandleMarkSeen(store, index))
	router.GET("/user/:userId/unseen/:topic", HandleUnseenByTopic(index))

	router.POST("/sync", HandleSync(index))
}

// HandleGetPresentation returns the full record. An optional userId query
// increments the view counter and records the view in the user's history.
func HandleGetPresentation(store presentationStore, index presentationIndex) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		presentation, err := store.Find(c.Request.Context(), id)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to load presentation", nil)
			return
		}
		if presentation == nil {
			utils.RespondWithNotFound(c, "Presentation not found")
			return
		}

		if userID := c.Query("userId"); userID != "" {
			if err := store.IncrementView(c.Request.Context(), id); err != nil {
				logger.Warn("Failed to increment view count", "id", id, "error", err.Error())
			} else {
				presentation.ViewCount++
			}
			index.MarkSeen(userID, id)
		}

		c.JSON(http.StatusOK, presentation)
	}
}

// HandleUpdatePresentation applies a partial metadata update
func HandleUpdatePresentation(store presentationStore, index presentationIndex) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		var req models.UpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid update body", err.Error())
			return
		}

		matched, err := store.Update(c.Request.Context(), id, &req)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to update presentation", nil)
			return
		}
		if !matched {
			utils.RespondWithNotFound(c, "Presentation not found")
			return
		}

		presentation, err := store.Find(c.Request.Context(), id)
		if err != nil || presentation == nil {
			utils.RespondWithInternalError(c, "Failed to load updated presentation", nil)
			return
		}

		index.ApplyUpdate(presentation)

		c.JSON(http.StatusOK, presentation)
	}
}

// HandleDeletePresentation soft-deletes the record and removes its slide
// files immediately; the database row survives with the deletion flag set
func HandleDeletePresentation(cfg *config.Config, store presentationStore, index presentationIndex) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		deleted, err := store.SoftDelete(c.Request.Context(), id)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to delete presentation", nil)
			return
		}
		if !deleted {
			utils.RespondWithNotFound(c, "Presentation not found")
			return
		}

		slideDir := filepath.Join(cfg.SlidesDir, id)
		if err := os.RemoveAll(slideDir); err != nil {
			logger.Warn("Failed to remove slide files", "dir", slideDir, "error", err.Error())
		}

		index.RemovePresentation(id)

		c.JSON(http.StatusOK, gin.H{"message": "Presentation deleted"})
	}
}

// HandleListPresentations lists all live records, newest first
func HandleListPresentations(store presentationStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		presentations, err := store.List(c.Request.Context())
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to list presentations", nil)
			return
		}
		if presentations == nil {
			presentations = []*models.Presentation{}
		}

		c.JSON(http.StatusOK, gin.H{
			"presentations": presentations,
			"total":         len(presentations),
		})
	}
}

// HandleListByTopic filters by case-insensitive substring topic match,
// consulting the derived index first and the store as fallback
func HandleListByTopic(store presentationStore, index presentationIndex) gin.HandlerFunc {
	return func(c *gin.Context) {
		topic := c.Param("topic")
		ctx := c.Request.Context()

		ids := index.IDsByTopic(ctx, topic)

		presentations := make([]*models.Presentation, 0, len(ids))
		for _, id := range ids {
			p, err := store.Find(ctx, id)
			if err != nil {
				utils.RespondWithInternalError(c, "Failed to load presentations", nil)
				return
			}
			if p != nil {
				presentations = append(presentations, p)
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"topic":         topic,
			"presentations": presentations,
			"total":         len(presentations),
		})
	}
}

// HandleListTopics returns all known topic labels
func HandleListTopics(store presentationStore, index presentationIndex) gin.HandlerFunc {
	return func(c *gin.Context) {
		topics := index.Topics()

		// Cold index: derive directly from the store
		if len(topics) == 0 {
			presentations, err := store.List(c.Request.Context())
			if err != nil {
				utils.RespondWithInternalError(c, "Failed to list topics", nil)
				return
			}
			// Dedup on the lowercased label, matching the warm index keys
			seen := make(map[string]bool)
			for _, p := range presentations {
				for _, t := range p.Topics {
					key := strings.ToLower(t)
					if !seen[key] {
						seen[key] = true
						topics = append(topics, t)
					}
				}
			}
		}

		c.JSON(http.StatusOK, gin.H{"topics": topics})
	}
}

// HandleGetSeen reports whether a user has viewed a presentation
func HandleGetSeen(index presentationIndex) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"userId": c.Param("userId"),
			"id":     c.Param("id"),
			"seen":   index.HasSeen(c.Param("userId"), c.Param("id")),
		})
	}
}

// HandleMarkSeen records a view in the user's process-lifetime history
func HandleMarkSeen(store presentationStore, index presentationIndex) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		presentation, err := store.Find(c.Request.Context(), id)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to load presentation", nil)
			return
		}
		if presentation == nil {
			utils.RespondWithNotFound(c, "Presentation not found")
			return
		}

		index.MarkSeen(c.Param("userId"), id)

		c.JSON(http.StatusOK, gin.H{"message": "Marked as seen"})
	}
}

// HandleUnseenByTopic lists the topic's presentations the user has not viewed
func HandleUnseenByTopic(index presentationIndex) gin.HandlerFunc {
	return func(c *gin.Context) {
		ids := index.UnseenByTopic(c.Request.Context(), c.Param("userId"), c.Param("topic"))

		c.JSON(http.StatusOK, gin.H{
			"topic":  c.Param("topic"),
			"unseen": ids,
			"total":  len(ids),
		})
	}
}

// HandleSync triggers a manual rebuild of the derived index
func HandleSync(index presentationIndex) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := index.Rebuild(c.Request.Context()); err != nil {
			utils.RespondWithInternalError(c, "Index rebuild failed", nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Index rebuilt"})
	}
}
