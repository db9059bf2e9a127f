package routes

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"slide-deck-platform/internal/config"
	"slide-deck-platform/internal/logger"
	"slide-deck-platform/models"
	"slide-deck-platform/utils"
)

// HandleConvert runs the full pipeline: input validation, upload spooling,
// renderer probe, strategy chain, durable save with read-back verification,
// then derived-index update. Conversion failures degrade to placeholders and
// still return 200; only persistence failures surface as errors.
func HandleConvert(cfg *config.Config, probe rendererProber, converter deckConverter, store presentationStore, index presentationIndex) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ConvertRequest
		if err := c.ShouldBind(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid form data", err.Error())
			return
		}

		file, err := c.FormFile("file")
		if err != nil {
			utils.RespondWithBadRequest(c, "No file uploaded", nil)
			return
		}

		ext := strings.ToLower(filepath.Ext(file.Filename))
		if !allowedExtension(cfg.AllowedExts, ext) {
			utils.RespondWithBadRequest(c, "Unsupported file type", gin.H{
				"extension": ext,
				"allowed":   cfg.AllowedExts,
			})
			return
		}

		if file.Size > cfg.MaxFileSize {
			utils.RespondWithBadRequest(c, "File too large", gin.H{
				"size":     file.Size,
				"max_size": cfg.MaxFileSize,
			})
			return
		}

		id := uuid.NewString()

		if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
			utils.RespondWithInternalError(c, "Failed to prepare upload storage", nil)
			return
		}

		uploadPath := filepath.Join(cfg.UploadDir, id+ext)
		if err := c.SaveUploadedFile(file, uploadPath); err != nil {
			utils.RespondWithInternalError(c, "Failed to store upload", nil)
			return
		}
		defer func() {
			if err := os.Remove(uploadPath); err != nil && !os.IsNotExist(err) {
				logger.Warn("Failed to remove uploaded file", "path", uploadPath, "error", err.Error())
			}
		}()

		title := strings.TrimSpace(req.Title)
		if title == "" {
			title = strings.TrimSuffix(file.Filename, ext)
		}

		ctx := c.Request.Context()
		available := probe.Probe(ctx)

		result := converter.Convert(ctx, uploadPath, id, title, available)

		presentation := &models.Presentation{
			ID:            id,
			OriginalName:  file.Filename,
			Title:         title,
			Summary:       strings.TrimSpace(req.Summary),
			Author:        strings.TrimSpace(req.Author),
			AuthorID:      strings.TrimSpace(req.AuthorID),
			Topics:        parseTopics(req.Topics),
			Slides:        result.Slides,
			SlideTexts:    result.SlideTexts,
			SlideCount:    len(result.Slides),
			IsPlaceholder: result.IsPlaceholder,
			Converted:     time.Now(),
		}

		// Save plus independent read-back verification. Losing a conversion
		// silently is the one failure that must never look like success.
		if err := store.Save(ctx, presentation); err != nil {
			logger.Error("Failed to save presentation", "id", id, "error", err.Error())
			cleanupSlides(cfg, id)
			utils.RespondWithInternalError(c, "Failed to persist conversion result", nil)
			return
		}

		if !store.Verify(ctx, id) {
			logger.Error("Read-back verification failed", "id", id)
			cleanupSlides(cfg, id)
			utils.RespondWithInternalError(c, "Conversion result could not be verified", nil)
			return
		}

		index.AddPresentation(presentation)

		status := models.StatusConverted
		if presentation.IsPlaceholder {
			status = models.StatusPlaceholder
		}

		c.JSON(http.StatusOK, models.ConvertResponse{
			ID:            presentation.ID,
			Title:         presentation.Title,
			SlideCount:    presentation.SlideCount,
			Slides:        presentation.Slides,
			SlideTexts:    presentation.SlideTexts,
			Topics:        presentation.Topics,
			IsPlaceholder: presentation.IsPlaceholder,
			Status:        status,
		})
	}
}

func allowedExtension(allowed []string, ext string) bool {
	for _, a := range allowed {
		if strings.EqualFold(strings.TrimSpace(a), ext) {
			return true
		}
	}
	return false
}

func parseTopics(raw string) []string {
	parts := strings.Split(raw, ",")
	topics := make([]string, 0, len(parts))
	for _, part := range parts {
		if t := strings.TrimSpace(part); t != "" {
			topics = append(topics, t)
		}
	}
	return topics
}

func cleanupSlides(cfg *config.Config, id string) {
	dir := filepath.Join(cfg.SlidesDir, id)
	if err := os.RemoveAll(dir); err != nil {
		logger.Warn("Failed to clean up slide directory", "dir", dir, "error", err.Error())
	}
}
