package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"slide-deck-platform/utils"
)

// RequestSizeLimit middleware limits the size of request bodies. It bounds
// the whole multipart body, so callers pass the file cap plus form overhead;
// precise per-file validation happens in the handler.
func RequestSizeLimit(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			utils.RespondWithError(c, http.StatusRequestEntityTooLarge,
				"request_too_large",
				"Request body exceeds maximum size",
				gin.H{
					"max_size": maxSize,
					"received": c.Request.ContentLength,
				})
			c.Abort()
			return
		}
		c.Next()
	}
}
