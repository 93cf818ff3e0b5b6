package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DefaultMaxBodySize leaves room for a 10MB record plus multipart framing.
const DefaultMaxBodySize = 32 << 20

// SizeLimit rejects bodies larger than maxBytes and caps what handlers can
// read from the rest.
func SizeLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			abort(c, http.StatusRequestEntityTooLarge, "Request entity too large")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
