package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Logger logs one line per request. Bodies are never logged since they carry
// passwords and medical files.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		status := c.Writer.Status()
		logger := log.With().
			Str("request_id", c.GetString(ContextRequestID)).
			Str("user_id", c.GetString(ContextUserID)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("ip", c.ClientIP()).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("user_agent", c.Request.UserAgent()).
			Logger()

		switch {
		case status >= 500:
			logger.Error().Msg("Server error")
		case status >= 400:
			logger.Warn().Msg("Client error")
		default:
			logger.Info().Msg("Request processed")
		}
	}
}
