package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	apperrors "github.com/jwalitptl/medicare-api/pkg/errors"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

const msgInternal = "Internal server error"

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: msg})
}

// ErrorHandler renders the last error pushed with c.Error. AppErrors keep
// their status and message; anything else is logged and becomes a 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		lastErr := c.Errors.Last()
		status := http.StatusInternalServerError
		msg := msgInternal

		if appErr, ok := apperrors.As(lastErr.Err); ok {
			status = appErr.StatusCode()
			msg = appErr.Message
		}

		if status >= http.StatusInternalServerError {
			log.Error().
				Err(lastErr.Err).
				Str("request_id", c.GetString(ContextRequestID)).
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Msg("Request error")
		}

		if c.Writer.Written() {
			return
		}
		c.JSON(status, ErrorResponse{Error: msg})
	}
}
