package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

const storePingTimeout = 2 * time.Second

// RequireStore answers 503 before any handler runs when the store is down.
// Paths in skip bypass the check.
func RequireStore(store Pinger, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]bool, len(skip))
	for _, p := range skip {
		skipped[p] = true
	}

	return func(c *gin.Context) {
		if skipped[c.Request.URL.Path] {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), storePingTimeout)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("path", c.Request.URL.Path).Msg("store unreachable")
			abort(c, http.StatusServiceUnavailable, "Database connection error")
			return
		}
		c.Next()
	}
}
