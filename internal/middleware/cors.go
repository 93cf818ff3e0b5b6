package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type CORSConfig struct {
	AllowOrigins []string
	AllowMethods []string
	AllowHeaders []string
	MaxAge       time.Duration
}

// DefaultCORSConfig allows any origin without credentials.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
}

func CORS(config CORSConfig) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  config.AllowMethods,
		AllowHeaders:  config.AllowHeaders,
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", HeaderXRequestID},
		MaxAge:        config.MaxAge,
	}
	if len(config.AllowOrigins) == 0 || (len(config.AllowOrigins) == 1 && config.AllowOrigins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = config.AllowOrigins
	}
	return cors.New(cfg)
}
