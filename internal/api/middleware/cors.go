package middleware

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSConfig selects which browser origins may drive the API. A "*" entry
// admits every origin.
type CORSConfig struct {
	Origins []string
	MaxAge  time.Duration
}

// DefaultCORSConfig admits any origin, for task-switcher UIs served from
// the device itself.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		Origins: []string{"*"},
		MaxAge:  12 * time.Hour,
	}
}

// CORS allows the read and action endpoints and the /ws upgrade
// cross-origin. The request id is exposed so UIs can correlate failures
// with the daemon log.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Content-Type", "Accept", "Origin", "Cache-Control", RequestIDHeader},
		ExposeHeaders:   []string{RequestIDHeader},
		AllowWebSockets: true,
		MaxAge:          cfg.MaxAge,
	}
	if len(cfg.Origins) == 0 || slices.Contains(cfg.Origins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.Origins
	}
	return cors.New(c)
}
