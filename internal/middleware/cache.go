package middleware

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// CacheConfig represents cache control configuration
type CacheConfig struct {
	MaxAge               int
	Private              bool
	StaleWhileRevalidate int
	Vary                 []string
}

// PublicProfileCacheConfig lets CDNs hold published profiles briefly.
func PublicProfileCacheConfig() CacheConfig {
	return CacheConfig{
		MaxAge:               60,
		StaleWhileRevalidate: 300,
		Vary:                 []string{"Accept"},
	}
}

// Cache adds Cache-Control headers to GET responses. Everything
// else is marked no-store.
func Cache(config CacheConfig) gin.HandlerFunc {
	directives := make([]string, 0, 3)
	if config.Private {
		directives = append(directives, "private")
	} else {
		directives = append(directives, "public")
	}
	if config.MaxAge > 0 {
		directives = append(directives, "max-age="+strconv.Itoa(config.MaxAge))
	}
	if config.StaleWhileRevalidate > 0 {
		directives = append(directives, "stale-while-revalidate="+strconv.Itoa(config.StaleWhileRevalidate))
	}
	value := strings.Join(directives, ", ")
	vary := strings.Join(config.Vary, ", ")

	return func(c *gin.Context) {
		if c.Request.Method != "GET" {
			c.Header("Cache-Control", "no-store")
			c.Next()
			return
		}

		// Headers must be set before the handler writes the body.
		c.Header("Cache-Control", value)
		if vary != "" {
			c.Header("Vary", vary)
		}
		c.Next()
	}
}
