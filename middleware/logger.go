package middleware

import (
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger writes one line per request: method, path, client IP, status and
// latency. Static assets are skipped.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/static/") || strings.HasPrefix(path, "/uploads/") {
			return
		}
		latency := time.Since(start)
		status := c.Writer.Status()

		prefix := "➡️ "
		switch {
		case status >= 500:
			prefix = "❌"
		case status >= 400:
			prefix = "⚠️ "
		}
		log.Printf("%s %s %s %s %d %s", prefix, c.Request.Method, path, c.ClientIP(), status, latency)
	}
}
