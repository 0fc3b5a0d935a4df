package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"docdesk/internal/env"
)

const ContextKeyRequestID = "request_id"

// RequestID injects an X-Request-ID header into the request and response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(ContextKeyRequestID, requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// Logger writes one line per request: id, method, path, status, latency and, once the client
// context is attached, the parsing service base the request resolved to. Paths in skip (health
// probes) are only logged when they fail.
func Logger(skip ...string) gin.HandlerFunc {
	quiet := make(map[string]bool, len(skip))
	for _, p := range skip {
		quiet[p] = true
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		if quiet[c.Request.URL.Path] && status < 400 {
			return
		}

		upstream := "-"
		if cc, ok := GetClientContext(c); ok && cc.Environment != nil {
			upstream = env.Resolve(cc.Environment())
		}
		log.Printf("[%s] %s %s %d %s upstream=%s",
			c.GetString(ContextKeyRequestID), c.Request.Method, c.Request.URL.Path,
			status, time.Since(start), upstream)
	}
}

// Recovery recovers from panics and returns a 500 error.
func Recovery() gin.HandlerFunc {
	return gin.Recovery()
}
