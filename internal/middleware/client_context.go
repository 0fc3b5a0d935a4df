package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docdesk/internal/env"
	"docdesk/internal/service"
)

const ContextKeyClientContext = "client_context"

// EnvironmentOptions are the build-level inputs of base address resolution.
type EnvironmentOptions struct {
	ConfiguredBase string
	Development    bool
}

// ClientContext returns middleware that attaches a per-request copy of base whose environment
// is read from the request the dashboard was reached through.
func ClientContext(base service.ClientContext, opts EnvironmentOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		cc := base
		cc.Environment = env.Static(RequestSnapshot(c.Request, opts))
		c.Set(ContextKeyClientContext, &cc)
		c.Next()
	}
}

// RequestSnapshot builds the environment snapshot for r. Forwarded headers from a reverse
// proxy take precedence over the connection itself.
func RequestSnapshot(r *http.Request, opts EnvironmentOptions) env.Snapshot {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := firstValue(r.Header.Get("X-Forwarded-Proto")); p != "" {
		scheme = strings.ToLower(p)
	}
	host := firstValue(r.Header.Get("X-Forwarded-Host"))
	if host == "" {
		host = r.Host
	}

	hostname := host
	if h, _, err := net.SplitHostPort(host); err == nil {
		hostname = h
	}

	snap := env.Snapshot{
		ConfiguredBase: opts.ConfiguredBase,
		Development:    opts.Development,
		Hostname:       hostname,
	}
	if host != "" {
		snap.Origin = scheme + "://" + host
	}
	return snap
}

func firstValue(h string) string {
	first, _, _ := strings.Cut(h, ",")
	return strings.TrimSpace(first)
}

// GetClientContext extracts the client context from the Gin context.
func GetClientContext(c *gin.Context) (*service.ClientContext, bool) {
	val, exists := c.Get(ContextKeyClientContext)
	if !exists {
		return nil, false
	}
	cc, ok := val.(*service.ClientContext)
	return cc, ok
}

// RequireClientContext aborts requests that reached a handler without a client context.
func RequireClientContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetClientContext(c); !ok {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   gin.H{"code": "INTERNAL_ERROR", "message": "client context missing"},
			})
			return
		}
		c.Next()
	}
}
