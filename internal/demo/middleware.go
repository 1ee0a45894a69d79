// Package demo implements the read-only demo mode used when serving a
// database created by cmd/generate_demo.
package demo

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextKeyDemoMode is set on every request while demo mode is active.
const ContextKeyDemoMode = "demo_mode"

// Middleware blocks write operations in demo mode.
// Safe methods are always allowed, and so are the login endpoints.
type Middleware struct {
	enabled bool
}

func NewMiddleware(enabled bool) *Middleware {
	return &Middleware{enabled: enabled}
}

func (m *Middleware) IsEnabled() bool {
	return m.enabled
}

// Handler returns a Gin middleware that rejects mutations with 403.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.enabled {
			c.Next()
			return
		}
		c.Set(ContextKeyDemoMode, true)

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		if isAllowedPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "This action is disabled in demo mode",
			"code":  "demo_mode",
		})
	}
}

func isAllowedPath(path string) bool {
	return strings.HasPrefix(path, "/api/auth/")
}
