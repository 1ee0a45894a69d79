package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library-manager/internal/config"
	"github.com/mrlokans/library-manager/internal/entities"
)

// Context keys for staff data
const (
	ContextKeyStaffID  = "auth_staff_id"
	ContextKeyUsername = "auth_username"
	ContextKeyRole     = "auth_role"
	ContextKeyAuthType = "auth_type" // "session", "bearer", or "none"
)

// AuthType indicates how the request was authenticated
type AuthType string

const (
	AuthTypeNone    AuthType = "none"
	AuthTypeSession AuthType = "session"
	AuthTypeBearer  AuthType = "bearer"
)

// DefaultStaffID is used when authentication is disabled
const DefaultStaffID = uint(0)

// Middleware handles authentication for HTTP requests.
type Middleware struct {
	service        *Service
	sessionManager *SessionManager
	config         config.Auth
	publicPaths    map[string]bool
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(service *Service, sessionManager *SessionManager, cfg config.Auth) *Middleware {
	publicPaths := map[string]bool{
		"/":               true,
		"/health":         true,
		"/ping":           true,
		"/api/auth/login": true,
	}

	return &Middleware{
		service:        service,
		sessionManager: sessionManager,
		config:         cfg,
		publicPaths:    publicPaths,
	}
}

// Handler returns a Gin middleware handler that authenticates requests.
func (m *Middleware) Handler() gin.HandlerFunc {
	if m.config.Mode == config.AuthModeNone {
		return m.noAuthHandler()
	}
	return m.authHandler()
}

func (m *Middleware) noAuthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKeyStaffID, DefaultStaffID)
		c.Set(ContextKeyAuthType, AuthTypeNone)
		c.Next()
	}
}

func (m *Middleware) authHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.publicPaths[c.Request.URL.Path] {
			c.Set(ContextKeyStaffID, DefaultStaffID)
			c.Set(ContextKeyAuthType, AuthTypeNone)
			c.Next()
			return
		}

		// Bearer first so API clients never depend on cookies
		if staff := m.tryBearerAuth(c); staff != nil {
			m.setStaffContext(c, staff, AuthTypeBearer)
			c.Next()
			return
		}

		if staff := m.trySessionAuth(c); staff != nil {
			m.setStaffContext(c, staff, AuthTypeSession)
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "authentication required",
			"code":  "unauthorized",
		})
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

func (m *Middleware) tryBearerAuth(c *gin.Context) *entities.Staff {
	token := bearerToken(c.Request)
	if token == "" {
		return nil
	}

	staff, err := m.service.ValidateToken(c.Request.Context(), token)
	if err != nil {
		return nil
	}
	return staff
}

func (m *Middleware) trySessionAuth(c *gin.Context) *entities.Staff {
	if m.sessionManager == nil {
		return nil
	}

	staffID := m.sessionManager.GetStaffID(c.Request)
	if staffID == 0 {
		return nil
	}

	staff, err := m.service.GetStaffByID(c.Request.Context(), staffID)
	if err != nil {
		return nil
	}
	return staff
}

func (m *Middleware) setStaffContext(c *gin.Context, staff *entities.Staff, authType AuthType) {
	c.Set(ContextKeyStaffID, staff.ID)
	c.Set(ContextKeyUsername, staff.Username)
	c.Set(ContextKeyRole, staff.Role)
	c.Set(ContextKeyAuthType, authType)
}

// RequireRole returns a middleware that only admits the given roles.
func (m *Middleware) RequireRole(roles ...entities.StaffRole) gin.HandlerFunc {
	roleSet := make(map[entities.StaffRole]bool, len(roles))
	for _, r := range roles {
		roleSet[r] = true
	}

	return func(c *gin.Context) {
		if m.config.Mode == config.AuthModeNone {
			c.Next()
			return
		}

		if !roleSet[GetStaffRole(c)] {
			abortForbidden(c)
			return
		}
		c.Next()
	}
}

// RequireWriter admits roles allowed to mutate library records.
func (m *Middleware) RequireWriter() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.config.Mode == config.AuthModeNone {
			c.Next()
			return
		}

		if !GetStaffRole(c).CanWrite() {
			abortForbidden(c)
			return
		}
		c.Next()
	}
}

func abortForbidden(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"error": "insufficient permissions",
		"code":  "forbidden",
	})
}

// GetStaffID retrieves the authenticated staff ID from the context.
// Returns DefaultStaffID (0) if not authenticated or auth is disabled.
func GetStaffID(c *gin.Context) uint {
	if id, exists := c.Get(ContextKeyStaffID); exists {
		if staffID, ok := id.(uint); ok {
			return staffID
		}
	}
	return DefaultStaffID
}

func GetUsername(c *gin.Context) string {
	if name, exists := c.Get(ContextKeyUsername); exists {
		if username, ok := name.(string); ok {
			return username
		}
	}
	return ""
}

func GetStaffRole(c *gin.Context) entities.StaffRole {
	if r, exists := c.Get(ContextKeyRole); exists {
		if role, ok := r.(entities.StaffRole); ok {
			return role
		}
	}
	return ""
}

func GetAuthType(c *gin.Context) AuthType {
	if t, exists := c.Get(ContextKeyAuthType); exists {
		if authType, ok := t.(AuthType); ok {
			return authType
		}
	}
	return AuthTypeNone
}
