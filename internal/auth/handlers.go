package auth

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/mrlokans/library-manager/internal/config"
)

// AuthRecorder receives login and token events for the audit trail.
type AuthRecorder interface {
	LogAuth(staffID uint, description, ipAddr, userAgent string, success bool)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthController serves the staff login, logout and API token endpoints.
type AuthController struct {
	service        *Service
	sessionManager *SessionManager
	rateLimiter    *RateLimiter
	recorder       AuthRecorder
}

// NewAuthController creates a new authentication controller. recorder may be nil.
func NewAuthController(service *Service, sessionManager *SessionManager, cfg config.Auth, recorder AuthRecorder) *AuthController {
	rateLimiter := NewRateLimiter(RateLimitConfig{
		MaxAttempts:     cfg.MaxLoginAttempts,
		WindowDuration:  cfg.RateLimitWindow,
		LockoutDuration: cfg.LockoutDuration,
	})

	return &AuthController{
		service:        service,
		sessionManager: sessionManager,
		rateLimiter:    rateLimiter,
		recorder:       recorder,
	}
}

// RegisterRoutes registers authentication routes under /api/auth.
func (ac *AuthController) RegisterRoutes(router gin.IRouter) {
	group := router.Group("/api/auth")
	group.POST("/login", ac.rateLimiter.RateLimitMiddleware(), ac.Login)
	group.POST("/logout", ac.Logout)
	group.GET("/me", ac.Me)
	group.POST("/token", ac.GenerateToken)
	group.DELETE("/token", ac.RevokeToken)
}

// Stop cleans up the rate limiter goroutine.
func (ac *AuthController) Stop() {
	if ac.rateLimiter != nil {
		ac.rateLimiter.Stop()
	}
}

// Login authenticates a staff account and starts a session.
func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required", "code": "invalid"})
		return
	}

	clientIP := c.ClientIP()
	allowed, retryAfter := ac.rateLimiter.Allow(clientIP, req.Username)
	if !allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       "too many login attempts",
			"code":        "rate_limited",
			"retry_after": retryAfter.String(),
		})
		return
	}

	staff, err := ac.service.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		ac.rateLimiter.RecordFailure(clientIP, req.Username)
		ac.record(c, 0, "login failed for "+req.Username, false)

		message := "invalid username or password"
		if errors.Is(err, ErrAccountLocked) {
			message = "account is locked, try again later"
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": message, "code": "unauthorized"})
		return
	}
	ac.rateLimiter.RecordSuccess(clientIP, req.Username)

	if ac.sessionManager != nil {
		if err := ac.sessionManager.CreateSession(c.Request, staff); err != nil {
			log.Error("Failed to create session", "staff_id", staff.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session", "code": "internal"})
			return
		}
	}
	ac.record(c, staff.ID, "login", true)

	c.JSON(http.StatusOK, gin.H{"staff": staff})
}

// Logout destroys the current session.
func (ac *AuthController) Logout(c *gin.Context) {
	if ac.sessionManager != nil {
		if err := ac.sessionManager.DestroySession(c.Request); err != nil {
			log.Error("Failed to destroy session", "error", err)
		}
	}
	ac.record(c, GetStaffID(c), "logout", true)
	c.Status(http.StatusNoContent)
}

// Me returns the authenticated staff account. Session clients read their
// CSRF token from the response header.
func (ac *AuthController) Me(c *gin.Context) {
	staffID := GetStaffID(c)
	if staffID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required", "code": "unauthorized"})
		return
	}

	staff, err := ac.service.GetStaffByID(c.Request.Context(), staffID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required", "code": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"staff":     staff,
		"auth_type": GetAuthType(c),
	})
}

// GenerateToken creates a new API token for the authenticated staff account.
func (ac *AuthController) GenerateToken(c *gin.Context) {
	staffID := GetStaffID(c)
	if staffID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required", "code": "unauthorized"})
		return
	}

	token, err := ac.service.GenerateToken(c.Request.Context(), staffID)
	if err != nil {
		log.Error("Failed to generate token", "staff_id", staffID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token", "code": "internal"})
		return
	}
	ac.record(c, staffID, "api token generated", true)

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"message": "Store this token securely - it will not be shown again",
	})
}

// RevokeToken revokes the API token of the authenticated staff account.
func (ac *AuthController) RevokeToken(c *gin.Context) {
	staffID := GetStaffID(c)
	if staffID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required", "code": "unauthorized"})
		return
	}

	if err := ac.service.RevokeToken(c.Request.Context(), staffID); err != nil {
		log.Error("Failed to revoke token", "staff_id", staffID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token", "code": "internal"})
		return
	}
	ac.record(c, staffID, "api token revoked", true)

	c.JSON(http.StatusOK, gin.H{"message": "token revoked"})
}

func (ac *AuthController) record(c *gin.Context, staffID uint, description string, success bool) {
	if ac.recorder == nil {
		return
	}
	ac.recorder.LogAuth(staffID, description, c.ClientIP(), c.Request.UserAgent(), success)
}
