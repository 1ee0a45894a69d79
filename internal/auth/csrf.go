package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
)

// CSRFTokenHeader carries the CSRF token on responses and is expected back on
// unsafe requests made with a session cookie.
const CSRFTokenHeader = "X-CSRF-Token"

const contextKeyCSRFToken = "csrf_token"

// CSRFMiddleware creates a Gin middleware for CSRF protection.
// Checks are skipped for requests with a valid bearer token and for requests
// that carry no session cookie, since neither can ride on ambient credentials.
// Safe methods (GET, HEAD, OPTIONS, TRACE) are never checked but always
// receive a token in the X-CSRF-Token response header.
func CSRFMiddleware(secret []byte, secure bool, authService *Service, sessionCookie string) gin.HandlerFunc {
	csrfProtect := csrf.Protect(
		secret,
		csrf.Secure(secure),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteStrictMode),
		csrf.Path("/"),
		csrf.RequestHeader(CSRFTokenHeader),
		csrf.ErrorHandler(http.HandlerFunc(csrfErrorHandler)),
	)

	return func(c *gin.Context) {
		if hasValidBearer(c, authService) {
			c.Next()
			return
		}

		r := c.Request
		if _, err := r.Cookie(sessionCookie); err != nil && !isSafeMethod(r.Method) {
			c.Next()
			return
		}
		if r.TLS == nil && r.Header.Get("X-Forwarded-Proto") != "https" {
			r = csrf.PlaintextHTTPRequest(r)
		}

		passed := false
		handler := csrfProtect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			passed = true
			token := csrf.Token(r)
			c.Set(contextKeyCSRFToken, token)
			c.Header(CSRFTokenHeader, token)
			c.Request = r
			c.Next()
		}))

		handler.ServeHTTP(c.Writer, r)
		if !passed {
			c.Abort()
		}
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

func csrfErrorHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"error":"CSRF token invalid or missing","code":"forbidden"}`))
}

// hasValidBearer reports whether the request authenticates with a valid API token.
func hasValidBearer(c *gin.Context, authService *Service) bool {
	if authService == nil {
		return false
	}
	token := bearerToken(c.Request)
	if token == "" {
		return false
	}
	_, err := authService.ValidateToken(c.Request.Context(), token)
	return err == nil
}

// GetCSRFToken retrieves the CSRF token from the Gin context.
func GetCSRFToken(c *gin.Context) string {
	if token, exists := c.Get(contextKeyCSRFToken); exists {
		if t, ok := token.(string); ok {
			return t
		}
	}
	return ""
}
