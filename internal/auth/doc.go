// Package auth provides staff authentication and authorization.
//
// It supports two modes:
//   - "none": no authentication (default), every request runs as DefaultStaffID
//   - "local": staff accounts with session cookies and Bearer API tokens
//
// # Configuration
//
//	AUTH_MODE=none   # Default, no auth required
//	AUTH_MODE=local  # Requires a staff account (see "library-manager staff create")
//
// For local mode, additional configuration:
//
//	AUTH_SESSION_SECRET=<hex-32-bytes>  # Also keys CSRF tokens; generated if empty
//	AUTH_SESSION_LIFETIME=24h
//	AUTH_TOKEN_EXPIRY=720h
//	AUTH_BCRYPT_COST=12
//	AUTH_SECURE_COOKIES=true
//
// Read-only routes accept any role. Mutating routes require admin or
// librarian, enforced by Middleware.RequireWriter.
//
// Extract the caller in handlers:
//
//	staffID := auth.GetStaffID(c)  // DefaultStaffID in "none" mode
package auth
