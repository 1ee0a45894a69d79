package auth

import (
	"database/sql"
	"encoding/gob"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"

	"github.com/mrlokans/library-manager/internal/config"
	"github.com/mrlokans/library-manager/internal/entities"
)

// Session data keys
const (
	SessionKeyStaffID  = "staff_id"
	SessionKeyUsername = "username"
	SessionKeyRole     = "role"
	SessionKeyLoginAt  = "login_at"
)

func init() {
	gob.Register(entities.StaffRole(""))
	gob.Register(time.Time{})
}

// SessionManager wraps scs.SessionManager with staff-specific accessors.
type SessionManager struct {
	*scs.SessionManager
}

// NewSessionManager creates a configured session manager. Sessions are persisted
// in the sqlite database; other drivers fall back to an in-process store.
func NewSessionManager(sqlDB *sql.DB, driver string, cfg config.Auth) (*SessionManager, error) {
	sm := scs.New()

	if driver == config.DriverSQLite {
		_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			expiry REAL NOT NULL
		);
		CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
		if err != nil {
			return nil, err
		}
		sm.Store = sqlite3store.New(sqlDB)
	} else {
		sm.Store = memstore.New()
	}

	lifetime := cfg.SessionLifetime
	if lifetime <= 0 {
		lifetime = 24 * time.Hour
	}
	sm.Lifetime = lifetime
	sm.IdleTimeout = lifetime / 2

	sm.Cookie.Name = "session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteStrictMode
	sm.Cookie.Path = "/"

	return &SessionManager{SessionManager: sm}, nil
}

// CreateSession stores the staff account in a freshly renewed session.
func (sm *SessionManager) CreateSession(r *http.Request, staff *entities.Staff) error {
	// Renew token to prevent session fixation
	if err := sm.RenewToken(r.Context()); err != nil {
		return err
	}

	sm.Put(r.Context(), SessionKeyStaffID, int(staff.ID))
	sm.Put(r.Context(), SessionKeyUsername, staff.Username)
	sm.Put(r.Context(), SessionKeyRole, staff.Role)
	sm.Put(r.Context(), SessionKeyLoginAt, time.Now())

	return nil
}

func (sm *SessionManager) DestroySession(r *http.Request) error {
	return sm.Destroy(r.Context())
}

// GetStaffID returns 0 if the session is not authenticated.
func (sm *SessionManager) GetStaffID(r *http.Request) uint {
	return uint(sm.GetInt(r.Context(), SessionKeyStaffID))
}

func (sm *SessionManager) GetStaffRole(r *http.Request) entities.StaffRole {
	role, ok := sm.Get(r.Context(), SessionKeyRole).(entities.StaffRole)
	if !ok {
		return ""
	}
	return role
}

func (sm *SessionManager) IsAuthenticated(r *http.Request) bool {
	return sm.GetStaffID(r) != 0
}

// SessionData holds the session information for a request.
type SessionData struct {
	StaffID  uint               `json:"staff_id"`
	Username string             `json:"username"`
	Role     entities.StaffRole `json:"role"`
	LoginAt  time.Time          `json:"login_at"`
}

// GetSessionData returns nil for unauthenticated sessions.
func (sm *SessionManager) GetSessionData(r *http.Request) *SessionData {
	staffID := sm.GetStaffID(r)
	if staffID == 0 {
		return nil
	}

	loginAt, _ := sm.Get(r.Context(), SessionKeyLoginAt).(time.Time)

	return &SessionData{
		StaffID:  staffID,
		Username: sm.GetString(r.Context(), SessionKeyUsername),
		Role:     sm.GetStaffRole(r),
		LoginAt:  loginAt,
	}
}
