package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/scs/v2/memstore"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/library-manager/internal/config"
	"github.com/mrlokans/library-manager/internal/entities"
)

func setupSessionManager(t *testing.T, driver string, cfg config.Auth) *SessionManager {
	t.Helper()
	sqlDB, err := setupTestDB(t).DB()
	require.NoError(t, err)

	sm, err := NewSessionManager(sqlDB, driver, cfg)
	require.NoError(t, err)
	return sm
}

func TestNewSessionManager(t *testing.T) {
	sm := setupSessionManager(t, config.DriverSQLite, testAuthConfig(config.AuthModeLocal))

	assert.Equal(t, "session", sm.Cookie.Name)
	assert.True(t, sm.Cookie.HttpOnly)
	assert.False(t, sm.Cookie.Secure)
	assert.Equal(t, http.SameSiteStrictMode, sm.Cookie.SameSite)

	cfg := testAuthConfig(config.AuthModeLocal)
	cfg.SecureCookies = true
	secure := setupSessionManager(t, config.DriverPostgres, cfg)
	assert.True(t, secure.Cookie.Secure)
	assert.IsType(t, &memstore.MemStore{}, secure.Store)
}

func TestSessionManager_CreateAndRead(t *testing.T) {
	sm := setupSessionManager(t, config.DriverSQLite, testAuthConfig(config.AuthModeLocal))
	staff := &entities.Staff{ID: 42, Username: "librarian", Role: entities.StaffRoleLibrarian}

	handler := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, sm.IsAuthenticated(r))
		require.NoError(t, sm.CreateSession(r, staff))

		assert.True(t, sm.IsAuthenticated(r))
		assert.Equal(t, staff.ID, sm.GetStaffID(r))
		assert.Equal(t, staff.Role, sm.GetStaffRole(r))

		data := sm.GetSessionData(r)
		require.NotNil(t, data)
		assert.Equal(t, "librarian", data.Username)
		assert.False(t, data.LoginAt.IsZero())

		require.NoError(t, sm.DestroySession(r))
		assert.False(t, sm.IsAuthenticated(r))
		assert.Nil(t, sm.GetSessionData(r))
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestSessionLoadSave_PersistsAcrossRequests(t *testing.T) {
	sm := setupSessionManager(t, config.DriverSQLite, testAuthConfig(config.AuthModeLocal))
	staff := &entities.Staff{ID: 7, Username: "clerk", Role: entities.StaffRoleViewer}

	router := gin.New()
	router.Use(sm.SessionLoadSave())
	router.POST("/login", func(c *gin.Context) {
		require.NoError(t, sm.CreateSession(c.Request, staff))
		c.Status(http.StatusNoContent)
	})
	router.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"staff_id": sm.GetStaffID(c.Request)})
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/login", nil))
	require.Equal(t, http.StatusNoContent, rr.Code)

	cookies := rr.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.JSONEq(t, `{"staff_id":7}`, rr.Body.String())
}
