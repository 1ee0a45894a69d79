package auth

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mrlokans/library-manager/internal/config"
	"github.com/mrlokans/library-manager/internal/entities"
)

const testPassword = "correct-horse-battery"

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "auth.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.Staff{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func testAuthConfig(mode config.AuthMode) config.Auth {
	return config.Auth{
		Mode:             mode,
		BcryptCost:       4,
		SessionLifetime:  time.Hour,
		MaxLoginAttempts: 3,
		LockoutDuration:  time.Minute,
		RateLimitWindow:  time.Minute,
	}
}

func createTestStaff(t *testing.T, svc *Service, username string, role entities.StaffRole) *entities.Staff {
	t.Helper()
	staff, err := svc.CreateStaff(context.Background(), username, username+"@library.test", testPassword, role)
	require.NoError(t, err)
	return staff
}
