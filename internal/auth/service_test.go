package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/library-manager/internal/config"
	"github.com/mrlokans/library-manager/internal/entities"
)

func TestService_CreateStaff(t *testing.T) {
	svc := NewService(setupTestDB(t), testAuthConfig(config.AuthModeLocal))
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		email    string
		password string
		role     entities.StaffRole
		wantErr  error
	}{
		{"valid admin", "admin", "admin@library.test", testPassword, entities.StaffRoleAdmin, nil},
		{"missing username", "", "a@library.test", testPassword, entities.StaffRoleViewer, ErrUsernameRequired},
		{"missing email", "clerk", "", testPassword, entities.StaffRoleViewer, ErrEmailRequired},
		{"missing password", "clerk", "clerk@library.test", "", entities.StaffRoleViewer, ErrPasswordRequired},
		{"short password", "clerk", "clerk@library.test", "short", entities.StaffRoleViewer, ErrPasswordTooShort},
		{"bad username", "a b", "clerk@library.test", testPassword, entities.StaffRoleViewer, ErrUsernameInvalid},
		{"bad email", "clerk", "not-an-email", testPassword, entities.StaffRoleViewer, ErrEmailInvalid},
		{"unknown role", "clerk", "clerk@library.test", testPassword, entities.StaffRole("janitor"), ErrInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			staff, err := svc.CreateStaff(ctx, tt.username, tt.email, tt.password, tt.role)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, staff)
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, staff.ID)
			assert.Equal(t, tt.role, staff.Role)
			assert.NotEqual(t, tt.password, staff.PasswordHash)
		})
	}
}

func TestService_CreateStaff_Duplicate(t *testing.T) {
	svc := NewService(setupTestDB(t), testAuthConfig(config.AuthModeLocal))
	createTestStaff(t, svc, "librarian", entities.StaffRoleLibrarian)

	_, err := svc.CreateStaff(context.Background(), "librarian", "other@library.test", testPassword, entities.StaffRoleViewer)
	assert.ErrorIs(t, err, ErrStaffExists)

	_, err = svc.CreateStaff(context.Background(), "other", "librarian@library.test", testPassword, entities.StaffRoleViewer)
	assert.ErrorIs(t, err, ErrStaffExists)
}

func TestService_Authenticate(t *testing.T) {
	svc := NewService(setupTestDB(t), testAuthConfig(config.AuthModeLocal))
	ctx := context.Background()
	created := createTestStaff(t, svc, "librarian", entities.StaffRoleLibrarian)

	staff, err := svc.Authenticate(ctx, "librarian", testPassword)
	require.NoError(t, err)
	assert.Equal(t, created.ID, staff.ID)
	assert.NotNil(t, staff.LastLoginAt)

	staff, err = svc.Authenticate(ctx, "librarian@library.test", testPassword)
	require.NoError(t, err)
	assert.Equal(t, created.ID, staff.ID)

	_, err = svc.Authenticate(ctx, "librarian", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	_, err = svc.Authenticate(ctx, "nobody", testPassword)
	assert.ErrorIs(t, err, ErrStaffNotFound)
}

func TestService_Authenticate_LocksAfterFailures(t *testing.T) {
	svc := NewService(setupTestDB(t), testAuthConfig(config.AuthModeLocal))
	ctx := context.Background()
	createTestStaff(t, svc, "librarian", entities.StaffRoleLibrarian)

	for i := 0; i < 3; i++ {
		_, err := svc.Authenticate(ctx, "librarian", "wrong-password")
		assert.ErrorIs(t, err, ErrInvalidPassword)
	}

	_, err := svc.Authenticate(ctx, "librarian", testPassword)
	assert.ErrorIs(t, err, ErrAccountLocked)

	// Lock expires
	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = svc.Authenticate(ctx, "librarian", testPassword)
	assert.NoError(t, err)
}

func TestService_TokenOperations(t *testing.T) {
	svc := NewService(setupTestDB(t), testAuthConfig(config.AuthModeLocal))
	ctx := context.Background()
	staff := createTestStaff(t, svc, "librarian", entities.StaffRoleLibrarian)

	token, err := svc.GenerateToken(ctx, staff.ID)
	require.NoError(t, err)
	assert.Len(t, token, 64)

	validated, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, staff.ID, validated.ID)

	_, err = svc.ValidateToken(ctx, "bogus")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = svc.ValidateToken(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidToken)

	require.NoError(t, svc.RevokeToken(ctx, staff.ID))
	_, err = svc.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.GenerateToken(ctx, 9999)
	assert.ErrorIs(t, err, ErrStaffNotFound)
}

func TestService_TokenExpiry(t *testing.T) {
	cfg := testAuthConfig(config.AuthModeLocal)
	cfg.TokenExpiry = time.Hour
	svc := NewService(setupTestDB(t), cfg)
	ctx := context.Background()
	staff := createTestStaff(t, svc, "librarian", entities.StaffRoleLibrarian)

	token, err := svc.GenerateToken(ctx, staff.ID)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestService_ChangePassword(t *testing.T) {
	svc := NewService(setupTestDB(t), testAuthConfig(config.AuthModeLocal))
	ctx := context.Background()
	staff := createTestStaff(t, svc, "librarian", entities.StaffRoleLibrarian)

	err := svc.ChangePassword(ctx, staff.ID, "wrong-password", "brand-new-password")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	require.NoError(t, svc.ChangePassword(ctx, staff.ID, testPassword, "brand-new-password"))

	_, err = svc.Authenticate(ctx, "librarian", "brand-new-password")
	assert.NoError(t, err)
}

func TestService_HasStaff(t *testing.T) {
	svc := NewService(setupTestDB(t), testAuthConfig(config.AuthModeLocal))
	ctx := context.Background()

	has, err := svc.HasStaff(ctx)
	require.NoError(t, err)
	assert.False(t, has)

	createTestStaff(t, svc, "admin", entities.StaffRoleAdmin)

	has, err = svc.HasStaff(ctx)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestService_IsAuthEnabled(t *testing.T) {
	db := setupTestDB(t)
	assert.False(t, NewService(db, testAuthConfig(config.AuthModeNone)).IsAuthEnabled())
	assert.True(t, NewService(db, testAuthConfig(config.AuthModeLocal)).IsAuthEnabled())
}
