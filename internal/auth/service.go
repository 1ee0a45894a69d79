package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/library-manager/internal/config"
	"github.com/mrlokans/library-manager/internal/entities"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,64}$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

var (
	ErrStaffNotFound    = errors.New("staff account not found")
	ErrStaffExists      = errors.New("staff account already exists")
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidRole      = errors.New("invalid role")
	ErrUsernameRequired = errors.New("username is required")
	ErrEmailRequired    = errors.New("email is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrAccountLocked    = errors.New("account is locked due to too many failed login attempts")
	ErrUsernameInvalid  = errors.New("username must be 3-64 characters, alphanumeric and underscore/hyphen only")
	ErrEmailInvalid     = errors.New("invalid email format")
)

// Service handles authentication and staff account management.
type Service struct {
	db     *gorm.DB
	config config.Auth
	now    func() time.Time
}

// NewService creates a new authentication service.
func NewService(db *gorm.DB, cfg config.Auth) *Service {
	return &Service{
		db:     db,
		config: cfg,
		now:    time.Now,
	}
}

// CreateStaff creates a staff account with password authentication.
func (s *Service) CreateStaff(ctx context.Context, username, email, password string, role entities.StaffRole) (*entities.Staff, error) {
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if email == "" {
		return nil, ErrEmailRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}
	if !usernamePattern.MatchString(username) {
		return nil, ErrUsernameInvalid
	}
	// RFC 5321 caps addresses at 254 characters.
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return nil, ErrEmailInvalid
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	db := s.db.WithContext(ctx)
	var existing entities.Staff
	err := db.Where("username = ? OR email = ?", username, email).First(&existing).Error
	if err == nil {
		return nil, ErrStaffExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing staff: %w", err)
	}

	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	staff := &entities.Staff{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
	}
	if err := db.Create(staff).Error; err != nil {
		return nil, fmt.Errorf("failed to create staff: %w", err)
	}
	return staff, nil
}

// Authenticate validates credentials and returns the staff account.
// Accounts lock after MaxLoginAttempts consecutive failures.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*entities.Staff, error) {
	db := s.db.WithContext(ctx)
	var staff entities.Staff
	err := db.Where("username = ? OR email = ?", username, username).First(&staff).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, fmt.Errorf("failed to find staff: %w", err)
	}

	if staff.LockedUntil != nil && s.now().Before(*staff.LockedUntil) {
		return nil, ErrAccountLocked
	}

	if err := CheckPassword(password, staff.PasswordHash); err != nil {
		s.recordFailedLogin(db, &staff)
		return nil, err
	}

	now := s.now()
	db.Model(&staff).Updates(map[string]any{
		"last_login_at":      now,
		"failed_login_count": 0,
		"locked_until":       nil,
	})
	staff.LastLoginAt = &now
	staff.FailedLoginCount = 0
	staff.LockedUntil = nil

	return &staff, nil
}

// recordFailedLogin increments the failed login counter and locks the account at the threshold.
func (s *Service) recordFailedLogin(db *gorm.DB, staff *entities.Staff) {
	staff.FailedLoginCount++

	updates := map[string]any{
		"failed_login_count": staff.FailedLoginCount,
	}

	maxAttempts := s.config.MaxLoginAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if staff.FailedLoginCount >= maxAttempts {
		lockoutDuration := s.config.LockoutDuration
		if lockoutDuration == 0 {
			lockoutDuration = 30 * time.Minute
		}
		updates["locked_until"] = s.now().Add(lockoutDuration)
	}

	db.Model(staff).Updates(updates)
}

// GetStaffByID retrieves a staff account by its ID.
func (s *Service) GetStaffByID(ctx context.Context, id uint) (*entities.Staff, error) {
	var staff entities.Staff
	err := s.db.WithContext(ctx).First(&staff, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, err
	}
	return &staff, nil
}

// ValidateToken checks a plaintext API token and returns its staff account.
func (s *Service) ValidateToken(ctx context.Context, token string) (*entities.Staff, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	var staff entities.Staff
	err := s.db.WithContext(ctx).Where("token_hash = ?", HashToken(token)).First(&staff).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if s.config.TokenExpiry > 0 && staff.TokenCreatedAt != nil {
		if s.now().Sub(*staff.TokenCreatedAt) > s.config.TokenExpiry {
			return nil, ErrTokenExpired
		}
	}

	return &staff, nil
}

// GenerateToken creates a new API token for a staff account, replacing any previous one.
// Only the hash is stored; the plaintext is returned once.
func (s *Service) GenerateToken(ctx context.Context, staffID uint) (string, error) {
	plaintext, hash, err := GenerateAPIToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	result := s.db.WithContext(ctx).Model(&entities.Staff{}).Where("id = ?", staffID).Updates(map[string]any{
		"token_hash":       hash,
		"token_created_at": s.now(),
	})
	if result.Error != nil {
		return "", fmt.Errorf("failed to save token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return "", ErrStaffNotFound
	}

	return plaintext, nil
}

// RevokeToken removes a staff account's API token.
func (s *Service) RevokeToken(ctx context.Context, staffID uint) error {
	result := s.db.WithContext(ctx).Model(&entities.Staff{}).Where("id = ?", staffID).Updates(map[string]any{
		"token_hash":       "",
		"token_created_at": nil,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to revoke token: %w", result.Error)
	}
	return nil
}

// ChangePassword updates a staff account's password after verifying the old one.
func (s *Service) ChangePassword(ctx context.Context, staffID uint, oldPassword, newPassword string) error {
	staff, err := s.GetStaffByID(ctx, staffID)
	if err != nil {
		return err
	}

	if err := CheckPassword(oldPassword, staff.PasswordHash); err != nil {
		return err
	}

	newHash, err := HashPassword(newPassword, s.config.BcryptCost)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Model(staff).Update("password_hash", newHash).Error
}

// HasStaff returns true if any staff account exists.
func (s *Service) HasStaff(ctx context.Context) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&entities.Staff{}).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// IsAuthEnabled returns true if authentication is required.
func (s *Service) IsAuthEnabled() bool {
	return s.config.Mode == config.AuthModeLocal
}
