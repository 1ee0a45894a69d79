package entities

import "time"

type StaffRole string

const (
	StaffRoleAdmin     StaffRole = "admin"
	StaffRoleLibrarian StaffRole = "librarian"
	StaffRoleViewer    StaffRole = "viewer"
)

// Staff is an account allowed to operate the service when AUTH_MODE=local.
type Staff struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Username         string     `gorm:"uniqueIndex;size:100;not null" json:"username"`
	Email            string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash     string     `gorm:"size:255" json:"-"`
	Role             StaffRole  `gorm:"size:20;not null;default:viewer" json:"role"`
	TokenHash        string     `gorm:"index;size:64" json:"-"`
	TokenCreatedAt   *time.Time `json:"-"`
	FailedLoginCount int        `gorm:"default:0" json:"-"`
	LockedUntil      *time.Time `json:"-"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (Staff) TableName() string {
	return "staff"
}

// CanWrite reports whether the role may mutate library records.
func (r StaffRole) CanWrite() bool {
	return r == StaffRoleAdmin || r == StaffRoleLibrarian
}

// Valid reports whether r is one of the known roles.
func (r StaffRole) Valid() bool {
	switch r {
	case StaffRoleAdmin, StaffRoleLibrarian, StaffRoleViewer:
		return true
	}
	return false
}
