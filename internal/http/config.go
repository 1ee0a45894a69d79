package http

import (
	"github.com/charmbracelet/log"

	"github.com/mrlokans/library-manager/internal/auth"
	"github.com/mrlokans/library-manager/internal/config"
)

// RouterConfig contains all dependencies needed to build the HTTP router.
// Optional dependencies left nil disable their routes.
type RouterConfig struct {
	Books      BookStore
	Authors    AuthorStore
	Categories CategoryStore
	Users      UserStore
	Borrows    BorrowStore
	Reports    ReportStore

	// Audit trail
	AuditRecorder ChangeRecorder
	AuditReader   AuditReader
	// Retention handed to on-demand audit cleanup tasks
	AuditRetentionDays int

	// Task queue (optional)
	TaskQueue TaskQueue

	// Health
	Database  Pinger
	Version   string
	Scheduler ScheduleInfo
	JobNames  []string

	// Authentication (optional, local mode only)
	AuthConfig     config.Auth
	AuthService    *auth.Service
	SessionManager *auth.SessionManager
	AuthRecorder   auth.AuthRecorder
	CSRFSecret     []byte

	DemoMode        bool
	DefaultPageSize int
	RateLimit       config.RateLimit
	Logger          *log.Logger
}
