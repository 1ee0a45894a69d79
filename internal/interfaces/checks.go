package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/library-manager/internal/audit"
	"github.com/mrlokans/library-manager/internal/auth"
	"github.com/mrlokans/library-manager/internal/cli"
	"github.com/mrlokans/library-manager/internal/database"
	"github.com/mrlokans/library-manager/internal/database/authors"
	"github.com/mrlokans/library-manager/internal/database/books"
	"github.com/mrlokans/library-manager/internal/database/borrows"
	"github.com/mrlokans/library-manager/internal/database/categories"
	"github.com/mrlokans/library-manager/internal/database/reports"
	"github.com/mrlokans/library-manager/internal/database/users"
	"github.com/mrlokans/library-manager/internal/http"
	"github.com/mrlokans/library-manager/internal/scheduler"
	"github.com/mrlokans/library-manager/internal/seed"
	"github.com/mrlokans/library-manager/internal/tasks"
)

// =============================================================================
// Record Managers
// =============================================================================

var _ http.BookStore = (*books.Repository)(nil)
var _ http.AuthorStore = (*authors.Repository)(nil)
var _ http.CategoryStore = (*categories.Repository)(nil)
var _ http.UserStore = (*users.Repository)(nil)
var _ http.BorrowStore = (*borrows.Repository)(nil)

// Popularity rankings
var _ http.ReportStore = (*reports.Repository)(nil)
var _ cli.Ranker = (*reports.Repository)(nil)

// Fixture loading goes through the same repositories
var _ seed.AuthorCreator = (*authors.Repository)(nil)
var _ seed.CategoryCreator = (*categories.Repository)(nil)
var _ seed.BookCreator = (*books.Repository)(nil)
var _ seed.UserCreator = (*users.Repository)(nil)
var _ seed.BorrowCreator = (*borrows.Repository)(nil)

// =============================================================================
// Audit Trail
// =============================================================================

var _ http.ChangeRecorder = (*audit.Service)(nil)
var _ http.AuditReader = (*audit.Service)(nil)
var _ auth.AuthRecorder = (*audit.Service)(nil)
var _ tasks.TaskRecorder = (*audit.Service)(nil)
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ http.TaskQueue = (*tasks.Client)(nil)
var _ scheduler.Enqueuer = (*tasks.Client)(nil)
var _ tasks.OverdueMarker = (*borrows.Repository)(nil)

// =============================================================================
// Health
// =============================================================================

var _ http.Pinger = (*database.Database)(nil)
var _ http.ScheduleInfo = (*scheduler.Scheduler)(nil)
