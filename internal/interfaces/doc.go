// Package interfaces documents the core abstractions used throughout the application.
//
// It holds no runtime code. checks.go pins every concrete type to the
// interfaces it is consumed through, so a signature drift fails the build.
//
// # Interface Categories
//
// ## Record Managers
//
//   - BookStore, AuthorStore, CategoryStore, UserStore, BorrowStore:
//     CRUD used by the REST controllers (internal/http/stores.go)
//   - ReportStore: popularity rankings (internal/http/stores.go)
//   - Ranker: the same rankings for the report command (internal/cli/report.go)
//   - AuthorCreator, BookCreator, ...: fixture loading (internal/seed/seed.go)
//
// ## Audit Trail
//
//   - ChangeRecorder: one record per successful mutation (internal/http/stores.go)
//   - AuditReader: filtered event listing (internal/http/stores.go)
//   - AuthRecorder: login and token events (internal/auth/handlers.go)
//   - TaskRecorder: background task outcomes (internal/tasks/mark_overdue.go)
//
// ## Background Work
//
//   - TaskQueue: on-demand task enqueueing and status (internal/http/stores.go)
//   - Enqueuer: cron-driven enqueueing (internal/scheduler/scheduler.go)
//   - OverdueMarker: overdue sweep (internal/tasks/mark_overdue.go)
//   - AuditEventCleaner: retention cleanup (internal/tasks/cleanup_audit.go)
//
// # Adding a New Record Type
//
// To add a new data domain (e.g., reservations):
//
//  1. Add the entity to internal/entities and to database.Models.
//
//  2. Create sub-package internal/database/reservations/ with a repository
//     that returns *database.Error values for lookup and validation failures:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Declare the store interface next to its controller in internal/http/
//     and register the routes in router.go, wrapping mutations with the
//     writer middleware.
//
//  4. Add compile-time check:
//
//     var _ http.ReservationStore = (*reservations.Repository)(nil)
//
// # Adding a New Background Task
//
//  1. Define the task struct and its queue in internal/tasks/ and add the
//     type name to Types and NewTask in registry.go.
//
//  2. Register the queue in entrypoint.Run and, if it should run on a
//     schedule, add a scheduler.Job in scheduledJobs.
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for examples.
package interfaces
