// Package database provides the data access layer for the library.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup (sqlite or postgres), migrations
//	├── errors.go        # Business error kinds shared by all repositories
//	├── scopes.go        # Pagination and transaction helpers
//	├── links/           # book↔author and book↔category link tables
//	├── books/           # Book records, relationship resolution, search
//	├── authors/         # Author records
//	├── categories/      # Category records
//	├── users/           # Library patrons
//	├── borrows/         # Borrow and return records, overdue sweep
//	├── reports/         # Most-popular aggregations (goqu + sqlx)
//	├── staff/           # Staff accounts used by local auth
//	└── audit/           # Audit trail
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type bound to a *gorm.DB:
//
//	db, err := database.NewDatabase(cfg.Database)
//
//	linkRepo := links.NewRepository(db.DB)
//	bookRepo := books.NewRepository(db.DB, linkRepo)
//	book, err := bookRepo.Get(ctx, 42)
//
// Every operation takes a context and runs in exactly one transaction.
// Business failures are returned as *database.Error values; use errors.Is
// against ErrNotFound, ErrConflict, ErrInvalidReference, ErrInvalid or ErrNoData.
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Add the model to Models in database.go
//  5. Add compile-time interface check in internal/interfaces/checks.go
package database
