package entrypoint

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/mrlokans/library-manager/internal/audit"
	"github.com/mrlokans/library-manager/internal/config"
	"github.com/mrlokans/library-manager/internal/database"
	dbaudit "github.com/mrlokans/library-manager/internal/database/audit"
	"github.com/mrlokans/library-manager/internal/database/authors"
	"github.com/mrlokans/library-manager/internal/database/books"
	"github.com/mrlokans/library-manager/internal/database/borrows"
	"github.com/mrlokans/library-manager/internal/database/categories"
	"github.com/mrlokans/library-manager/internal/database/links"
	"github.com/mrlokans/library-manager/internal/database/reports"
	"github.com/mrlokans/library-manager/internal/database/users"
)

// App bundles the store and the record managers built on it. The server and
// every CLI command start from one.
type App struct {
	Config *config.Config
	Logger *log.Logger
	DB     *database.Database

	Books      *books.Repository
	Authors    *authors.Repository
	Categories *categories.Repository
	Users      *users.Repository
	Borrows    *borrows.Repository
	Reports    *reports.Repository

	// Audit is nil when auditing is disabled.
	Audit *audit.Service
}

// Open connects to the configured store, migrates it and builds the record managers.
func Open(cfg *config.Config, logger *log.Logger) (*App, error) {
	db, err := database.NewDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	linkRepo := links.NewRepository(db.DB)
	reportRepo, err := reports.NewRepository(db.DB)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize reports: %w", err)
	}

	app := &App{
		Config:     cfg,
		Logger:     logger,
		DB:         db,
		Books:      books.NewRepository(db.DB, linkRepo),
		Authors:    authors.NewRepository(db.DB, linkRepo),
		Categories: categories.NewRepository(db.DB, linkRepo),
		Users:      users.NewRepository(db.DB),
		Borrows: borrows.NewRepository(db.DB, borrows.Options{
			LoanPeriod:          cfg.Library.LoanPeriod,
			EnforceAvailability: cfg.Library.EnforceAvailability,
		}),
		Reports: reportRepo,
	}

	if cfg.Audit.Enabled {
		var archiver *audit.Archiver
		if cfg.Audit.ArchiveDir != "" {
			archiver = audit.NewArchiver(cfg.Audit.ArchiveDir)
		}
		app.Audit = audit.NewService(dbaudit.NewRepository(db.DB), archiver)
	}

	return app, nil
}

// Close flushes pending audit writes and closes the store.
func (a *App) Close() error {
	if a.Audit != nil {
		a.Audit.Wait()
	}
	return a.DB.Close()
}
